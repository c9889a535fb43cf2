// Package gateway exposes the ticket API through the query cache. Reads are
// served from cache until a mutation invalidates the tags they carry.
package gateway

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	"github.com/orris-inc/kanban/internal/infrastructure/cache"
	"github.com/orris-inc/kanban/internal/shared/logger"
)

// API is the raw REST surface the gateway caches.
type API interface {
	ListTickets(ctx context.Context) ([]ticket.Ticket, error)
	GetTicket(ctx context.Context, id ticket.ID) (*ticket.Ticket, error)
	CreateTicket(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error)
	UpdateTicket(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error)
	DeleteTicket(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error)
	ListComments(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error)
	AddComment(ctx context.Context, ticketID ticket.ID, in ticket.CommentInput) (*ticket.Comment, error)
	ListActivities(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error)
	ListAttachments(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error)
	UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID ticket.ID) error
}

const (
	tagTicketList  cache.Tag = "ticket:LIST"
	tagAttachments cache.Tag = "attachments"

	keyTickets = "tickets"
)

func ticketTag(id ticket.ID) cache.Tag      { return cache.Tag("ticket:" + id.String()) }
func commentsTag(id ticket.ID) cache.Tag    { return cache.Tag("comments:" + id.String()) }
func activitiesTag(id ticket.ID) cache.Tag  { return cache.Tag("activities:" + id.String()) }
func attachmentsTag(id ticket.ID) cache.Tag { return cache.Tag("attachments:" + id.String()) }

func ticketKey(id ticket.ID) string      { return "ticket/" + id.String() }
func commentsKey(id ticket.ID) string    { return ticketKey(id) + "/comments" }
func activitiesKey(id ticket.ID) string  { return ticketKey(id) + "/activities" }
func attachmentsKey(id ticket.ID) string { return ticketKey(id) + "/attachments" }

// Gateway is safe for concurrent use.
type Gateway struct {
	api    API
	cache  *cache.QueryCache
	logger logger.Interface

	mu     sync.Mutex
	owners map[ticket.ID]ticket.ID // attachment id -> ticket id
}

func New(api API, c *cache.QueryCache, log logger.Interface) *Gateway {
	if c == nil {
		c = cache.NewQueryCache()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Gateway{
		api:    api,
		cache:  c,
		logger: log,
		owners: make(map[ticket.ID]ticket.ID),
	}
}

func (g *Gateway) ticketsQuery() cache.Query[[]ticket.Ticket] {
	return cache.Query[[]ticket.Ticket]{
		Key:  keyTickets,
		Tags: []cache.Tag{tagTicketList},
		TagsOf: func(list []ticket.Ticket) []cache.Tag {
			tags := make([]cache.Tag, 0, len(list))
			for _, t := range list {
				tags = append(tags, ticketTag(t.ID))
			}
			return tags
		},
		Fetch: g.api.ListTickets,
	}
}

// ListTickets returns the ticket list, from cache when fresh.
func (g *Gateway) ListTickets(ctx context.Context) ([]ticket.Ticket, error) {
	list, err := cache.Get(ctx, g.cache, g.ticketsQuery())
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

// RefetchTickets reads the list from the network regardless of cache state.
func (g *Gateway) RefetchTickets(ctx context.Context) ([]ticket.Ticket, error) {
	list, err := cache.Refresh(ctx, g.cache, g.ticketsQuery())
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

func (g *Gateway) GetTicket(ctx context.Context, id ticket.ID) (*ticket.Ticket, error) {
	t, err := cache.Get(ctx, g.cache, cache.Query[*ticket.Ticket]{
		Key:  ticketKey(id),
		Tags: []cache.Tag{ticketTag(id)},
		Fetch: func(ctx context.Context) (*ticket.Ticket, error) {
			return g.api.GetTicket(ctx, id)
		},
	})
	if err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (g *Gateway) CreateTicket(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error) {
	t, err := g.api.CreateTicket(ctx, in)
	if err != nil {
		return nil, err
	}
	g.invalidate("create ticket", tagTicketList)
	return t, nil
}

func (g *Gateway) UpdateTicket(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error) {
	t, err := g.api.UpdateTicket(ctx, id, in)
	if err != nil {
		return nil, err
	}
	g.invalidate("update ticket", ticketTag(id), tagTicketList)
	return t, nil
}

func (g *Gateway) DeleteTicket(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error) {
	res, err := g.api.DeleteTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	g.invalidate("delete ticket", ticketTag(id), tagTicketList)
	return res, nil
}

func (g *Gateway) ListComments(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error) {
	list, err := cache.Get(ctx, g.cache, cache.Query[[]ticket.Comment]{
		Key:  commentsKey(ticketID),
		Tags: []cache.Tag{commentsTag(ticketID)},
		Fetch: func(ctx context.Context) ([]ticket.Comment, error) {
			return g.api.ListComments(ctx, ticketID)
		},
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

// AddComment posts a comment. The server logs a comment_added activity as
// a side effect, so the ticket's activity log is invalidated as well.
func (g *Gateway) AddComment(ctx context.Context, ticketID ticket.ID, author, text string) (*ticket.Comment, error) {
	c, err := g.api.AddComment(ctx, ticketID, ticket.CommentInput{Author: author, Text: text})
	if err != nil {
		return nil, err
	}
	g.invalidate("add comment", commentsTag(ticketID), activitiesTag(ticketID))
	return c, nil
}

func (g *Gateway) ListActivities(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error) {
	list, err := cache.Get(ctx, g.cache, cache.Query[[]ticket.Activity]{
		Key:  activitiesKey(ticketID),
		Tags: []cache.Tag{activitiesTag(ticketID), ticketTag(ticketID)},
		Fetch: func(ctx context.Context) ([]ticket.Activity, error) {
			return g.api.ListActivities(ctx, ticketID)
		},
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

func (g *Gateway) ListAttachments(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error) {
	list, err := cache.Get(ctx, g.cache, cache.Query[[]ticket.Attachment]{
		Key:  attachmentsKey(ticketID),
		Tags: []cache.Tag{tagAttachments, attachmentsTag(ticketID)},
		Fetch: func(ctx context.Context) ([]ticket.Attachment, error) {
			list, err := g.api.ListAttachments(ctx, ticketID)
			if err == nil {
				g.rememberOwners(ticketID, list...)
			}
			return list, err
		},
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

func (g *Gateway) UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error) {
	att, err := g.api.UploadAttachment(ctx, ticketID, filename, content)
	if err != nil {
		return nil, err
	}
	g.rememberOwners(ticketID, *att)
	g.invalidate("upload attachment", attachmentsTag(ticketID))
	return att, nil
}

// DeleteAttachment removes an attachment. When the owning ticket is unknown
// every attachments entry is invalidated.
func (g *Gateway) DeleteAttachment(ctx context.Context, attachmentID ticket.ID) error {
	if err := g.api.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}

	g.mu.Lock()
	owner, known := g.owners[attachmentID]
	delete(g.owners, attachmentID)
	g.mu.Unlock()

	if known {
		g.invalidate("delete attachment", attachmentsTag(owner))
	} else {
		g.invalidate("delete attachment", tagAttachments)
	}
	return nil
}

func (g *Gateway) rememberOwners(ticketID ticket.ID, atts ...ticket.Attachment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range atts {
		g.owners[a.ID] = ticketID
	}
}

func (g *Gateway) invalidate(op string, tags ...cache.Tag) {
	keys := g.cache.Invalidate(tags...)
	g.logger.Debugw("cache invalidated", "operation", op, "tags", tags, "keys", keys)
}
