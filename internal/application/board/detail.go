package board

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/kanban/internal/domain/ticket"
)

// recentActivityCount is how many activities the collapsed log shows.
const recentActivityCount = 2

// TicketDetail is everything the ticket dialog shows.
type TicketDetail struct {
	Ticket      ticket.Ticket
	Comments    []ticket.Comment
	Activities  []ticket.Activity
	Attachments []ticket.Attachment
}

// Detail loads a ticket with its comments, activity log and attachments.
func (c *Controller) Detail(ctx context.Context, id ticket.ID) (*TicketDetail, error) {
	ctx, done := c.bind(ctx)
	defer done()

	// Each goroutine writes to a distinct field; Wait orders the writes
	// before the read below.
	var d TicketDetail
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := c.gateway.GetTicket(gctx, id)
		if err != nil {
			return fmt.Errorf("get ticket: %w", err)
		}
		d.Ticket = *t
		return nil
	})
	g.Go(func() error {
		comments, err := c.gateway.ListComments(gctx, id)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		d.Comments = comments
		return nil
	})
	g.Go(func() error {
		activities, err := c.gateway.ListActivities(gctx, id)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		d.Activities = activities
		return nil
	})
	g.Go(func() error {
		attachments, err := c.gateway.ListAttachments(gctx, id)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}
		d.Attachments = attachments
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Warnw("failed to load ticket detail", "ticket_id", id, "error", err)
		return nil, err
	}
	return &d, nil
}

// AddComment posts a comment. Author and text must both be non-blank;
// otherwise nothing is sent.
func (c *Controller) AddComment(ctx context.Context, ticketID ticket.ID, author, text string) bool {
	if strings.TrimSpace(author) == "" || strings.TrimSpace(text) == "" {
		c.notify(MsgCommentRequired, false)
		return false
	}
	if ticketID.IsZero() {
		c.notify(MsgTicketIDMissing, false)
		return false
	}

	ctx, done := c.bind(ctx)
	defer done()

	if _, err := c.gateway.AddComment(ctx, ticketID, author, text); err != nil {
		c.logger.Errorw("failed to add comment", "ticket_id", ticketID, "error", err)
		c.fail(MsgCommentFailed, err)
		return false
	}
	c.notify(MsgCommentAdded, true)

	if _, err := c.gateway.ListComments(ctx, ticketID); err != nil {
		c.logger.Warnw("failed to refresh comments", "ticket_id", ticketID, "error", err)
	}
	if _, err := c.gateway.ListActivities(ctx, ticketID); err != nil {
		c.logger.Warnw("failed to refresh activities", "ticket_id", ticketID, "error", err)
	}
	return true
}

// UploadAttachment sends content as a new attachment of the ticket.
func (c *Controller) UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) bool {
	ctx, done := c.bind(ctx)
	defer done()

	if _, err := c.gateway.UploadAttachment(ctx, ticketID, filename, content); err != nil {
		c.logger.Errorw("failed to upload attachment",
			"ticket_id", ticketID,
			"filename", filename,
			"error", err,
		)
		c.fail(MsgUploadFailed, err)
		return false
	}
	c.notify(MsgFileUploaded, true)

	if _, err := c.gateway.ListAttachments(ctx, ticketID); err != nil {
		c.logger.Warnw("failed to refresh attachments", "ticket_id", ticketID, "error", err)
	}
	return true
}

func (c *Controller) DeleteAttachment(ctx context.Context, attachmentID ticket.ID) bool {
	ctx, done := c.bind(ctx)
	defer done()

	if err := c.gateway.DeleteAttachment(ctx, attachmentID); err != nil {
		c.logger.Errorw("failed to delete attachment", "attachment_id", attachmentID, "error", err)
		c.fail(MsgDeleteAttachFailed, err)
		return false
	}
	c.notify(MsgAttachmentDeleted, true)
	return true
}

// RecentActivities returns the log newest first: the latest two entries,
// or every entry when showAll is set. The server lists activities oldest
// first.
func RecentActivities(activities []ticket.Activity, showAll bool) []ticket.Activity {
	n := len(activities)
	if !showAll && n > recentActivityCount {
		n = recentActivityCount
	}
	out := make([]ticket.Activity, 0, n)
	for i := len(activities) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, activities[i])
	}
	return out
}

// HasHiddenActivities reports whether the collapsed log hides entries.
func HasHiddenActivities(activities []ticket.Activity) bool {
	return len(activities) > recentActivityCount
}
