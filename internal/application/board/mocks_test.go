package board

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
)

// boardFixture returns one ticket per stage.
func boardFixture() []ticket.Ticket {
	return []ticket.Ticket{
		{ID: "1", TicketNumber: "TICKET-1", Title: "Fix login bug", Description: "Users cannot sign in", Status: vo.StageToDo, Assignee: "Ann", Priority: vo.PriorityHigh},
		{ID: "2", TicketNumber: "TICKET-2", Title: "Add dark mode", Description: "Theme toggle in settings", Status: vo.StageInProgress, Assignee: "Bob", Priority: vo.PriorityMedium},
		{ID: "3", TicketNumber: "TICKET-3", Title: "Write release notes", Description: "Summarise changes for 1.2", Status: vo.StageReview, Assignee: "Ann", Priority: vo.PriorityLow},
		{ID: "4", TicketNumber: "TICKET-4", Title: "Upgrade database", Description: "Move to the new cluster", Status: vo.StageDone, Assignee: "Cleo", Priority: vo.PriorityCritical},
	}
}

type updateCall struct {
	ID    ticket.ID
	Input ticket.TicketInput
}

// mockGateway serves tickets from memory unless a func field overrides the
// call. Every call is counted by method name.
type mockGateway struct {
	mu      sync.Mutex
	calls   map[string]int
	tickets []ticket.Ticket
	created []ticket.TicketInput
	updated []updateCall
	deleted []ticket.ID

	listTicketsFunc      func(ctx context.Context) ([]ticket.Ticket, error)
	refetchTicketsFunc   func(ctx context.Context) ([]ticket.Ticket, error)
	getTicketFunc        func(ctx context.Context, id ticket.ID) (*ticket.Ticket, error)
	createTicketFunc     func(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error)
	updateTicketFunc     func(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error)
	deleteTicketFunc     func(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error)
	listCommentsFunc     func(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error)
	addCommentFunc       func(ctx context.Context, ticketID ticket.ID, author, text string) (*ticket.Comment, error)
	listActivitiesFunc   func(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error)
	listAttachmentsFunc  func(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error)
	uploadAttachmentFunc func(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error)
	deleteAttachFunc     func(ctx context.Context, attachmentID ticket.ID) error
}

func newMockGateway(tickets ...ticket.Ticket) *mockGateway {
	return &mockGateway{
		calls:   make(map[string]int),
		tickets: tickets,
	}
}

func (m *mockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockGateway) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockGateway) snapshot() []ticket.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ticket.Ticket(nil), m.tickets...)
}

func (m *mockGateway) ListTickets(ctx context.Context) ([]ticket.Ticket, error) {
	m.record("ListTickets")
	if m.listTicketsFunc != nil {
		return m.listTicketsFunc(ctx)
	}
	return m.snapshot(), nil
}

func (m *mockGateway) RefetchTickets(ctx context.Context) ([]ticket.Ticket, error) {
	m.record("RefetchTickets")
	if m.refetchTicketsFunc != nil {
		return m.refetchTicketsFunc(ctx)
	}
	return m.snapshot(), nil
}

func (m *mockGateway) GetTicket(ctx context.Context, id ticket.ID) (*ticket.Ticket, error) {
	m.record("GetTicket")
	if m.getTicketFunc != nil {
		return m.getTicketFunc(ctx, id)
	}
	for _, t := range m.snapshot() {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, errors.New("ticket not found")
}

func (m *mockGateway) CreateTicket(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error) {
	m.record("CreateTicket")
	if m.createTicketFunc != nil {
		return m.createTicketFunc(ctx, in)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	t := ticket.Ticket{
		ID:          ticket.ID("new"),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Assignee:    in.Assignee,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   time.Now(),
	}
	m.tickets = append(m.tickets, t)
	return &t, nil
}

func (m *mockGateway) UpdateTicket(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error) {
	m.record("UpdateTicket")
	m.mu.Lock()
	m.updated = append(m.updated, updateCall{ID: id, Input: in})
	m.mu.Unlock()
	if m.updateTicketFunc != nil {
		return m.updateTicketFunc(ctx, id, in)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tickets {
		if t.ID == id {
			t.Title = in.Title
			t.Description = in.Description
			t.Status = in.Status
			t.Assignee = in.Assignee
			t.Priority = in.Priority
			t.DueDate = in.DueDate
			m.tickets[i] = t
			return &t, nil
		}
	}
	return &ticket.Ticket{ID: id}, nil
}

func (m *mockGateway) DeleteTicket(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error) {
	m.record("DeleteTicket")
	m.mu.Lock()
	m.deleted = append(m.deleted, id)
	m.mu.Unlock()
	if m.deleteTicketFunc != nil {
		return m.deleteTicketFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tickets[:0]
	for _, t := range m.tickets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.tickets = kept
	return &ticket.DeleteResult{Success: true, ID: id}, nil
}

func (m *mockGateway) ListComments(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error) {
	m.record("ListComments")
	if m.listCommentsFunc != nil {
		return m.listCommentsFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockGateway) AddComment(ctx context.Context, ticketID ticket.ID, author, text string) (*ticket.Comment, error) {
	m.record("AddComment")
	if m.addCommentFunc != nil {
		return m.addCommentFunc(ctx, ticketID, author, text)
	}
	return &ticket.Comment{ID: "c1", TicketID: ticketID, Author: author, Text: text}, nil
}

func (m *mockGateway) ListActivities(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error) {
	m.record("ListActivities")
	if m.listActivitiesFunc != nil {
		return m.listActivitiesFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockGateway) ListAttachments(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error) {
	m.record("ListAttachments")
	if m.listAttachmentsFunc != nil {
		return m.listAttachmentsFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockGateway) UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error) {
	m.record("UploadAttachment")
	if m.uploadAttachmentFunc != nil {
		return m.uploadAttachmentFunc(ctx, ticketID, filename, content)
	}
	return &ticket.Attachment{ID: "a1", TicketID: ticketID, Filename: filename}, nil
}

func (m *mockGateway) DeleteAttachment(ctx context.Context, attachmentID ticket.ID) error {
	m.record("DeleteAttachment")
	if m.deleteAttachFunc != nil {
		return m.deleteAttachFunc(ctx, attachmentID)
	}
	return nil
}

// mockScheduler records the registered job; tests fire it with run.
type mockScheduler struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	task     func(ctx context.Context)
	started  bool
	stopped  bool
	everyErr error
}

func (s *mockScheduler) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.everyErr != nil {
		return s.everyErr
	}
	s.name = name
	s.interval = interval
	s.task = task
	return nil
}

func (s *mockScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
}

func (s *mockScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *mockScheduler) run(ctx context.Context) {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()
	if task != nil {
		task(ctx)
	}
}
