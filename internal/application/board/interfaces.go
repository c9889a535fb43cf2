package board

import (
	"context"
	"io"
	"time"

	"github.com/orris-inc/kanban/internal/domain/ticket"
)

// Gateway is the cached ticket API the controller drives.
type Gateway interface {
	ListTickets(ctx context.Context) ([]ticket.Ticket, error)
	RefetchTickets(ctx context.Context) ([]ticket.Ticket, error)
	GetTicket(ctx context.Context, id ticket.ID) (*ticket.Ticket, error)
	CreateTicket(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error)
	UpdateTicket(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error)
	DeleteTicket(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error)
	ListComments(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error)
	AddComment(ctx context.Context, ticketID ticket.ID, author, text string) (*ticket.Comment, error)
	ListActivities(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error)
	ListAttachments(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error)
	UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID ticket.ID) error
}

// Scheduler runs the polling job.
type Scheduler interface {
	Every(name string, interval time.Duration, task func(ctx context.Context)) error
	Start()
	Stop() error
}
