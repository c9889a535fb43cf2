package ticket

import (
	"time"

	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
)

// Ticket is the aggregate root of the board. Comments, activities and
// attachments are owned by a ticket and always addressed through its ID.
type Ticket struct {
	ID           ID          `json:"id"`
	TicketNumber string      `json:"ticketNumber,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Status       vo.Stage    `json:"status"`
	Assignee     string      `json:"assignee"`
	Priority     vo.Priority `json:"priority,omitempty"`
	DueDate      *time.Time  `json:"dueDate"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// DisplayNumber is the label shown on cards: the ticket number when the
// server assigned one, the ID otherwise.
func (t *Ticket) DisplayNumber() string {
	if t.TicketNumber != "" {
		return t.TicketNumber
	}
	return t.ID.String()
}

func (t *Ticket) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

// Input returns the replaceable fields of the ticket, suitable for a
// full-object update.
func (t *Ticket) Input() TicketInput {
	var due *time.Time
	if t.HasDueDate() {
		d := *t.DueDate
		due = &d
	}
	return TicketInput{
		TicketNumber: t.TicketNumber,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Assignee:     t.Assignee,
		Priority:     t.Priority,
		DueDate:      due,
	}
}

// WithStatus returns the replaceable fields of the ticket with only the
// status changed.
func (t *Ticket) WithStatus(status vo.Stage) TicketInput {
	in := t.Input()
	in.Status = status
	return in
}

// TicketInput is the partial ticket sent on create and update. DueDate is
// always serialised so that clearing it sends an explicit null.
type TicketInput struct {
	TicketNumber string      `json:"ticketNumber,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Status       vo.Stage    `json:"status"`
	Assignee     string      `json:"assignee"`
	Priority     vo.Priority `json:"priority"`
	DueDate      *time.Time  `json:"dueDate"`
}

// DeleteResult is the outcome of a ticket deletion.
type DeleteResult struct {
	Success bool `json:"success"`
	ID      ID   `json:"id"`
}
