package board

import (
	"context"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
)

// Drop is the end of a drag gesture. Destination is nil when the drop was
// cancelled or landed outside any column.
type Drop struct {
	TicketID    ticket.ID
	Destination *vo.Stage
}

// Reconcile decides what a drop means for the loaded tickets. It returns
// the ticket whose status must change, or false when the drop is a no-op:
// no destination, an unknown ticket, or the ticket already in that stage.
func Reconcile(tickets []ticket.Ticket, d Drop) (ticket.Ticket, bool) {
	if d.Destination == nil {
		return ticket.Ticket{}, false
	}
	for _, t := range tickets {
		if t.ID != d.TicketID {
			continue
		}
		if t.Status == *d.Destination {
			return ticket.Ticket{}, false
		}
		return t, true
	}
	return ticket.Ticket{}, false
}

// BeginDrag highlights the dragged ticket.
func (c *Controller) BeginDrag(id ticket.ID) {
	c.update(func(s *State) { s.DraggingID = id })
}

// EndDrag clears the highlight and, when the ticket moved to another
// column, sends the ticket back with only its status replaced. It reports
// whether the status was changed.
func (c *Controller) EndDrag(ctx context.Context, d Drop) bool {
	c.update(func(s *State) { s.DraggingID = "" })

	t, move := Reconcile(c.Snapshot().Tickets, d)
	if !move {
		return false
	}

	ctx, done := c.bind(ctx)
	defer done()

	if _, err := c.gateway.UpdateTicket(ctx, t.ID, t.WithStatus(*d.Destination)); err != nil {
		c.logger.Errorw("failed to update ticket status",
			"error", err,
			"ticket_id", t.ID,
			"from", t.Status,
			"to", *d.Destination,
		)
		c.fail(MsgStatusUpdateFailed, err)
		return false
	}

	c.notify(MsgStatusUpdated, true)
	c.refreshList(ctx)
	return true
}

// Move is a drag without the gesture: the ticket is dropped straight onto
// stage.
func (c *Controller) Move(ctx context.Context, id ticket.ID, stage vo.Stage) bool {
	c.BeginDrag(id)
	return c.EndDrag(ctx, Drop{TicketID: id, Destination: &stage})
}
