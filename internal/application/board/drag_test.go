package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
)

func stagePtr(s vo.Stage) *vo.Stage { return &s }

func openController(t *testing.T, gw *mockGateway) *Controller {
	t.Helper()
	c := NewController(gw)
	require.NoError(t, c.Open(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestReconcile(t *testing.T) {
	tickets := boardFixture()

	tests := []struct {
		name     string
		drop     Drop
		wantMove bool
		wantID   ticket.ID
	}{
		{name: "cancelled drop", drop: Drop{TicketID: "1"}},
		{name: "unknown ticket", drop: Drop{TicketID: "99", Destination: stagePtr(vo.StageDone)}},
		{name: "same stage", drop: Drop{TicketID: "1", Destination: stagePtr(vo.StageToDo)}},
		{name: "other stage", drop: Drop{TicketID: "1", Destination: stagePtr(vo.StageReview)}, wantMove: true, wantID: "1"},
		{name: "backwards", drop: Drop{TicketID: "4", Destination: stagePtr(vo.StageToDo)}, wantMove: true, wantID: "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, move := Reconcile(tickets, tt.drop)
			assert.Equal(t, tt.wantMove, move)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestEndDrag_MovesTicketKeepingOtherFields(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	original := ticket.Ticket{
		ID:           "42",
		TicketNumber: "TICKET-42",
		Title:        "Ship it",
		Description:  "Final checks",
		Status:       vo.StageToDo,
		Assignee:     "Ann",
		Priority:     vo.PriorityHigh,
		DueDate:      &due,
	}
	gw := newMockGateway(original)
	c := openController(t, gw)

	c.BeginDrag("42")
	assert.Equal(t, ticket.ID("42"), c.Snapshot().DraggingID)

	moved := c.EndDrag(context.Background(), Drop{TicketID: "42", Destination: stagePtr(vo.StageDone)})
	require.True(t, moved)

	require.Len(t, gw.updated, 1)
	assert.Equal(t, ticket.ID("42"), gw.updated[0].ID)
	assert.Equal(t, original.WithStatus(vo.StageDone), gw.updated[0].Input)
	assert.Equal(t, vo.StageDone, gw.updated[0].Input.Status)
	assert.Equal(t, "Ship it", gw.updated[0].Input.Title)
	assert.Equal(t, &due, gw.updated[0].Input.DueDate)

	s := c.Snapshot()
	assert.Equal(t, ticket.ID(""), s.DraggingID)
	assert.Equal(t, Notification{Message: MsgStatusUpdated, Success: true, Visible: true}, s.Notification)
	assert.Equal(t, vo.StageDone, s.Tickets[0].Status)
}

func TestEndDrag_NoOps(t *testing.T) {
	tests := []struct {
		name string
		drop Drop
	}{
		{name: "same column", drop: Drop{TicketID: "1", Destination: stagePtr(vo.StageToDo)}},
		{name: "cancelled", drop: Drop{TicketID: "1"}},
		{name: "ticket no longer loaded", drop: Drop{TicketID: "99", Destination: stagePtr(vo.StageDone)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newMockGateway(boardFixture()...)
			c := openController(t, gw)
			before := c.Snapshot().Tickets

			c.BeginDrag(tt.drop.TicketID)
			moved := c.EndDrag(context.Background(), tt.drop)

			assert.False(t, moved)
			assert.Equal(t, 0, gw.callCount("UpdateTicket"))
			s := c.Snapshot()
			assert.Equal(t, before, s.Tickets)
			assert.Equal(t, ticket.ID(""), s.DraggingID)
			assert.False(t, s.Notification.Visible)
		})
	}
}

func TestEndDrag_FailureClearsHighlightAndNotifies(t *testing.T) {
	gw := newMockGateway(boardFixture()...)
	downErr := errors.New("server down")
	gw.updateTicketFunc = func(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error) {
		return nil, downErr
	}
	c := openController(t, gw)
	listCalls := gw.callCount("ListTickets")

	c.BeginDrag("2")
	moved := c.EndDrag(context.Background(), Drop{TicketID: "2", Destination: stagePtr(vo.StageDone)})

	assert.False(t, moved)
	s := c.Snapshot()
	assert.Equal(t, ticket.ID(""), s.DraggingID)
	assert.Equal(t, Notification{Message: MsgStatusUpdateFailed, Visible: true, Err: downErr}, s.Notification)
	assert.Equal(t, listCalls, gw.callCount("ListTickets"))
}

func TestMove(t *testing.T) {
	gw := newMockGateway(boardFixture()...)
	c := openController(t, gw)

	assert.True(t, c.Move(context.Background(), "3", vo.StageDone))
	assert.False(t, c.Move(context.Background(), "3", vo.StageDone))
	assert.Equal(t, 1, gw.callCount("UpdateTicket"))
}
