package board

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/infrastructure/cache"
	"github.com/orris-inc/kanban/internal/infrastructure/gateway"
	"github.com/orris-inc/kanban/internal/infrastructure/restapi"
	"github.com/orris-inc/kanban/internal/infrastructure/scheduler"
	"github.com/orris-inc/kanban/internal/testutil/fakeapi"
)

func newIntegrationBoard(t *testing.T, opts ...Option) (*Controller, *fakeapi.Server) {
	t.Helper()
	srv := fakeapi.New(t)
	client, err := restapi.NewClient(srv.URL(), restapi.WithTimeout(5*time.Second))
	require.NoError(t, err)
	gw := gateway.New(client, cache.NewQueryCache(), nil)
	c := NewController(gw, opts...)
	t.Cleanup(c.Close)
	return c, srv
}

func seedBoard(srv *fakeapi.Server) {
	for _, tk := range boardFixture() {
		tk.ID = ""
		tk.TicketNumber = ""
		srv.Seed(tk)
	}
}

func TestBoard_CreateAddsExactlyOneTicket(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	seedBoard(srv)
	require.NoError(t, c.Open(context.Background()))
	before := len(c.Snapshot().Tickets)

	c.OpenCreate()
	form := validForm()
	form.Title = "Brand new"
	form.Priority = "High"
	form.DueDate = strPtr("2024-06-01")
	require.True(t, c.Submit(context.Background(), form))

	s := c.Snapshot()
	require.Len(t, s.Tickets, before+1)
	created := s.Tickets[len(s.Tickets)-1]
	assert.Equal(t, "Brand new", created.Title)
	assert.Equal(t, "Users cannot sign in", created.Description)
	assert.Equal(t, vo.StageToDo, created.Status)
	assert.Equal(t, vo.PriorityHigh, created.Priority)
	assert.Equal(t, "Ann", created.Assignee)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2024-06-01T00:00:00Z", created.DueDate.UTC().Format(time.RFC3339))
	assert.Equal(t, "TICKET-"+created.ID.String(), created.TicketNumber)

	activities := srv.Activities(created.ID)
	require.Len(t, activities, 1)
	assert.Equal(t, "Ticket created: Brand new", activities[0].Message)
}

func TestBoard_InvalidDueDateNeverReachesServer(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	require.NoError(t, c.Open(context.Background()))

	c.OpenCreate()
	form := validForm()
	form.DueDate = strPtr("not-a-date")
	assert.False(t, c.Submit(context.Background(), form))

	assert.Equal(t, 0, srv.Calls(fakeapi.RouteCreateTicket))
	assert.Empty(t, srv.Tickets())
}

func TestBoard_DeleteRemovesTicket(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	seedBoard(srv)
	require.NoError(t, c.Open(context.Background()))
	target := c.Snapshot().Tickets[2]

	assert.False(t, c.ConfirmDelete(context.Background()))
	assert.Equal(t, 0, srv.Calls(fakeapi.RouteDeleteTicket))

	c.RequestDelete(target)
	require.True(t, c.ConfirmDelete(context.Background()))

	_, found := c.Snapshot().Ticket(target.ID)
	assert.False(t, found)
	assert.Len(t, c.Snapshot().Tickets, 3)
}

func TestBoard_DragUpdatesServer(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	seedBoard(srv)
	require.NoError(t, c.Open(context.Background()))
	original, ok := c.Snapshot().Ticket("1")
	require.True(t, ok)

	c.BeginDrag("1")
	require.True(t, c.EndDrag(context.Background(), Drop{TicketID: "1", Destination: stagePtr(vo.StageDone)}))

	var stored ticket.Ticket
	for _, tk := range srv.Tickets() {
		if tk.ID == "1" {
			stored = tk
		}
	}
	assert.Equal(t, vo.StageDone, stored.Status)
	assert.Equal(t, original.Title, stored.Title)
	assert.Equal(t, original.Description, stored.Description)
	assert.Equal(t, original.Assignee, stored.Assignee)
	assert.Equal(t, original.Priority, stored.Priority)
	assert.Equal(t, original.TicketNumber, stored.TicketNumber)

	got, _ := c.Snapshot().Ticket("1")
	assert.Equal(t, vo.StageDone, got.Status)

	calls := srv.Calls(fakeapi.RouteUpdateTicket)
	assert.False(t, c.Move(context.Background(), "1", vo.StageDone))
	assert.Equal(t, calls, srv.Calls(fakeapi.RouteUpdateTicket))
}

func TestBoard_ServerFailureBecomesNotification(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	seedBoard(srv)
	require.NoError(t, c.Open(context.Background()))

	srv.FailNext(fakeapi.RouteUpdateTicket, http.StatusInternalServerError)
	assert.False(t, c.Move(context.Background(), "2", vo.StageDone))
	assert.Equal(t, MsgStatusUpdateFailed, c.Snapshot().Notification.Message)

	got, _ := c.Snapshot().Ticket("2")
	assert.Equal(t, vo.StageInProgress, got.Status)
}

func TestBoard_CommentRefreshesActivityLog(t *testing.T) {
	c, srv := newIntegrationBoard(t)
	seedBoard(srv)
	require.NoError(t, c.Open(context.Background()))

	d, err := c.Detail(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, d.Comments)
	assert.Empty(t, d.Activities)

	require.True(t, c.AddComment(context.Background(), "1", "Ann", "Reproduced"))

	d, err = c.Detail(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, d.Comments, 1)
	require.Len(t, d.Activities, 1)
	assert.Equal(t, "Comment added", d.Activities[0].Message)
}

func TestBoard_PollingPicksUpRemoteChanges(t *testing.T) {
	sched, err := scheduler.NewSchedulerManager(nil)
	require.NoError(t, err)
	c, srv := newIntegrationBoard(t, WithScheduler(sched), WithPollInterval(20*time.Millisecond))
	require.NoError(t, c.Open(context.Background()))
	assert.Empty(t, c.Snapshot().Tickets)

	srv.Seed(ticket.Ticket{Title: "Filed by someone else", Status: vo.StageToDo, Assignee: "Dee", Priority: vo.PriorityLow})

	assert.Eventually(t, func() bool {
		return len(c.Snapshot().Tickets) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
