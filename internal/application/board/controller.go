package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/shared/goroutine"
	"github.com/orris-inc/kanban/internal/shared/logger"
)

// Notification messages shown to the user.
const (
	MsgTicketCreated      = "Ticket created successfully!"
	MsgTicketUpdated      = "Ticket updated successfully!"
	MsgOperationFailed    = "Operation failed!"
	MsgTicketDeleted      = "Ticket deleted successfully!"
	MsgDeleteFailed       = "Failed to delete ticket!"
	MsgStatusUpdated      = "Ticket status updated!"
	MsgStatusUpdateFailed = "Failed to update ticket status!"
	MsgCommentRequired    = "Author and comment are required."
	MsgTicketIDMissing    = "Ticket ID missing."
	MsgCommentAdded       = "Comment added."
	MsgCommentFailed      = "Failed to add comment."
	MsgFileUploaded       = "File uploaded."
	MsgUploadFailed       = "Failed to upload file."
	MsgAttachmentDeleted  = "Attachment deleted."
	MsgDeleteAttachFailed = "Failed to delete attachment."
)

// DefaultPollInterval is how often an open board refetches the list.
const DefaultPollInterval = 5 * time.Second

const pollJobName = "board-poll"

// ErrClosed is returned by Open after Close.
var ErrClosed = errors.New("board controller closed")

// Controller owns the board state. It is safe for concurrent use: state is
// guarded by one mutex and network calls run outside it.
type Controller struct {
	gateway      Gateway
	scheduler    Scheduler
	logger       logger.Interface
	pollInterval time.Duration

	mu        sync.Mutex
	state     State
	listeners []func(State)
	opened    bool
	closed    bool

	life   context.Context
	cancel context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler enables polling on s once the controller is opened.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithPollInterval sets the polling interval. Non-positive values keep the
// default.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithLogger(l logger.Interface) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

func NewController(gateway Gateway, opts ...Option) *Controller {
	life, cancel := context.WithCancel(context.Background())
	c := &Controller{
		gateway:      gateway,
		logger:       logger.NewNopLogger(),
		pollInterval: DefaultPollInterval,
		state: State{
			Filters: DefaultFilters(),
			Load:    LoadLoading,
		},
		life:   life,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Visible() []ticket.Ticket {
	return c.Snapshot().Visible()
}

func (c *Controller) Columns() []Column {
	return c.Snapshot().Columns()
}

func (c *Controller) AssigneeOptions() []string {
	return c.Snapshot().AssigneeOptions()
}

// Subscribe registers fn to receive every new state. fn runs on the
// goroutine that changed the state, possibly concurrently with itself, so
// listeners that need the latest state should read Snapshot.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Open loads the ticket list and starts polling. A failed initial load
// leaves the board in LoadFailed and is returned; polling still starts so
// the board recovers once the server answers.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opened {
		c.mu.Unlock()
		return nil
	}
	c.opened = true
	c.mu.Unlock()

	loadErr := c.load(ctx)

	if c.scheduler != nil {
		if err := c.scheduler.Every(pollJobName, c.pollInterval, c.poll); err != nil {
			return fmt.Errorf("start polling: %w", err)
		}
		c.scheduler.Start()
		c.logger.Debugw("board polling started", "interval", c.pollInterval)
	}
	return loadErr
}

// Close stops polling, cancels in-flight requests and freezes the state.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.listeners = nil
	c.mu.Unlock()

	c.cancel()
	if c.scheduler != nil {
		if err := c.scheduler.Stop(); err != nil {
			c.logger.Warnw("failed to stop board polling", "error", err)
		}
	}
}

// Refetch reads the ticket list from the server, bypassing the cache.
func (c *Controller) Refetch(ctx context.Context) error {
	ctx, done := c.bind(ctx)
	defer done()

	list, err := c.gateway.RefetchTickets(ctx)
	if err != nil {
		return err
	}
	c.setTickets(list)
	return nil
}

func (c *Controller) load(ctx context.Context) error {
	ctx, done := c.bind(ctx)
	defer done()

	c.update(func(s *State) {
		s.Load = LoadLoading
		s.LoadErr = nil
	})

	list, err := c.gateway.ListTickets(ctx)
	if err != nil {
		c.logger.Errorw("failed to load tickets", "error", err)
		c.update(func(s *State) {
			s.Load = LoadFailed
			s.LoadErr = err
		})
		return err
	}
	c.setTickets(list)
	return nil
}

func (c *Controller) poll(ctx context.Context) {
	if err := c.Refetch(ctx); err != nil {
		if c.life.Err() == nil {
			c.logger.Warnw("board poll failed", "error", err)
		}
	}
}

// refreshList re-reads the list after a mutation invalidated it. Failures
// are logged only; the next poll converges.
func (c *Controller) refreshList(ctx context.Context) {
	list, err := c.gateway.ListTickets(ctx)
	if err != nil {
		c.logger.Warnw("failed to refresh tickets after mutation", "error", err)
		return
	}
	c.setTickets(list)
}

func (c *Controller) setTickets(list []ticket.Ticket) {
	c.update(func(s *State) {
		s.Tickets = list
		s.Load = LoadReady
		s.LoadErr = nil
	})
}

// Filters and search.

func (c *Controller) SetSearch(q string) {
	c.update(func(s *State) { s.Filters.Search = q })
}

func (c *Controller) SetPriorityFilter(p string) error {
	if p != FilterAll {
		if _, err := vo.NewPriority(p); err != nil {
			return err
		}
	}
	c.update(func(s *State) { s.Filters.Priority = p })
	return nil
}

func (c *Controller) SetStatusFilter(st string) error {
	if st != FilterAll {
		if _, err := vo.NewStage(st); err != nil {
			return err
		}
	}
	c.update(func(s *State) { s.Filters.Status = st })
	return nil
}

// SetAssigneeFilter accepts FilterAll or an assignee of a loaded ticket.
func (c *Controller) SetAssigneeFilter(a string) error {
	if a != FilterAll {
		known := false
		for _, opt := range c.AssigneeOptions() {
			if opt == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("invalid assignee: %s", a)
		}
	}
	c.update(func(s *State) { s.Filters.Assignee = a })
	return nil
}

func (c *Controller) ResetFilters() {
	c.update(func(s *State) { s.Filters = DefaultFilters() })
}

// Dialogs.

func (c *Controller) OpenCreate() {
	c.update(func(s *State) { s.Dialog = Dialog{Kind: DialogForm} })
}

func (c *Controller) OpenEdit(t ticket.Ticket) {
	c.update(func(s *State) { s.Dialog = Dialog{Kind: DialogForm, Ticket: &t} })
}

// RequestDelete opens the confirmation dialog for t. Nothing is deleted
// until ConfirmDelete.
func (c *Controller) RequestDelete(t ticket.Ticket) {
	c.update(func(s *State) { s.Dialog = Dialog{Kind: DialogConfirmDelete, Ticket: &t} })
}

func (c *Controller) CloseDialog() {
	c.update(func(s *State) { s.Dialog = Dialog{} })
}

func (c *Controller) DismissNotification() {
	c.update(func(s *State) { s.Notification.Visible = false })
}

// Submit validates the form and creates a ticket, or updates the edit
// target when the form dialog was opened with OpenEdit. Invalid input is
// attached to the dialog and nothing is sent. Without an open form dialog
// it does nothing. It reports whether the ticket was saved.
func (c *Controller) Submit(ctx context.Context, form TicketForm) bool {
	d := c.Snapshot().Dialog
	if d.Kind != DialogForm {
		return false
	}
	var target *ticket.Ticket
	if d.IsEditing() {
		target = d.Ticket
	}

	in, fieldErrs := form.Validate()
	if fieldErrs != nil {
		c.update(func(s *State) {
			s.Dialog = Dialog{Kind: DialogForm, Ticket: target, FieldErrors: fieldErrs}
		})
		return false
	}

	ctx, done := c.bind(ctx)
	defer done()

	var (
		err error
		msg string
	)
	if target != nil {
		in.TicketNumber = target.TicketNumber
		_, err = c.gateway.UpdateTicket(ctx, target.ID, in)
		msg = MsgTicketUpdated
	} else {
		_, err = c.gateway.CreateTicket(ctx, in)
		msg = MsgTicketCreated
	}
	if err != nil {
		c.logger.Errorw("failed to save ticket", "error", err, "editing", target != nil)
		c.update(func(s *State) {
			s.Dialog.FieldErrors = nil
			s.Notification = Notification{Message: MsgOperationFailed, Visible: true, Err: err}
		})
		return false
	}

	c.update(func(s *State) {
		s.Dialog = Dialog{}
		s.Notification = Notification{Message: msg, Success: true, Visible: true}
	})
	c.refreshList(ctx)
	return true
}

// ConfirmDelete deletes the ticket of the open confirmation dialog. With
// no confirmation dialog open it does nothing and returns false.
func (c *Controller) ConfirmDelete(ctx context.Context) bool {
	d := c.Snapshot().Dialog
	if d.Kind != DialogConfirmDelete || d.Ticket == nil {
		return false
	}
	id := d.Ticket.ID

	ctx, done := c.bind(ctx)
	defer done()

	res, err := c.gateway.DeleteTicket(ctx, id)
	if err == nil && !res.Success {
		err = fmt.Errorf("delete ticket %s: server reported failure", id)
	}
	if err != nil {
		c.logger.Errorw("failed to delete ticket", "error", err, "ticket_id", id)
		c.update(func(s *State) {
			s.Dialog = Dialog{}
			s.Notification = Notification{Message: MsgDeleteFailed, Visible: true, Err: err}
		})
		return false
	}

	c.update(func(s *State) {
		s.Dialog = Dialog{}
		s.Notification = Notification{Message: MsgTicketDeleted, Success: true, Visible: true}
	})
	c.refreshList(ctx)
	return true
}

// notify fills the notification slot.
func (c *Controller) notify(msg string, success bool) {
	c.update(func(s *State) {
		s.Notification = Notification{Message: msg, Success: success, Visible: true}
	})
}

// fail reports a request that failed with err.
func (c *Controller) fail(msg string, err error) {
	c.update(func(s *State) {
		s.Notification = Notification{Message: msg, Visible: true, Err: err}
	})
}

// update applies fn to the state and publishes the result. After Close it
// does nothing.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	snapshot := c.state
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		goroutine.Recover(c.logger, "board-listener", func() { l(snapshot) })
	}
}

// bind derives a request context that is also cancelled by Close.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}
