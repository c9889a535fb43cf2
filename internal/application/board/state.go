// Package board holds the board state controller: filters and search over
// the loaded tickets, the open dialog, the drag highlight, the single
// notification slot and polling. The presentation layer renders State
// snapshots and forwards user intents to the Controller.
package board

import (
	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/shared/validation"
)

// LoadStatus tracks the ticket list fetch that gates the whole board.
type LoadStatus int

const (
	LoadLoading LoadStatus = iota
	LoadFailed
	LoadReady
)

func (s LoadStatus) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadFailed:
		return "failed"
	case LoadReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DialogKind enumerates the dialogs the board can show. At most one is open.
type DialogKind int

const (
	DialogClosed DialogKind = iota
	DialogForm
	DialogConfirmDelete
)

func (k DialogKind) String() string {
	switch k {
	case DialogClosed:
		return "closed"
	case DialogForm:
		return "form"
	case DialogConfirmDelete:
		return "confirm_delete"
	default:
		return "unknown"
	}
}

// Dialog is the open dialog. For DialogForm, Ticket is the edit target and
// nil means create. For DialogConfirmDelete, Ticket is the ticket to delete.
type Dialog struct {
	Kind        DialogKind
	Ticket      *ticket.Ticket
	FieldErrors validation.FieldErrors
}

// IsEditing reports whether the form dialog targets an existing ticket.
func (d Dialog) IsEditing() bool {
	return d.Kind == DialogForm && d.Ticket != nil
}

// Notification is the single transient message slot.
type Notification struct {
	Message string
	Success bool
	Visible bool
	// Err is the request failure behind an unsuccessful operation, if any.
	Err error
}

// State is an immutable snapshot of the board. Slices and maps in a
// snapshot are shared with the controller and must not be modified.
type State struct {
	Tickets      []ticket.Ticket
	Filters      Filters
	Dialog       Dialog
	DraggingID   ticket.ID
	Notification Notification
	Load         LoadStatus
	LoadErr      error
}

// Visible returns the loaded tickets that pass every filter, in list order.
func (s State) Visible() []ticket.Ticket {
	return s.Filters.Apply(s.Tickets)
}

// Column is one board column.
type Column struct {
	Stage   vo.Stage
	Tickets []ticket.Ticket
}

// Columns groups the visible tickets by stage, one column per stage in
// stage order. Tickets with an unknown status are not shown.
func (s State) Columns() []Column {
	stages := vo.Stages()
	cols := make([]Column, len(stages))
	for i, st := range stages {
		cols[i].Stage = st
	}
	for _, t := range s.Visible() {
		if i := t.Status.Index(); i >= 0 {
			cols[i].Tickets = append(cols[i].Tickets, t)
		}
	}
	return cols
}

// AssigneeOptions returns "All" followed by each distinct non-empty
// assignee of the loaded tickets, in first-seen order.
func (s State) AssigneeOptions() []string {
	opts := []string{FilterAll}
	seen := make(map[string]struct{})
	for _, t := range s.Tickets {
		if t.Assignee == "" {
			continue
		}
		if _, ok := seen[t.Assignee]; ok {
			continue
		}
		seen[t.Assignee] = struct{}{}
		opts = append(opts, t.Assignee)
	}
	return opts
}

// Ticket looks up a loaded ticket by id.
func (s State) Ticket(id ticket.ID) (ticket.Ticket, bool) {
	for _, t := range s.Tickets {
		if t.ID == id {
			return t, true
		}
	}
	return ticket.Ticket{}, false
}
