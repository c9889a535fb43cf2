package board

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/orris-inc/kanban/internal/domain/ticket"
)

// FilterAll is the selector value that disables a filter.
const FilterAll = "All"

// Filters narrows the board. Selectors equal to FilterAll, or empty, match
// every ticket.
type Filters struct {
	Search   string
	Priority string
	Status   string
	Assignee string
}

func DefaultFilters() Filters {
	return Filters{
		Priority: FilterAll,
		Status:   FilterAll,
		Assignee: FilterAll,
	}
}

// Matches reports whether t passes the search and every selector.
func (f Filters) Matches(t *ticket.Ticket) bool {
	return f.matchesSearch(t) &&
		selectorMatches(f.Priority, t.Priority.String()) &&
		selectorMatches(f.Status, t.Status.String()) &&
		selectorMatches(f.Assignee, t.Assignee)
}

// Apply returns the tickets that match, preserving order.
func (f Filters) Apply(tickets []ticket.Ticket) []ticket.Ticket {
	out := make([]ticket.Ticket, 0, len(tickets))
	for i := range tickets {
		if f.Matches(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

// IsDefault reports whether no filter narrows the board.
func (f Filters) IsDefault() bool {
	return f.Search == "" &&
		selectorIsAll(f.Priority) &&
		selectorIsAll(f.Status) &&
		selectorIsAll(f.Assignee)
}

func (f Filters) matchesSearch(t *ticket.Ticket) bool {
	if f.Search == "" {
		return true
	}
	needle := fold(f.Search)
	return strings.Contains(fold(t.Title), needle) ||
		strings.Contains(fold(t.Description), needle)
}

func selectorIsAll(selected string) bool {
	return selected == "" || selected == FilterAll
}

func selectorMatches(selected, value string) bool {
	return selectorIsAll(selected) || selected == value
}

// fold case-folds s for comparison. A Caser is not safe for concurrent
// use, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
