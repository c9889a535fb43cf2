package board

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	boardApp "github.com/orris-inc/kanban/internal/application/board"
	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/shared/biztime"
)

const (
	columnWidth = 30
	// cardWidth leaves room for the column border and padding.
	cardWidth = columnWidth - 4
)

// Theme holds the board palette as ANSI 256-colour codes.
type Theme struct {
	Stages     map[vo.Stage]lipgloss.Color
	Priorities map[vo.Priority]lipgloss.Color
	FaintText  lipgloss.Color
	Highlight  lipgloss.Color
	Success    lipgloss.Color
	Failure    lipgloss.Color
}

// DefaultTheme follows the stage colours of the web board's dark mode.
var DefaultTheme = Theme{
	Stages: map[vo.Stage]lipgloss.Color{
		vo.StageToDo:       "33",
		vo.StageInProgress: "184",
		vo.StageReview:     "208",
		vo.StageDone:       "34",
	},
	Priorities: map[vo.Priority]lipgloss.Color{
		vo.PriorityLow:      "114",
		vo.PriorityMedium:   "39",
		vo.PriorityHigh:     "214",
		vo.PriorityCritical: "196",
	},
	FaintText: "243",
	Highlight: "213",
	Success:   "42",
	Failure:   "203",
}

func (th Theme) stageColor(s vo.Stage) lipgloss.Color {
	if c, ok := th.Stages[s]; ok {
		return c
	}
	return th.FaintText
}

func (th Theme) priorityColor(p vo.Priority) lipgloss.Color {
	if c, ok := th.Priorities[p]; ok {
		return c
	}
	return th.FaintText
}

// Renderer draws board state for one output. Colour is decided by the
// output: a non-terminal writer gets plain text.
type Renderer struct {
	r     *lipgloss.Renderer
	theme Theme
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{r: lipgloss.NewRenderer(w), theme: DefaultTheme}
}

// Board renders the columns, the active filters and the notification.
func (rd *Renderer) Board(st boardApp.State) string {
	switch st.Load {
	case boardApp.LoadLoading:
		return rd.r.NewStyle().Foreground(rd.theme.FaintText).Render("Loading...") + "\n"
	case boardApp.LoadFailed:
		msg := "Error loading tickets."
		if st.LoadErr != nil {
			msg = fmt.Sprintf("Error loading tickets: %v", st.LoadErr)
		}
		return rd.r.NewStyle().Foreground(rd.theme.Failure).Bold(true).Render(msg) + "\n"
	}

	var b strings.Builder
	if line := rd.filterLine(st.Filters); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	cols := st.Columns()
	rendered := make([]string, 0, len(cols))
	for _, col := range cols {
		rendered = append(rendered, rd.column(col, st.DraggingID))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	b.WriteString("\n")

	if line := rd.Notification(st.Notification); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (rd *Renderer) column(col boardApp.Column, dragging ticket.ID) string {
	color := rd.theme.stageColor(col.Stage)
	header := rd.r.NewStyle().
		Foreground(color).
		Bold(true).
		Render(fmt.Sprintf("%s (%d)", col.Stage, len(col.Tickets)))

	parts := []string{header}
	for i := range col.Tickets {
		parts = append(parts, rd.card(&col.Tickets[i], dragging))
	}
	if len(col.Tickets) == 0 {
		parts = append(parts, rd.r.NewStyle().Foreground(rd.theme.FaintText).Render("No tickets"))
	}

	return rd.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(columnWidth - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (rd *Renderer) card(t *ticket.Ticket, dragging ticket.ID) string {
	label := "TKT-" + t.DisplayNumber()
	if !dragging.IsZero() && t.ID == dragging {
		label = rd.r.NewStyle().Foreground(rd.theme.Highlight).Bold(true).Render("> " + label)
	} else {
		label = rd.r.NewStyle().Foreground(rd.theme.FaintText).Render(label)
	}

	// Done cards are dimmed.
	title := rd.r.NewStyle().Bold(true)
	if t.Status.IsDone() {
		title = rd.r.NewStyle().Faint(true).Strikethrough(true)
	}
	lines := []string{
		label,
		title.Render(truncateString(t.Title, cardWidth)),
	}
	if t.Description != "" {
		lines = append(lines, truncateString(firstLine(t.Description), cardWidth))
	}

	meta := []string{}
	if t.Assignee != "" {
		meta = append(meta, truncateString(t.Assignee, cardWidth/2))
	}
	if t.Priority != "" {
		meta = append(meta, rd.r.NewStyle().
			Foreground(rd.theme.priorityColor(t.Priority)).
			Bold(t.Priority.IsCritical()).
			Render(t.Priority.String()))
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " · "))
	}
	if t.HasDueDate() {
		lines = append(lines, rd.r.NewStyle().Foreground(rd.theme.FaintText).Render("Due "+biztime.FormatDate(t.DueDate)))
	}

	return rd.r.NewStyle().
		MarginTop(1).
		MaxWidth(cardWidth).
		Render(strings.Join(lines, "\n"))
}

func (rd *Renderer) filterLine(f boardApp.Filters) string {
	if f.IsDefault() {
		return ""
	}
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.Search))
	}
	for _, sel := range []struct{ name, value string }{
		{"priority", f.Priority},
		{"status", f.Status},
		{"assignee", f.Assignee},
	} {
		if sel.value != "" && sel.value != boardApp.FilterAll {
			parts = append(parts, sel.name+"="+sel.value)
		}
	}
	return rd.r.NewStyle().Foreground(rd.theme.FaintText).Render("Filters: " + strings.Join(parts, " "))
}

// Notification renders the notification slot, or "" when it is hidden.
func (rd *Renderer) Notification(n boardApp.Notification) string {
	if !n.Visible {
		return ""
	}
	color := rd.theme.Success
	if !n.Success {
		color = rd.theme.Failure
	}
	return rd.r.NewStyle().Foreground(color).Render(n.Message)
}

// Detail renders a ticket with its comments, activity log and attachments.
func (rd *Renderer) Detail(d *boardApp.TicketDetail, showAllActivity bool) string {
	t := &d.Ticket
	heading := rd.r.NewStyle().Bold(true)
	faint := rd.r.NewStyle().Foreground(rd.theme.FaintText)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		faint.Render("TKT-"+t.DisplayNumber()),
		heading.Render(t.Title))
	fmt.Fprintf(&b, "%s  %s  %s\n",
		rd.r.NewStyle().Foreground(rd.theme.stageColor(t.Status)).Render(t.Status.String()),
		rd.r.NewStyle().Foreground(rd.theme.priorityColor(t.Priority)).Render(t.Priority.String()),
		t.Assignee)
	if t.HasDueDate() {
		fmt.Fprintf(&b, "Due %s\n", biztime.FormatDate(t.DueDate))
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}

	fmt.Fprintf(&b, "\n%s\n", heading.Render(fmt.Sprintf("Comments (%d)", len(d.Comments))))
	if len(d.Comments) == 0 {
		b.WriteString(faint.Render("No comments yet.") + "\n")
	}
	for _, c := range d.Comments {
		fmt.Fprintf(&b, "%s %s\n  %s\n",
			rd.r.NewStyle().Bold(true).Render(c.Author),
			faint.Render(biztime.FormatTimestamp(c.CreatedAt)),
			c.Text)
	}

	fmt.Fprintf(&b, "\n%s\n", heading.Render("Activity"))
	activities := boardApp.RecentActivities(d.Activities, showAllActivity)
	if len(activities) == 0 {
		b.WriteString(faint.Render("No activity.") + "\n")
	}
	for _, a := range activities {
		fmt.Fprintf(&b, "%s %s\n", faint.Render(biztime.FormatTimestamp(a.CreatedAt)), a.Message)
	}
	if !showAllActivity && boardApp.HasHiddenActivities(d.Activities) {
		b.WriteString(faint.Render(fmt.Sprintf("%d more, use --all-activity to show all", len(d.Activities)-len(activities))) + "\n")
	}

	fmt.Fprintf(&b, "\n%s\n", heading.Render(fmt.Sprintf("Attachments (%d)", len(d.Attachments))))
	for _, a := range d.Attachments {
		fmt.Fprintf(&b, "%s  %s  %s\n", faint.Render(a.ID.String()), a.Filename, faint.Render(a.DownloadPath()))
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncateString shortens text to fit maxWidth terminal cells.
func truncateString(text string, maxWidth int) string {
	if lipgloss.Width(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for length := len(runes) - 1; length >= 0; length-- {
		candidate := strings.TrimRight(string(runes[:length]), " ") + "…"
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}
