package board

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	boardApp "github.com/orris-inc/kanban/internal/application/board"
	"github.com/orris-inc/kanban/internal/domain/ticket"
	"github.com/orris-inc/kanban/internal/shared/biztime"
	"github.com/orris-inc/kanban/internal/shared/mapper"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use table, json or yaml)", format)
	}
}

type columnView struct {
	Stage   string       `json:"stage" yaml:"stage"`
	Tickets []ticketView `json:"tickets" yaml:"tickets"`
}

type ticketView struct {
	ID          string `json:"id" yaml:"id"`
	Number      string `json:"number" yaml:"number"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string `json:"status" yaml:"status"`
	Assignee    string `json:"assignee" yaml:"assignee"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
}

type commentView struct {
	Author    string `json:"author" yaml:"author"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
}

type activityView struct {
	Type      string `json:"type" yaml:"type"`
	Message   string `json:"message" yaml:"message"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
}

type attachmentView struct {
	ID       string `json:"id" yaml:"id"`
	Filename string `json:"filename" yaml:"filename"`
	Path     string `json:"path" yaml:"path"`
}

type detailView struct {
	Ticket      ticketView       `json:"ticket" yaml:"ticket"`
	Comments    []commentView    `json:"comments" yaml:"comments"`
	Activities  []activityView   `json:"activities" yaml:"activities"`
	Attachments []attachmentView `json:"attachments" yaml:"attachments"`
}

func toTicketView(t *ticket.Ticket) ticketView {
	v := ticketView{
		ID:          t.ID.String(),
		Number:      "TKT-" + t.DisplayNumber(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		Assignee:    t.Assignee,
		Priority:    t.Priority.String(),
	}
	if t.HasDueDate() {
		v.DueDate = biztime.FormatDate(t.DueDate)
	}
	return v
}

func toColumnViews(cols []boardApp.Column) []columnView {
	return mapper.MapSlice(cols, func(col *boardApp.Column) columnView {
		return columnView{Stage: col.Stage.String(), Tickets: mapper.MapSlice(col.Tickets, toTicketView)}
	})
}

func toDetailView(d *boardApp.TicketDetail, showAllActivity bool) detailView {
	return detailView{
		Ticket: toTicketView(&d.Ticket),
		Comments: mapper.MapSlice(d.Comments, func(c *ticket.Comment) commentView {
			return commentView{Author: c.Author, Text: c.Text, CreatedAt: biztime.FormatTimestamp(c.CreatedAt)}
		}),
		Activities: mapper.MapSlice(boardApp.RecentActivities(d.Activities, showAllActivity), func(a *ticket.Activity) activityView {
			return activityView{Type: a.Type, Message: a.Message, CreatedAt: biztime.FormatTimestamp(a.CreatedAt)}
		}),
		Attachments: mapper.MapSlice(d.Attachments, func(a *ticket.Attachment) attachmentView {
			return attachmentView{ID: a.ID.String(), Filename: a.Filename, Path: a.DownloadPath()}
		}),
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkOutput(format)
	}
}
