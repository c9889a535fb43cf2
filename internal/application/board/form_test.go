package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/shared/validation"
)

func strPtr(s string) *string { return &s }

func validForm() TicketForm {
	f := NewTicketForm()
	f.Title = "Fix login bug"
	f.Description = "Users cannot sign in"
	f.Assignee = "Ann"
	return f
}

func TestNewTicketForm_Defaults(t *testing.T) {
	f := NewTicketForm()
	assert.Equal(t, "To Do", f.Status)
	assert.Equal(t, "Low", f.Priority)
	assert.Nil(t, f.DueDate)
}

func TestTicketForm_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *TicketForm)
		want   validation.FieldErrors
	}{
		{
			name:   "missing title",
			mutate: func(f *TicketForm) { f.Title = "" },
			want:   validation.FieldErrors{"title": "Title is required"},
		},
		{
			name:   "missing description",
			mutate: func(f *TicketForm) { f.Description = "" },
			want:   validation.FieldErrors{"description": "Description is required"},
		},
		{
			name:   "missing assignee",
			mutate: func(f *TicketForm) { f.Assignee = "" },
			want:   validation.FieldErrors{"assignee": "Assignee is required"},
		},
		{
			name:   "missing priority",
			mutate: func(f *TicketForm) { f.Priority = "" },
			want:   validation.FieldErrors{"priority": "Priority is required"},
		},
		{
			name:   "unknown priority",
			mutate: func(f *TicketForm) { f.Priority = "Urgent" },
			want:   validation.FieldErrors{"priority": "Priority must be one of [Low, Medium, High, Critical]"},
		},
		{
			name:   "unknown status",
			mutate: func(f *TicketForm) { f.Status = "Blocked" },
			want:   validation.FieldErrors{"status": "Status must be one of [To Do, In Progress, Review, Done]"},
		},
		{
			name:   "unparseable due date",
			mutate: func(f *TicketForm) { f.DueDate = strPtr("not-a-date") },
			want:   validation.FieldErrors{"dueDate": "Invalid due date value: not-a-date"},
		},
		{
			name: "several fields at once",
			mutate: func(f *TicketForm) {
				f.Title = ""
				f.Assignee = ""
				f.DueDate = strPtr("31/31/2024")
			},
			want: validation.FieldErrors{
				"title":    "Title is required",
				"assignee": "Assignee is required",
				"dueDate":  "Invalid due date value: 31/31/2024",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			in, errs := f.Validate()
			assert.Equal(t, tt.want, errs)
			assert.Equal(t, ticket.TicketInput{}, in)
		})
	}
}

func TestTicketForm_ValidateNormalisesDueDate(t *testing.T) {
	june1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  *string
		want *time.Time
	}{
		{name: "unset", due: nil, want: nil},
		{name: "blank", due: strPtr("   "), want: nil},
		{name: "iso date", due: strPtr("2024-06-01"), want: &june1},
		{name: "rfc3339", due: strPtr("2024-06-01T00:00:00Z"), want: &june1},
		{name: "rfc3339 with offset", due: strPtr("2024-06-01T02:00:00+02:00"), want: &june1},
		{name: "us format", due: strPtr("06/01/2024"), want: &june1},
		{name: "month name", due: strPtr("Jun 1, 2024"), want: &june1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			f.DueDate = tt.due

			in, errs := f.Validate()
			require.Nil(t, errs)
			if tt.want == nil {
				assert.Nil(t, in.DueDate)
				return
			}
			require.NotNil(t, in.DueDate)
			assert.True(t, tt.want.Equal(*in.DueDate), "got %s", in.DueDate)
			assert.Equal(t, time.UTC, in.DueDate.Location())
		})
	}
}

func TestTicketForm_ValidateBuildsInput(t *testing.T) {
	f := validForm()
	f.Status = ""
	f.Priority = "Critical"

	in, errs := f.Validate()
	require.Nil(t, errs)
	assert.Equal(t, ticket.TicketInput{
		Title:       "Fix login bug",
		Description: "Users cannot sign in",
		Status:      vo.StageToDo,
		Assignee:    "Ann",
		Priority:    vo.PriorityCritical,
	}, in)
}

func TestFormFromTicket(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tk := ticket.Ticket{
		ID:          "7",
		Title:       "Upgrade database",
		Description: "Move to the new cluster",
		Status:      vo.StageReview,
		Assignee:    "Cleo",
		Priority:    vo.PriorityHigh,
		DueDate:     &due,
	}

	f := FormFromTicket(&tk)
	require.NotNil(t, f.DueDate)
	assert.Equal(t, "2024-06-01", *f.DueDate)

	in, errs := f.Validate()
	require.Nil(t, errs)
	assert.Equal(t, tk.Input(), in)

	tk.Priority = ""
	tk.DueDate = nil
	f = FormFromTicket(&tk)
	assert.Equal(t, "Low", f.Priority)
	assert.Nil(t, f.DueDate)
}
