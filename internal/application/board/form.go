package board

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/kanban/internal/shared/biztime"
	"github.com/orris-inc/kanban/internal/shared/validation"
)

const (
	tagStage    = "ticket_stage"
	tagPriority = "ticket_priority"
	tagDueDate  = "duedate"
)

func init() {
	validation.RegisterAlias(tagStage, "oneof="+validation.OneOf(vo.StageNames()), nil)
	validation.RegisterAlias(tagPriority, "oneof="+validation.OneOf(vo.PriorityNames()), nil)
	if err := validation.RegisterValidation(tagDueDate, validDueDate, dueDateMessage); err != nil {
		panic(err)
	}
}

// TicketForm holds the raw values of the create/edit form.
type TicketForm struct {
	Title       string  `json:"title" label:"Title" validate:"required"`
	Description string  `json:"description" label:"Description" validate:"required"`
	Status      string  `json:"status" label:"Status" validate:"ticket_stage"`
	Assignee    string  `json:"assignee" label:"Assignee" validate:"required"`
	Priority    string  `json:"priority" label:"Priority" validate:"required,ticket_priority"`
	DueDate     *string `json:"dueDate" label:"Due date" validate:"omitempty,duedate"`
}

// NewTicketForm returns the values a blank create form starts with.
func NewTicketForm() TicketForm {
	return TicketForm{
		Status:   vo.StageToDo.String(),
		Priority: vo.PriorityLow.String(),
	}
}

// FormFromTicket prefills the edit form from an existing ticket.
func FormFromTicket(t *ticket.Ticket) TicketForm {
	f := TicketForm{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		Assignee:    t.Assignee,
		Priority:    t.Priority.String(),
	}
	if f.Priority == "" {
		f.Priority = vo.PriorityLow.String()
	}
	if t.HasDueDate() {
		due := biztime.FormatDate(t.DueDate)
		f.DueDate = &due
	}
	return f
}

// Validate checks the form and converts it into the body sent to the
// server. A blank status falls back to To Do; a blank due date is sent as
// null.
func (f TicketForm) Validate() (ticket.TicketInput, validation.FieldErrors) {
	if strings.TrimSpace(f.Status) == "" {
		f.Status = vo.StageToDo.String()
	}
	if errs := validation.ValidateStruct(&f); errs != nil {
		return ticket.TicketInput{}, errs
	}

	due, err := biztime.NormalizeDueDate(f.DueDate)
	if err != nil {
		return ticket.TicketInput{}, validation.FieldErrors{"dueDate": invalidDueDate(*f.DueDate)}
	}

	return ticket.TicketInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      vo.Stage(f.Status),
		Assignee:    f.Assignee,
		Priority:    vo.Priority(f.Priority),
		DueDate:     due,
	}, nil
}

func validDueDate(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	raw := field.String()
	if strings.TrimSpace(raw) == "" {
		return true
	}
	_, err := biztime.ParseDueDate(raw)
	return err == nil
}

func dueDateMessage(_ string, fe validator.FieldError) string {
	return invalidDueDate(fmt.Sprint(validation.FieldValue(fe)))
}

func invalidDueDate(raw string) string {
	return "Invalid due date value: " + raw
}
