package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	boardApp "github.com/orris-inc/kanban/internal/application/board"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
	appErrors "github.com/orris-inc/kanban/internal/shared/errors"
)

// errNotConfirmed is returned when a deletion is declined.
var errNotConfirmed = errors.New("deletion cancelled")

type formFlags struct {
	title       string
	description string
	status      string
	assignee    string
	priority    string
	due         string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Ticket title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Ticket description")
	cmd.Flags().StringVar(&f.status, "status", "", "Stage: "+strings.Join(vo.StageNames(), ", "))
	cmd.Flags().StringVarP(&f.assignee, "assignee", "a", "", "Assignee")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "Priority: "+strings.Join(vo.PriorityNames(), ", "))
	cmd.Flags().StringVar(&f.due, "due", "", "Due date, YYYY-MM-DD (empty clears it)")

	_ = cmd.RegisterFlagCompletionFunc("status", fixedCompletion(vo.StageNames()))
	_ = cmd.RegisterFlagCompletionFunc("priority", fixedCompletion(vo.PriorityNames()))
}

// fill copies the flags given on the command line into form.
func (f *formFlags) fill(cmd *cobra.Command, form *boardApp.TicketForm) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		form.Title = f.title
	}
	if flags.Changed("description") {
		form.Description = f.description
	}
	if flags.Changed("status") {
		form.Status = f.status
	}
	if flags.Changed("assignee") {
		form.Assignee = f.assignee
	}
	if flags.Changed("priority") {
		form.Priority = f.priority
	}
	if flags.Changed("due") {
		due := f.due
		form.DueDate = &due
	}
}

// submit runs the open form dialog and reports its outcome.
func submit(cmd *cobra.Command, s *session, form boardApp.TicketForm) error {
	if cmd.Flags().Changed("assignee") {
		if err := s.checkAssignee(form.Assignee); err != nil {
			return err
		}
	}

	if s.controller.Submit(cmd.Context(), form) {
		return report(cmd, s)
	}

	st := s.controller.Snapshot()
	if fieldErrs := st.Dialog.FieldErrors; len(fieldErrs) > 0 {
		fields := make([]string, 0, len(fieldErrs))
		for field := range fieldErrs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, fieldErrs[field])
		}
		return fmt.Errorf("invalid ticket: %d field(s) rejected: %w", len(fieldErrs), fieldErrs.AsAppError())
	}
	return failure(s)
}

// report prints a successful outcome.
func report(cmd *cobra.Command, s *session) error {
	n := s.controller.Snapshot().Notification
	if line := NewRenderer(cmd.OutOrStdout()).Notification(n); line != "" {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// failure turns a failed outcome into the command error: the notification
// text, plus what went wrong on the wire when that is known.
func failure(s *session) error {
	n := s.controller.Snapshot().Notification
	msg := boardApp.MsgOperationFailed
	if n.Visible && !n.Success {
		msg = n.Message
	}

	switch {
	case n.Err == nil:
		return errors.New(msg)
	case appErrors.IsNetworkError(n.Err):
		return fmt.Errorf("%s (cannot reach %s)", msg, s.apiURL)
	case appErrors.IsNotFoundError(n.Err):
		return fmt.Errorf("%s (not found on the server)", msg)
	case appErrors.IsServerError(n.Err):
		return fmt.Errorf("%s (server answered %d)", msg, appErrors.GetAppError(n.Err).Code)
	default:
		return errors.New(msg)
	}
}

func newCreateCommand(root *rootOptions) *cobra.Command {
	var form formFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket",
		Example: `  kanban create --title "Fix login bug" --description "500 on submit" \
    --assignee "pallavi mashalkar" --priority High --due 2024-07-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.newSession(false, 0)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.open(cmd.Context()); err != nil {
				return err
			}

			values := boardApp.NewTicketForm()
			form.fill(cmd, &values)
			s.controller.OpenCreate()
			return submit(cmd, s, values)
		},
	}

	form.register(cmd)
	return cmd
}

func newEditCommand(root *rootOptions) *cobra.Command {
	var form formFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a ticket",
		Long: `Edit a ticket. Fields not given keep their current value; the whole
ticket is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(false, 0)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.open(cmd.Context()); err != nil {
				return err
			}
			t, err := s.findTicket(args[0])
			if err != nil {
				return err
			}

			values := boardApp.FormFromTicket(&t)
			form.fill(cmd, &values)
			s.controller.OpenEdit(t)
			return submit(cmd, s, values)
		},
	}

	form.register(cmd)
	return cmd
}

func newMoveCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a ticket to another stage",
		Long: `Move a ticket to another stage, as dragging its card to another
column does. Moving a ticket to its current stage does nothing.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return vo.StageNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := vo.NewStage(args[1])
			if err != nil {
				return err
			}

			s, err := root.newSession(false, 0)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.open(cmd.Context()); err != nil {
				return err
			}
			t, err := s.findTicket(args[0])
			if err != nil {
				return err
			}
			if t.Status == stage {
				fmt.Fprintf(cmd.OutOrStdout(), "TKT-%s is already in %s.\n", t.DisplayNumber(), stage)
				return nil
			}

			s.controller.BeginDrag(t.ID)
			if !s.controller.EndDrag(cmd.Context(), boardApp.Drop{TicketID: t.ID, Destination: &stage}) {
				return failure(s)
			}
			return report(cmd, s)
		},
	}

	return cmd
}

func newDeleteCommand(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ticket",
		Long: `Delete a ticket. Asks for confirmation unless --yes is given; without
a terminal on stdin --yes is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(false, 0)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.open(cmd.Context()); err != nil {
				return err
			}
			t, err := s.findTicket(args[0])
			if err != nil {
				return err
			}

			s.controller.RequestDelete(t)
			if !yes {
				question := fmt.Sprintf("Delete TKT-%s %q?", t.DisplayNumber(), t.Title)
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question)
				if err != nil {
					s.controller.CloseDialog()
					return err
				}
				if !ok {
					s.controller.CloseDialog()
					return errNotConfirmed
				}
			}

			if !s.controller.ConfirmDelete(cmd.Context()) {
				return failure(s)
			}
			return report(cmd, s)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

// confirm asks a yes/no question on in. Only "y" or "yes" confirms. A
// non-terminal standard input is refused so scripts must pass --yes.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("stdin is not a terminal, pass --yes to delete")
	}

	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
