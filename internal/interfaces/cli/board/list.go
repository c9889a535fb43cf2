package board

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	boardApp "github.com/orris-inc/kanban/internal/application/board"
	vo "github.com/orris-inc/kanban/internal/domain/ticket/valueobjects"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

type filterFlags struct {
	search   string
	priority string
	status   string
	assignee string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Case-insensitive search in title and description")
	cmd.Flags().StringVar(&f.priority, "priority", boardApp.FilterAll, "Priority filter")
	cmd.Flags().StringVar(&f.status, "status", boardApp.FilterAll, "Status filter")
	cmd.Flags().StringVar(&f.assignee, "assignee", boardApp.FilterAll, "Assignee filter")

	_ = cmd.RegisterFlagCompletionFunc("priority", fixedCompletion(append([]string{boardApp.FilterAll}, vo.PriorityNames()...)))
	_ = cmd.RegisterFlagCompletionFunc("status", fixedCompletion(append([]string{boardApp.FilterAll}, vo.StageNames()...)))
}

func (f *filterFlags) apply(c *boardApp.Controller) error {
	if err := f.applyFixed(c); err != nil {
		return err
	}
	return c.SetAssigneeFilter(f.assignee)
}

// applyFixed sets the filters that do not depend on the loaded tickets.
// The assignee filter is checked against the assignees on the board.
func (f *filterFlags) applyFixed(c *boardApp.Controller) error {
	c.SetSearch(f.search)
	if err := c.SetPriorityFilter(f.priority); err != nil {
		return err
	}
	return c.SetStatusFilter(f.status)
}

func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func newBoardCommand(root *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the ticket board",
		Long: `Show the ticket board: one column per stage, cards in server order.
Filters combine; a ticket is shown only when it passes all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
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
			if err := filters.apply(s.controller); err != nil {
				return err
			}

			st := s.controller.Snapshot()
			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, toColumnViews(st.Columns()))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), NewRenderer(cmd.OutOrStdout()).Board(st))
			return err
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, yaml")

	return cmd
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	var (
		filters  filterFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the ticket board and refresh it on every poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("interval must be positive, got %s", interval)
				}
			}

			s, err := root.newSession(true, interval)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			renderer := NewRenderer(out)
			redraw := isTerminal(out)

			changed := make(chan struct{}, 1)
			s.controller.Subscribe(func(boardApp.State) {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

			// A failed first load is rendered; polling keeps retrying and the
			// assignee filter waits for the first list.
			pendingAssignee := false
			if err := s.controller.Open(ctx); err != nil {
				s.log.Warnw("initial load failed", "error", err)
				pendingAssignee = filters.assignee != boardApp.FilterAll
				if err := filters.applyFixed(s.controller); err != nil {
					return err
				}
			} else if err := filters.apply(s.controller); err != nil {
				return err
			}

			draw := func() {
				frame := renderer.Board(s.controller.Snapshot())
				if redraw {
					frame = clearScreen + frame
				}
				_, _ = io.WriteString(out, frame)
			}
			draw()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changed:
					if pendingAssignee && s.controller.Snapshot().Load == boardApp.LoadReady {
						pendingAssignee = false
						if err := s.controller.SetAssigneeFilter(filters.assignee); err != nil {
							return err
						}
					}
					draw()
				}
			}
		},
	}

	filters.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to board.poll_interval)")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
