// Package board implements the kanban command line front end. Every
// command drives a board controller and renders its state; no command
// talks to the ticket API directly.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	boardApp "github.com/orris-inc/kanban/internal/application/board"
	"github.com/orris-inc/kanban/internal/domain/ticket"
	"github.com/orris-inc/kanban/internal/infrastructure/cache"
	"github.com/orris-inc/kanban/internal/infrastructure/config"
	"github.com/orris-inc/kanban/internal/infrastructure/gateway"
	"github.com/orris-inc/kanban/internal/infrastructure/restapi"
	"github.com/orris-inc/kanban/internal/infrastructure/scheduler"
	appErrors "github.com/orris-inc/kanban/internal/shared/errors"
	"github.com/orris-inc/kanban/internal/shared/logger"
)

type rootOptions struct {
	configFile string
	baseURL    string
	logLevel   string
}

// NewRootCommand builds the kanban command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kanban",
		Short: "Kanban ticket board client",
		Long: `kanban renders the ticket board of a remote ticket service and
edits tickets, comments and attachments through it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Ticket API base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newBoardCommand(opts),
		newWatchCommand(opts),
		newShowCommand(opts),
		newCreateCommand(opts),
		newEditCommand(opts),
		newMoveCommand(opts),
		newDeleteCommand(opts),
		newCommentCommand(opts),
		newAttachCommand(opts),
		newDetachCommand(opts),
	)

	return cmd
}

// ExitCode maps a command error to the process exit status: 2 for input
// the board rejected, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case appErrors.IsValidationError(err):
		return 2
	default:
		return 1
	}
}

// session is the wiring shared by every command.
type session struct {
	cfg        *config.Config
	log        logger.Interface
	apiURL     string
	controller *boardApp.Controller
}

// newSession loads configuration and builds the controller stack. With
// polling set the controller refetches once opened, every interval or
// every board.poll_interval when interval is zero.
func (o *rootOptions) newSession(polling bool, interval time.Duration) (*session, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.baseURL != "" {
		cfg.API.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.Logger.Level = o.logLevel
	}
	if interval > 0 {
		cfg.Board.PollInterval = interval
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	client, err := restapi.NewClient(cfg.API.BaseURL,
		restapi.WithTimeout(cfg.API.Timeout),
		restapi.WithUserAgent(cfg.API.UserAgent),
		restapi.WithLogger(log.Named("restapi")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	gw := gateway.New(client, cache.NewQueryCache(), log.Named("gateway"))

	opts := []boardApp.Option{
		boardApp.WithLogger(log.Named("board")),
		boardApp.WithPollInterval(cfg.Board.PollInterval),
	}
	if polling {
		sched, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
		if err != nil {
			return nil, fmt.Errorf("failed to create scheduler: %w", err)
		}
		opts = append(opts, boardApp.WithScheduler(sched))
	}

	return &session{
		cfg:        cfg,
		log:        log,
		apiURL:     client.BaseURL(),
		controller: boardApp.NewController(gw, opts...),
	}, nil
}

// open loads the ticket list.
func (s *session) open(ctx context.Context) error {
	if err := s.controller.Open(ctx); err != nil {
		return fmt.Errorf("failed to load tickets: %w", err)
	}
	return nil
}

func (s *session) Close() {
	s.controller.Close()
}

// findTicket resolves a ticket reference given on the command line. Both
// the ID and the ticket number are accepted.
func (s *session) findTicket(ref string) (ticket.Ticket, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ticket.Ticket{}, fmt.Errorf("ticket reference is empty")
	}
	st := s.controller.Snapshot()
	if t, ok := st.Ticket(ticket.ID(ref)); ok {
		return t, nil
	}
	for _, t := range st.Tickets {
		if t.TicketNumber != "" && strings.EqualFold(t.TicketNumber, ref) {
			return t, nil
		}
	}
	return ticket.Ticket{}, appErrors.NewNotFoundError(fmt.Sprintf("ticket %s not found", ref))
}

// checkAssignee rejects assignees outside the configured list. An empty
// list accepts any name.
func (s *session) checkAssignee(name string) error {
	known := s.cfg.Board.Assignees
	if len(known) == 0 {
		return nil
	}
	for _, a := range known {
		if a == name {
			return nil
		}
	}
	return appErrors.NewValidationError(fmt.Sprintf("unknown assignee %q", name), "configured: "+strings.Join(known, ", "))
}
