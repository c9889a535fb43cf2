package board

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orris-inc/kanban/internal/domain/ticket"
)

func newShowCommand(root *rootOptions) *cobra.Command {
	var (
		allActivity bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a ticket with its comments, activity and attachments",
		Long: `Show a ticket with its comments, activity log and attachments. The
activity log lists the newest entries first and is cut to the two most
recent unless --all-activity is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			t, err := s.findTicket(args[0])
			if err != nil {
				return err
			}

			d, err := s.controller.Detail(cmd.Context(), t.ID)
			if err != nil {
				return fmt.Errorf("failed to load ticket %s: %w", t.ID, err)
			}

			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, toDetailView(d, allActivity))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), NewRenderer(cmd.OutOrStdout()).Detail(d, allActivity))
			return err
		},
	}

	cmd.Flags().BoolVar(&allActivity, "all-activity", false, "Show the whole activity log")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, yaml")

	return cmd
}

func newCommentCommand(root *rootOptions) *cobra.Command {
	var author, text string

	cmd := &cobra.Command{
		Use:     "comment <id>",
		Short:   "Add a comment to a ticket",
		Example: `  kanban comment 7 --author "sujit ghongade" --text "Reproduced on staging"`,
		Args:    cobra.ExactArgs(1),
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

			if !s.controller.AddComment(cmd.Context(), t.ID, author, text) {
				return failure(s)
			}
			return report(cmd, s)
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Comment author")
	cmd.Flags().StringVar(&text, "text", "", "Comment text")

	return cmd
}

func newAttachCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Upload a file as an attachment of a ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open attachment: %w", err)
			}
			defer f.Close()

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

			if !s.controller.UploadAttachment(cmd.Context(), t.ID, filepath.Base(f.Name()), f) {
				return failure(s)
			}
			return report(cmd, s)
		},
	}

	return cmd
}

func newDetachCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detach <attachment-id>",
		Short: "Delete an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ticket.ID(strings.TrimSpace(args[0]))
			if id.IsZero() {
				return fmt.Errorf("attachment id is empty")
			}

			s, err := root.newSession(false, 0)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.controller.DeleteAttachment(cmd.Context(), id) {
				return failure(s)
			}
			return report(cmd, s)
		},
	}

	return cmd
}
