package main

import (
	"os"

	"github.com/orris-inc/kanban/internal/interfaces/cli/board"
)

func main() {
	if err := board.NewRootCommand().Execute(); err != nil {
		os.Exit(board.ExitCode(err))
	}
}
