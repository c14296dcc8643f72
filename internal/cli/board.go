package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/TWRT/buildtrack/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBoardCmd(flags *globalFlags) *cobra.Command {
	var logPath string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive status board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			// The board owns the terminal, so log lines go to a file or nowhere.
			if logPath != "" {
				f, err := tea.LogToFile(logPath, "board")
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
			} else {
				log.SetOutput(io.Discard)
			}

			return tui.Run(cmd.Context(), svc)
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "Write log output to this file while the board is open")
	return cmd
}
