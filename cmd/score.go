// File: cmd/score.go
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/voicepilot/internal/confidence"
)

// newScoreCmd creates the `score` command: report transcript plausibility
// without touching the interpreter or a browser.
func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [text...]",
		Short: "Score how plausible a transcript is as natural language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return printJSON(cmd, confidence.Statistics(text))
		},
	}
}
