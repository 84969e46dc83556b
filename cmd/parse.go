// File: cmd/parse.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/voicepilot/internal/interpret"
	"github.com/xkilldash9x/voicepilot/internal/observability"
)

// newParseCmd creates the `parse` command: text in, interpreted commands out,
// nothing executed.
func newParseCmd() *cobra.Command {
	var (
		contextHint  string
		domain       string
		showExamples bool
	)

	parseCmd := &cobra.Command{
		Use:   "parse [text...]",
		Short: "Interpret text into browser commands without executing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showExamples {
				return printJSON(cmd, interpret.Examples())
			}
			if len(args) == 0 {
				return fmt.Errorf("provide the text to interpret, or use --examples")
			}

			text := strings.Join(args, " ")
			parser := interpret.NewParser(*appConfig, observability.GetLogger())

			result, err := parser.ParseCommands(cmd.Context(), text, interpret.Options{
				Context: contextHint,
				Domain:  domain,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	parseCmd.Flags().StringVar(&contextHint, "context", "", "automation context hint passed to the interpreter")
	parseCmd.Flags().StringVar(&domain, "domain", "", "target site hint passed to the interpreter")
	parseCmd.Flags().BoolVar(&showExamples, "examples", false, "print canned interpretation examples and exit")
	return parseCmd
}
