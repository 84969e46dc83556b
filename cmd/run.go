// File: cmd/run.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"github.com/xkilldash9x/voicepilot/internal/engine"
	"github.com/xkilldash9x/voicepilot/internal/interpret"
	"github.com/xkilldash9x/voicepilot/internal/observability"
)

// newRunCmd creates the `run` command: the full pipeline from text to an
// executed browser session.
func newRunCmd() *cobra.Command {
	var (
		contextHint     string
		domain          string
		headless        bool
		continueOnError bool
		dryRun          bool
		minConfidence   float64
	)

	runCmd := &cobra.Command{
		Use:   "run [text...]",
		Short: "Interpret text and execute the resulting commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			text := strings.Join(args, " ")

			parser := interpret.NewParser(*appConfig, logger)
			result, err := parser.ParseCommands(ctx, text, interpret.Options{
				Context: contextHint,
				Domain:  domain,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd, result); err != nil {
				return err
			}

			if !result.Success || len(result.Commands) == 0 {
				return fmt.Errorf("interpretation produced no executable commands")
			}
			if result.Confidence < minConfidence {
				return fmt.Errorf("confidence %.2f below threshold %.2f, refusing to execute",
					result.Confidence, minConfidence)
			}
			if dryRun {
				logger.Info("Dry run, skipping execution",
					zap.Int("commands", len(result.Commands)))
				return nil
			}

			opts := schemas.ExecuteOptions{}
			if cmd.Flags().Changed("headless") {
				opts.Headless = &headless
			}
			if continueOnError {
				stop := false
				opts.StopOnError = &stop
			}

			eng := engine.New(*appConfig, logger)
			defer eng.Close()

			report, err := eng.ExecuteCommands(ctx, result.Commands, opts)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if report.FailedCommands > 0 {
				return fmt.Errorf("%d of %d commands failed", report.FailedCommands, report.ExecutedCommands)
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&contextHint, "context", "", "automation context hint passed to the interpreter")
	runCmd.Flags().StringVar(&domain, "domain", "", "target site hint passed to the interpreter")
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	runCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep executing after a command fails")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "interpret only, do not launch a browser")
	runCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "refuse to execute below this interpretation confidence")
	return runCmd
}
