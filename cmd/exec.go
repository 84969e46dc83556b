// File: cmd/exec.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"github.com/xkilldash9x/voicepilot/internal/command"
	"github.com/xkilldash9x/voicepilot/internal/engine"
	"github.com/xkilldash9x/voicepilot/internal/observability"
)

// execRequest is the accepted input document: a command list plus options.
// A bare JSON array of commands is also accepted.
type execRequest struct {
	Commands []schemas.Command      `json:"commands"`
	Options  schemas.ExecuteOptions `json:"options"`
}

// newExecCmd creates the `exec` command: run a prepared command batch from a
// JSON document, skipping interpretation.
func newExecCmd() *cobra.Command {
	var (
		file            string
		headless        bool
		continueOnError bool
	)

	execCmd := &cobra.Command{
		Use:   "exec [json]",
		Short: "Execute a JSON command batch against a browser session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
				raw = data
			case len(args) == 1:
				raw = []byte(args[0])
			default:
				return fmt.Errorf("provide a JSON document as an argument or via --file")
			}

			req, err := decodeExecRequest(raw)
			if err != nil {
				return err
			}

			logger := observability.GetLogger()
			validated := command.NewValidator(logger).ValidateBatch(req.Commands)
			if len(validated) == 0 {
				return fmt.Errorf("no valid commands in input (%d rejected)", len(req.Commands))
			}

			if cmd.Flags().Changed("headless") {
				req.Options.Headless = &headless
			}
			if continueOnError {
				stop := false
				req.Options.StopOnError = &stop
			}

			eng := engine.New(*appConfig, logger)
			defer eng.Close()

			report, err := eng.ExecuteCommands(cmd.Context(), validated, req.Options)
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

	execCmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON file with the command batch")
	execCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	execCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep executing after a command fails")
	return execCmd
}

func decodeExecRequest(raw []byte) (*execRequest, error) {
	var req execRequest
	if err := json.Unmarshal(raw, &req); err == nil && len(req.Commands) > 0 {
		return &req, nil
	}

	var commands []schemas.Command
	if err := json.Unmarshal(raw, &commands); err != nil {
		return nil, fmt.Errorf("input is neither a {commands:[...]} document nor a command array: %w", err)
	}
	return &execRequest{Commands: commands}, nil
}
