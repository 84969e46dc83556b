// File: internal/command/validator.go

// Package command normalizes raw commands produced by the interpretation
// pipeline into the closed vocabulary the execution engine accepts.
package command

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"go.uber.org/zap"
)

// siteAliases maps spoken destination names to canonical URLs.
var siteAliases = map[string]string{
	"google":   "https://google.com",
	"youtube":  "https://youtube.com",
	"facebook": "https://facebook.com",
	"gmail":    "https://gmail.com",
	"github":   "https://github.com",
}

// Validator checks raw commands against the supported vocabulary and fills
// per-action defaults. It is pure: no I/O beyond logging, no retries.
type Validator struct {
	log *zap.Logger
}

// NewValidator creates a Validator. A nil logger falls back to a no-op.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{log: logger.Named("validator")}
}

// ValidateCommand validates a single raw command at position index. It
// returns the normalized command and true, or the zero command and false when
// the action is unsupported. Re-validating an already validated command is a
// no-op. Unknown optional fields are preserved, never rejected.
func (v *Validator) ValidateCommand(raw schemas.Command, index int) (schemas.Command, bool) {
	if !raw.Action.Valid() {
		v.log.Warn("Unsupported action rejected",
			zap.String("action", string(raw.Action)),
			zap.Int("index", index))
		return schemas.Command{}, false
	}

	cmd := raw
	cmd.ID = fmt.Sprintf("cmd_%d", index+1)
	if cmd.Description == "" {
		cmd.Description = fmt.Sprintf("Command %s", cmd.Action)
	}
	if cmd.Priority == 0 {
		cmd.Priority = index + 1
	}

	switch cmd.Action {
	case schemas.ActionNavigate:
		cmd.Target = NormalizeURL(cmd.Target)
	case schemas.ActionClick:
		if cmd.Target == "" {
			cmd.Target = "button"
		}
	case schemas.ActionType:
		if cmd.Target == "" {
			cmd.Target = "input"
		}
		if cmd.Value == "" {
			cmd.Value = cmd.Text
		}
	case schemas.ActionSearch:
		if cmd.Query == "" {
			cmd.Query = cmd.Value
		}
		if cmd.Query == "" {
			cmd.Query = cmd.Text
		}
	case schemas.ActionWait:
		if cmd.DurationMs <= 0 {
			cmd.DurationMs = 2000
		}
	case schemas.ActionScroll:
		if cmd.Direction == "" {
			cmd.Direction = "down"
		}
		if cmd.Amount == "" {
			cmd.Amount = "page"
		}
	case schemas.ActionExtract:
		if cmd.Target == "" {
			cmd.Target = "body"
		}
		if cmd.Attribute == "" {
			cmd.Attribute = "text"
		}
	case schemas.ActionScreenshot:
		// Optional target doubles as the output filename.
	}

	return cmd, true
}

// ValidateBatch validates a raw list in order, dropping rejected entries.
// Indices for ID and priority assignment follow the raw list positions.
func (v *Validator) ValidateBatch(raw []schemas.Command) []schemas.Command {
	validated := make([]schemas.Command, 0, len(raw))
	for i, rc := range raw {
		if cmd, ok := v.ValidateCommand(rc, i); ok {
			validated = append(validated, cmd)
		}
	}
	return validated
}

// NormalizeURL resolves destination aliases and prefixes a scheme. An empty
// target maps to about:blank; navigation rejects it at execution time.
func NormalizeURL(target string) string {
	if target == "" {
		return "about:blank"
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if canonical, ok := siteAliases[strings.ToLower(target)]; ok {
		return canonical
	}
	return "https://" + target
}
