// File: internal/interpret/parser.go

// Package interpret turns free-form transcribed text into validated browser
// commands via an external completion service.
package interpret

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"github.com/xkilldash9x/voicepilot/internal/command"
	"github.com/xkilldash9x/voicepilot/internal/config"
	"github.com/xkilldash9x/voicepilot/internal/llmclient"
	"github.com/xkilldash9x/voicepilot/internal/llmutil"
)

// ErrTextLength indicates the input text violates the 1..MaxTextLength
// precondition. Reported before any prompt is built or request sent.
type ErrTextLength struct {
	Length int
	Max    int
}

func (e *ErrTextLength) Error() string {
	return fmt.Sprintf("text length %d outside valid range [1, %d]", e.Length, e.Max)
}

// actionKeywords raise confidence when they appear in the input text.
var actionKeywords = []string{
	"open", "click", "type", "search", "navigate", "go to", "visit",
	"press", "scroll", "screenshot", "extract",
}

// Options carries per-call hints forwarded to the completion service.
type Options struct {
	Context string
	Domain  string
}

// rawResponse is the untrusted shape the completion service is asked to emit.
type rawResponse struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Commands   []schemas.Command `json:"commands"`
	Metadata   struct {
		Language   string `json:"language"`
		Complexity string `json:"complexity"`
	} `json:"metadata"`
}

// Parser interprets transcribed text. The completion client is constructed
// lazily on first use and reused across calls; Parser carries no other state.
type Parser struct {
	cfg       config.Config
	log       *zap.Logger
	validator *command.Validator

	clientOnce sync.Once
	client     schemas.CompletionClient
	clientErr  error
}

// NewParser creates a Parser. The completion client is not constructed until
// the first ParseCommands call, so a missing credential only fails then.
func NewParser(cfg config.Config, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		cfg:       cfg,
		log:       logger.Named("interpret"),
		validator: command.NewValidator(logger),
	}
}

// NewParserWithClient creates a Parser bound to an existing client.
func NewParserWithClient(cfg config.Config, logger *zap.Logger, client schemas.CompletionClient) *Parser {
	p := NewParser(cfg, logger)
	p.clientOnce.Do(func() { p.client = client })
	return p
}

func (p *Parser) getClient() (schemas.CompletionClient, error) {
	p.clientOnce.Do(func() {
		p.client, p.clientErr = llmclient.NewClient(p.cfg.LLM, p.log)
	})
	return p.client, p.clientErr
}

// ParseCommands interprets text into an ordered, validated command list.
// Transport, authentication, and rate-limit failures return an error; a
// malformed completion response returns a recoverable ParsingResult with
// Success false and Confidence 0.1.
func (p *Parser) ParseCommands(ctx context.Context, text string, opts Options) (schemas.ParsingResult, error) {
	maxLen := p.cfg.NLP.MaxTextLength
	if maxLen <= 0 {
		maxLen = 1000
	}
	// The bound is on characters, not bytes; multibyte input counts per rune.
	if n := utf8.RuneCountInString(text); n == 0 || n > maxLen {
		return schemas.ParsingResult{}, &ErrTextLength{Length: n, Max: maxLen}
	}

	p.log.Info("Interpreting transcribed text",
		zap.Int("text_length", len(text)),
		zap.String("preview", preview(text, 100)))

	client, err := p.getClient()
	if err != nil {
		return schemas.ParsingResult{}, err
	}

	if opts.Context == "" {
		opts.Context = p.cfg.NLP.DefaultContext
	}
	if opts.Domain == "" {
		opts.Domain = p.cfg.NLP.DefaultDomain
	}

	raw, err := client.Complete(ctx, schemas.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(text, opts.Context, opts.Domain),
		Options: schemas.CompletionOptions{
			Temperature:     p.cfg.LLM.Temperature,
			MaxTokens:       p.cfg.LLM.MaxTokens,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return schemas.ParsingResult{}, fmt.Errorf("completion request failed: %w", err)
	}

	result := p.processResponse(raw, text)

	p.log.Info("Commands extracted",
		zap.Int("command_count", len(result.Commands)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("success", result.Success))

	return result, nil
}

// processResponse parses the untrusted completion output. Shape problems are
// recoverable outcomes, not errors.
func (p *Parser) processResponse(raw, originalText string) schemas.ParsingResult {
	parsed, err := llmutil.ParseJSONResponse[rawResponse](raw)
	if err != nil {
		return p.failureResult(originalText, err)
	}
	if parsed.Commands == nil {
		return p.failureResult(originalText, fmt.Errorf("response lacks a commands array"))
	}

	validated := p.validator.ValidateBatch(parsed.Commands)

	baseConfidence := parsed.Confidence
	if baseConfidence == 0 {
		baseConfidence = 0.5
	}

	intent := parsed.Intent
	if intent == "" {
		intent = "Unspecified command"
	}

	return schemas.ParsingResult{
		Success:    true,
		Intent:     intent,
		Confidence: adjustConfidence(baseConfidence, len(validated), originalText),
		Commands:   validated,
		Metadata: schemas.ParsingMetadata{
			OriginalText: originalText,
			ParsedAt:     time.Now().UTC(),
			CommandCount: len(validated),
			Language:     parsed.Metadata.Language,
			Complexity:   parsed.Metadata.Complexity,
		},
	}
}

func (p *Parser) failureResult(originalText string, cause error) schemas.ParsingResult {
	p.log.Error("Failed to process completion response", zap.Error(cause))
	return schemas.ParsingResult{
		Success:    false,
		Intent:     "Interpretation failed",
		Confidence: 0.1,
		Commands:   []schemas.Command{},
		Metadata: schemas.ParsingMetadata{
			OriginalText: originalText,
			ParsedAt:     time.Now().UTC(),
			Error:        cause.Error(),
		},
	}
}

// adjustConfidence reshapes the service's self-reported confidence using
// properties of the validated output and the input text.
func adjustConfidence(base float64, commandCount int, originalText string) float64 {
	adjusted := base

	if commandCount == 0 {
		adjusted *= 0.3
	}
	if commandCount > 1 {
		adjusted = math.Min(1, adjusted+0.1)
	}
	if len(originalText) < 10 {
		adjusted *= 0.7
	}

	lower := strings.ToLower(originalText)
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			adjusted = math.Min(1, adjusted+0.15)
			break
		}
	}

	return math.Round(adjusted*100) / 100
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Example pairs an input utterance with the commands it should produce.
type Example struct {
	Input    string            `json:"input"`
	Expected []schemas.Command `json:"expected"`
}

// Examples returns canned interpretations used in CLI help output.
func Examples() []Example {
	return []Example{
		{
			Input: "Open Google and search for artificial intelligence",
			Expected: []schemas.Command{
				{Action: schemas.ActionNavigate, Target: "https://google.com"},
				{Action: schemas.ActionType, Target: "input[name='q']", Value: "artificial intelligence"},
				{Action: schemas.ActionClick, Target: "input[type='submit']"},
			},
		},
		{
			Input: "Click the submit button",
			Expected: []schemas.Command{
				{Action: schemas.ActionClick, Target: "button", Text: "submit"},
			},
		},
		{
			Input: "Type my email in the login field",
			Expected: []schemas.Command{
				{Action: schemas.ActionType, Target: "input[type='email']", Value: "{email}"},
			},
		},
	}
}
