package schemas

import "context"

// CompletionOptions tunes a single generation request.
type CompletionOptions struct {
	// Temperature controls sampling; the interpretation pipeline runs low
	// (0.1) to favor deterministic, parseable output.
	Temperature float64
	// MaxTokens caps the generated response length.
	MaxTokens int
	// ForceJSONFormat asks the provider for a JSON-object response when the
	// API supports it.
	ForceJSONFormat bool
}

// CompletionRequest is one request to the external completion service: a
// fixed system instruction plus a user message.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Options      CompletionOptions
}

// CompletionClient abstracts the external language-model completion service.
// Implementations live in internal/llmclient; consumers depend on this
// interface so the pipeline can be tested against a stub.
type CompletionClient interface {
	// Complete sends the request and returns the raw textual response.
	// Authentication and rate-limit failures are reported as typed errors
	// (see llmclient.ErrAuthentication, llmclient.ErrRateLimited).
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
