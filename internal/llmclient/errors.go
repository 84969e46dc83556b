// File: internal/llmclient/errors.go
package llmclient

import "errors"

var (
	// ErrAuthentication indicates a missing or rejected API credential.
	ErrAuthentication = errors.New("llmclient: authentication failed")
	// ErrRateLimited indicates the provider refused the request after the
	// retry budget was exhausted.
	ErrRateLimited = errors.New("llmclient: rate limited")
)
