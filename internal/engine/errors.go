// File: internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch indicates executeCommands was called with no commands.
	ErrEmptyBatch = errors.New("engine: command batch is empty")
	// ErrBatchTooLarge indicates the batch exceeds the configured cap.
	ErrBatchTooLarge = errors.New("engine: command batch too large")
	// ErrNotSupported indicates an action outside the closed vocabulary
	// reached the engine. The validator normally filters these out.
	ErrNotSupported = errors.New("engine: unsupported action")
)

// InitError wraps a browser launch or readiness failure. The session is left
// uninitialized when this is returned.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("browser initialization failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
