// File: internal/engine/engine.go

// Package engine executes validated command batches against a single managed
// browser session. One engine owns exactly one browser and one page; batches
// run strictly in order, one command at a time. Concurrent ExecuteCommands
// calls against one engine must be serialized by the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"github.com/xkilldash9x/voicepilot/internal/config"
	"github.com/xkilldash9x/voicepilot/internal/stealth"
)

// Engine drives the browser session. The zero session state is
// uninitialized; ExecuteCommands initializes lazily.
type Engine struct {
	cfg     config.Config
	log     *zap.Logger
	persona stealth.Persona

	// run executes chromedp actions; swapped out in tests.
	run func(ctx context.Context, actions ...chromedp.Action) error

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	netWatch      *networkWatcher
	sessionID     string
	running       bool
}

// New creates an Engine. The browser is not launched until Initialize or the
// first ExecuteCommands call.
func New(cfg config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		log:     logger.Named("engine"),
		persona: stealth.DefaultPersona,
		run:     chromedp.Run,
	}
}

// Initialize launches the browser session: hardened launch flags, fixed
// viewport, persona countermeasures, a blank page, and a settle delay before
// readiness. An existing session is closed first, so re-initialization is
// safe. On failure the session stays uninitialized and an *InitError is
// returned.
func (e *Engine) Initialize(ctx context.Context, opts schemas.ExecuteOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.log.Info("Re-initializing: closing existing browser session")
		e.closeLocked()
	}
	if err := ctx.Err(); err != nil {
		return &InitError{Err: err}
	}

	headless := opts.HeadlessOrDefault(e.cfg.Browser.Headless)
	allocOpts := e.buildAllocatorOptions(headless)

	// The session must outlive the initializing call, so the allocator chain
	// hangs off the background context.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	netWatch := newNetworkWatcher(browserCtx, e.log)

	initCtx, cancel := context.WithTimeout(browserCtx, e.cfg.Network.ActionTimeout)
	defer cancel()

	err := e.run(initCtx,
		network.Enable(),
		stealth.Apply(e.persona, e.log),
		chromedp.Navigate("about:blank"),
		chromedp.Sleep(e.cfg.Automation.InitSettleDelay),
	)
	if err != nil {
		browserCancel()
		allocCancel()
		e.log.Error("Browser initialization failed", zap.Error(err))
		return &InitError{Err: err}
	}

	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	e.netWatch = netWatch
	e.sessionID = uuid.NewString()
	e.running = true

	e.log.Info("Browser session ready",
		zap.String("session_id", e.sessionID),
		zap.Bool("headless", headless))
	return nil
}

func (e *Engine) buildAllocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(e.cfg.Browser.ViewportWidth, e.cfg.Browser.ViewportHeight),
		chromedp.UserAgent(e.persona.UserAgent),
	)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	for _, arg := range e.cfg.Browser.Args {
		arg = strings.TrimPrefix(arg, "--")
		if name, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}
	return opts
}

// IsReady reports whether a live session exists.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && e.browserCtx != nil && e.browserCtx.Err() == nil
}

// ExecuteCommands runs a batch strictly in input order, one command at a
// time. A fixed pacing delay separates consecutive commands. When
// stop-on-error is set (the default), the first failure terminates the loop
// and skipped commands are absent from the report.
func (e *Engine) ExecuteCommands(ctx context.Context, commands []schemas.Command, opts schemas.ExecuteOptions) (*schemas.ExecutionReport, error) {
	if len(commands) == 0 {
		return nil, ErrEmptyBatch
	}
	if max := e.cfg.Automation.MaxBatchSize; max > 0 && len(commands) > max {
		return nil, fmt.Errorf("%w: %d commands exceeds limit of %d", ErrBatchTooLarge, len(commands), max)
	}

	if !e.IsReady() {
		if err := e.Initialize(ctx, opts); err != nil {
			return nil, err
		}
	}

	stopOnError := opts.StopOnErrorOrDefault()
	pacing := e.cfg.Automation.InterCommandDelay
	start := time.Now()

	results := make([]schemas.CommandResult, 0, len(commands))
	successful, failed := 0, 0

	for i, cmd := range commands {
		if ctx.Err() != nil {
			e.log.Warn("Batch aborted by context", zap.Int("executed", len(results)), zap.Error(ctx.Err()))
			break
		}

		e.log.Info("Executing command",
			zap.String("id", cmd.ID),
			zap.String("action", string(cmd.Action)),
			zap.Int("index", i))

		result, err := e.executeCommand(cmd)
		cr := schemas.CommandResult{
			CommandIndex: i,
			Command:      cmd,
			Result:       result,
			Success:      err == nil,
		}
		if err != nil {
			cr.Error = err.Error()
			failed++
			e.log.Warn("Command failed",
				zap.String("id", cmd.ID),
				zap.String("action", string(cmd.Action)),
				zap.Error(err))
		} else {
			successful++
		}
		results = append(results, cr)

		if err != nil && stopOnError {
			e.log.Info("Stopping batch on first error", zap.Int("remaining", len(commands)-i-1))
			break
		}

		// Pacing guard against sites that react to rapid scripted input.
		if i < len(commands)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(pacing):
			}
		}
	}

	report := &schemas.ExecutionReport{
		ExecutedCommands:   len(results),
		SuccessfulCommands: successful,
		FailedCommands:     failed,
		ExecutionTimeMs:    time.Since(start).Milliseconds(),
		Results:            results,
		Metadata: schemas.ReportMetadata{
			BrowserInfo: e.snapshotBrowserInfo(),
			ExecutedAt:  time.Now().UTC(),
		},
	}

	e.log.Info("Batch complete",
		zap.Int("executed", report.ExecutedCommands),
		zap.Int("successful", report.SuccessfulCommands),
		zap.Int("failed", report.FailedCommands),
		zap.Int64("duration_ms", report.ExecutionTimeMs))

	return report, nil
}

func (e *Engine) executeCommand(cmd schemas.Command) (*schemas.ActionResult, error) {
	switch cmd.Action {
	case schemas.ActionNavigate:
		return e.executeNavigate(cmd)
	case schemas.ActionClick:
		return e.executeClick(cmd)
	case schemas.ActionType:
		return e.executeType(cmd)
	case schemas.ActionSearch:
		return e.executeSearch(cmd)
	case schemas.ActionWait:
		return e.executeWait(cmd)
	case schemas.ActionScroll:
		return e.executeScroll(cmd)
	case schemas.ActionScreenshot:
		return e.executeScreenshot(cmd)
	case schemas.ActionExtract:
		return e.executeExtract(cmd)
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotSupported, cmd.Action)
	}
}

// snapshotBrowserInfo captures page state best-effort; failures land in the
// Error field rather than failing the report.
func (e *Engine) snapshotBrowserInfo() schemas.BrowserInfo {
	var info schemas.BrowserInfo
	if !e.IsReady() {
		info.Error = "no active browser session"
		return info
	}

	err := e.runWithTimeout(5*time.Second,
		chromedp.Location(&info.CurrentURL),
		chromedp.Title(&info.PageTitle),
		chromedp.Evaluate("navigator.userAgent", &info.UserAgent),
	)
	if err != nil {
		info.Error = err.Error()
	}
	return info
}

// Status reports the current session state.
func (e *Engine) Status() schemas.SessionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := e.browserCtx != nil && e.browserCtx.Err() == nil
	return schemas.SessionStatus{
		Running:       e.running,
		BrowserActive: active,
		PageActive:    active,
		SessionID:     e.sessionID,
		Timestamp:     time.Now().UTC(),
	}
}

// Close tears down the browser session. Teardown errors are logged, never
// returned; the session always ends uninitialized.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

// teardownTimeout bounds the wait for a graceful browser shutdown. Past it
// the browser is abandoned to the canceled context.
const teardownTimeout = 10 * time.Second

func (e *Engine) closeLocked() {
	if e.browserCtx != nil {
		// chromedp.Cancel both cancels the session context and waits for the
		// browser to exit, so it must be the only wait on this session:
		// waiting again through the context's cancel func blocks forever when
		// no browser process was ever spawned. Cancel itself blocks until the
		// process exits, so it runs off the lock-holding goroutine under a
		// timeout.
		browserCtx := e.browserCtx
		browserCancel := e.browserCancel
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(browserCtx) }()
		select {
		case err := <-done:
			if errors.Is(err, chromedp.ErrInvalidContext) {
				// Not a chromedp-managed context; plain cancellation applies.
				if browserCancel != nil {
					browserCancel()
				}
			} else if err != nil {
				e.log.Warn("Browser teardown reported an error", zap.Error(err))
			}
		case <-time.After(teardownTimeout):
			e.log.Warn("Browser teardown timed out, abandoning graceful shutdown")
		}
	}
	e.browserCancel = nil
	if e.allocCancel != nil {
		e.allocCancel()
		e.allocCancel = nil
	}
	if e.sessionID != "" {
		e.log.Info("Browser session closed", zap.String("session_id", e.sessionID))
	}
	e.browserCtx = nil
	e.netWatch = nil
	e.sessionID = ""
	e.running = false
}
