// File: internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/voicepilot/api/schemas"
	"github.com/xkilldash9x/voicepilot/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubRunner stands in for chromedp.Run so batches execute without a
// browser. Action outputs stay zero-valued.
type stubRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRunner) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func testEngineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Automation.ScreenshotDir = t.TempDir()
	cfg.Automation.InterCommandDelay = time.Millisecond
	cfg.Automation.SettleDelay = time.Millisecond
	cfg.Automation.InitSettleDelay = time.Millisecond
	cfg.Automation.TypingDelay = 0
	return cfg
}

// newReadyEngine builds an engine with a live fake session so batches run
// against the stub without launching a browser.
func newReadyEngine(t *testing.T, stub *stubRunner) *Engine {
	t.Helper()
	e := New(*testEngineConfig(t), zaptest.NewLogger(t))
	e.run = stub.run

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e.browserCtx = ctx
	e.browserCancel = cancel
	e.running = true
	e.sessionID = "test-session"
	return e
}

func boolPtr(b bool) *bool { return &b }

func TestExecuteCommands_EmptyBatch(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	_, err := e.ExecuteCommands(context.Background(), nil, schemas.ExecuteOptions{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestExecuteCommands_BatchTooLarge(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	batch := make([]schemas.Command, 21)
	for i := range batch {
		batch[i] = schemas.Command{Action: schemas.ActionWait, DurationMs: 1}
	}

	_, err := e.ExecuteCommands(context.Background(), batch, schemas.ExecuteOptions{})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestExecuteCommands_StopOnErrorDefault(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	batch := []schemas.Command{
		{ID: "cmd_1", Action: schemas.ActionWait, DurationMs: 1},
		// Blank navigation fails before the driver is touched.
		{ID: "cmd_2", Action: schemas.ActionNavigate, Target: "about:blank"},
		{ID: "cmd_3", Action: schemas.ActionWait, DurationMs: 1},
	}

	report, err := e.ExecuteCommands(context.Background(), batch, schemas.ExecuteOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.ExecutedCommands, "third command must be skipped")
	assert.Equal(t, 1, report.SuccessfulCommands)
	assert.Equal(t, 1, report.FailedCommands)
	require.Len(t, report.Results, 2)

	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Contains(t, report.Results[1].Error, "non-blank URL")
	assert.Equal(t, 1, report.Results[1].CommandIndex)
}

func TestExecuteCommands_ContinueOnError(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	batch := []schemas.Command{
		{ID: "cmd_1", Action: schemas.ActionNavigate, Target: ""},
		{ID: "cmd_2", Action: schemas.ActionWait, DurationMs: 1},
		{ID: "cmd_3", Action: schemas.ActionWait, DurationMs: 1},
	}

	report, err := e.ExecuteCommands(context.Background(), batch,
		schemas.ExecuteOptions{StopOnError: boolPtr(false)})
	require.NoError(t, err)

	assert.Equal(t, 3, report.ExecutedCommands)
	assert.Equal(t, 2, report.SuccessfulCommands)
	assert.Equal(t, 1, report.FailedCommands)
}

func TestExecuteCommands_StrictOrder(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	batch := []schemas.Command{
		{ID: "cmd_1", Action: schemas.ActionWait, DurationMs: 1},
		{ID: "cmd_2", Action: schemas.ActionWait, DurationMs: 1},
		{ID: "cmd_3", Action: schemas.ActionWait, DurationMs: 1},
	}

	report, err := e.ExecuteCommands(context.Background(), batch, schemas.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	for i, res := range report.Results {
		assert.Equal(t, i, res.CommandIndex)
		assert.Equal(t, batch[i].ID, res.Command.ID)
	}
}

func TestExecuteCommands_ReportInvariants(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	batch := []schemas.Command{
		{Action: schemas.ActionWait, DurationMs: 1},
		{Action: "teleport"},
		{Action: schemas.ActionWait, DurationMs: 1},
	}

	report, err := e.ExecuteCommands(context.Background(), batch,
		schemas.ExecuteOptions{StopOnError: boolPtr(false)})
	require.NoError(t, err)

	assert.Equal(t, len(report.Results), report.ExecutedCommands)
	assert.Equal(t, report.ExecutedCommands, report.SuccessfulCommands+report.FailedCommands)
	assert.False(t, report.Metadata.ExecutedAt.IsZero())
	assert.GreaterOrEqual(t, report.ExecutionTimeMs, int64(0))
}

func TestExecuteCommands_UnsupportedActionFailsCommand(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	report, err := e.ExecuteCommands(context.Background(),
		[]schemas.Command{{Action: "teleport"}}, schemas.ExecuteOptions{})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "unsupported action")
}

func TestInitializeTwiceLeavesSingleSession(t *testing.T) {
	stub := &stubRunner{}
	e := New(*testEngineConfig(t), zaptest.NewLogger(t))
	e.run = stub.run
	t.Cleanup(e.Close)

	require.NoError(t, e.Initialize(context.Background(), schemas.ExecuteOptions{}))
	require.True(t, e.IsReady())
	firstID := e.Status().SessionID
	firstCtx := e.browserCtx
	require.NotEmpty(t, firstID)

	// Re-initialization must tear the first session down and come back ready
	// without blocking, even though no browser process ever existed.
	require.NoError(t, e.Initialize(context.Background(), schemas.ExecuteOptions{}))
	require.True(t, e.IsReady())

	secondID := e.Status().SessionID
	assert.NotEmpty(t, secondID)
	assert.NotEqual(t, firstID, secondID, "a fresh session must get a fresh ID")
	assert.Error(t, firstCtx.Err(), "prior session context must be cancelled")
}

func TestCloseAfterRealInitialize(t *testing.T) {
	e := New(*testEngineConfig(t), zaptest.NewLogger(t))
	e.run = (&stubRunner{}).run

	require.NoError(t, e.Initialize(context.Background(), schemas.ExecuteOptions{}))
	require.True(t, e.IsReady())

	e.Close()
	assert.False(t, e.IsReady())
	assert.Empty(t, e.Status().SessionID)
}

func TestExecuteCommands_LazyInitFailureSurfacesInitError(t *testing.T) {
	stub := &stubRunner{err: errors.New("chrome exited unexpectedly")}
	e := New(*testEngineConfig(t), zaptest.NewLogger(t))
	e.run = stub.run

	_, err := e.ExecuteCommands(context.Background(),
		[]schemas.Command{{Action: schemas.ActionWait, DurationMs: 1}},
		schemas.ExecuteOptions{})
	require.Error(t, err)

	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
	assert.False(t, e.IsReady(), "failed init must leave the session uninitialized")
}

func TestExecuteScreenshot_WritesFile(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})

	report, err := e.ExecuteCommands(context.Background(),
		[]schemas.Command{{Action: schemas.ActionScreenshot, Target: "capture"}},
		schemas.ExecuteOptions{})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	require.True(t, report.Results[0].Success)
	path := report.Results[0].Result.Path
	assert.Contains(t, path, "capture.png")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestStatusLifecycle(t *testing.T) {
	e := New(*testEngineConfig(t), zaptest.NewLogger(t))

	status := e.Status()
	assert.False(t, status.Running)
	assert.False(t, status.BrowserActive)
	assert.Empty(t, status.SessionID)
	assert.False(t, status.Timestamp.IsZero())

	ready := newReadyEngine(t, &stubRunner{})
	status = ready.Status()
	assert.True(t, status.Running)
	assert.True(t, status.BrowserActive)
	assert.True(t, status.PageActive)
	assert.Equal(t, "test-session", status.SessionID)

	ready.Close()
	status = ready.Status()
	assert.False(t, status.Running)
	assert.False(t, status.BrowserActive)
	assert.Empty(t, status.SessionID)
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newReadyEngine(t, &stubRunner{})
	e.Close()
	assert.NotPanics(t, func() { e.Close() })
	assert.False(t, e.IsReady())
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"submit", "'submit'"},
		{"it's here", `"it's here"`},
		{`say "hi"`, `'say "hi"'`},
		{`it's "both"`, `concat('it', "'", 's "both"')`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, xpathLiteral(tt.in), "input %q", tt.in)
	}
}
