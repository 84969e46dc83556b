// File: internal/engine/netwatch_test.go
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newBareWatcher(t *testing.T) *networkWatcher {
	t.Helper()
	return &networkWatcher{
		log:      zaptest.NewLogger(t),
		inflight: make(map[network.RequestID]struct{}),
	}
}

func TestWaitQuiet_IdleNetworkReturns(t *testing.T) {
	w := newBareWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := w.WaitQuiet(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"must observe the full quiet period")
}

func TestWaitQuiet_InflightRequestBlocks(t *testing.T) {
	w := newBareWatcher(t)
	w.inflight["req-1"] = struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := w.WaitQuiet(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitQuiet_ResolvesOnceRequestFinishes(t *testing.T) {
	w := newBareWatcher(t)
	w.inflight["req-1"] = struct{}{}

	go func() {
		time.Sleep(60 * time.Millisecond)
		w.mu.Lock()
		delete(w.inflight, "req-1")
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.WaitQuiet(ctx, 40*time.Millisecond)
	assert.NoError(t, err)
}
