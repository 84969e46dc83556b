// File: internal/engine/netwatch.go
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// networkWatcher tracks in-flight requests on a browser target so navigation
// can wait for a mostly idle network instead of a fixed sleep.
type networkWatcher struct {
	log *zap.Logger

	mu       sync.RWMutex
	inflight map[network.RequestID]struct{}
}

// newNetworkWatcher attaches a listener to the target behind ctx. The caller
// must also run network.Enable() on the same target.
func newNetworkWatcher(ctx context.Context, logger *zap.Logger) *networkWatcher {
	w := &networkWatcher{
		log:      logger.Named("netwatch"),
		inflight: make(map[network.RequestID]struct{}),
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			w.mu.Lock()
			w.inflight[e.RequestID] = struct{}{}
			w.mu.Unlock()
		case *network.EventLoadingFinished:
			w.mu.Lock()
			delete(w.inflight, e.RequestID)
			w.mu.Unlock()
		case *network.EventLoadingFailed:
			w.mu.Lock()
			delete(w.inflight, e.RequestID)
			w.mu.Unlock()
		}
	})

	return w
}

// WaitQuiet blocks until no requests have been in flight for quietPeriod, or
// the context expires. Long-polling connections keep the network busy
// forever, so callers bound this with a timeout and treat expiry as "settled
// enough" where appropriate.
func (w *networkWatcher) WaitQuiet(ctx context.Context, quietPeriod time.Duration) error {
	interval := quietPeriod / 2
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Network quiet wait aborted", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			w.mu.RLock()
			inflightCount := len(w.inflight)
			w.mu.RUnlock()

			if inflightCount > 0 {
				lastActivity = time.Now()
				w.log.Debug("Waiting for network to settle", zap.Int("inflight", inflightCount))
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}
