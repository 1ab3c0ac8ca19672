package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

// Refresher replaces a cached credential with a freshly issued one
type Refresher interface {
	Refresh(ctx context.Context) error
	// Expiry returns the expiry of the cached credential, or zero when unknown
	Expiry() time.Time
}

// TokenRefreshWorker keeps a credential cache warm by refreshing it on a fixed
// interval, so request paths rarely wait on the token endpoint.
//
// Architecture assumptions:
// - Single server instance; each instance refreshes its own cache
type TokenRefreshWorker struct {
	name      string
	refresher Refresher
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
}

// NewTokenRefreshWorker creates a worker refreshing refresher every interval
func NewTokenRefreshWorker(name string, refresher Refresher, interval time.Duration) (*TokenRefreshWorker, error) {
	if refresher == nil {
		return nil, goerr.New("refresher is required", goerr.V("name", name))
	}
	if interval <= 0 {
		return nil, goerr.New("refresh interval must be positive",
			goerr.V("name", name),
			goerr.V("interval", interval))
	}

	return &TokenRefreshWorker{
		name:      name,
		refresher: refresher,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins the background refresh loop. The first refresh runs in the
// background and does not block server startup.
func (w *TokenRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("Token refresh worker starting",
		"name", w.name,
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *TokenRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Token refresh worker stopping", "name", w.name)
		close(w.stopCh)
	})
	<-w.doneCh
}

func (w *TokenRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresh(ctx); err != nil {
		logging.Default().Error("Initial token refresh failed (will retry next interval)",
			"name", w.name,
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				logging.Default().Error("Token refresh failed (will retry next interval)",
					"name", w.name,
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Token refresh worker stopped", "name", w.name)
			return

		case <-ctx.Done():
			logging.Default().Info("Token refresh worker context cancelled", "name", w.name)
			return
		}
	}
}

func (w *TokenRefreshWorker) refresh(ctx context.Context) error {
	started := time.Now()
	if err := w.refresher.Refresh(ctx); err != nil {
		return goerr.Wrap(err, "failed to refresh token", goerr.V("name", w.name))
	}

	logger := logging.From(ctx)
	expiry := w.refresher.Expiry()
	logger.Debug("Token refreshed",
		"name", w.name,
		"expiry", expiry,
		"duration", time.Since(started).String())

	// the cache still refreshes lazily on demand in this case
	if !expiry.IsZero() && expiry.Before(time.Now().Add(w.interval)) {
		logger.Warn("Token expires before the next scheduled refresh",
			"name", w.name,
			"expiry", expiry,
			"interval", w.interval.String())
	}
	return nil
}
