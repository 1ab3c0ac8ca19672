package credential

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

const (
	// DefaultRefreshSkew is how long before expiry a cached token is replaced
	DefaultRefreshSkew = 5 * time.Minute
)

// Cache holds one token for a Source. Reads share a read lock; a refresh
// takes the write lock and re-checks so concurrent callers fetch once.
type Cache struct {
	name   string
	source Source
	skew   time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	token *model.AuthToken
}

var _ Provider = &Cache{}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithRefreshSkew sets how early before expiry the token is refreshed
func WithRefreshSkew(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.skew = d
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache wraps source. name is only used in logs.
func NewCache(name string, source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		name:   name,
		source: source,
		skew:   DefaultRefreshSkew,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token, fetching a new one when it is missing or
// expires within the refresh skew.
func (c *Cache) Token(ctx context.Context) (*model.AuthToken, error) {
	c.mu.RLock()
	if !c.token.ExpiresWithin(c.now(), c.skew) {
		token := *c.token
		c.mu.RUnlock()
		return &token, nil
	}
	c.mu.RUnlock()

	return c.refresh(ctx, false)
}

// Prewarm fills the cache so that the next Token call does not block on the
// identity provider and never sees a token close to expiry.
func (c *Cache) Prewarm(ctx context.Context) error {
	if _, err := c.Token(ctx); err != nil {
		return goerr.Wrap(err, "failed to prewarm credential", goerr.V("credential", c.name))
	}
	return nil
}

// Refresh replaces the cached token unconditionally
func (c *Cache) Refresh(ctx context.Context) error {
	if _, err := c.refresh(ctx, true); err != nil {
		return err
	}
	return nil
}

// Expiry returns the expiry of the cached token, or zero when empty
func (c *Cache) Expiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return time.Time{}
	}
	return c.token.Expiry
}

func (c *Cache) refresh(ctx context.Context, force bool) (*model.AuthToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock
	if !force && !c.token.ExpiresWithin(c.now(), c.skew) {
		token := *c.token
		return &token, nil
	}

	token, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch token", goerr.V("credential", c.name))
	}
	if token == nil || token.Value == "" {
		return nil, goerr.Wrap(ErrEmptyToken, "identity provider returned no token", goerr.V("credential", c.name))
	}

	stored := *token
	c.token = &stored

	logging.From(ctx).Debug("credential refreshed",
		"credential", c.name,
		"expiry", stored.Expiry,
	)

	result := stored
	return &result, nil
}
