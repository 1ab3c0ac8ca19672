package credential_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
)

type mockSource struct {
	calls   atomic.Int32
	fetchFn func(ctx context.Context) (*model.AuthToken, error)
}

func (m *mockSource) Fetch(ctx context.Context) (*model.AuthToken, error) {
	m.calls.Add(1)
	return m.fetchFn(ctx)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheReusesValidToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		return &model.AuthToken{Value: "tok", Expiry: clock.Now().Add(time.Hour)}, nil
	}}
	cache := credential.NewCache("graph", src, credential.WithClock(clock.Now))

	for range 3 {
		token, err := cache.Token(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, token.Value).Equal("tok")
	}
	gt.Number(t, src.calls.Load()).Equal(1)
}

func TestCacheRefreshesNearExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	var n atomic.Int32
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		if n.Add(1) == 1 {
			return &model.AuthToken{Value: "first", Expiry: clock.Now().Add(10 * time.Minute)}, nil
		}
		return &model.AuthToken{Value: "second", Expiry: clock.Now().Add(time.Hour)}, nil
	}}
	cache := credential.NewCache("bot", src,
		credential.WithClock(clock.Now),
		credential.WithRefreshSkew(5*time.Minute),
	)

	token, err := cache.Token(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, token.Value).Equal("first")

	clock.Advance(4 * time.Minute)
	token, err = cache.Token(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, token.Value).Equal("first")

	clock.Advance(2 * time.Minute)
	token, err = cache.Token(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, token.Value).Equal("second")
	gt.Number(t, src.calls.Load()).Equal(2)
}

func TestCacheConcurrentCallersFetchOnce(t *testing.T) {
	release := make(chan struct{})
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		<-release
		return &model.AuthToken{Value: "tok", Expiry: time.Now().Add(time.Hour)}, nil
	}}
	cache := credential.NewCache("bot", src)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.Token(context.Background())
			gt.NoError(t, err)
			gt.Value(t, token.Value).Equal("tok")
		}()
	}
	close(release)
	wg.Wait()

	gt.Number(t, src.calls.Load()).Equal(1)
}

func TestCacheFetchError(t *testing.T) {
	errFetch := goerr.New("identity provider down")
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		return nil, errFetch
	}}
	cache := credential.NewCache("graph", src)

	_, err := cache.Token(context.Background())
	gt.Error(t, err).Is(errFetch)

	gt.Error(t, cache.Prewarm(context.Background())).Is(errFetch)
	gt.Number(t, src.calls.Load()).Equal(2)
}

func TestCacheRejectsEmptyToken(t *testing.T) {
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		return &model.AuthToken{}, nil
	}}
	cache := credential.NewCache("graph", src)

	_, err := cache.Token(context.Background())
	gt.Error(t, err).Is(credential.ErrEmptyToken)
}

func TestCachePrewarmAndRefresh(t *testing.T) {
	var n atomic.Int32
	src := &mockSource{fetchFn: func(ctx context.Context) (*model.AuthToken, error) {
		n.Add(1)
		return &model.AuthToken{Value: "tok", Expiry: time.Now().Add(time.Hour)}, nil
	}}
	cache := credential.NewCache("bot", src)
	gt.B(t, cache.Expiry().IsZero()).True()

	gt.NoError(t, cache.Prewarm(context.Background())).Required()
	gt.NoError(t, cache.Prewarm(context.Background())).Required()
	gt.Number(t, n.Load()).Equal(1)
	gt.B(t, cache.Expiry().IsZero()).False()

	gt.NoError(t, cache.Refresh(context.Background())).Required()
	gt.Number(t, n.Load()).Equal(2)
}
