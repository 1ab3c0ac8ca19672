package graph

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
)

const (
	// DefaultPhotoSize is the smallest square size Graph serves
	DefaultPhotoSize    = "48X48"
	DefaultPhotoTimeout = 10 * time.Second
)

// PhotoFetcher downloads profile photos. It owns its HTTP client and token
// provider so that photo traffic never shares a transport or a token with
// JSON requests. Failures are not retried.
type PhotoFetcher struct {
	http     *resty.Client
	provider credential.Provider
	size     string
	limiter  *RateLimiter
}

// PhotoOption configures a PhotoFetcher
type PhotoOption func(*PhotoFetcher)

func WithPhotoBaseURL(u string) PhotoOption {
	return func(f *PhotoFetcher) {
		if u != "" {
			f.http.SetBaseURL(strings.TrimRight(u, "/"))
		}
	}
}

func WithPhotoSize(size string) PhotoOption {
	return func(f *PhotoFetcher) {
		if size != "" {
			f.size = size
		}
	}
}

func WithPhotoTimeout(d time.Duration) PhotoOption {
	return func(f *PhotoFetcher) {
		if d > 0 {
			f.http.SetTimeout(d)
		}
	}
}

func WithPhotoTransport(rt http.RoundTripper) PhotoOption {
	return func(f *PhotoFetcher) {
		f.http.SetTransport(rt)
	}
}

func WithPhotoRateLimiter(limiter *RateLimiter) PhotoOption {
	return func(f *PhotoFetcher) {
		f.limiter = limiter
	}
}

// NewPhotoFetcher creates a fetcher authenticated by provider
func NewPhotoFetcher(provider credential.Provider, opts ...PhotoOption) (*PhotoFetcher, error) {
	if provider == nil {
		return nil, goerr.New("credential provider is required")
	}

	f := &PhotoFetcher{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(DefaultPhotoTimeout),
		provider: provider,
		size:     DefaultPhotoSize,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Fetch downloads the photo of userID. Every failure becomes a PhotoErr.
func (f *PhotoFetcher) Fetch(ctx context.Context, userID string) PhotoResult {
	if userID == "" {
		return PhotoErr(goerr.New("user ID is empty"))
	}

	token, err := f.provider.Token(ctx)
	if err != nil {
		return PhotoErr(goerr.Wrap(err, "failed to acquire photo token"))
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return PhotoErr(goerr.Wrap(err, "photo request not issued"))
		}
	}

	resp, err := f.http.R().
		SetContext(ctx).
		SetAuthToken(token.Value).
		Get(userPath(userID) + "/photos/" + f.size + "/$value")
	if err != nil {
		return PhotoErr(goerr.Wrap(err, "failed to request photo", goerr.V("user_aad_object_id", userID)))
	}

	if statusErr := statusError(resp.StatusCode()); statusErr != nil {
		if resp.StatusCode() == http.StatusTooManyRequests {
			metrics.GraphThrottledTotal.Inc()
			if f.limiter != nil {
				f.limiter.RecordRetryAfter(retryAfter(resp.Header()))
			}
		}
		return PhotoErr(goerr.Wrap(statusErr, "photo request failed",
			goerr.V("user_aad_object_id", userID),
			goerr.V("status", resp.StatusCode())))
	}

	data := resp.Body()
	if len(data) == 0 {
		return PhotoErr(goerr.Wrap(ErrEmptyPhoto, "photo response has no body", goerr.V("user_aad_object_id", userID)))
	}

	return PhotoOK(data)
}
