package graph_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/service/graph"
)

const baseURL = "https://graph.test"

type mockProvider struct {
	calls   atomic.Int32
	tokenFn func(ctx context.Context, n int32) (*model.AuthToken, error)
}

func (m *mockProvider) Token(ctx context.Context) (*model.AuthToken, error) {
	n := m.calls.Add(1)
	if m.tokenFn != nil {
		return m.tokenFn(ctx, n)
	}
	return &model.AuthToken{Value: fmt.Sprintf("tok-%d", n), Expiry: time.Now().Add(time.Hour)}, nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newClient(t *testing.T, mock *httpmock.MockTransport, provider *mockProvider, opts ...graph.Option) *graph.Client {
	t.Helper()
	opts = append([]graph.Option{
		graph.WithBaseURL(baseURL),
		graph.WithTransport(mock),
	}, opts...)
	client, err := graph.NewClient(provider, opts...)
	gt.NoError(t, err).Required()
	return client
}

func jsonResponse(status int, body string) *http.Response {
	resp := httpmock.NewStringResponse(status, body)
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func jsonResponder(status int, body string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		return jsonResponse(status, body), nil
	}
}
