package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

// APIKeyHeader carries the shared secret of the leaderboard API
const APIKeyHeader = "X-Key"

// apiKeyMiddleware admits requests whose X-Key header equals apiKey. Other
// requests get an empty JSON response with status 200 so callers cannot tell
// a rejected key from an empty result.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get(APIKeyHeader)
			if given == "" || subtle.ConstantTimeCompare([]byte(given), expected) != 1 {
				logging.From(r.Context()).Warn("rejected leaderboard request",
					"path", r.URL.Path,
					"has_key", given != "",
				)
				writeEmpty(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
