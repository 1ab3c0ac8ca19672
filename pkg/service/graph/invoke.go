package graph

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

var jsonNull = []byte("null")

// InvokeTyped calls Invoke and decodes a successful body into T. It returns
// nil without error when the body is empty, JSON null or not decodable as T,
// so callers can tell "no data" apart from a zero value. Request failures are
// returned unchanged.
func InvokeTyped[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	resp, err := c.Invoke(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		logging.From(ctx).Warn("graph response has no body", "method", method, "path", path)
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		logging.From(ctx).Warn("failed to decode graph response",
			"method", method,
			"path", path,
			"error", err,
			"body", truncate(resp.Body, maxLoggedBody),
		)
		return nil, nil
	}

	return &v, nil
}
