package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/utils/errutil"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	err := goerr.New("boom", goerr.V("user_id", "u1"))
	gt.Error(t, errutil.Handle(ctx, err, "failed")).Is(err)
	gt.String(t, buf.String()).Contains("u1")

	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
}
