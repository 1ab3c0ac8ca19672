package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/utils/errutil"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/secmon-lab/meetupboard/pkg/utils/safe"
)

func leaderboardHandler(uc LeaderboardUseCase, prewarmer Prewarmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := prewarm(ctx, prewarmer); err != nil {
			_ = errutil.Handle(ctx, err, "failed to prewarm bot credential")
			writeEmpty(w)
			return
		}

		entries, err := uc.Leaderboard(ctx)
		if err != nil {
			_ = errutil.Handle(ctx, err, "failed to compute leaderboard")
			writeEmpty(w)
			return
		}
		if entries == nil {
			entries = []*model.LeaderboardEntry{}
		}

		writeJSON(ctx, w, entries)
	}
}

func leaderboardEntryHandler(uc LeaderboardUseCase, prewarmer Prewarmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := model.UserID(chi.URLParam(r, "userId"))

		if err := prewarm(ctx, prewarmer); err != nil {
			_ = errutil.Handle(ctx, err, "failed to prewarm bot credential")
			writeEmpty(w)
			return
		}

		entry, err := uc.LeaderboardEntry(ctx, userID)
		if err != nil {
			if errors.Is(err, model.ErrMatchedUserNotFound) {
				logging.From(ctx).Info("matched user not found", "user_id", userID)
			} else {
				_ = errutil.Handle(ctx, err, "failed to compute leaderboard entry")
			}
			writeEmpty(w)
			return
		}

		writeJSON(ctx, w, entry)
	}
}

func prewarm(ctx context.Context, prewarmer Prewarmer) error {
	if prewarmer == nil {
		return nil
	}
	if err := prewarmer.Prewarm(ctx); err != nil {
		return goerr.Wrap(err, "failed to prewarm credential")
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to marshal response"), "failed to write response")
		writeEmpty(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, data)
}

// writeEmpty answers with status 200 and no body
func writeEmpty(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}
