package graph

import (
	"context"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/domain/types"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

type service struct {
	client *Client
	photos *PhotoFetcher
}

var _ Service = &service{}

// New combines the request client and the photo fetcher into a Service
func New(client *Client, photos *PhotoFetcher) (Service, error) {
	if client == nil {
		return nil, goerr.New("graph client is required")
	}
	if photos == nil {
		return nil, goerr.New("photo fetcher is required")
	}
	return &service{client: client, photos: photos}, nil
}

func userPath(userID string) string {
	return "/v1.0/users/" + url.PathEscape(userID)
}

func (s *service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	logging.From(ctx).Debug("fetching user profile", "user_aad_object_id", userID)

	profile, err := InvokeTyped[model.Profile](ctx, s.client, http.MethodGet, userPath(userID), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user profile", goerr.V("user_aad_object_id", userID))
	}
	if profile == nil {
		return nil, goerr.Wrap(ErrEmptyProfile, "failed to get user profile", goerr.V("user_aad_object_id", userID))
	}
	if profile.ID == "" {
		profile.ID = userID
	}

	return profile, nil
}

func (s *service) GetMessages(ctx context.Context, userID string) ([]*model.Message, error) {
	logging.From(ctx).Debug("fetching user messages", "user_aad_object_id", userID)

	path := userPath(userID) + "/messages?$filter=" + url.PathEscape("isDraft eq false")
	resp, err := InvokeTyped[messagesResponse](ctx, s.client, http.MethodGet, path, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user messages", goerr.V("user_aad_object_id", userID))
	}
	if resp == nil || len(resp.Value) == 0 {
		return []*model.Message{}, nil
	}

	messages := make([]*model.Message, 0, len(resp.Value))
	for _, m := range resp.Value {
		if m == nil || m.IsDraft {
			continue
		}

		// Graph omits the flag on never-flagged messages. Unknown values are
		// kept as is and only count as not pending.
		status, err := types.ParseFlagStatus(m.Flag.FlagStatus.Normalize().String())
		if err != nil {
			logging.From(ctx).Warn("unknown message flag status",
				"user_aad_object_id", userID,
				"message_id", m.ID,
				"error", err)
		} else {
			m.Flag.FlagStatus = status
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *service) DisplayAvatar(ctx context.Context, profile *model.Profile) string {
	userID := ""
	if profile != nil {
		userID = profile.ID
	}

	result := s.photos.Fetch(ctx, userID)
	if !result.OK() {
		logging.From(ctx).Info("user photo unavailable, using initials avatar",
			"user_aad_object_id", userID,
			"reason", result.Err(),
		)
	}
	return AvatarURI(profile, result)
}
