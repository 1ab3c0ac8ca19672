package graph

import (
	"context"

	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

// Service is the subset of Microsoft Graph the leaderboard needs
type Service interface {
	// GetProfile returns the directory profile of userID
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)

	// GetMessages returns the non-draft messages in the mailbox of userID
	GetMessages(ctx context.Context, userID string) ([]*model.Message, error)

	// DisplayAvatar returns an image URI for profile. It never fails.
	DisplayAvatar(ctx context.Context, profile *model.Profile) string
}

type messagesResponse struct {
	Value []*model.Message `json:"value"`
}
