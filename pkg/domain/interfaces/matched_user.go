package interfaces

import (
	"context"

	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

// MatchedUserRepository provides access to users paired by the bot.
//
// The leaderboard only reads. SaveMany exists for seeding a store from a
// file and for tests; it upserts by UserID.
type MatchedUserRepository interface {
	// GetAll returns every matched user ordered by UserID
	GetAll(ctx context.Context) ([]*model.MatchedUser, error)

	// GetByID returns one matched user, or model.ErrMatchedUserNotFound
	GetByID(ctx context.Context, id model.UserID) (*model.MatchedUser, error)

	// SaveMany upserts users
	SaveMany(ctx context.Context, users []*model.MatchedUser) error
}
