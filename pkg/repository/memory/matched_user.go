package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

type matchedUserRepository struct {
	mu    sync.RWMutex
	users map[model.UserID]*model.MatchedUser
}

func newMatchedUserRepository() *matchedUserRepository {
	return &matchedUserRepository{
		users: make(map[model.UserID]*model.MatchedUser),
	}
}

func (r *matchedUserRepository) GetAll(ctx context.Context) ([]*model.MatchedUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.MatchedUser, 0, len(r.users))
	for _, user := range r.users {
		userCopy := *user
		users = append(users, &userCopy)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})

	return users, nil
}

func (r *matchedUserRepository) GetByID(ctx context.Context, id model.UserID) (*model.MatchedUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrMatchedUserNotFound, "matched user not found", goerr.V("user_id", id))
	}

	userCopy := *user
	return &userCopy, nil
}

func (r *matchedUserRepository) SaveMany(ctx context.Context, users []*model.MatchedUser) error {
	for _, user := range users {
		if err := user.Validate(); err != nil {
			return goerr.Wrap(err, "failed to save matched users")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range users {
		userCopy := *user
		r.users[user.UserID] = &userCopy
	}

	return nil
}
