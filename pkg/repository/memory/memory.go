package memory

import (
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	matchedUser *matchedUserRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		matchedUser: newMatchedUserRepository(),
	}
}

func (m *Memory) MatchedUser() interfaces.MatchedUserRepository {
	return m.matchedUser
}

func (m *Memory) Close() error {
	return nil
}
