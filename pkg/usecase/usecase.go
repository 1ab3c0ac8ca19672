package usecase

import (
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/service/graph"
)

type UseCases struct {
	Leaderboard *LeaderboardUseCase
}

func New(repo interfaces.Repository, graphService graph.Service, opts ...Option) *UseCases {
	return &UseCases{
		Leaderboard: NewLeaderboardUseCase(repo, graphService, opts...),
	}
}
