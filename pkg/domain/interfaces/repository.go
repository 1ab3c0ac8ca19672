package interfaces

// Repository is the pairing store consumed by the leaderboard
type Repository interface {
	MatchedUser() MatchedUserRepository

	// Close releases backend resources
	Close() error
}
