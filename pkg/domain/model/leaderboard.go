package model

// LeaderboardEntry is a matched user enriched with its meetup count and
// display information. Entries live for one computation and are never stored.
type LeaderboardEntry struct {
	MatchedUser
	MeetupCount      int    `json:"meetupCount"`
	DisplayAvatarURI string `json:"userDisplayUrl"`
	DisplayName      string `json:"userDisplayName"`
}

// NewLeaderboardEntry copies user into a fresh entry
func NewLeaderboardEntry(user *MatchedUser) *LeaderboardEntry {
	return &LeaderboardEntry{MatchedUser: *user}
}
