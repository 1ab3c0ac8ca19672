package model

import "github.com/m-mizutani/goerr/v2"

// UserID is the opaque channel identity of a matched user
type UserID string

func (id UserID) String() string {
	return string(id)
}

// MatchedUser is a user paired by the bot for a meetup, as recorded in the
// pairing store.
type MatchedUser struct {
	UserID            UserID `json:"userId" toml:"user_id"`
	TenantID          string `json:"tenantId" toml:"tenant_id"`
	UserAadObjectID   string `json:"userAadObjectId" toml:"user_aad_object_id"`
	UserPrincipalName string `json:"userPrincipalName" toml:"user_principal_name"`
	Role              string `json:"role" toml:"role"`
}

var (
	ErrMatchedUserNotFound = goerr.New("matched user not found")
	ErrMissingUserID       = goerr.New("user ID is required")
	ErrMissingAadObjectID  = goerr.New("user AAD object ID is required")
)

// Validate checks the fields the leaderboard depends on
func (u *MatchedUser) Validate() error {
	if u.UserID == "" {
		return goerr.Wrap(ErrMissingUserID, "invalid matched user")
	}
	if u.UserAadObjectID == "" {
		return goerr.Wrap(ErrMissingAadObjectID, "invalid matched user", goerr.V("user_id", u.UserID))
	}
	return nil
}
