package model

import "time"

// AuthToken is a bearer token with its expiry
type AuthToken struct {
	Value  string `masq:"secret"`
	Expiry time.Time
}

// ExpiresWithin reports whether the token is missing or expires within d of now.
// A zero Expiry means the token does not expire.
func (t *AuthToken) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t == nil || t.Value == "" {
		return true
	}
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Add(d).Before(t.Expiry)
}
