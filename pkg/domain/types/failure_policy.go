package types

import "github.com/m-mizutani/goerr/v2"

// FailurePolicy decides what happens to a leaderboard computation when one
// matched user cannot be enriched.
type FailurePolicy string

const (
	// FailurePolicyFailFast aborts the whole computation on the first user failure.
	FailurePolicyFailFast FailurePolicy = "fail-fast"
	// FailurePolicySkip drops the failing user and keeps the rest.
	FailurePolicySkip FailurePolicy = "skip"
)

// ErrInvalidFailurePolicy is returned when a failure policy string is not recognized
var ErrInvalidFailurePolicy = goerr.New("invalid failure policy")

// IsValid checks if the failure policy is valid
func (p FailurePolicy) IsValid() bool {
	switch p {
	case FailurePolicyFailFast, FailurePolicySkip:
		return true
	default:
		return false
	}
}

func (p FailurePolicy) String() string {
	return string(p)
}

// ParseFailurePolicy parses a string into a FailurePolicy. Empty input yields
// FailurePolicyFailFast.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	if s == "" {
		return FailurePolicyFailFast, nil
	}
	p := FailurePolicy(s)
	if !p.IsValid() {
		return "", goerr.Wrap(ErrInvalidFailurePolicy, "failed to parse failure policy", goerr.V("policy", s))
	}
	return p, nil
}
