package types

import "github.com/m-mizutani/goerr/v2"

// FlagStatus is the follow-up flag state of a mailbox message
type FlagStatus string

const (
	FlagStatusNotFlagged FlagStatus = "notFlagged"
	FlagStatusFlagged    FlagStatus = "flagged"
	FlagStatusComplete   FlagStatus = "complete"
)

// ErrInvalidFlagStatus is returned when a flag status string is not recognized
var ErrInvalidFlagStatus = goerr.New("invalid flag status")

// IsValid checks if the flag status is valid
func (s FlagStatus) IsValid() bool {
	switch s {
	case FlagStatusNotFlagged,
		FlagStatusFlagged,
		FlagStatusComplete:
		return true
	default:
		return false
	}
}

// Normalize treats an empty status as FlagStatusNotFlagged. Graph omits the
// flag object on messages that were never flagged.
func (s FlagStatus) Normalize() FlagStatus {
	if s == "" {
		return FlagStatusNotFlagged
	}
	return s
}

func (s FlagStatus) String() string {
	return string(s)
}

// ParseFlagStatus parses a string into a FlagStatus
func ParseFlagStatus(s string) (FlagStatus, error) {
	status := FlagStatus(s)
	if !status.IsValid() {
		return "", goerr.Wrap(ErrInvalidFlagStatus, "failed to parse flag status", goerr.V("status", s))
	}
	return status, nil
}
