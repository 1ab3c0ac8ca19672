package model

import (
	"strings"

	"github.com/secmon-lab/meetupboard/pkg/domain/types"
)

// Message is a mailbox item. Only the fields needed to recognize meetup
// confirmations are decoded.
type Message struct {
	ID          string      `json:"id"`
	Subject     string      `json:"subject"`
	BodyPreview string      `json:"bodyPreview"`
	IsDraft     bool        `json:"isDraft"`
	Flag        MessageFlag `json:"flag"`
}

// MessageFlag is the follow-up flag attached to a message
type MessageFlag struct {
	FlagStatus types.FlagStatus `json:"flagStatus"`
}

// IsMeetupConfirmation reports whether the message confirms a meetup: its
// preview contains phrase and it is not flagged as still pending.
func (m *Message) IsMeetupConfirmation(phrase string) bool {
	return strings.Contains(m.BodyPreview, phrase) &&
		m.Flag.FlagStatus.Normalize() != types.FlagStatusFlagged
}

// CountMeetupConfirmations returns how many messages satisfy IsMeetupConfirmation
func CountMeetupConfirmations(messages []*Message, phrase string) int {
	count := 0
	for _, m := range messages {
		if m != nil && m.IsMeetupConfirmation(phrase) {
			count++
		}
	}
	return count
}
