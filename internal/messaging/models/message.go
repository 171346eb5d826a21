package models

import (
	"strings"
	"time"

	dErrors "nutri/pkg/domain-errors"
)

// Message is one chat message received from the messaging provider.
// GroupID is set only for group conversations.
type Message struct {
	ID        string
	From      string
	To        string
	Body      string
	Timestamp time.Time
	IsGroup   bool
	GroupID   string
}

// NewMessage builds a message observed locally, stamped with now.
func NewMessage(msgID, from, to, body string, isGroup bool, groupID string, now time.Time) (Message, error) {
	return build(msgID, from, to, body, now, isGroup, groupID)
}

// FromProvider builds a message as reported by the provider, keeping the
// provider's timestamp.
func FromProvider(msgID, from, to, body string, timestamp time.Time, isGroup bool, groupID string) (Message, error) {
	if timestamp.IsZero() {
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "timestamp is required")
	}
	return build(msgID, from, to, body, timestamp, isGroup, groupID)
}

func build(msgID, from, to, body string, at time.Time, isGroup bool, groupID string) (Message, error) {
	msgID = strings.TrimSpace(msgID)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	groupID = strings.TrimSpace(groupID)

	switch {
	case msgID == "":
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "message id cannot be empty")
	case from == "":
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "sender cannot be empty")
	case to == "":
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "recipient cannot be empty")
	case isGroup && groupID == "":
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "group messages need a group id")
	case !isGroup && groupID != "":
		return Message{}, dErrors.New(dErrors.CodeInvariantViolation, "direct messages cannot carry a group id")
	}

	return Message{
		ID:        msgID,
		From:      from,
		To:        to,
		Body:      body,
		Timestamp: at.UTC(),
		IsGroup:   isGroup,
		GroupID:   groupID,
	}, nil
}
