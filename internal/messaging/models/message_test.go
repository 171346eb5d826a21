package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "nutri/pkg/domain-errors"
)

func TestNewMessageStampsNow(t *testing.T) {
	now := time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC)

	msg, err := NewMessage("m-1", "5511999990000", "5511888880000", "2 eggs and toast", false, "", now)

	require.NoError(t, err)
	assert.Equal(t, now, msg.Timestamp)
	assert.False(t, msg.IsGroup)
	assert.Empty(t, msg.GroupID)
}

func TestFromProviderKeepsProviderTimestamp(t *testing.T) {
	sent := time.Date(2025, 4, 5, 6, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	msg, err := FromProvider("m-2", "alice", "bot", "lunch", sent, true, "group-7")

	require.NoError(t, err)
	assert.True(t, sent.Equal(msg.Timestamp))
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.Equal(t, "group-7", msg.GroupID)
}

func TestMessageValidation(t *testing.T) {
	at := time.Now()
	tests := []struct {
		name    string
		build   func() (Message, error)
		message string
	}{
		{"missing id", func() (Message, error) { return NewMessage(" ", "a", "b", "", false, "", at) }, "message id cannot be empty"},
		{"missing sender", func() (Message, error) { return NewMessage("m", "", "b", "", false, "", at) }, "sender cannot be empty"},
		{"missing recipient", func() (Message, error) { return NewMessage("m", "a", "", "", false, "", at) }, "recipient cannot be empty"},
		{"group without id", func() (Message, error) { return NewMessage("m", "a", "b", "", true, "", at) }, "group messages need a group id"},
		{"direct with group id", func() (Message, error) { return NewMessage("m", "a", "b", "", false, "g", at) }, "direct messages cannot carry a group id"},
		{"provider without timestamp", func() (Message, error) { return FromProvider("m", "a", "b", "", time.Time{}, false, "") }, "timestamp is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestEmptyBodyIsAllowed(t *testing.T) {
	_, err := NewMessage("m", "a", "b", "", false, "", time.Now())
	assert.NoError(t, err)
}
