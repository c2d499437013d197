package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_UnlockedForUser(t *testing.T) {
	message := &Message{Kind: MessageKindContent, UnlockedFor: []string{"alice", "bob"}}

	assert.True(t, message.UnlockedForUser("alice"))
	assert.True(t, message.UnlockedForUser("bob"))
	assert.False(t, message.UnlockedForUser("carol"))

	empty := &Message{Kind: MessageKindContent}
	assert.False(t, empty.UnlockedForUser("alice"))
}
