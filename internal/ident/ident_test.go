package ident

import (
	"testing"
	"time"

	"directchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatID_Commutative(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"1700000000000", "1700000000001"},
		{"", "x"},
		{"same", "same"},
		{"Zed", "adam"},
	}
	for _, p := range pairs {
		assert.Equal(t, ChatID(p[0], p[1]), ChatID(p[1], p[0]), "pair %v", p)
	}
}

func TestChatID_Format(t *testing.T) {
	assert.Equal(t, "alice-bob", ChatID("bob", "alice"))
	assert.Equal(t, "alice-bob", ChatID("alice", "bob"))
	assert.NotEqual(t, ChatID("alice", "bob"), ChatID("alice", "carol"))
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestStampMessage_IgnoresClientFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	draft := models.Message{
		ID:         "client-id",
		ChatID:     "bogus",
		SenderID:   "bob",
		ReceiverID: "alice",
		Text:       "hi",
		Timestamp:  now.Add(-time.Hour),
	}

	got := StampMessage(draft, now)

	assert.NotEqual(t, "client-id", got.ID)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice-bob", got.ChatID)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "bob", got.SenderID)
	assert.Equal(t, "alice", got.ReceiverID)
	assert.Equal(t, "hi", got.Text)
}

func TestLatest_TieBreaksOnInsertionOrder(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: "a", Timestamp: ts},
		{ID: "b", Timestamp: ts.Add(time.Second)},
		{ID: "c", Timestamp: ts.Add(time.Second)},
		{ID: "d", Timestamp: ts},
	}

	got := Latest(msgs)
	require.NotNil(t, got)
	assert.Equal(t, "c", got.ID)
	assert.Nil(t, Latest(nil))
}
