package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"directchat/internal/config"
	"directchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Collection[models.Message] {
	t.Helper()
	gdb, err := Connect(config.DriverSQLite, filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Skipf("skip: sqlite not available: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Skipf("skip: migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewCollection[models.Message](gdb, "messages")
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn")
	assert.Error(t, err)
}

func TestCollection_WriteAllReplacesInOrder(t *testing.T) {
	c := openSQLite(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := []models.Message{
		{ID: "m1", ChatID: "alice-bob", SenderID: "alice", ReceiverID: "bob", Text: "hi", Timestamp: ts},
		{ID: "m2", ChatID: "alice-bob", SenderID: "bob", ReceiverID: "alice", Text: "yo", Timestamp: ts},
	}
	require.NoError(t, c.WriteAll(ctx, first))

	got, err := c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []models.Message{first[1]}
	require.NoError(t, c.WriteAll(ctx, second))
	got, err = c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, c.WriteAll(ctx, nil))
	got, err = c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewGateway_UsesTables(t *testing.T) {
	gdb, err := Connect(config.DriverSQLite, filepath.Join(t.TempDir(), "gw.db"))
	if err != nil {
		t.Skipf("skip: sqlite not available: %v", err)
	}
	require.NoError(t, Migrate(gdb))
	g := NewGateway(gdb)
	defer g.Close()

	ctx := context.Background()
	err = g.Users.Update(ctx, func(users []models.User) ([]models.User, error) {
		return append(users, models.User{ID: "u1", Name: "Alice", Email: "a@x"}), nil
	})
	require.NoError(t, err)

	users, err := g.Users.Read(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)

	chats, err := g.Chats.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)
}
