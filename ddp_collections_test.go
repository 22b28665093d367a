package rocketbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionStore(t *testing.T) {
	t.Run("added then changed merges fields", func(t *testing.T) {
		store := newCollectionStore(true, NewNoOpLogger())

		store.Added("users", "u1", map[string]any{"name": "alice", "status": "away"})
		store.Changed("users", "u1", map[string]any{"status": "online"}, nil)

		item, ok := store.Item("users", "u1")
		require.True(t, ok)
		assert.Equal(t, "alice", item["name"])
		assert.Equal(t, "online", item["status"])
	})

	t.Run("cleared fields are deleted", func(t *testing.T) {
		store := newCollectionStore(true, NewNoOpLogger())

		store.Added("users", "u1", map[string]any{"name": "alice", "status": "away"})
		store.Changed("users", "u1", nil, []string{"status"})

		item, ok := store.Item("users", "u1")
		require.True(t, ok)
		assert.NotContains(t, item, "status")
		assert.Equal(t, "alice", item["name"])
	})

	t.Run("patched merge creates missing entries", func(t *testing.T) {
		store := newCollectionStore(true, NewNoOpLogger())

		// No added event ever arrived for this item.
		store.Changed("stream-room-messages", "m1", map[string]any{"msg": "hello"}, nil)

		item, ok := store.Item("stream-room-messages", "m1")
		require.True(t, ok)
		assert.Equal(t, "hello", item["msg"])
		assert.Equal(t, 1, store.Len("stream-room-messages"))
	})

	t.Run("compatible merge drops unknown items", func(t *testing.T) {
		store := newCollectionStore(false, NewNoOpLogger())

		store.Changed("stream-room-messages", "m1", map[string]any{"msg": "hello"}, nil)

		_, ok := store.Item("stream-room-messages", "m1")
		assert.False(t, ok)
		assert.Zero(t, store.Len("stream-room-messages"))
	})

	t.Run("compatible merge still updates known items", func(t *testing.T) {
		store := newCollectionStore(false, NewNoOpLogger())

		store.Added("users", "u1", map[string]any{"status": "away"})
		store.Changed("users", "u1", map[string]any{"status": "online"}, nil)

		item, ok := store.Item("users", "u1")
		require.True(t, ok)
		assert.Equal(t, "online", item["status"])
	})

	t.Run("removed deletes the item", func(t *testing.T) {
		store := newCollectionStore(true, NewNoOpLogger())

		store.Added("users", "u1", map[string]any{"name": "alice"})
		store.Removed("users", "u1")

		_, ok := store.Item("users", "u1")
		assert.False(t, ok)

		// Removing twice or from an unknown collection is harmless.
		store.Removed("users", "u1")
		store.Removed("missing", "u1")
	})

	t.Run("item returns a copy", func(t *testing.T) {
		store := newCollectionStore(true, NewNoOpLogger())

		store.Added("users", "u1", map[string]any{"name": "alice"})

		item, ok := store.Item("users", "u1")
		require.True(t, ok)
		item["name"] = "mallory"

		again, ok := store.Item("users", "u1")
		require.True(t, ok)
		assert.Equal(t, "alice", again["name"])
	})
}
