package rocketbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser(t *testing.T) {
	t.Run("fallbacks to username", func(t *testing.T) {
		u := NewUser("alice")

		assert.Equal(t, "alice", u.Username())
		assert.Equal(t, "alice", u.Nick())
		assert.Equal(t, "alice", u.Fullname())
		assert.Equal(t, "alice", u.String())
	})

	t.Run("full identity", func(t *testing.T) {
		u := NewUserFull("alice", "al", "Alice Liddell")

		assert.Equal(t, "alice", u.Username())
		assert.Equal(t, "al", u.Nick())
		assert.Equal(t, "Alice Liddell", u.Fullname())
	})

	t.Run("partial identity falls back per field", func(t *testing.T) {
		u := NewUserFull("alice", "", "Alice Liddell")

		assert.Equal(t, "alice", u.Nick())
		assert.Equal(t, "Alice Liddell", u.Fullname())
	})

	t.Run("equality is by username", func(t *testing.T) {
		a := NewUserFull("alice", "al", "Alice Liddell")
		b := NewUser("alice")
		c := NewUser("bob")

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, a.Equal(nil))
	})
}
