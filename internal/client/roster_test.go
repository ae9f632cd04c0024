package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-backend/internal/protocol"
)

func TestRosterJoinAndLeave(t *testing.T) {
	r := NewRoster()

	r.UserJoined(protocol.UserJoined{ID: "u1", Name: "Ann"})
	r.UserJoined(protocol.UserJoined{ID: "u2", Name: "Bob"})
	assert.True(t, r.IsOnline("u1"))
	assert.True(t, r.IsOnline("u2"))

	assert.True(t, r.UserLeft(protocol.UserLeft{ID: "u1", Name: "Ann"}))
	assert.False(t, r.IsOnline("u1"))

	users := r.Users()
	require.Len(t, users, 2, "left users stay on the roster, flipped offline")
	assert.Equal(t, "u1", users[0].ID)
	assert.False(t, users[0].IsOnline)
	assert.True(t, users[1].IsOnline)
}

func TestRosterUnknownLeaveIsIgnored(t *testing.T) {
	r := NewRoster()

	assert.False(t, r.UserLeft(protocol.UserLeft{ID: "ghost", Name: "Ghost"}))
	assert.Empty(t, r.Users())
}

func TestRosterRejoinFlipsBackOnline(t *testing.T) {
	r := NewRoster()

	r.UserJoined(protocol.UserJoined{ID: "u1", Name: "Ann"})
	r.UserLeft(protocol.UserLeft{ID: "u1", Name: "Ann"})
	r.UserJoined(protocol.UserJoined{ID: "u1", Name: "Ann K"})

	users := r.Users()
	require.Len(t, users, 1)
	assert.True(t, users[0].IsOnline)
	assert.Equal(t, "Ann K", users[0].Name, "rejoin refreshes the display name")
}

func TestAnnouncementWording(t *testing.T) {
	assert.Equal(t, "Ann joined the chat", announcement("Ann", true))
	assert.Equal(t, "Ann left the chat", announcement("Ann", false))
}
