package client

import (
	"fmt"
	"sync"

	"collab-backend/internal/protocol"
)

// User is one known peer. Users are never removed, only flipped offline.
type User struct {
	ID       string
	Name     string
	IsOnline bool
}

// Roster tracks everyone seen via join/leave broadcasts.
type Roster struct {
	mu    sync.Mutex
	users map[string]*User
	order []string
}

// NewRoster Roster 생성
func NewRoster() *Roster {
	return &Roster{users: make(map[string]*User)}
}

// UserJoined upserts a user as online.
func (r *Roster) UserJoined(u protocol.UserJoined) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[u.ID]; ok {
		existing.Name = u.Name
		existing.IsOnline = true
		return
	}
	r.users[u.ID] = &User{ID: u.ID, Name: u.Name, IsOnline: true}
	r.order = append(r.order, u.ID)
}

// UserLeft flips a known user offline. Unknown users are ignored and the
// false return tells the caller not to announce anything.
func (r *Roster) UserLeft(u protocol.UserLeft) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return false
	}
	existing.IsOnline = false
	return true
}

// Users returns all known users in first-seen order.
func (r *Roster) Users() []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.users[id])
	}
	return out
}

// IsOnline reports one user's presence flag.
func (r *Roster) IsOnline(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	return ok && u.IsOnline
}

// announcement is the single place the presence-to-text policy lives. Every
// client fabricates its own copy of the same announcement; keeping the
// wording here keeps those copies identical.
func announcement(name string, joined bool) string {
	if joined {
		return fmt.Sprintf("%s joined the chat", name)
	}
	return fmt.Sprintf("%s left the chat", name)
}
