package client

import (
	"sync"

	"collab-backend/internal/protocol"
)

// MessageLog is the ordered chat transcript. It is keyed by message id in
// insertion order, so a redelivered message updates in place instead of
// duplicating — the protocol itself never promises exactly-once delivery.
type MessageLog struct {
	mu    sync.Mutex
	order []string
	byID  map[string]protocol.ChatMessage
}

// NewMessageLog MessageLog 생성
func NewMessageLog() *MessageLog {
	return &MessageLog{byID: make(map[string]protocol.ChatMessage)}
}

// Append adds a message at the end, or absorbs a redelivery in place.
func (l *MessageLog) Append(msg protocol.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[msg.ID]; !exists {
		l.order = append(l.order, msg.ID)
	}
	l.byID[msg.ID] = msg
}

// ReplaceAll swaps the whole log for the server's history snapshot. Runs
// once right after join; any prior local state is discarded.
func (l *MessageLog) ReplaceAll(msgs []protocol.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = l.order[:0]
	l.byID = make(map[string]protocol.ChatMessage, len(msgs))
	for _, msg := range msgs {
		if _, exists := l.byID[msg.ID]; !exists {
			l.order = append(l.order, msg.ID)
		}
		l.byID[msg.ID] = msg
	}
}

// Remove filters a message out of the local log.
func (l *MessageLog) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[id]; !exists {
		return false
	}
	delete(l.byID, id)
	for i, mid := range l.order {
		if mid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Messages returns the transcript in order.
func (l *MessageLog) Messages() []protocol.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]protocol.ChatMessage, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// Len returns the transcript length.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
