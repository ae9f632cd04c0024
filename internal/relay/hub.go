package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"collab-backend/internal/protocol"
)

// History is the slice of the history store the relay needs.
type History interface {
	SaveMessage(ctx context.Context, msg protocol.ChatMessage, senderID string) error
	RecentMessages(ctx context.Context, limit int) ([]protocol.ChatMessage, error)
	SaveUserEvent(ctx context.Context, eventType, userID, userName, sessionID string) error
}

// Presence mirrors join/leave into an external online-user registry.
type Presence interface {
	SetOnline(ctx context.Context, userID, userName, sessionID string) error
	SetOffline(ctx context.Context, userID string) error
}

// wire is the writable side of one connection. *websocket.Conn satisfies it.
type wire interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

const textMessage = 1 // websocket.TextMessage, kept local so the hub stays transport-agnostic

// Client is one connected session. The session id exists only for routing;
// chat identity arrives later with join_chat.
type Client struct {
	SessionID    string
	conn         wire
	writeMu      sync.Mutex
	writeTimeout time.Duration

	// guarded by hub.mu
	joined   bool
	userID   string
	userName string
}

// Hub owns the connection registry and fans events out to everyone except
// the sender. Senders have already applied their own actions locally, so an
// echo would only duplicate state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	store        History
	presence     Presence
	recentLimit  int
	writeTimeout time.Duration
}

// NewHub Hub 생성
func NewHub(store History, presence Presence, recentLimit int, writeTimeout time.Duration) *Hub {
	if recentLimit <= 0 {
		recentLimit = 50
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		clients:      make(map[*Client]struct{}),
		store:        store,
		presence:     presence,
		recentLimit:  recentLimit,
		writeTimeout: writeTimeout,
	}
}

// Register adds a connection to the registry and assigns its session id.
func (h *Hub) Register(conn wire) *Client {
	c := &Client{
		SessionID:    uuid.New().String(),
		conn:         conn,
		writeTimeout: h.writeTimeout,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Relay] Client connected: %s, total: %d", c.SessionID, total)
	return c
}

// Unregister removes a connection. If it had joined chat, the hub persists a
// leave record and tells everyone else.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	joined, userID, userName := c.joined, c.userID, c.userName
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Relay] Client disconnected: %s, total: %d", c.SessionID, total)

	if !joined {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.store.SaveUserEvent(ctx, string(protocol.KindUserLeft), userID, userName, c.SessionID); err != nil {
		log.Printf("[Relay] Failed to save leave event for %s: %v", userID, err)
	}
	if h.presence != nil {
		if err := h.presence.SetOffline(ctx, userID); err != nil {
			log.Printf("[Relay] Failed to clear presence for %s: %v", userID, err)
		}
	}

	h.broadcastExcept(c, protocol.UserLeft{ID: userID, Name: userName})
}

// HandleInbound applies one raw frame from a connection. Each frame is
// handled to completion before the caller reads the next, which preserves
// per-sender FIFO end to end.
func (h *Hub) HandleInbound(ctx context.Context, c *Client, raw []byte) {
	payload, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("[Relay] Bad frame from %s: %v", c.SessionID, err)
		h.sendTo(c, protocol.ErrorEvent{Message: err.Error()})
		return
	}

	switch p := payload.(type) {
	case protocol.JoinChat:
		h.handleJoin(ctx, c, p)
	case protocol.ChatMessage:
		h.handleChat(ctx, c, p)
	case protocol.Drawing:
		// Relayed unchanged; whiteboard state is not durable.
		h.broadcastExcept(c, p)
	case protocol.Clear:
		h.broadcastExcept(c, p)
	default:
		// recent_messages, user_joined, user_left and error are
		// server-emitted kinds; a client sending one is a protocol error.
		h.sendTo(c, protocol.ErrorEvent{Message: "unexpected event " + string(payload.Kind())})
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, p protocol.JoinChat) {
	h.mu.Lock()
	c.joined = true
	c.userID = p.UserID
	c.userName = p.UserName
	h.mu.Unlock()

	log.Printf("[Relay] User %s (%s) joined chat", p.UserName, p.UserID)

	if err := h.store.SaveUserEvent(ctx, string(protocol.KindUserJoined), p.UserID, p.UserName, c.SessionID); err != nil {
		log.Printf("[Relay] Failed to save join event for %s: %v", p.UserID, err)
	}
	if h.presence != nil {
		if err := h.presence.SetOnline(ctx, p.UserID, p.UserName, c.SessionID); err != nil {
			log.Printf("[Relay] Failed to set presence for %s: %v", p.UserID, err)
		}
	}

	// Snapshot goes to the joiner before the join is announced to anyone
	// else, so the joiner's log starts from a known state.
	recent, err := h.store.RecentMessages(ctx, h.recentLimit)
	if err != nil {
		log.Printf("[Relay] Failed to load recent messages: %v", err)
		recent = nil
	}
	h.sendTo(c, protocol.RecentMessages(recent))

	h.broadcastExcept(c, protocol.UserJoined{ID: p.UserID, Name: p.UserName})
}

func (h *Hub) handleChat(ctx context.Context, c *Client, msg protocol.ChatMessage) {
	h.mu.RLock()
	senderID := c.userID
	h.mu.RUnlock()

	// Persistence failure must not suppress the broadcast: durability is
	// traded for liveness here.
	if err := h.store.SaveMessage(ctx, msg, senderID); err != nil {
		log.Printf("[Relay] Failed to persist message %s: %v", msg.ID, err)
	}

	h.broadcastExcept(c, msg)
}

// broadcastExcept sends a payload to every connection but the sender.
func (h *Hub) broadcastExcept(sender *Client, p protocol.Payload) {
	data, err := protocol.Encode(p)
	if err != nil {
		log.Printf("[Relay] Failed to encode %s: %v", p.Kind(), err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c != sender {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.write(data)
	}
}

// sendTo sends a payload to a single connection.
func (h *Hub) sendTo(c *Client, p protocol.Payload) {
	data, err := protocol.Encode(p)
	if err != nil {
		log.Printf("[Relay] Failed to encode %s: %v", p.Kind(), err)
		return
	}
	c.write(data)
}

// write sends one frame under a deadline so a stalled receiver cannot hold
// the write mutex forever.
func (c *Client) write(data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		log.Printf("[Relay] Failed to set write deadline for %s: %v", c.SessionID, err)
	}
	if err := c.conn.WriteMessage(textMessage, data); err != nil {
		log.Printf("[Relay] Failed to send to %s: %v", c.SessionID, err)
	}
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
