package client

import (
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"collab-backend/internal/protocol"
)

// Handler consumes one decoded event.
type Handler func(protocol.Payload)

// Channel is the client side of the connection: an explicitly owned
// resource constructed once per session and handed to whoever needs to send
// or receive. There is no shared module-level connection.
type Channel struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	dialing   bool
	nextSub   int
	handlers  map[protocol.Kind]map[int]Handler
	onError   func(error)

	writeMu sync.Mutex
}

// NewChannel Channel 생성 (연결은 Connect에서)
func NewChannel(url string) *Channel {
	return &Channel{
		url:      url,
		handlers: make(map[protocol.Kind]map[int]Handler),
	}
}

// OnError sets the transport-error callback. Errors are reported, never
// retried: a broken connection stays broken until the owner reconnects.
func (ch *Channel) OnError(fn func(error)) {
	ch.mu.Lock()
	ch.onError = fn
	ch.mu.Unlock()
}

// Connect dials the relay. Calling it again while connected or while
// another Connect is still dialing is a no-op, so concurrent callers never
// open a second connection.
func (ch *Channel) Connect() error {
	ch.mu.Lock()
	if ch.connected || ch.dialing {
		ch.mu.Unlock()
		return nil
	}
	ch.dialing = true
	ch.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(ch.url, nil)

	ch.mu.Lock()
	ch.dialing = false
	if err != nil {
		ch.mu.Unlock()
		return fmt.Errorf("connect %s: %w", ch.url, err)
	}
	ch.conn = conn
	ch.connected = true
	ch.mu.Unlock()

	go ch.readLoop(conn)
	return nil
}

// Connected reports the transport status indicator.
func (ch *Channel) Connected() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.connected
}

// On subscribes a handler for one event kind and returns its unsubscribe
// function.
func (ch *Channel) On(kind protocol.Kind, h Handler) (off func()) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.handlers[kind] == nil {
		ch.handlers[kind] = make(map[int]Handler)
	}
	id := ch.nextSub
	ch.nextSub++
	ch.handlers[kind][id] = h

	return func() {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		delete(ch.handlers[kind], id)
	}
}

// Send emits one event to the relay.
func (ch *Channel) Send(p protocol.Payload) error {
	ch.mu.Lock()
	conn := ch.conn
	connected := ch.connected
	ch.mu.Unlock()

	if !connected || conn == nil {
		return fmt.Errorf("send %s: not connected", p.Kind())
	}

	data, err := protocol.Encode(p)
	if err != nil {
		return err
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. The relay observes this as the user
// leaving.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	conn := ch.conn
	ch.conn = nil
	ch.connected = false
	ch.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (ch *Channel) readLoop(conn *websocket.Conn) {
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			ch.mu.Lock()
			wasConnected := ch.connected && ch.conn == conn
			if wasConnected {
				ch.connected = false
				ch.conn = nil
			}
			onError := ch.onError
			ch.mu.Unlock()

			if wasConnected && onError != nil {
				onError(err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		payload, err := protocol.Decode(raw)
		if err != nil {
			log.Printf("[Channel] Bad frame: %v", err)
			continue
		}
		ch.dispatch(payload)
	}
}

func (ch *Channel) dispatch(p protocol.Payload) {
	ch.mu.Lock()
	hs := make([]Handler, 0, len(ch.handlers[p.Kind()]))
	for _, h := range ch.handlers[p.Kind()] {
		hs = append(hs, h)
	}
	ch.mu.Unlock()

	for _, h := range hs {
		h(p)
	}
}
