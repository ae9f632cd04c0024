package relay

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// HandleWebSocket WebSocket 연결 처리
// One goroutine per connection; frames are processed strictly in arrival
// order, so a sender's events reach everyone else in the order sent.
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	client := h.Register(c)

	// 연결 해제 시 정리
	defer func() {
		h.Unregister(client)
		c.Close()
	}()

	for {
		msgType, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h.HandleInbound(ctx, client, raw)
		cancel()
	}
}
