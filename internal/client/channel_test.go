package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-backend/internal/protocol"
)

// echoRelay upgrades one connection and echoes every frame back, which is
// enough transport to drive the channel end to end.
func echoRelay(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, raw); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestChannelSendAndDispatch(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	ch := NewChannel(wsURL(server))

	received := make(chan protocol.Payload, 1)
	ch.On(protocol.KindChatMessage, func(p protocol.Payload) {
		received <- p
	})

	require.NoError(t, ch.Connect())
	defer ch.Close()
	assert.True(t, ch.Connected())

	msg := protocol.ChatMessage{ID: "m1", Type: protocol.MessageText, Content: "hi", Sender: "Ann"}
	require.NoError(t, ch.Send(msg))

	select {
	case p := <-received:
		assert.Equal(t, msg, p)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestChannelSendBeforeConnect(t *testing.T) {
	ch := NewChannel("ws://127.0.0.1:1/ws")
	err := ch.Send(protocol.Clear{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestChannelConcurrentConnectDialsOnce(t *testing.T) {
	var mu sync.Mutex
	upgrades := 0
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		upgrades++
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ch := NewChannel(wsURL(server))
	defer ch.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ch.Connect())
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, upgrades, "concurrent connects must share one connection")
}

func TestChannelConnectTwiceIsNoOp(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	ch := NewChannel(wsURL(server))
	require.NoError(t, ch.Connect())
	defer ch.Close()
	require.NoError(t, ch.Connect())
	assert.True(t, ch.Connected())
}

func TestChannelUnsubscribe(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	ch := NewChannel(wsURL(server))

	var mu sync.Mutex
	calls := 0
	off := ch.On(protocol.KindClear, func(protocol.Payload) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	kept := make(chan struct{}, 2)
	ch.On(protocol.KindClear, func(protocol.Payload) {
		kept <- struct{}{}
	})

	require.NoError(t, ch.Connect())
	defer ch.Close()

	require.NoError(t, ch.Send(protocol.Clear{}))
	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("first echo never arrived")
	}

	off()
	require.NoError(t, ch.Send(protocol.Clear{}))
	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("second echo never arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "unsubscribed handler must not run again")
}

func TestChannelReportsReadError(t *testing.T) {
	server := echoRelay(t)

	ch := NewChannel(wsURL(server))

	errs := make(chan error, 1)
	ch.OnError(func(err error) {
		errs <- err
	})

	require.NoError(t, ch.Connect())
	server.CloseClientConnections()

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never ran")
	}
	assert.False(t, ch.Connected())
	server.Close()
}

func TestChannelCloseIsObservable(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	ch := NewChannel(wsURL(server))
	require.NoError(t, ch.Connect())
	require.NoError(t, ch.Close())
	assert.False(t, ch.Connected())
	assert.Error(t, ch.Send(protocol.Clear{}))
}
