package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestConn upgrades a server-side connection and dials it from a client,
// returning both ends.
func dialTestConn(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-serverConns:
	case <-time.After(5 * time.Second):
		t.Fatal("server connection was never established")
	}
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestClientSend_ConcurrentWriters(t *testing.T) {
	serverConn, clientConn := dialTestConn(t)

	userID := uuid.New()
	c := &Client{UserID: userID, Conn: serverConn, Authenticated: true}

	const writers = 8
	const perWriter = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				err := c.Send(Notification{
					Type:    EventTypeJobStatus,
					Message: "Content job status updated",
				})
				assert.NoError(t, err)
			}
		}()
	}

	received := make(chan Notification, writers*perWriter)
	go func() {
		for {
			var n Notification
			if err := clientConn.ReadJSON(&n); err != nil {
				close(received)
				return
			}
			received <- n
		}
	}()

	wg.Wait()

	for i := 0; i < writers*perWriter; i++ {
		select {
		case n, ok := <-received:
			require.True(t, ok, "connection closed before all messages arrived")
			assert.Equal(t, EventTypeJobStatus, n.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d messages", i)
		}
	}
}

func TestSendToUser_UnknownUser(t *testing.T) {
	hub := NewHub()
	err := hub.SendToUser(uuid.New(), Notification{Type: EventTypeJobStatus})
	assert.Error(t, err)
}

func TestAuthenticateClient(t *testing.T) {
	serverConn, _ := dialTestConn(t)

	hub := NewHub()
	client := &Client{Conn: serverConn}
	hub.unauthenticatedClients[client] = true

	userID := uuid.New()
	hub.AuthenticateClient(client, userID)

	assert.True(t, client.Authenticated)
	assert.Equal(t, userID, client.UserID)
	assert.Same(t, client, hub.clients[userID])
	assert.NotContains(t, hub.unauthenticatedClients, client)
}
