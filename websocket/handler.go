package websocket

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenValidator checks an AUTH token and returns the user it belongs to.
type TokenValidator func(token string) (uuid.UUID, bool)

// HandleWebSocket upgrades the connection and registers the client with the
// hub. Unauthenticated clients can authenticate later with an
// "AUTH:<token>" text message.
func HandleWebSocket(c echo.Context, hub *Hub, userID uuid.UUID, validate TokenValidator) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != uuid.Nil,
	}

	hub.register <- client

	// Send a welcome message
	if client.Authenticated {
		client.Send(Notification{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.String(),
		})
	} else {
		client.Send(Notification{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive notifications.",
			RequiresAuth: true,
		})
	}

	// Handle messages and disconnection
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			if messageType != websocket.TextMessage {
				continue
			}

			messageStr := string(message)
			if strings.HasPrefix(messageStr, "AUTH:") && validate != nil {
				token := strings.TrimPrefix(messageStr, "AUTH:")
				if id, ok := validate(token); ok {
					hub.AuthenticateClient(client, id)
					client.Send(Notification{
						Type:    "auth_response",
						Message: "Authenticated",
						UserID:  id.String(),
					})
				} else {
					client.Send(Notification{
						Type:         "auth_response",
						Message:      "Invalid token",
						RequiresAuth: true,
					})
				}
			}
		}
	}()

	return nil
}
