package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/chess"
	"github.com/tecu23/chess-arbiter/pkg/events"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

type Connection struct {
	ID   uuid.UUID
	ws   *websocket.Conn // The underlying Websocket connection
	hub  *Hub
	send chan []byte // Buffered channel of outbound messages.

	publisher *events.Publisher
	logger    *zap.Logger
}

func NewConnection(
	ws *websocket.Conn,
	hub *Hub,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Connection {
	id := uuid.New()
	return &Connection{
		ID:        id,
		ws:        ws,
		hub:       hub,
		send:      make(chan []byte, sendBuffer),
		publisher: publisher,
		logger:    logger.With(zap.String("connection_id", id.String())),
	}
}

// ReadPump handles inbound messages from the client. When the client goes
// away the connection is unregistered and CONNECTION_CLOSED is published so
// its games get terminated.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()

		c.publisher.Publish(events.Event{
			Type:         events.EventConnectionClosed,
			ConnectionID: c.ID.String(),
			Payload: map[string]string{
				"connection_id": c.ID.String(),
			},
		})
	}()

	c.ws.SetReadLimit(maxMessageSize)

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			break
		}

		// We only handle text
		if msgType != websocket.TextMessage {
			continue
		}

		in := InboundHubMessage{Conn: c}
		if err := json.Unmarshal(msg, &in.Message); err != nil {
			c.logger.Warn("failed to parse inbound JSON", zap.Error(err))
			in.Err = fmt.Errorf("%w: %v", chess.ErrInputDecoding, err)
		}

		c.hub.dispatch(in)
	}
}

// WritePump handles outbound messages to the client
func (c *Connection) WritePump() {
	defer func() {
		c.ws.Close()
	}()

	for message := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			c.logger.Error("write error", zap.Error(err))
			return
		}
	}

	// Channel closed by the hub
	c.logger.Debug("send channel closed")
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// SendJSON is a helper for sending JSON to this connection. Messages are
// dropped when the client does not keep up.
func (c *Connection) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}
