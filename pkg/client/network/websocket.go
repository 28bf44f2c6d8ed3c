package network

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/messages"
)

// MessageHandler receives every server message read off the connection.
type MessageHandler func(msg *messages.Message)

// WSClient represents a WebSocket client.
type WSClient struct {
	serverAddr string
	conn       *websocket.Conn
}

// NewWSClient creates a new WebSocket client.
func NewWSClient(serverAddr string) *WSClient {
	return &WSClient{
		serverAddr: serverAddr,
	}
}

// Connect establishes a connection to the WebSocket server.
func (c *WSClient) Connect() error {
	log.Info("Connecting to WebSocket server at %s", c.serverAddr)
	conn, _, err := websocket.DefaultDialer.Dial(c.serverAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	c.conn = conn
	return nil
}

// Close closes the connection.
func (c *WSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Send serializes and writes a message to the server.
func (c *WSClient) Send(messageType messages.MessageType, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %v", err)
		}
		raw = b
	}

	b, err := messages.SerializeMessage(&messages.Message{
		Type:    messageType,
		Payload: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message: %v", err)
	}
	return nil
}

// HandleMessages reads server messages until the connection closes.
func (c *WSClient) HandleMessages(ctx context.Context, handler MessageHandler) error {
	defer c.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, b, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", c.conn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", c.conn.RemoteAddr().String())
			return err
		}

		msg, err := messages.DeserializeMessage(b)
		if err != nil {
			log.Error("Failed to deserialize message: %v", err)
			continue
		}
		handler(msg)
	}
}
