package workers

import (
	"context"
	"encoding/json"

	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/messages"
	"github.com/rinooks/pixel-war/pkg/network"
)

type ServerMessageWorker struct {
	networkManager    *network.NetworkManager
	serverMessageChan <-chan ServerMessage
}

// ServerMessage is an outbound message produced by the session loop.
// ClientID 0 broadcasts to the whole session; otherwise the message goes
// to that client only.
type ServerMessage struct {
	SessionID string
	ClientID  uint32
	Type      messages.MessageType
	Message   interface{}
}

type NewServerMessageWorkerOptions struct {
	NetworkManager    *network.NetworkManager
	ServerMessageChan <-chan ServerMessage
}

func NewServerMessageWorker(opts NewServerMessageWorkerOptions) *ServerMessageWorker {
	return &ServerMessageWorker{
		networkManager:    opts.NetworkManager,
		serverMessageChan: opts.ServerMessageChan,
	}
}

func (w *ServerMessageWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.serverMessageChan:
			if err := w.send(ctx, msg); err != nil {
				log.Error("Failed to send %s message: %v", msg.Type, err)
			}
		}
	}
}

func (w *ServerMessageWorker) send(ctx context.Context, msg ServerMessage) error {
	var payload json.RawMessage
	if msg.Message != nil {
		b, err := json.Marshal(msg.Message)
		if err != nil {
			return err
		}
		payload = b
	}

	out := &messages.Message{
		ClientID: 0,
		Type:     msg.Type,
		Payload:  payload,
	}

	if msg.ClientID != 0 {
		return w.networkManager.SendMessageToClient(ctx, msg.ClientID, out)
	}
	if msg.SessionID != "" {
		w.networkManager.SendMessageToSession(ctx, msg.SessionID, out)
		return nil
	}
	w.networkManager.SendMessageToAll(ctx, out)
	return nil
}
