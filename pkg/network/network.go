package network

import (
	"context"

	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/messages"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/queue"
	"nhooyr.io/websocket"
)

// NetworkManager accepts websocket connections, stamps inbound messages with
// the server-side client ID, and feeds them to the game via the message queue.
type NetworkManager struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	WSServer      *WSServer
	Metrics       *metrics.Manager
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	WSPort        int
	WSServerTLS   *TLSConfig
	Metrics       *metrics.Manager
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	return &NetworkManager{
		ClientManager: options.ClientManager,
		MessageQueue:  options.MessageQueue,
		WSServer: NewWSServer(NewWSServerOptions{
			Port: options.WSPort,
			TLS:  options.WSServerTLS,
		}),
		Metrics: options.Metrics,
	}
}

func (n *NetworkManager) Start(ctx context.Context) {
	go n.WSServer.Start(ctx, n.handleConnection)
}

func (n *NetworkManager) handleConnection(ctx context.Context, conn *websocket.Conn) {
	clientID, err := n.ClientManager.ConnectClient(conn)
	if err != nil {
		log.Error("Failed to connect client: %v", err)
		conn.Close(websocket.StatusTryAgainLater, "server full")
		return
	}
	n.Metrics.ClientConnected()
	log.Info("Client %d connected", clientID)

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		n.ClientManager.DisconnectClient(clientID)
		n.Metrics.ClientDisconnected()
		conn.Close(websocket.StatusNormalClosure, "")
		log.Info("Client %d disconnected", clientID)
	}()

	for {
		message, err := ReadMessageFromWS(ctx, conn)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 {
				log.Error("Error reading WebSocket message from client %d: %v", clientID, err)
			}
			log.Trace("Connection closed for client %d", clientID)
			return
		}

		// the connection, not the payload, determines who sent it
		message.ClientID = clientID
		n.handleMessage(ctx, conn, message)
	}
}

func (n *NetworkManager) handleMessage(ctx context.Context, conn *websocket.Conn, message *messages.Message) {
	switch message.Type {
	case messages.MessageTypeClientPing:
		pong := &messages.Message{
			ClientID: 0,
			Type:     messages.MessageTypeServerPong,
			Payload:  nil,
		}
		if err := WriteMessageToWS(ctx, conn, pong); err != nil {
			log.Error("Failed to write pong message to client %d: %v", message.ClientID, err)
		}
	default:
		if err := n.MessageQueue.Enqueue(message); err != nil {
			n.Metrics.MessageDropped()
			log.Error("Failed to enqueue message: %v", err)
		}
	}
}

// SendMessageToClient sends a message to a single connected client.
func (n *NetworkManager) SendMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return err
	}
	return WriteMessageToWS(ctx, client.WSConn, msg)
}

// SendMessageToSession sends a message to every client joined to a session.
func (n *NetworkManager) SendMessageToSession(ctx context.Context, sessionID string, msg *messages.Message) {
	for _, client := range n.ClientManager.GetSessionClients(sessionID) {
		if err := WriteMessageToWS(ctx, client.WSConn, msg); err != nil {
			log.Error("Failed to send message to client %d: %v", client.ID, err)
		}
	}
}

// SendMessageToAll sends a message to every connected client.
func (n *NetworkManager) SendMessageToAll(ctx context.Context, msg *messages.Message) {
	for _, client := range n.ClientManager.GetClients() {
		if err := WriteMessageToWS(ctx, client.WSConn, msg); err != nil {
			log.Error("Failed to send message to client %d: %v", client.ID, err)
		}
	}
}
