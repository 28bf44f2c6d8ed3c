package workers

import (
	gametypes "github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/network"
	"github.com/rinooks/pixel-war/pkg/queue"
)

type ClientEventWorker struct {
	clientManager        *network.ClientManager
	connectionEventQueue queue.Queue
}

type NewClientEventWorkerOptions struct {
	ClientManager        *network.ClientManager
	ConnectionEventQueue queue.Queue
}

// NewClientEventWorker creates a new ClientEventWorker.
// The worker processes client events like connect and disconnect
// and writes connection events to a queue for the session loop to process.
func NewClientEventWorker(opts NewClientEventWorkerOptions) *ClientEventWorker {
	return &ClientEventWorker{
		clientManager:        opts.ClientManager,
		connectionEventQueue: opts.ConnectionEventQueue,
	}
}

func (w *ClientEventWorker) Start() {
	for event := range w.clientManager.GetClientEventChan() {
		switch event.Type {
		case network.ClientEventTypeConnect:
			if err := w.connectionEventQueue.Enqueue(&gametypes.ConnectClientEvent{
				ClientID: event.ClientID,
			}); err != nil {
				log.Error("Failed to enqueue connect event: %v", err)
			}
		case network.ClientEventTypeDisconnect:
			disconnectEvent := &gametypes.DisconnectClientEvent{
				ClientID: event.ClientID,
			}
			if data, ok := event.Data.(network.ClientDisconnectData); ok {
				disconnectEvent.SessionID = data.SessionID
				disconnectEvent.PlayerID = data.PlayerID
			}
			if err := w.connectionEventQueue.Enqueue(disconnectEvent); err != nil {
				log.Error("Failed to enqueue disconnect event: %v", err)
			}
		default:
			log.Error("Unknown client event type: %v", event.Type)
		}
	}
}
