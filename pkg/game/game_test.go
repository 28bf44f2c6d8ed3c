package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/messages"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/network"
	"github.com/rinooks/pixel-war/pkg/queue"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
	"github.com/rinooks/pixel-war/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	gm                *GameManager
	clientManager     *network.ClientManager
	clientMessages    queue.Queue
	connectionEvents  queue.Queue
	repository        repositories.Repository
	serverMessageChan chan workers.ServerMessage
	saveChannels      *workers.SaveChannels
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	repo := repositories.NewInMemoryRepository()
	require.NoError(t, repo.CreateSession(context.Background(), &models.SessionDoc{
		ID:         "s1",
		Name:       "Workshop",
		GameMode:   string(types.GameModeTeam),
		RenderMode: string(types.RenderModeRealtime),
		CanvasSize: 64,
		Status:     string(types.GameStatusWaiting),
		Pixels:     map[string]models.PixelDoc{},
		Scores:     map[string]int{},
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, repo.CreateTeam(context.Background(), "s1", &models.TeamDoc{ID: "red", Name: "Red", Color: "#ff4444"}))
	require.NoError(t, repo.CreateTeam(context.Background(), "s1", &models.TeamDoc{ID: "blue", Name: "Blue", Color: "#4488ff"}))

	h := &testHarness{
		clientManager:     network.NewClientManager(),
		clientMessages:    queue.NewInMemoryQueue(1024),
		connectionEvents:  queue.NewInMemoryQueue(1024),
		repository:        repo,
		serverMessageChan: make(chan workers.ServerMessage, 1024),
		saveChannels:      workers.NewSaveChannels(1024),
	}
	h.gm = NewGameManager(NewGameManagerOptions{
		ClientManager:        h.clientManager,
		ClientMessageQueue:   h.clientMessages,
		ConnectionEventQueue: h.connectionEvents,
		Repository:           repo,
		ServerMessageChan:    h.serverMessageChan,
		SaveChannels:         h.saveChannels,
		Metrics:              metrics.NewManager(),
		GameLoopInterval:     100 * time.Millisecond,
		SaveInterval:         10 * time.Second,
		SyncCycleInterval:    30 * time.Second,
	})
	return h
}

func (h *testHarness) connect(t *testing.T) uint32 {
	t.Helper()
	clientID, err := h.clientManager.ConnectClient(nil)
	require.NoError(t, err)
	return clientID
}

func (h *testHarness) enqueue(t *testing.T, clientID uint32, messageType messages.MessageType, payload interface{}) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	require.NoError(t, h.clientMessages.Enqueue(&messages.Message{
		ClientID: clientID,
		Type:     messageType,
		Payload:  raw,
	}))
}

func (h *testHarness) tick() {
	h.gm.gameTick(context.Background(), time.Now())
}

// drain empties the outbound channel and returns messages grouped by type.
func (h *testHarness) drain() map[messages.MessageType][]workers.ServerMessage {
	out := make(map[messages.MessageType][]workers.ServerMessage)
	for {
		select {
		case msg := <-h.serverMessageChan:
			out[msg.Type] = append(out[msg.Type], msg)
		default:
			return out
		}
	}
}

func (h *testHarness) join(t *testing.T, clientID uint32, name, teamID string, instructor bool) string {
	t.Helper()
	h.enqueue(t, clientID, messages.MessageTypeClientJoin, &messages.ClientJoin{
		SessionID:  "s1",
		PlayerName: name,
		TeamID:     teamID,
		Instructor: instructor,
	})
	h.tick()
	client, err := h.clientManager.GetClient(clientID)
	require.NoError(t, err)
	require.NotEmpty(t, client.PlayerID)
	return client.PlayerID
}

func TestGameManagerJoin(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)

	playerID := h.join(t, clientID, "Ada", "red", false)

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerJoinAck], 1)
	assert.Equal(t, clientID, out[messages.MessageTypeServerJoinAck][0].ClientID)
	require.Len(t, out[messages.MessageTypeServerSessionSnapshot], 1)
	require.Len(t, out[messages.MessageTypeServerPlayerJoined], 1)

	session := h.gm.sessions["s1"]
	require.NotNil(t, session)
	player := session.Players[playerID]
	require.NotNil(t, player)
	assert.Equal(t, "red", player.TeamID)
	assert.Equal(t, session.MaxPixels, player.Inventory)

	// the player doc was sent to the save worker
	select {
	case req := <-h.saveChannels.Player:
		assert.Equal(t, playerID, req.Doc.ID)
	default:
		t.Fatal("expected a player save request")
	}
}

func TestGameManagerJoinUnknownSession(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)

	h.enqueue(t, clientID, messages.MessageTypeClientJoin, &messages.ClientJoin{
		SessionID:  "missing",
		PlayerName: "Ada",
	})
	h.tick()

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerJoinFailure], 1)
	assert.Empty(t, out[messages.MessageTypeServerJoinAck])
}

func TestGameManagerJoinAutoAssignsEmptiestTeam(t *testing.T) {
	h := newTestHarness(t)
	c1 := h.connect(t)
	h.join(t, c1, "Ada", "red", false)

	c2 := h.connect(t)
	playerID := h.join(t, c2, "Grace", "", false)

	session := h.gm.sessions["s1"]
	assert.Equal(t, "blue", session.Players[playerID].TeamID)
}

func TestGameManagerPlacePixel(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	playerID := h.join(t, clientID, "Ada", "red", false)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 3, Y: 4, Color: "#ff4444"})
	h.tick()

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerPixelPlaced], 1)
	assert.Equal(t, "s1", out[messages.MessageTypeServerPixelPlaced][0].SessionID)

	session := h.gm.sessions["s1"]
	pixel := session.Pixels[types.Coord{X: 3, Y: 4}]
	require.NotNil(t, pixel)
	assert.Equal(t, playerID, pixel.PlayerID)
	assert.Equal(t, "red", pixel.TeamID)
	assert.Equal(t, 1, session.TeamByID("red").PixelCount)

	select {
	case req := <-h.saveChannels.Pixel:
		assert.Equal(t, types.Coord{X: 3, Y: 4}, req.Coord)
		assert.Equal(t, "#ff4444", req.Pixel.Color)
	default:
		t.Fatal("expected a pixel save request")
	}
}

func TestGameManagerPlacePixelCooldownRejection(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ada", "red", false)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 3, Y: 4, Color: "#ff4444"})
	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 5, Y: 5, Color: "#ff4444"})
	h.tick()

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerPixelPlaced], 1)
	require.Len(t, out[messages.MessageTypeServerPlacementRejected], 1)

	rejected := &messages.ServerPlacementRejected{}
	raw, err := json.Marshal(out[messages.MessageTypeServerPlacementRejected][0].Message)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, rejected))
	assert.Equal(t, "on-cooldown", rejected.Reason)
	assert.Equal(t, 5, rejected.X)

	// the denied placement left the canvas untouched
	session := h.gm.sessions["s1"]
	assert.Nil(t, session.Pixels[types.Coord{X: 5, Y: 5}])
}

func TestGameManagerPlacePixelOutOfBounds(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ada", "red", false)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 64, Y: 0, Color: "#ff4444"})
	h.tick()

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerPlacementRejected], 1)
	raw, err := json.Marshal(out[messages.MessageTypeServerPlacementRejected][0].Message)
	require.NoError(t, err)
	rejected := &messages.ServerPlacementRejected{}
	require.NoError(t, json.Unmarshal(raw, rejected))
	assert.Equal(t, "out-of-bounds", rejected.Reason)
}

func TestGameManagerInstructorGating(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ada", "red", false)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientTimerStart, nil)
	h.tick()

	session := h.gm.sessions["s1"]
	assert.Equal(t, types.GameStatusWaiting, session.Status)
	assert.Empty(t, h.drain()[messages.MessageTypeServerTimerUpdate])
}

func TestGameManagerInstructorTimerControls(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]

	h.enqueue(t, clientID, messages.MessageTypeClientTimerStart, nil)
	h.tick()
	assert.Equal(t, types.GameStatusPlaying, session.Status)

	h.enqueue(t, clientID, messages.MessageTypeClientTimerPause, nil)
	h.tick()
	assert.Equal(t, types.GameStatusPaused, session.Status)

	h.enqueue(t, clientID, messages.MessageTypeClientTimerReset, nil)
	h.tick()
	assert.Equal(t, types.GameStatusWaiting, session.Status)
	assert.Equal(t, session.TimerDuration, session.TimerRemaining)

	out := h.drain()
	assert.Len(t, out[messages.MessageTypeServerTimerUpdate], 3)
}

func TestGameManagerCommitPendingPixels(t *testing.T) {
	h := newTestHarness(t)
	instructor := h.connect(t)
	h.join(t, instructor, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]
	session.RenderMode = types.RenderModeBatch

	h.enqueue(t, instructor, messages.MessageTypeClientPendingPixel, &messages.ClientPendingPixel{X: 1, Y: 1, Color: "#ff4444"})
	h.enqueue(t, instructor, messages.MessageTypeClientPendingPixel, &messages.ClientPendingPixel{X: 2, Y: 2, Color: "#ff4444"})
	h.tick()
	require.Len(t, session.PendingPixels, 2)
	assert.Empty(t, session.Pixels)

	h.enqueue(t, instructor, messages.MessageTypeClientCommitPixels, nil)
	h.tick()

	assert.Empty(t, session.PendingPixels)
	assert.Len(t, session.Pixels, 2)

	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerPixelsCommitted], 1)

	select {
	case req := <-h.saveChannels.PixelBatch:
		assert.Len(t, req.Pixels, 2)
	default:
		t.Fatal("expected a pixel batch save request")
	}
}

func TestGameManagerTimerExpiryEndsGame(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]
	session.StartTimer()
	session.TimerRemaining = 0.05

	h.tick()

	assert.Equal(t, types.GameStatusEnded, session.Status)
	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerGameEnded], 1)

	select {
	case req := <-h.saveChannels.Stats:
		assert.Equal(t, "s1", req.Doc.SessionID)
	default:
		t.Fatal("expected a stats save request")
	}
}

func TestGameManagerEndGameScoresInvasion(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]
	session.StartTimer()

	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 1, Y: 1, Color: "#ff4444"})
	h.tick()
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientGameEnd, nil)
	h.tick()

	// one pixel, no zones: it scores as invasion
	assert.Equal(t, 3, session.Scores["red"])
	out := h.drain()
	require.Len(t, out[messages.MessageTypeServerScoreUpdate], 1)
}

func TestGameManagerEndGameFinalizesOnce(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]
	session.StartTimer()

	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 1, Y: 1, Color: "#ff4444"})
	h.tick()
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientGameEnd, nil)
	h.tick()
	require.Equal(t, types.GameStatusEnded, session.Status)
	require.Equal(t, 3, session.Scores["red"])
	require.Len(t, h.drain()[messages.MessageTypeServerGameEnded], 1)
	<-h.saveChannels.Stats

	// a second end must not re-award scores or write another snapshot
	h.enqueue(t, clientID, messages.MessageTypeClientGameEnd, nil)
	h.tick()
	assert.Equal(t, 3, session.Scores["red"])
	assert.Empty(t, h.drain()[messages.MessageTypeServerGameEnded])
	select {
	case <-h.saveChannels.Stats:
		t.Fatal("unexpected second stats save request")
	default:
	}
}

func TestGameManagerEventLifecycle(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientEventActivate, &messages.ClientEventActivate{
		Name:       "Gold Rush",
		Multiplier: 2,
		Duration:   0.01,
	})
	h.tick()

	session := h.gm.sessions["s1"]
	require.NotNil(t, session.ActiveEvent)
	assert.Equal(t, 2.0, session.EventMultiplier)
	require.Len(t, h.drain()[messages.MessageTypeServerEventActivated], 1)

	// the loop expires the event once its duration elapses
	time.Sleep(20 * time.Millisecond)
	h.tick()
	assert.Nil(t, session.ActiveEvent)
	assert.Equal(t, 1.0, session.EventMultiplier)
	require.Len(t, h.drain()[messages.MessageTypeServerEventCleared], 1)
}

func TestGameManagerDisconnectRemovesPlayer(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	playerID := h.join(t, clientID, "Ada", "red", false)
	h.drain()

	h.clientManager.DisconnectClient(clientID)
	require.NoError(t, h.connectionEvents.Enqueue(&types.DisconnectClientEvent{
		ClientID:  clientID,
		SessionID: "s1",
		PlayerID:  playerID,
	}))
	h.tick()

	session := h.gm.sessions["s1"]
	assert.Nil(t, session.Players[playerID])
	require.Len(t, h.drain()[messages.MessageTypeServerPlayerLeft], 1)
}

func TestGameManagerSettingsUpdate(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	h.join(t, clientID, "Ida", "red", true)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientSettingsUpdate, &messages.ClientSettingsUpdate{
		RenderMode:    string(types.RenderModeSyncCycle),
		TimerDuration: 120,
		MaxPixels:     10,
	})
	h.tick()

	session := h.gm.sessions["s1"]
	assert.Equal(t, types.RenderModeSyncCycle, session.RenderMode)
	assert.Equal(t, 120.0, session.TimerDuration)
	assert.Equal(t, 120.0, session.TimerRemaining)
	assert.Equal(t, 10, session.MaxPixels)
	// unspecified settings stay put
	assert.Equal(t, 64, session.CanvasSize)
}

func TestGameManagerResetGame(t *testing.T) {
	h := newTestHarness(t)
	clientID := h.connect(t)
	playerID := h.join(t, clientID, "Ida", "red", true)
	h.drain()

	session := h.gm.sessions["s1"]
	h.enqueue(t, clientID, messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{X: 1, Y: 1, Color: "#ff4444"})
	h.tick()
	require.Len(t, session.Pixels, 1)
	h.drain()

	h.enqueue(t, clientID, messages.MessageTypeClientResetGame, nil)
	h.tick()

	assert.Empty(t, session.Pixels)
	assert.Equal(t, types.GameStatusWaiting, session.Status)
	// roster survives a reset
	require.NotNil(t, session.Players[playerID])
	assert.Equal(t, session.MaxPixels, session.Players[playerID].Inventory)
	require.Len(t, h.drain()[messages.MessageTypeServerSessionSnapshot], 1)
}
