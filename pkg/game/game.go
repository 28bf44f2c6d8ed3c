package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rinooks/pixel-war/pkg/game/constants"
	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/messages"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/network"
	"github.com/rinooks/pixel-war/pkg/queue"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
	"github.com/rinooks/pixel-war/pkg/workers"
)

const timerBroadcastInterval = time.Second

// GameManager owns every live session. All session state is mutated from
// the loop goroutine only; the rest of the server talks to it through the
// message and event queues, and receives results through channels.
type GameManager struct {
	clientManager        *network.ClientManager
	clientMessageQueue   queue.Queue
	connectionEventQueue queue.Queue
	repository           repositories.Repository
	sessions             map[string]*types.SessionState
	instructorClients    map[uint32]bool
	serverMessageChan    chan<- workers.ServerMessage
	saveChannels         *workers.SaveChannels
	metrics              *metrics.Manager
	gameLoopInterval     time.Duration
	saveInterval         time.Duration
	syncCycleInterval    time.Duration
	lastSave             time.Time
	lastTimerBroadcast   time.Time
	nextSyncCycle        map[string]time.Time
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	ClientManager        *network.ClientManager
	ClientMessageQueue   queue.Queue
	ConnectionEventQueue queue.Queue
	Repository           repositories.Repository
	ServerMessageChan    chan<- workers.ServerMessage
	SaveChannels         *workers.SaveChannels
	Metrics              *metrics.Manager
	GameLoopInterval     time.Duration
	SaveInterval         time.Duration
	SyncCycleInterval    time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	return &GameManager{
		clientManager:        opts.ClientManager,
		clientMessageQueue:   opts.ClientMessageQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		repository:           opts.Repository,
		sessions:             make(map[string]*types.SessionState),
		instructorClients:    make(map[uint32]bool),
		serverMessageChan:    opts.ServerMessageChan,
		saveChannels:         opts.SaveChannels,
		metrics:              opts.Metrics,
		gameLoopInterval:     opts.GameLoopInterval,
		saveInterval:         opts.SaveInterval,
		syncCycleInterval:    opts.SyncCycleInterval,
		nextSyncCycle:        make(map[string]time.Time),
	}
}

// Start starts the game loop.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			gm.gameTick(ctx, t)
		}
	}
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, t time.Time) {
	gm.processConnectionEvents()
	gm.processClientMessages(ctx, t)
	gm.updateSessions(t)
	gm.metrics.SetActiveSessions(len(gm.sessions))

	if gm.saveInterval > 0 && t.Sub(gm.lastSave) >= gm.saveInterval {
		gm.lastSave = t
		for _, session := range gm.sessions {
			gm.enqueueSessionSave(session)
		}
	}
}

// processConnectionEvents processes all pending connection events in the
// queue and updates the affected sessions.
func (gm *GameManager) processConnectionEvents() {
	pendingEvents, err := gm.connectionEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read connection events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectClientEvent:
			log.Debug("Client %d awaiting join", event.ClientID)
		case *types.DisconnectClientEvent:
			gm.handleClientDisconnect(event)
		default:
			log.Error("unhandled connection event type: %T", event)
		}
	}
}

func (gm *GameManager) handleClientDisconnect(event *types.DisconnectClientEvent) {
	delete(gm.instructorClients, event.ClientID)
	if event.SessionID == "" || event.PlayerID == "" {
		return
	}
	session, ok := gm.sessions[event.SessionID]
	if !ok {
		return
	}
	player, ok := session.Players[event.PlayerID]
	if !ok {
		return
	}

	doc := models.PlayerDocFromState(player)
	doc.IsActive = false
	session.RemovePlayer(event.PlayerID)
	gm.saveChannels.Player <- workers.SavePlayerRequest{SessionID: session.ID, Doc: doc}

	gm.broadcast(session.ID, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{
		PlayerID: event.PlayerID,
	})
}

// processClientMessages processes all pending client messages in the queue
// and updates the session states accordingly.
func (gm *GameManager) processClientMessages(ctx context.Context, t time.Time) {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		switch message.Type {
		case messages.MessageTypeClientJoin:
			gm.handleJoin(ctx, message)
		case messages.MessageTypeClientLeave:
			gm.handleLeave(message)
		case messages.MessageTypeClientPlacePixel:
			gm.handlePlacePixel(message, t)
		case messages.MessageTypeClientPendingPixel:
			gm.handlePendingPixel(message)
		case messages.MessageTypeClientCommitPixels:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				gm.commitPendingPixels(s)
			})
		case messages.MessageTypeClientTimerStart:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.StartTimer()
				gm.broadcastTimer(s)
			})
		case messages.MessageTypeClientTimerPause:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.PauseTimer()
				gm.broadcastTimer(s)
			})
		case messages.MessageTypeClientTimerReset:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.ResetTimer()
				gm.broadcastTimer(s)
			})
		case messages.MessageTypeClientGameEnd:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				gm.endGame(s)
			})
		case messages.MessageTypeClientRefill:
			gm.handleRefill(message)
		case messages.MessageTypeClientEventActivate:
			gm.handleEventActivate(message, t)
		case messages.MessageTypeClientEventClear:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.ClearEvent()
				gm.broadcast(s.ID, messages.MessageTypeServerEventCleared, nil)
			})
		case messages.MessageTypeClientMissionSet:
			gm.handleMissionSet(message)
		case messages.MessageTypeClientMissionClear:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.ClearMission()
				gm.broadcast(s.ID, messages.MessageTypeServerMissionUpdated, &messages.ServerMissionUpdated{})
			})
		case messages.MessageTypeClientSettingsUpdate:
			gm.handleSettingsUpdate(message)
		case messages.MessageTypeClientResetGame:
			gm.withInstructorSession(message, func(s *types.SessionState) {
				s.ResetGame()
				gm.broadcastSnapshot(s)
				gm.enqueueSessionSave(s)
			})
		default:
			log.Error("Unhandled message type: %s", message.Type)
		}
	}
}

// updateSessions advances timers, cooldowns, events and sync cycles.
func (gm *GameManager) updateSessions(t time.Time) {
	delta := gm.gameLoopInterval.Seconds()
	broadcastTimers := t.Sub(gm.lastTimerBroadcast) >= timerBroadcastInterval
	if broadcastTimers {
		gm.lastTimerBroadcast = t
	}

	for _, session := range gm.sessions {
		session.DecrementCooldowns(constants.CooldownTickStep)

		if session.TickTimer(delta) {
			gm.endGame(session)
			continue
		}

		if session.ActiveEvent != nil && session.ActiveEvent.Expired(t) {
			session.ClearEvent()
			gm.broadcast(session.ID, messages.MessageTypeServerEventCleared, nil)
		}

		if session.RenderMode == types.RenderModeSyncCycle && session.Status == types.GameStatusPlaying {
			next, ok := gm.nextSyncCycle[session.ID]
			if !ok {
				gm.nextSyncCycle[session.ID] = t.Add(gm.syncCycleInterval)
			} else if t.After(next) {
				gm.nextSyncCycle[session.ID] = t.Add(gm.syncCycleInterval)
				gm.commitPendingPixels(session)
			}
		}

		if broadcastTimers && session.Status == types.GameStatusPlaying {
			gm.broadcastTimer(session)
		}
	}
}

func (gm *GameManager) handleJoin(ctx context.Context, message *messages.Message) {
	clientJoin := &messages.ClientJoin{}
	if err := json.Unmarshal(message.Payload, clientJoin); err != nil {
		log.Error("Failed to unmarshal client join: %v", err)
		return
	}

	session, err := gm.getOrLoadSession(ctx, clientJoin.SessionID)
	if err != nil {
		log.Warn("Client %d failed to join session %s: %v", message.ClientID, clientJoin.SessionID, err)
		gm.sendToClient(message.ClientID, messages.MessageTypeServerJoinFailure, &messages.ServerJoinFailure{
			Reason: "session not found",
		})
		return
	}

	player := &types.PlayerState{
		ID:         uuid.NewString(),
		Name:       clientJoin.PlayerName,
		TeamID:     gm.resolveTeam(session, clientJoin.TeamID),
		Instructor: clientJoin.Instructor,
	}
	session.AddPlayer(player)
	if clientJoin.Instructor {
		gm.instructorClients[message.ClientID] = true
	}

	if err := gm.clientManager.AssociateSession(message.ClientID, session.ID, player.ID); err != nil {
		log.Error("Failed to associate client %d with session %s: %v", message.ClientID, session.ID, err)
		session.RemovePlayer(player.ID)
		return
	}

	log.Info("Player %s joined session %s as client %d", player.ID, session.ID, message.ClientID)

	gm.sendToClient(message.ClientID, messages.MessageTypeServerJoinAck, &messages.ServerJoinAck{
		SessionID: session.ID,
		PlayerID:  player.ID,
	})
	gm.sendToClient(message.ClientID, messages.MessageTypeServerSessionSnapshot, SnapshotFromState(session))
	gm.broadcast(session.ID, messages.MessageTypeServerPlayerJoined, &messages.ServerPlayerJoined{
		Player: *player,
	})

	gm.saveChannels.Player <- workers.SavePlayerRequest{
		SessionID: session.ID,
		Doc:       models.PlayerDocFromState(player),
	}
}

// resolveTeam validates the requested team or assigns the emptiest one.
func (gm *GameManager) resolveTeam(session *types.SessionState, requested string) string {
	if team := session.TeamByID(requested); team != nil {
		return requested
	}
	var pick *types.Team
	for _, team := range session.Teams {
		if pick == nil || team.MemberCount < pick.MemberCount {
			pick = team
		}
	}
	if pick == nil {
		return ""
	}
	return pick.ID
}

func (gm *GameManager) handleLeave(message *messages.Message) {
	client, err := gm.clientManager.GetClient(message.ClientID)
	if err != nil || client.SessionID == "" {
		return
	}
	session, ok := gm.sessions[client.SessionID]
	if !ok {
		return
	}
	player, ok := session.Players[client.PlayerID]
	if !ok {
		return
	}

	doc := models.PlayerDocFromState(player)
	doc.IsActive = false
	session.RemovePlayer(client.PlayerID)
	gm.saveChannels.Player <- workers.SavePlayerRequest{SessionID: session.ID, Doc: doc}

	gm.broadcast(session.ID, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{
		PlayerID: client.PlayerID,
	})
}

func (gm *GameManager) handlePlacePixel(message *messages.Message, t time.Time) {
	placePixel := &messages.ClientPlacePixel{}
	if err := json.Unmarshal(message.Payload, placePixel); err != nil {
		log.Error("Failed to unmarshal place pixel: %v", err)
		return
	}

	session, playerID, ok := gm.clientSession(message.ClientID)
	if !ok {
		return
	}

	coord := types.Coord{X: placePixel.X, Y: placePixel.Y}
	var outcome types.PlaceOutcome
	if !coord.InBounds(session.CanvasSize) {
		outcome = types.PlaceRejectedOutOfBounds
	} else {
		outcome = session.PlacePixel(placePixel.X, placePixel.Y, placePixel.Color, playerID)
	}

	if !outcome.Accepted() {
		gm.metrics.PlacementDenied(outcome.String())
		gm.sendToClient(message.ClientID, messages.MessageTypeServerPlacementRejected, &messages.ServerPlacementRejected{
			X:      placePixel.X,
			Y:      placePixel.Y,
			Reason: outcome.String(),
		})
		return
	}

	gm.metrics.PixelPlaced()
	pixel := session.Pixels[coord]
	if team := session.TeamByID(pixel.TeamID); team != nil {
		team.PixelCount++
	}

	gm.broadcast(session.ID, messages.MessageTypeServerPixelPlaced, &messages.ServerPixelPlaced{
		X:     placePixel.X,
		Y:     placePixel.Y,
		Pixel: *pixel,
	})

	gm.saveChannels.Pixel <- workers.SavePixelRequest{
		SessionID: session.ID,
		Coord:     coord,
		Pixel: models.PixelDoc{
			Color:    pixel.Color,
			PlayerID: pixel.PlayerID,
			TeamID:   pixel.TeamID,
			PlacedAt: t.UnixMilli(),
		},
	}
}

func (gm *GameManager) handlePendingPixel(message *messages.Message) {
	pendingPixel := &messages.ClientPendingPixel{}
	if err := json.Unmarshal(message.Payload, pendingPixel); err != nil {
		log.Error("Failed to unmarshal pending pixel: %v", err)
		return
	}

	session, playerID, ok := gm.clientSession(message.ClientID)
	if !ok {
		return
	}

	coord := types.Coord{X: pendingPixel.X, Y: pendingPixel.Y}
	var outcome types.PlaceOutcome
	if !coord.InBounds(session.CanvasSize) {
		outcome = types.PlaceRejectedOutOfBounds
	} else {
		outcome = session.AddPendingPixel(pendingPixel.X, pendingPixel.Y, pendingPixel.Color, playerID)
	}

	if !outcome.Accepted() {
		gm.metrics.PlacementDenied(outcome.String())
		gm.sendToClient(message.ClientID, messages.MessageTypeServerPlacementRejected, &messages.ServerPlacementRejected{
			X:      pendingPixel.X,
			Y:      pendingPixel.Y,
			Reason: outcome.String(),
		})
	}
}

// commitPendingPixels merges the pending layer onto the canvas, broadcasts
// the batch, and mirrors it to the repository in one write.
func (gm *GameManager) commitPendingPixels(session *types.SessionState) {
	committed := session.CommitPendingPixels()
	if len(committed) == 0 {
		return
	}
	gm.metrics.BatchCommitted()

	batch := make([]messages.ServerPixelPlaced, 0, len(committed))
	docs := make(map[types.Coord]models.PixelDoc, len(committed))
	for coord, pixel := range committed {
		if team := session.TeamByID(pixel.TeamID); team != nil {
			team.PixelCount++
		}
		batch = append(batch, messages.ServerPixelPlaced{
			X:     coord.X,
			Y:     coord.Y,
			Pixel: *pixel,
		})
		docs[coord] = models.PixelDoc{
			Color:    pixel.Color,
			PlayerID: pixel.PlayerID,
			TeamID:   pixel.TeamID,
			PlacedAt: pixel.PlacedAt.UnixMilli(),
		}
	}

	gm.broadcast(session.ID, messages.MessageTypeServerPixelsCommitted, &messages.ServerPixelsCommitted{
		Pixels: batch,
	})
	gm.saveChannels.PixelBatch <- workers.SavePixelBatchRequest{
		SessionID: session.ID,
		Pixels:    docs,
	}
}

func (gm *GameManager) handleRefill(message *messages.Message) {
	refill := &messages.ClientRefill{}
	if err := json.Unmarshal(message.Payload, refill); err != nil {
		log.Error("Failed to unmarshal refill: %v", err)
		return
	}
	gm.withInstructorSession(message, func(s *types.SessionState) {
		amount := refill.Amount
		if amount <= 0 {
			amount = s.MaxPixels
		}
		if refill.PlayerID == "" {
			s.RefillAllPixels(amount)
		} else if outcome := s.RefillPixels(refill.PlayerID, amount); !outcome.Accepted() {
			log.Warn("Refill for player %s denied: %s", refill.PlayerID, outcome)
			return
		}
		gm.broadcastSnapshot(s)
	})
}

func (gm *GameManager) handleEventActivate(message *messages.Message, t time.Time) {
	activate := &messages.ClientEventActivate{}
	if err := json.Unmarshal(message.Payload, activate); err != nil {
		log.Error("Failed to unmarshal event activate: %v", err)
		return
	}
	gm.withInstructorSession(message, func(s *types.SessionState) {
		event := &types.GameEvent{
			ID:          uuid.NewString(),
			Name:        activate.Name,
			Multiplier:  activate.Multiplier,
			Duration:    activate.Duration,
			Color:       activate.Color,
			ActivatedAt: t,
		}
		s.SetActiveEvent(event)
		gm.broadcast(s.ID, messages.MessageTypeServerEventActivated, &messages.ServerEventActivated{
			Event: *event,
		})
	})
}

func (gm *GameManager) handleMissionSet(message *messages.Message) {
	missionSet := &messages.ClientMissionSet{}
	if err := json.Unmarshal(message.Payload, missionSet); err != nil {
		log.Error("Failed to unmarshal mission set: %v", err)
		return
	}
	gm.withInstructorSession(message, func(s *types.SessionState) {
		guide := make(map[types.Coord]string, len(missionSet.Guide))
		for key, color := range missionSet.Guide {
			coord, err := models.ParsePixelKey(key)
			if err != nil {
				log.Warn("Skipping bad mission guide key %q", key)
				continue
			}
			guide[coord] = color
		}
		mission := missionSet.Mission
		s.SetMission(&mission, guide)
		gm.broadcast(s.ID, messages.MessageTypeServerMissionUpdated, &messages.ServerMissionUpdated{
			Mission: &mission,
			Guide:   missionSet.Guide,
		})
	})
}

func (gm *GameManager) handleSettingsUpdate(message *messages.Message) {
	settings := &messages.ClientSettingsUpdate{}
	if err := json.Unmarshal(message.Payload, settings); err != nil {
		log.Error("Failed to unmarshal settings update: %v", err)
		return
	}
	gm.withInstructorSession(message, func(s *types.SessionState) {
		if settings.GameMode != "" {
			s.GameMode = types.GameMode(settings.GameMode)
		}
		if settings.RenderMode != "" {
			s.RenderMode = types.RenderMode(settings.RenderMode)
		}
		if settings.CanvasSize > 0 {
			s.CanvasSize = settings.CanvasSize
		}
		if settings.TimerDuration > 0 {
			s.SetTimerDuration(settings.TimerDuration)
		}
		if settings.CooldownTime > 0 {
			s.CooldownTime = settings.CooldownTime
		}
		if settings.MaxPixels > 0 {
			s.MaxPixels = settings.MaxPixels
		}
		gm.broadcastSnapshot(s)
		gm.enqueueSessionSave(s)
	})
}

// endGame finalizes a session: scores are derived from pixel ownership,
// broadcast, and persisted along with a stats snapshot. Finalization runs
// once per game; ending an already-ended session must not re-award scores
// or write a duplicate stats snapshot.
func (gm *GameManager) endGame(session *types.SessionState) {
	if session.Status == types.GameStatusEnded {
		return
	}
	session.EndGame()

	scores := session.CalculateScores(nil)
	for teamID, score := range scores {
		if score.Total == 0 {
			continue
		}
		session.UpdateScore(teamID, score.Total)
		gm.saveChannels.Score <- workers.SaveScoreRequest{
			SessionID: session.ID,
			EntityID:  teamID,
			Points:    score.Total,
			Team:      true,
		}
		gm.broadcast(session.ID, messages.MessageTypeServerScoreUpdate, &messages.ServerScoreUpdate{
			ID:     teamID,
			Points: score.Total,
			Total:  session.Scores[teamID],
		})
	}

	gm.broadcast(session.ID, messages.MessageTypeServerGameEnded, &messages.ServerGameEnded{
		Scores: scores,
	})
	gm.broadcastTimer(session)

	teamScores := make(map[string]types.TeamScore, len(scores))
	for id, score := range scores {
		teamScores[id] = *score
	}
	gm.saveChannels.Stats <- workers.SaveStatsRequest{
		Doc: &models.StatsDoc{
			SessionID:   session.ID,
			PlayerCount: len(session.Players),
			PixelCount:  len(session.Pixels),
			TeamScores:  teamScores,
			DurationSec: session.TimerDuration - session.TimerRemaining,
			SavedAt:     time.Now(),
		},
	}
	gm.enqueueSessionSave(session)

	log.Info("Session %s ended with %d pixels placed", session.ID, len(session.Pixels))
}

// getOrLoadSession returns a live session, loading it from the repository
// on first reference.
func (gm *GameManager) getOrLoadSession(ctx context.Context, sessionID string) (*types.SessionState, error) {
	if session, ok := gm.sessions[sessionID]; ok {
		return session, nil
	}

	doc, err := gm.repository.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := models.StateFromSessionDoc(doc)

	teamDocs, err := gm.repository.ListTeams(ctx, sessionID)
	if err != nil {
		log.Error("Failed to list teams for session %s: %v", sessionID, err)
	}
	teams := make([]*types.Team, 0, len(teamDocs))
	for _, teamDoc := range teamDocs {
		teams = append(teams, models.TeamFromDoc(teamDoc))
	}
	session.SetTeams(teams)

	gm.sessions[sessionID] = session
	log.Info("Loaded session %s with %d pixels", sessionID, len(session.Pixels))
	return session, nil
}

// clientSession resolves the session and player a client has joined.
func (gm *GameManager) clientSession(clientID uint32) (*types.SessionState, string, bool) {
	client, err := gm.clientManager.GetClient(clientID)
	if err != nil || client.SessionID == "" {
		log.Warn("Client %d is not in a session", clientID)
		return nil, "", false
	}
	session, ok := gm.sessions[client.SessionID]
	if !ok {
		log.Warn("Client %d references unknown session %s", clientID, client.SessionID)
		return nil, "", false
	}
	return session, client.PlayerID, true
}

// withInstructorSession runs fn only when the sender has instructor
// privileges in a live session.
func (gm *GameManager) withInstructorSession(message *messages.Message, fn func(*types.SessionState)) {
	if !gm.instructorClients[message.ClientID] {
		log.Warn("Client %d attempted an instructor action without privileges", message.ClientID)
		return
	}
	session, _, ok := gm.clientSession(message.ClientID)
	if !ok {
		return
	}
	fn(session)
}

func (gm *GameManager) enqueueSessionSave(session *types.SessionState) {
	gm.saveChannels.Session <- workers.SaveSessionRequest{
		Doc: models.SessionDocFromState(session),
	}
}

func (gm *GameManager) broadcastTimer(session *types.SessionState) {
	gm.broadcast(session.ID, messages.MessageTypeServerTimerUpdate, &messages.ServerTimerUpdate{
		Remaining: session.TimerRemaining,
		Status:    string(session.Status),
	})
}

func (gm *GameManager) broadcastSnapshot(session *types.SessionState) {
	gm.broadcast(session.ID, messages.MessageTypeServerSessionSnapshot, SnapshotFromState(session))
}

func (gm *GameManager) broadcast(sessionID string, messageType messages.MessageType, message interface{}) {
	gm.serverMessageChan <- workers.ServerMessage{
		SessionID: sessionID,
		Type:      messageType,
		Message:   message,
	}
}

func (gm *GameManager) sendToClient(clientID uint32, messageType messages.MessageType, message interface{}) {
	gm.serverMessageChan <- workers.ServerMessage{
		ClientID: clientID,
		Type:     messageType,
		Message:  message,
	}
}
