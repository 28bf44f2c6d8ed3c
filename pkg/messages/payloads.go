package messages

import (
	"github.com/rinooks/pixel-war/pkg/game/types"
)

// ClientJoin is sent once after connecting to enter a session.
type ClientJoin struct {
	SessionID  string `json:"sessionID"`
	PlayerName string `json:"playerName"`
	TeamID     string `json:"teamID,omitempty"`
	// Instructor requests facilitator privileges for this connection.
	Instructor bool `json:"instructor,omitempty"`
}

// ClientPlacePixel requests a realtime placement.
type ClientPlacePixel struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// ClientPendingPixel requests a deferred (batch/sync_cycle) placement.
type ClientPendingPixel struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// ClientRefill grants pixels to one player, or to everyone when PlayerID
// is empty. Instructor only.
type ClientRefill struct {
	PlayerID string `json:"playerID,omitempty"`
	Amount   int    `json:"amount"`
}

// ClientEventActivate starts a session-wide event. Instructor only.
type ClientEventActivate struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Duration   float64 `json:"duration"`
	Color      string  `json:"color,omitempty"`
}

// ClientMissionSet assigns the current mission. Instructor only.
type ClientMissionSet struct {
	Mission types.Mission     `json:"mission"`
	Guide   map[string]string `json:"guide,omitempty"`
}

// ClientSettingsUpdate tweaks session settings. Instructor only. Zero
// values leave the corresponding setting untouched.
type ClientSettingsUpdate struct {
	GameMode      string  `json:"gameMode,omitempty"`
	RenderMode    string  `json:"renderMode,omitempty"`
	CanvasSize    int     `json:"canvasSize,omitempty"`
	TimerDuration float64 `json:"timerDuration,omitempty"`
	CooldownTime  float64 `json:"cooldownTime,omitempty"`
	MaxPixels     int     `json:"maxPixels,omitempty"`
}

// ServerJoinAck confirms a join and carries the player's server-assigned id.
type ServerJoinAck struct {
	SessionID string `json:"sessionID"`
	PlayerID  string `json:"playerID"`
}

// ServerJoinFailure reports why a join was refused.
type ServerJoinFailure struct {
	Reason string `json:"reason"`
}

// ServerPixelPlaced broadcasts one committed placement.
type ServerPixelPlaced struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Pixel types.Pixel `json:"pixel"`
}

// ServerPixelsCommitted broadcasts a bulk commit of pending pixels.
type ServerPixelsCommitted struct {
	Pixels []ServerPixelPlaced `json:"pixels"`
}

// ServerPlacementRejected is sent only to the requesting client, carrying
// the named rejection reason (insufficient-inventory, on-cooldown, ...).
type ServerPlacementRejected struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Reason string `json:"reason"`
}

// ServerPlayerJoined broadcasts a new player to the session.
type ServerPlayerJoined struct {
	Player types.PlayerState `json:"player"`
}

// ServerPlayerLeft broadcasts an explicit leave or disconnect.
type ServerPlayerLeft struct {
	PlayerID string `json:"playerID"`
}

// ServerTimerUpdate carries the authoritative clock. Clients count down
// locally between updates; this is just the periodic correction.
type ServerTimerUpdate struct {
	Remaining float64 `json:"remaining"`
	Status    string  `json:"status"`
}

// ServerGameEnded broadcasts the final scoring breakdown.
type ServerGameEnded struct {
	Scores map[string]*types.TeamScore `json:"scores"`
}

// ServerEventActivated broadcasts the active event.
type ServerEventActivated struct {
	Event types.GameEvent `json:"event"`
}

// ServerMissionUpdated broadcasts the current mission, nil-able.
type ServerMissionUpdated struct {
	Mission *types.Mission    `json:"mission,omitempty"`
	Guide   map[string]string `json:"guide,omitempty"`
}

// ServerScoreUpdate broadcasts one score increment.
type ServerScoreUpdate struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
	Total  int    `json:"total"`
}

// SessionSnapshot is the full session view sent on join and on demand.
// Pixel maps are keyed by coordinate structs client-side; the snapshot
// flattens them to explicit x/y entries.
type SessionSnapshot struct {
	SessionID      string              `json:"sessionID"`
	Name           string              `json:"name"`
	GameMode       string              `json:"gameMode"`
	RenderMode     string              `json:"renderMode"`
	CanvasSize     int                 `json:"canvasSize"`
	TimerDuration  float64             `json:"timerDuration"`
	TimerRemaining float64             `json:"timerRemaining"`
	Status         string              `json:"status"`
	Pixels         []ServerPixelPlaced `json:"pixels"`
	PendingPixels  []ServerPixelPlaced `json:"pendingPixels,omitempty"`
	Teams          []types.Team        `json:"teams"`
	Players        []types.PlayerState `json:"players"`
	Scores         map[string]int      `json:"scores"`
	Mission        *types.Mission      `json:"mission,omitempty"`
	ActiveEvent    *types.GameEvent    `json:"activeEvent,omitempty"`
}
