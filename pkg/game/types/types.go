package types

import (
	"fmt"
	"time"
)

// GameMode determines whether scoring is aggregated by team or per player.
type GameMode string

const (
	GameModeTeam       GameMode = "team"
	GameModeIndividual GameMode = "individual"
)

// RenderMode determines when placed pixels become visible to other players.
type RenderMode string

const (
	// RenderModeRealtime makes pixels visible immediately.
	RenderModeRealtime RenderMode = "realtime"
	// RenderModeBatch defers visibility until an explicit commit.
	RenderModeBatch RenderMode = "batch"
	// RenderModeSyncCycle commits pending pixels on a fixed period.
	RenderModeSyncCycle RenderMode = "sync_cycle"
)

// GameStatus is the session phase.
type GameStatus string

const (
	GameStatusWaiting GameStatus = "waiting"
	GameStatusPlaying GameStatus = "playing"
	GameStatusPaused  GameStatus = "paused"
	GameStatusEnded   GameStatus = "ended"
)

// Coord is the canonical in-memory pixel coordinate key. String forms
// ("x_y" for persisted field paths) exist only at the repository boundary.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// InBounds reports whether the coordinate lies within [0, size).
func (c Coord) InBounds(size int) bool {
	return c.X >= 0 && c.X < size && c.Y >= 0 && c.Y < size
}

// Pixel is a placed cell on the canvas. A later placement at the same
// coordinate overwrites the earlier one unconditionally.
type Pixel struct {
	Color    string    `json:"color"`
	PlayerID string    `json:"playerId"`
	TeamID   string    `json:"teamId,omitempty"`
	PlacedAt time.Time `json:"placedAt"`
}

// Team is created at session setup from the fixed palette. Aggregate score
// is derived from pixel ownership, not stored as a canonical ledger.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Score       int    `json:"score"`
	PixelCount  int    `json:"pixelCount"`
	MemberCount int    `json:"memberCount"`
}

// PlayerState tracks a joined player and their placement resources.
type PlayerState struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TeamID       string    `json:"teamId,omitempty"`
	PixelsPlaced int       `json:"pixelsPlaced"`
	Score        int       `json:"score"`
	Inventory    int       `json:"inventory"`
	Cooldown     float64   `json:"cooldown"`
	IsActive     bool      `json:"isActive"`
	Instructor   bool      `json:"instructor,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Mission is a scored objective. The guide, when present, maps coordinates
// to target colors for overlay rendering only; it is never enforced.
type Mission struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Difficulty  string  `json:"difficulty"`
	Points      int     `json:"points"`
	Progress    float64 `json:"progress,omitempty"`
}

// GameEvent is a temporary session-wide score multiplier. At most one is
// active per session; it auto-expires after Duration.
type GameEvent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Multiplier  float64   `json:"multiplier"`
	Duration    float64   `json:"duration"`
	Color       string    `json:"color,omitempty"`
	ActivatedAt time.Time `json:"activatedAt"`
}

// Expired reports whether the event's duration has elapsed at now.
func (e *GameEvent) Expired(now time.Time) bool {
	return now.Sub(e.ActivatedAt).Seconds() >= e.Duration
}

// TeamScore is the derived scoring breakdown for one team.
type TeamScore struct {
	Total       int `json:"total"`
	HomeDefense int `json:"homeDefense"`
	Invasion    int `json:"invasion"`
	PixelCount  int `json:"pixelCount"`
}
