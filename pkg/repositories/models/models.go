// Package models defines the document shapes the repository persists.
// Pixel maps are keyed by the "x_y" field-path form only at this boundary;
// everything in memory uses types.Coord.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rinooks/pixel-war/pkg/game/types"
)

// PixelKey renders the persisted field-path key for a coordinate.
func PixelKey(c types.Coord) string {
	return fmt.Sprintf("%d_%d", c.X, c.Y)
}

// ParsePixelKey parses an "x_y" key back into a coordinate.
func ParsePixelKey(key string) (types.Coord, error) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return types.Coord{}, fmt.Errorf("invalid pixel key %q", key)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Coord{}, fmt.Errorf("invalid pixel key %q: %v", key, err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Coord{}, fmt.Errorf("invalid pixel key %q: %v", key, err)
	}
	return types.Coord{X: x, Y: y}, nil
}

// PixelDoc is one pixel as persisted.
type PixelDoc struct {
	Color    string `json:"color"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId,omitempty"`
	PlacedAt int64  `json:"placedAt"`
}

// SessionDoc is the whole-session document.
type SessionDoc struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	GameMode       string              `json:"gameMode"`
	RenderMode     string              `json:"renderMode"`
	CanvasSize     int                 `json:"canvasSize"`
	Status         string              `json:"status"`
	TimerDuration  float64             `json:"timerDuration"`
	TimerRemaining float64             `json:"timerRemaining"`
	Pixels         map[string]PixelDoc `json:"pixels"`
	Scores         map[string]int      `json:"scores"`
	ActiveEvent    *EventDoc           `json:"activeEvent,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// EventDoc is the active event as persisted inside a session document.
type EventDoc struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Multiplier  float64 `json:"multiplier"`
	Duration    float64 `json:"duration"`
	Color       string  `json:"color,omitempty"`
	ActivatedAt int64   `json:"activatedAt"`
}

// PlayerDoc lives in the players sub-collection of a session.
type PlayerDoc struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TeamID       string    `json:"teamId,omitempty"`
	PixelsPlaced int       `json:"pixelsPlaced"`
	Score        int       `json:"score"`
	IsActive     bool      `json:"isActive"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// TeamDoc lives in the teams sub-collection of a session.
type TeamDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Score       int    `json:"score"`
	PixelCount  int    `json:"pixelCount"`
	MemberCount int    `json:"memberCount"`
}

// MissionDoc is a session-independent mission definition.
type MissionDoc struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Difficulty  string            `json:"difficulty"`
	Points      int               `json:"points"`
	Guide       map[string]string `json:"guide,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// InstructorDoc is a facilitator account record.
type InstructorDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatsDoc is a session stats snapshot saved at game end.
type StatsDoc struct {
	SessionID    string                     `json:"sessionId"`
	PlayerCount  int                        `json:"playerCount"`
	PixelCount   int                        `json:"pixelCount"`
	TeamScores   map[string]types.TeamScore `json:"teamScores"`
	DurationSec  float64                    `json:"durationSec"`
	SavedAt      time.Time                  `json:"savedAt"`
}

// SessionDocFromState flattens an in-memory session into its document form.
func SessionDocFromState(s *types.SessionState) *SessionDoc {
	doc := &SessionDoc{
		ID:             s.ID,
		Name:           s.Name,
		GameMode:       string(s.GameMode),
		RenderMode:     string(s.RenderMode),
		CanvasSize:     s.CanvasSize,
		Status:         string(s.Status),
		TimerDuration:  s.TimerDuration,
		TimerRemaining: s.TimerRemaining,
		Pixels:         make(map[string]PixelDoc, len(s.Pixels)),
		Scores:         make(map[string]int, len(s.Scores)),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      time.Now(),
	}
	for coord, pixel := range s.Pixels {
		doc.Pixels[PixelKey(coord)] = PixelDoc{
			Color:    pixel.Color,
			PlayerID: pixel.PlayerID,
			TeamID:   pixel.TeamID,
			PlacedAt: pixel.PlacedAt.UnixMilli(),
		}
	}
	for id, score := range s.Scores {
		doc.Scores[id] = score
	}
	if s.ActiveEvent != nil {
		doc.ActiveEvent = &EventDoc{
			ID:          s.ActiveEvent.ID,
			Name:        s.ActiveEvent.Name,
			Multiplier:  s.ActiveEvent.Multiplier,
			Duration:    s.ActiveEvent.Duration,
			Color:       s.ActiveEvent.Color,
			ActivatedAt: s.ActiveEvent.ActivatedAt.UnixMilli(),
		}
	}
	return doc
}

// StateFromSessionDoc rebuilds an in-memory session from its document.
// Unparseable pixel keys are skipped rather than failing the whole load.
func StateFromSessionDoc(doc *SessionDoc) *types.SessionState {
	s := types.NewSessionState(doc.ID, doc.Name)
	if doc.GameMode != "" {
		s.GameMode = types.GameMode(doc.GameMode)
	}
	if doc.RenderMode != "" {
		s.RenderMode = types.RenderMode(doc.RenderMode)
	}
	if doc.CanvasSize > 0 {
		s.CanvasSize = doc.CanvasSize
	}
	if doc.Status != "" {
		s.Status = types.GameStatus(doc.Status)
	}
	if doc.TimerDuration > 0 {
		s.TimerDuration = doc.TimerDuration
	}
	// A doc without a remaining time gets a full clock unless the game is
	// over; loading must never leave a live session one tick from expiry.
	s.TimerRemaining = doc.TimerRemaining
	if doc.TimerRemaining <= 0 && s.Status != types.GameStatusEnded {
		s.TimerRemaining = s.TimerDuration
	}
	if !doc.CreatedAt.IsZero() {
		s.CreatedAt = doc.CreatedAt
	}
	for key, pixel := range doc.Pixels {
		coord, err := ParsePixelKey(key)
		if err != nil {
			continue
		}
		s.Pixels[coord] = &types.Pixel{
			Color:    pixel.Color,
			PlayerID: pixel.PlayerID,
			TeamID:   pixel.TeamID,
			PlacedAt: time.UnixMilli(pixel.PlacedAt),
		}
	}
	for id, score := range doc.Scores {
		s.Scores[id] = score
	}
	if doc.ActiveEvent != nil {
		s.SetActiveEvent(&types.GameEvent{
			ID:          doc.ActiveEvent.ID,
			Name:        doc.ActiveEvent.Name,
			Multiplier:  doc.ActiveEvent.Multiplier,
			Duration:    doc.ActiveEvent.Duration,
			Color:       doc.ActiveEvent.Color,
			ActivatedAt: time.UnixMilli(doc.ActiveEvent.ActivatedAt),
		})
	}
	return s
}

// PlayerDocFromState flattens a player for the players sub-collection.
// Inventory and cooldown are live loop state and are not persisted.
func PlayerDocFromState(p *types.PlayerState) *PlayerDoc {
	return &PlayerDoc{
		ID:           p.ID,
		Name:         p.Name,
		TeamID:       p.TeamID,
		PixelsPlaced: p.PixelsPlaced,
		Score:        p.Score,
		IsActive:     p.IsActive,
		JoinedAt:     p.JoinedAt,
	}
}

// TeamDocFromState flattens a team for the teams sub-collection.
func TeamDocFromState(t *types.Team) *TeamDoc {
	return &TeamDoc{
		ID:          t.ID,
		Name:        t.Name,
		Color:       t.Color,
		Score:       t.Score,
		PixelCount:  t.PixelCount,
		MemberCount: t.MemberCount,
	}
}

// TeamFromDoc rebuilds a live team from its document.
func TeamFromDoc(doc *TeamDoc) *types.Team {
	return &types.Team{
		ID:          doc.ID,
		Name:        doc.Name,
		Color:       doc.Color,
		Score:       doc.Score,
		PixelCount:  doc.PixelCount,
		MemberCount: doc.MemberCount,
	}
}
