package game

import (
	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/messages"
)

// SnapshotFromState flattens a live session into the wire snapshot sent on
// join and after bulk changes.
func SnapshotFromState(s *types.SessionState) *messages.SessionSnapshot {
	snapshot := &messages.SessionSnapshot{
		SessionID:      s.ID,
		Name:           s.Name,
		GameMode:       string(s.GameMode),
		RenderMode:     string(s.RenderMode),
		CanvasSize:     s.CanvasSize,
		TimerDuration:  s.TimerDuration,
		TimerRemaining: s.TimerRemaining,
		Status:         string(s.Status),
		Pixels:         make([]messages.ServerPixelPlaced, 0, len(s.Pixels)),
		Teams:          make([]types.Team, 0, len(s.Teams)),
		Players:        make([]types.PlayerState, 0, len(s.Players)),
		Scores:         make(map[string]int, len(s.Scores)),
		Mission:        s.CurrentMission,
		ActiveEvent:    s.ActiveEvent,
	}

	for coord, pixel := range s.Pixels {
		snapshot.Pixels = append(snapshot.Pixels, messages.ServerPixelPlaced{
			X:     coord.X,
			Y:     coord.Y,
			Pixel: *pixel,
		})
	}
	for coord, pixel := range s.PendingPixels {
		snapshot.PendingPixels = append(snapshot.PendingPixels, messages.ServerPixelPlaced{
			X:     coord.X,
			Y:     coord.Y,
			Pixel: *pixel,
		})
	}
	for _, team := range s.Teams {
		snapshot.Teams = append(snapshot.Teams, *team)
	}
	for _, player := range s.Players {
		snapshot.Players = append(snapshot.Players, *player)
	}
	for id, score := range s.Scores {
		snapshot.Scores[id] = score
	}

	return snapshot
}
