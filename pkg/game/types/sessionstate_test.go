package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *SessionState {
	s := NewSessionState("s1", "test session")
	s.AddPlayer(&PlayerState{ID: "p1", Name: "alice", TeamID: "t-red"})
	s.AddPlayer(&PlayerState{ID: "p2", Name: "bob", TeamID: "t-blue"})
	return s
}

func TestPlacePixelSuccess(t *testing.T) {
	s := newTestSession()
	p := s.Players["p1"]
	p.Inventory = 1

	outcome := s.PlacePixel(3, 4, "#ff0000", "p1")
	require.Equal(t, PlaceOK, outcome)

	pixel := s.Pixels[Coord{X: 3, Y: 4}]
	require.NotNil(t, pixel)
	assert.Equal(t, "#ff0000", pixel.Color)
	assert.Equal(t, "p1", pixel.PlayerID)
	assert.Equal(t, "t-red", pixel.TeamID)
	assert.Equal(t, 0, p.Inventory)
	assert.Equal(t, s.CooldownTime, p.Cooldown)
	assert.Equal(t, 1, p.PixelsPlaced)
}

func TestPlacePixelEmptyInventory(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Inventory = 0

	outcome := s.PlacePixel(1, 1, "#ff0000", "p1")
	assert.Equal(t, PlaceRejectedInventory, outcome)
	assert.Empty(t, s.Pixels)
	assert.Equal(t, 0, s.Players["p1"].Inventory)
	assert.Equal(t, float64(0), s.Players["p1"].Cooldown)
	assert.Equal(t, 0, s.Players["p1"].PixelsPlaced)
}

func TestPlacePixelOnCooldown(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Cooldown = 1.5

	outcome := s.PlacePixel(1, 1, "#ff0000", "p1")
	assert.Equal(t, PlaceRejectedCooldown, outcome)
	assert.Empty(t, s.Pixels)
}

func TestPlacePixelDeniedAfterSuccess(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Inventory = 1

	require.Equal(t, PlaceOK, s.PlacePixel(3, 4, "#ff0000", "p1"))
	// second attempt fails (inventory gone) and leaves (3,4) untouched
	outcome := s.PlacePixel(5, 5, "#00ff00", "p1")
	assert.False(t, outcome.Accepted())
	assert.Len(t, s.Pixels, 1)
	assert.Equal(t, "#ff0000", s.Pixels[Coord{X: 3, Y: 4}].Color)
}

func TestPlacePixelUnknownPlayer(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, PlaceRejectedUnknownPlayer, s.PlacePixel(0, 0, "#fff", "nobody"))
	assert.Empty(t, s.Pixels)
}

func TestPlacePixelOverwritesOpponent(t *testing.T) {
	s := newTestSession()
	require.Equal(t, PlaceOK, s.PlacePixel(2, 2, "#ff0000", "p1"))
	require.Equal(t, PlaceOK, s.PlacePixel(2, 2, "#4488ff", "p2"))

	pixel := s.Pixels[Coord{X: 2, Y: 2}]
	assert.Equal(t, "#4488ff", pixel.Color)
	assert.Equal(t, "p2", pixel.PlayerID)
	assert.Len(t, s.Pixels, 1)
}

func TestAddPendingPixelIgnoresCooldown(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Cooldown = 99

	outcome := s.AddPendingPixel(1, 1, "#00ff00", "p1")
	assert.Equal(t, PlaceOK, outcome)
	assert.Len(t, s.PendingPixels, 1)
	assert.Empty(t, s.Pixels)
}

func TestAddPendingPixelEmptyInventory(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Inventory = 0

	outcome := s.AddPendingPixel(1, 1, "#00ff00", "p1")
	assert.Equal(t, PlaceRejectedInventory, outcome)
	assert.Empty(t, s.PendingPixels)
}

func TestCommitPendingPixels(t *testing.T) {
	s := newTestSession()
	s.Players["p2"].Inventory = 2

	require.Equal(t, PlaceOK, s.AddPendingPixel(1, 1, "#00ff00", "p2"))
	require.Equal(t, PlaceOK, s.AddPendingPixel(2, 1, "#00ff00", "p2"))
	assert.Equal(t, 0, s.Players["p2"].Inventory)
	assert.Empty(t, s.Pixels)
	assert.Len(t, s.PendingPixels, 2)

	batch := s.CommitPendingPixels()
	assert.Len(t, batch, 2)
	assert.Len(t, s.Pixels, 2)
	assert.Empty(t, s.PendingPixels)
	assert.Equal(t, "#00ff00", s.Pixels[Coord{X: 1, Y: 1}].Color)
	assert.Equal(t, "#00ff00", s.Pixels[Coord{X: 2, Y: 1}].Color)
}

func TestCommitOverwritesCommittedCollision(t *testing.T) {
	s := newTestSession()
	require.Equal(t, PlaceOK, s.PlacePixel(5, 5, "#ff0000", "p1"))
	require.Equal(t, PlaceOK, s.AddPendingPixel(5, 5, "#4488ff", "p2"))

	s.CommitPendingPixels()
	assert.Equal(t, "#4488ff", s.Pixels[Coord{X: 5, Y: 5}].Color)
	assert.Equal(t, "p2", s.Pixels[Coord{X: 5, Y: 5}].PlayerID)
}

func TestClearPendingPixels(t *testing.T) {
	s := newTestSession()
	require.Equal(t, PlaceOK, s.AddPendingPixel(1, 1, "#00ff00", "p1"))
	s.ClearPendingPixels()
	assert.Empty(t, s.PendingPixels)
	assert.Empty(t, s.Pixels)
}

func TestDecrementCooldownsFloorsAtZero(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Cooldown = 0.15
	s.Players["p2"].Cooldown = 0

	s.DecrementCooldowns(0.1)
	assert.InDelta(t, 0.05, s.Players["p1"].Cooldown, 1e-9)
	s.DecrementCooldowns(0.1)
	assert.Equal(t, float64(0), s.Players["p1"].Cooldown)
	assert.Equal(t, float64(0), s.Players["p2"].Cooldown)
}

func TestRefillPixelsCapped(t *testing.T) {
	s := newTestSession()
	s.Players["p1"].Inventory = 48

	require.Equal(t, PlaceOK, s.RefillPixels("p1", 1000))
	assert.Equal(t, s.MaxPixels, s.Players["p1"].Inventory)

	s.Players["p1"].Inventory = 10
	require.Equal(t, PlaceOK, s.RefillPixels("p1", 5))
	assert.Equal(t, 15, s.Players["p1"].Inventory)
}

func TestTimerTransitions(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, GameStatusWaiting, s.Status)

	s.StartTimer()
	assert.Equal(t, GameStatusPlaying, s.Status)
	s.PauseTimer()
	assert.Equal(t, GameStatusPaused, s.Status)
	s.StartTimer()
	assert.Equal(t, GameStatusPlaying, s.Status)
	s.EndGame()
	assert.Equal(t, GameStatusEnded, s.Status)

	// transitions are unguarded: pausing an ended game is accepted
	s.PauseTimer()
	assert.Equal(t, GameStatusPaused, s.Status)
}

func TestResetTimerFromAnyPhase(t *testing.T) {
	for _, status := range []GameStatus{GameStatusWaiting, GameStatusPlaying, GameStatusPaused, GameStatusEnded} {
		s := newTestSession()
		s.Status = status
		s.TimerRemaining = 42

		s.ResetTimer()
		assert.Equal(t, s.TimerDuration, s.TimerRemaining, "from %s", status)
		assert.Equal(t, GameStatusWaiting, s.Status, "from %s", status)
	}
}

func TestTickTimer(t *testing.T) {
	s := newTestSession()
	s.TimerRemaining = 0.25
	s.StartTimer()

	assert.False(t, s.TickTimer(0.1))
	assert.InDelta(t, 0.15, s.TimerRemaining, 1e-9)

	assert.True(t, s.TickTimer(0.2))
	assert.Equal(t, float64(0), s.TimerRemaining)

	// clock does not run outside the playing phase
	s.PauseTimer()
	s.TimerRemaining = 10
	assert.False(t, s.TickTimer(1))
	assert.Equal(t, float64(10), s.TimerRemaining)
}

func TestEventLifecycle(t *testing.T) {
	s := newTestSession()
	event := &GameEvent{ID: "e1", Name: "double points", Multiplier: 2, Duration: 30, ActivatedAt: time.Now()}

	s.SetActiveEvent(event)
	assert.Equal(t, event, s.ActiveEvent)
	assert.Equal(t, float64(2), s.EventMultiplier)
	assert.False(t, event.Expired(event.ActivatedAt.Add(29*time.Second)))
	assert.True(t, event.Expired(event.ActivatedAt.Add(31*time.Second)))

	s.ClearEvent()
	assert.Nil(t, s.ActiveEvent)
	assert.Equal(t, float64(1), s.EventMultiplier)
}

func TestUpdateScore(t *testing.T) {
	s := newTestSession()
	s.UpdateScore("t-red", 10)
	s.UpdateScore("t-red", 5)
	s.UpdateScore("p1", 3)

	assert.Equal(t, 15, s.Scores["t-red"])
	assert.Equal(t, 3, s.Scores["p1"])
	assert.Equal(t, 3, s.Players["p1"].Score)
}

func TestResetGamePreservesIdentity(t *testing.T) {
	s := newTestSession()
	require.Equal(t, PlaceOK, s.PlacePixel(1, 1, "#ff0000", "p1"))
	s.UpdateScore("t-red", 7)
	s.StartTimer()

	s.ResetGame()
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "test session", s.Name)
	assert.Empty(t, s.Pixels)
	assert.Empty(t, s.Scores)
	assert.Equal(t, GameStatusWaiting, s.Status)
	assert.Equal(t, s.TimerDuration, s.TimerRemaining)
	assert.Equal(t, s.MaxPixels, s.Players["p1"].Inventory)
	assert.Equal(t, 0, s.Players["p1"].PixelsPlaced)
}

func TestFullResetDiscardsEverything(t *testing.T) {
	s := newTestSession()
	require.Equal(t, PlaceOK, s.PlacePixel(1, 1, "#ff0000", "p1"))

	s.FullReset()
	assert.Empty(t, s.ID)
	assert.Empty(t, s.Name)
	assert.Empty(t, s.Pixels)
	assert.Empty(t, s.Players)
	assert.Equal(t, GameStatusWaiting, s.Status)
}

func TestCalculateScores(t *testing.T) {
	s := NewSessionState("s1", "scoring")
	s.Teams = []*Team{
		{ID: "t-red", Name: "Red", Color: "#ff4444"},
		{ID: "t-blue", Name: "Blue", Color: "#4488ff"},
	}
	s.AddPlayer(&PlayerState{ID: "p1", TeamID: "t-red"})
	s.AddPlayer(&PlayerState{ID: "p2", TeamID: "t-blue"})

	require.Equal(t, PlaceOK, s.PlacePixel(1, 1, "#ff4444", "p1"))
	require.Equal(t, PlaceOK, s.PlacePixel(40, 40, "#4488ff", "p2"))

	// red's home zone is the left half of the canvas
	zones := map[string]func(Coord) bool{
		"t-red": func(c Coord) bool { return c.X < 32 },
	}
	scores := s.CalculateScores(zones)

	assert.Equal(t, 1, scores["t-red"].PixelCount)
	assert.Equal(t, 1, scores["t-red"].HomeDefense)
	assert.Equal(t, 1, scores["t-red"].Total)

	assert.Equal(t, 1, scores["t-blue"].PixelCount)
	assert.Equal(t, 1, scores["t-blue"].Invasion)
	assert.Equal(t, 3, scores["t-blue"].Total)
}

func TestSetTeamsRecomputesMemberCounts(t *testing.T) {
	s := NewSessionState("s1", "teams")
	s.SetTeams([]*Team{
		{ID: "t-red", Name: "Red", Color: "#ff4444"},
		{ID: "t-blue", Name: "Blue", Color: "#4488ff"},
	})
	s.AddPlayer(&PlayerState{ID: "p1", TeamID: "t-red"})
	s.AddPlayer(&PlayerState{ID: "p2", TeamID: "t-red"})

	s.SetTeams([]*Team{
		{ID: "t-red", Name: "Red", Color: "#ff4444"},
		{ID: "t-green", Name: "Green", Color: "#44cc44"},
	})
	assert.Equal(t, 2, s.TeamByID("t-red").MemberCount)
	assert.Equal(t, 0, s.TeamByID("t-green").MemberCount)
}

func TestCoordInBounds(t *testing.T) {
	assert.True(t, Coord{X: 0, Y: 0}.InBounds(64))
	assert.True(t, Coord{X: 63, Y: 63}.InBounds(64))
	assert.False(t, Coord{X: 64, Y: 0}.InBounds(64))
	assert.False(t, Coord{X: -1, Y: 5}.InBounds(64))
}
