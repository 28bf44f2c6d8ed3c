package models

import (
	"testing"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelKeyRoundTrip(t *testing.T) {
	coords := []types.Coord{
		{X: 0, Y: 0},
		{X: 3, Y: 4},
		{X: 63, Y: 1},
	}
	for _, coord := range coords {
		key := PixelKey(coord)
		got, err := ParsePixelKey(key)
		require.NoError(t, err, key)
		assert.Equal(t, coord, got)
	}
	assert.Equal(t, "3_4", PixelKey(types.Coord{X: 3, Y: 4}))
}

func TestParsePixelKeyRejectsJunk(t *testing.T) {
	for _, key := range []string{"", "3", "3,4", "a_b", "3_"} {
		_, err := ParsePixelKey(key)
		assert.Error(t, err, key)
	}
}

func TestSessionDocRoundTrip(t *testing.T) {
	s := types.NewSessionState("s1", "round trip")
	s.AddPlayer(&types.PlayerState{ID: "p1", TeamID: "t-red"})
	require.Equal(t, types.PlaceOK, s.PlacePixel(3, 4, "#ff0000", "p1"))
	s.UpdateScore("t-red", 9)
	s.StartTimer()

	doc := SessionDocFromState(s)
	assert.Contains(t, doc.Pixels, "3_4")
	assert.Equal(t, "playing", doc.Status)
	assert.Equal(t, 9, doc.Scores["t-red"])

	got := StateFromSessionDoc(doc)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, types.GameStatusPlaying, got.Status)
	pixel := got.Pixels[types.Coord{X: 3, Y: 4}]
	require.NotNil(t, pixel)
	assert.Equal(t, "#ff0000", pixel.Color)
	assert.Equal(t, 9, got.Scores["t-red"])
}

func TestStateFromSessionDocRestoresClock(t *testing.T) {
	// a doc saved without a remaining time must not come back one tick
	// from expiry
	doc := &SessionDoc{ID: "s1", Status: "waiting", TimerDuration: 120}
	got := StateFromSessionDoc(doc)
	assert.Equal(t, 120.0, got.TimerRemaining)

	doc = &SessionDoc{ID: "s1", Status: "playing", TimerDuration: 120, TimerRemaining: 42.5}
	assert.Equal(t, 42.5, StateFromSessionDoc(doc).TimerRemaining)

	// an ended game keeps its spent clock
	doc = &SessionDoc{ID: "s1", Status: "ended", TimerDuration: 120}
	assert.Equal(t, 0.0, StateFromSessionDoc(doc).TimerRemaining)
}

func TestStateFromSessionDocSkipsBadKeys(t *testing.T) {
	doc := &SessionDoc{
		ID: "s1",
		Pixels: map[string]PixelDoc{
			"1_1":  {Color: "#fff"},
			"junk": {Color: "#000"},
		},
	}
	got := StateFromSessionDoc(doc)
	assert.Len(t, got.Pixels, 1)
}
