package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionDoc(id string) *models.SessionDoc {
	now := time.Now()
	return &models.SessionDoc{
		ID:         id,
		Name:       "Test Session",
		GameMode:   string(types.GameModeTeam),
		RenderMode: string(types.RenderModeRealtime),
		CanvasSize: 64,
		Status:     string(types.GameStatusWaiting),
		Pixels:     map[string]models.PixelDoc{},
		Scores:     map[string]int{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestInMemoryRepositorySessions(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	_, err := repo.GetSession(ctx, "missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, repo.CreateSession(ctx, newSessionDoc("s1")))
	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Test Session", got.Name)

	got.Status = string(types.GameStatusPlaying)
	require.NoError(t, repo.SaveSession(ctx, got))
	got, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, string(types.GameStatusPlaying), got.Status)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	assert.True(t, IsNotFound(repo.DeleteSession(ctx, "s1")))
}

func TestInMemoryRepositorySetPixel(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	require.NoError(t, repo.CreateSession(ctx, newSessionDoc("s1")))

	pixel := models.PixelDoc{Color: "#ff4444", PlayerID: "p1", TeamID: "red", PlacedAt: 100}
	require.NoError(t, repo.SetPixel(ctx, "s1", types.Coord{X: 3, Y: 4}, pixel))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Contains(t, got.Pixels, "3_4")
	assert.Equal(t, "#ff4444", got.Pixels["3_4"].Color)

	// a later write to the same field path wins
	require.NoError(t, repo.SetPixel(ctx, "s1", types.Coord{X: 3, Y: 4}, models.PixelDoc{Color: "#4488ff", PlayerID: "p2", TeamID: "blue", PlacedAt: 200}))
	got, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "#4488ff", got.Pixels["3_4"].Color)

	err = repo.SetPixel(ctx, "missing", types.Coord{X: 0, Y: 0}, pixel)
	assert.True(t, IsNotFound(err))
}

func TestInMemoryRepositorySetPixelsBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	require.NoError(t, repo.CreateSession(ctx, newSessionDoc("s1")))

	batch := map[types.Coord]models.PixelDoc{
		{X: 1, Y: 1}: {Color: "#ff4444", PlayerID: "p1", TeamID: "red"},
		{X: 2, Y: 2}: {Color: "#4488ff", PlayerID: "p2", TeamID: "blue"},
	}
	require.NoError(t, repo.SetPixels(ctx, "s1", batch))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Pixels, 2)
	assert.Equal(t, "#ff4444", got.Pixels["1_1"].Color)
	assert.Equal(t, "#4488ff", got.Pixels["2_2"].Color)
}

func TestInMemoryRepositoryIncrementScore(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	require.NoError(t, repo.CreateSession(ctx, newSessionDoc("s1")))
	require.NoError(t, repo.IncrementScore(ctx, "s1", "red", 3))
	require.NoError(t, repo.IncrementScore(ctx, "s1", "red", 1))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Scores["red"])
}

func TestInMemoryRepositoryPlayersAndTeams(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	require.NoError(t, repo.CreateSession(ctx, newSessionDoc("s1")))
	require.NoError(t, repo.CreateTeam(ctx, "s1", &models.TeamDoc{ID: "red", Name: "Red", Color: "#ff4444"}))
	base := time.Now()
	require.NoError(t, repo.JoinSession(ctx, "s1", &models.PlayerDoc{ID: "p1", Name: "Ada", TeamID: "red", JoinedAt: base}))
	require.NoError(t, repo.JoinSession(ctx, "s1", &models.PlayerDoc{ID: "p2", Name: "Grace", TeamID: "red", JoinedAt: base.Add(time.Second)}))

	players, err := repo.ListPlayers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Ada", players[0].Name)

	require.NoError(t, repo.IncrementTeamScore(ctx, "s1", "red", 5))
	teams, err := repo.ListTeams(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, 5, teams[0].Score)

	require.NoError(t, repo.RemovePlayer(ctx, "s1", "p1"))
	players, err = repo.ListPlayers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Grace", players[0].Name)
}

func TestInMemoryRepositoryStats(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	defer repo.Close(ctx)

	_, err := repo.GetStats(ctx, "s1")
	assert.True(t, IsNotFound(err))

	base := time.Now()
	require.NoError(t, repo.SaveStats(ctx, &models.StatsDoc{SessionID: "s1", PlayerCount: 4, PixelCount: 120, SavedAt: base}))
	require.NoError(t, repo.SaveStats(ctx, &models.StatsDoc{SessionID: "s2", PlayerCount: 2, PixelCount: 30, SavedAt: base.Add(time.Second)}))

	got, err := repo.GetStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.PlayerCount)

	all, err := repo.ListStats(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s2", all[0].SessionID)
}
