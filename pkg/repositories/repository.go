package repositories

import (
	"context"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

// Repository is the persistence gateway: an opaque document store with
// whole-document saves, field-level pixel updates, and increment-style
// numeric updates. The session loop stays authoritative; writes here are
// best-effort mirrors, last-writer-wins.
type Repository interface {
	Close(ctx context.Context) error

	// Sessions
	CreateSession(ctx context.Context, doc *models.SessionDoc) error
	GetSession(ctx context.Context, sessionID string) (*models.SessionDoc, error)
	ListSessions(ctx context.Context, limit int) ([]*models.SessionDoc, error)
	SaveSession(ctx context.Context, doc *models.SessionDoc) error
	DeleteSession(ctx context.Context, sessionID string) error

	// Pixels (field-path updates into the session document)
	SetPixel(ctx context.Context, sessionID string, coord types.Coord, pixel models.PixelDoc) error
	SetPixels(ctx context.Context, sessionID string, pixels map[types.Coord]models.PixelDoc) error

	// Scores
	IncrementScore(ctx context.Context, sessionID, entityID string, points int) error

	// Players sub-collection
	JoinSession(ctx context.Context, sessionID string, player *models.PlayerDoc) error
	UpdatePlayer(ctx context.Context, sessionID string, player *models.PlayerDoc) error
	RemovePlayer(ctx context.Context, sessionID, playerID string) error
	ListPlayers(ctx context.Context, sessionID string) ([]*models.PlayerDoc, error)

	// Teams sub-collection
	CreateTeam(ctx context.Context, sessionID string, team *models.TeamDoc) error
	IncrementTeamScore(ctx context.Context, sessionID, teamID string, points int) error
	ListTeams(ctx context.Context, sessionID string) ([]*models.TeamDoc, error)

	// Missions
	CreateMission(ctx context.Context, mission *models.MissionDoc) error
	UpdateMission(ctx context.Context, mission *models.MissionDoc) error
	ListMissions(ctx context.Context) ([]*models.MissionDoc, error)

	// Instructors
	CreateInstructor(ctx context.Context, instructor *models.InstructorDoc) error
	UpdateInstructor(ctx context.Context, instructor *models.InstructorDoc) error
	DeleteInstructor(ctx context.Context, instructorID string) error
	ListInstructors(ctx context.Context) ([]*models.InstructorDoc, error)

	// Stats
	SaveStats(ctx context.Context, stats *models.StatsDoc) error
	GetStats(ctx context.Context, sessionID string) (*models.StatsDoc, error)
	ListStats(ctx context.Context, limit int) ([]*models.StatsDoc, error)
}
