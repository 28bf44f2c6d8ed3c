package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

// PostgresRepository stores documents as JSONB in per-model tables.
type PostgresRepository struct {
	conn *pgx.Conn
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id   TEXT PRIMARY KEY,
		data JSONB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS players (
		session_id TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       JSONB NOT NULL,
		PRIMARY KEY (session_id, id)
	);`,
	`CREATE TABLE IF NOT EXISTS teams (
		session_id TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       JSONB NOT NULL,
		PRIMARY KEY (session_id, id)
	);`,
	`CREATE TABLE IF NOT EXISTS missions (
		id   TEXT PRIMARY KEY,
		data JSONB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS instructors (
		id   TEXT PRIMARY KEY,
		data JSONB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS stats (
		session_id TEXT PRIMARY KEY,
		data       JSONB NOT NULL
	);`,
}

func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	for _, ddl := range postgresSchema {
		if _, err := conn.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create schema: %v", err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) upsertDoc(ctx context.Context, table, id string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	q := fmt.Sprintf(`
	INSERT INTO %s (id, data) VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET data = $2;
	`, table)
	if _, err := r.conn.Exec(ctx, q, id, b); err != nil {
		return fmt.Errorf("failed to upsert %s document: %v", table, err)
	}
	return nil
}

func (r *PostgresRepository) getDoc(ctx context.Context, table, id string, dest interface{}) error {
	q := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1;`, table)
	var data []byte
	if err := r.conn.QueryRow(ctx, q, id).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return &ErrNotFound{}
		}
		return fmt.Errorf("failed to scan %s document: %v", table, err)
	}
	return json.Unmarshal(data, dest)
}

func (r *PostgresRepository) CreateSession(ctx context.Context, doc *models.SessionDoc) error {
	return r.upsertDoc(ctx, "sessions", doc.ID, doc)
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionDoc, error) {
	doc := &models.SessionDoc{}
	if err := r.getDoc(ctx, "sessions", sessionID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepository) ListSessions(ctx context.Context, limit int) ([]*models.SessionDoc, error) {
	q := `
	SELECT data FROM sessions
	ORDER BY data->>'createdAt' DESC
	LIMIT $1;
	`
	rows, err := r.conn.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %v", err)
	}
	defer rows.Close()

	var docs []*models.SessionDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %v", err)
		}
		doc := &models.SessionDoc{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %v", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PostgresRepository) SaveSession(ctx context.Context, doc *models.SessionDoc) error {
	return r.upsertDoc(ctx, "sessions", doc.ID, doc)
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1;`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	for _, table := range []string{"players", "teams"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1;`, table)
		if _, err := tx.Exec(ctx, q, sessionID); err != nil {
			return fmt.Errorf("failed to delete session %s: %v", table, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) SetPixel(ctx context.Context, sessionID string, coord types.Coord, pixel models.PixelDoc) error {
	b, err := json.Marshal(pixel)
	if err != nil {
		return fmt.Errorf("failed to marshal pixel: %v", err)
	}
	path := []string{"pixels", models.PixelKey(coord)}
	q := `UPDATE sessions SET data = jsonb_set(data, $1, $2::jsonb, true) WHERE id = $3;`
	tag, err := r.conn.Exec(ctx, q, path, b, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set pixel: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) SetPixels(ctx context.Context, sessionID string, pixels map[types.Coord]models.PixelDoc) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `UPDATE sessions SET data = jsonb_set(data, $1, $2::jsonb, true) WHERE id = $3;`
	for coord, pixel := range pixels {
		b, err := json.Marshal(pixel)
		if err != nil {
			return fmt.Errorf("failed to marshal pixel: %v", err)
		}
		path := []string{"pixels", models.PixelKey(coord)}
		if _, err := tx.Exec(ctx, q, path, b, sessionID); err != nil {
			return fmt.Errorf("failed to set pixel %s: %v", coord, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) IncrementScore(ctx context.Context, sessionID, entityID string, points int) error {
	path := []string{"scores", entityID}
	q := `
	UPDATE sessions
	SET data = jsonb_set(data, $1, to_jsonb(coalesce((data#>>$1)::int, 0) + $2), true)
	WHERE id = $3;
	`
	tag, err := r.conn.Exec(ctx, q, path, points, sessionID)
	if err != nil {
		return fmt.Errorf("failed to increment score: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) upsertSubDoc(ctx context.Context, table, sessionID, id string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	q := fmt.Sprintf(`
	INSERT INTO %s (session_id, id, data) VALUES ($1, $2, $3)
	ON CONFLICT (session_id, id) DO UPDATE SET data = $3;
	`, table)
	if _, err := r.conn.Exec(ctx, q, sessionID, id, b); err != nil {
		return fmt.Errorf("failed to upsert %s document: %v", table, err)
	}
	return nil
}

func (r *PostgresRepository) JoinSession(ctx context.Context, sessionID string, player *models.PlayerDoc) error {
	return r.upsertSubDoc(ctx, "players", sessionID, player.ID, player)
}

func (r *PostgresRepository) UpdatePlayer(ctx context.Context, sessionID string, player *models.PlayerDoc) error {
	return r.upsertSubDoc(ctx, "players", sessionID, player.ID, player)
}

func (r *PostgresRepository) RemovePlayer(ctx context.Context, sessionID, playerID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM players WHERE session_id = $1 AND id = $2;`, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ListPlayers(ctx context.Context, sessionID string) ([]*models.PlayerDoc, error) {
	q := `SELECT data FROM players WHERE session_id = $1 ORDER BY data->>'joinedAt';`
	rows, err := r.conn.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()

	var players []*models.PlayerDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan player: %v", err)
		}
		player := &models.PlayerDoc{}
		if err := json.Unmarshal(data, player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %v", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *PostgresRepository) CreateTeam(ctx context.Context, sessionID string, team *models.TeamDoc) error {
	return r.upsertSubDoc(ctx, "teams", sessionID, team.ID, team)
}

func (r *PostgresRepository) IncrementTeamScore(ctx context.Context, sessionID, teamID string, points int) error {
	q := `
	UPDATE teams
	SET data = jsonb_set(data, '{score}', to_jsonb(coalesce((data->>'score')::int, 0) + $1), true)
	WHERE session_id = $2 AND id = $3;
	`
	tag, err := r.conn.Exec(ctx, q, points, sessionID, teamID)
	if err != nil {
		return fmt.Errorf("failed to increment team score: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) ListTeams(ctx context.Context, sessionID string) ([]*models.TeamDoc, error) {
	q := `SELECT data FROM teams WHERE session_id = $1 ORDER BY data->>'name';`
	rows, err := r.conn.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %v", err)
	}
	defer rows.Close()

	var teams []*models.TeamDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan team: %v", err)
		}
		team := &models.TeamDoc{}
		if err := json.Unmarshal(data, team); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team: %v", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *PostgresRepository) CreateMission(ctx context.Context, mission *models.MissionDoc) error {
	return r.upsertDoc(ctx, "missions", mission.ID, mission)
}

func (r *PostgresRepository) UpdateMission(ctx context.Context, mission *models.MissionDoc) error {
	return r.upsertDoc(ctx, "missions", mission.ID, mission)
}

func (r *PostgresRepository) ListMissions(ctx context.Context) ([]*models.MissionDoc, error) {
	rows, err := r.conn.Query(ctx, `SELECT data FROM missions ORDER BY data->>'name';`)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %v", err)
	}
	defer rows.Close()

	var missions []*models.MissionDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %v", err)
		}
		mission := &models.MissionDoc{}
		if err := json.Unmarshal(data, mission); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mission: %v", err)
		}
		missions = append(missions, mission)
	}
	return missions, rows.Err()
}

func (r *PostgresRepository) CreateInstructor(ctx context.Context, instructor *models.InstructorDoc) error {
	return r.upsertDoc(ctx, "instructors", instructor.ID, instructor)
}

func (r *PostgresRepository) UpdateInstructor(ctx context.Context, instructor *models.InstructorDoc) error {
	return r.upsertDoc(ctx, "instructors", instructor.ID, instructor)
}

func (r *PostgresRepository) DeleteInstructor(ctx context.Context, instructorID string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM instructors WHERE id = $1;`, instructorID)
	if err != nil {
		return fmt.Errorf("failed to delete instructor: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) ListInstructors(ctx context.Context) ([]*models.InstructorDoc, error) {
	rows, err := r.conn.Query(ctx, `SELECT data FROM instructors ORDER BY data->>'name';`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instructors: %v", err)
	}
	defer rows.Close()

	var instructors []*models.InstructorDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan instructor: %v", err)
		}
		instructor := &models.InstructorDoc{}
		if err := json.Unmarshal(data, instructor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal instructor: %v", err)
		}
		instructors = append(instructors, instructor)
	}
	return instructors, rows.Err()
}

func (r *PostgresRepository) SaveStats(ctx context.Context, stats *models.StatsDoc) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %v", err)
	}
	q := `
	INSERT INTO stats (session_id, data) VALUES ($1, $2)
	ON CONFLICT (session_id) DO UPDATE SET data = $2;
	`
	if _, err := r.conn.Exec(ctx, q, stats.SessionID, b); err != nil {
		return fmt.Errorf("failed to save stats: %v", err)
	}
	return nil
}

func (r *PostgresRepository) GetStats(ctx context.Context, sessionID string) (*models.StatsDoc, error) {
	var data []byte
	err := r.conn.QueryRow(ctx, `SELECT data FROM stats WHERE session_id = $1;`, sessionID).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan stats: %v", err)
	}
	stats := &models.StatsDoc{}
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %v", err)
	}
	return stats, nil
}

func (r *PostgresRepository) ListStats(ctx context.Context, limit int) ([]*models.StatsDoc, error) {
	q := `
	SELECT data FROM stats
	ORDER BY data->>'savedAt' DESC
	LIMIT $1;
	`
	rows, err := r.conn.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %v", err)
	}
	defer rows.Close()

	var all []*models.StatsDoc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %v", err)
		}
		stats := &models.StatsDoc{}
		if err := json.Unmarshal(data, stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %v", err)
		}
		all = append(all, stats)
	}
	return all, rows.Err()
}
