package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository stores documents as JSON in per-model tables.
type SQLiteRepository struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS players (
		session_id TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       TEXT NOT NULL,
		PRIMARY KEY (session_id, id)
	);`,
	`CREATE TABLE IF NOT EXISTS teams (
		session_id TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       TEXT NOT NULL,
		PRIMARY KEY (session_id, id)
	);`,
	`CREATE TABLE IF NOT EXISTS missions (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS instructors (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS stats (
		session_id TEXT PRIMARY KEY,
		data       TEXT NOT NULL
	);`,
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	for _, ddl := range sqliteSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create schema: %v", err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(_ context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) upsertDoc(ctx context.Context, table, id string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	q := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, data) VALUES (?, ?);`, table)
	if _, err := r.db.ExecContext(ctx, q, id, string(b)); err != nil {
		return fmt.Errorf("failed to upsert %s document: %v", table, err)
	}
	return nil
}

func (r *SQLiteRepository) getDoc(ctx context.Context, table, id string, dest interface{}) error {
	q := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?;`, table)
	var data string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return &ErrNotFound{}
		}
		return fmt.Errorf("failed to scan %s document: %v", table, err)
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, doc *models.SessionDoc) error {
	return r.upsertDoc(ctx, "sessions", doc.ID, doc)
}

func (r *SQLiteRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionDoc, error) {
	doc := &models.SessionDoc{}
	if err := r.getDoc(ctx, "sessions", sessionID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *SQLiteRepository) ListSessions(ctx context.Context, limit int) ([]*models.SessionDoc, error) {
	q := `
	SELECT data FROM sessions
	ORDER BY json_extract(data, '$.createdAt') DESC
	LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %v", err)
	}
	defer rows.Close()

	var docs []*models.SessionDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %v", err)
		}
		doc := &models.SessionDoc{}
		if err := json.Unmarshal([]byte(data), doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %v", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, doc *models.SessionDoc) error {
	return r.upsertDoc(ctx, "sessions", doc.ID, doc)
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?;`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{}
	}
	for _, table := range []string{"players", "teams"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?;`, table)
		if _, err := tx.ExecContext(ctx, q, sessionID); err != nil {
			return fmt.Errorf("failed to delete session %s: %v", table, err)
		}
	}
	return tx.Commit()
}

// SetPixel writes a single pixel field path into the session document,
// e.g. $.pixels."3_4".
func (r *SQLiteRepository) SetPixel(ctx context.Context, sessionID string, coord types.Coord, pixel models.PixelDoc) error {
	b, err := json.Marshal(pixel)
	if err != nil {
		return fmt.Errorf("failed to marshal pixel: %v", err)
	}
	path := fmt.Sprintf(`$.pixels."%s"`, models.PixelKey(coord))
	q := `UPDATE sessions SET data = json_set(data, ?, json(?)) WHERE id = ?;`
	res, err := r.db.ExecContext(ctx, q, path, string(b), sessionID)
	if err != nil {
		return fmt.Errorf("failed to set pixel: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

// SetPixels applies a batched multi-pixel update in one transaction.
func (r *SQLiteRepository) SetPixels(ctx context.Context, sessionID string, pixels map[types.Coord]models.PixelDoc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `UPDATE sessions SET data = json_set(data, ?, json(?)) WHERE id = ?;`
	for coord, pixel := range pixels {
		b, err := json.Marshal(pixel)
		if err != nil {
			return fmt.Errorf("failed to marshal pixel: %v", err)
		}
		path := fmt.Sprintf(`$.pixels."%s"`, models.PixelKey(coord))
		if _, err := tx.ExecContext(ctx, q, path, string(b), sessionID); err != nil {
			return fmt.Errorf("failed to set pixel %s: %v", coord, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) IncrementScore(ctx context.Context, sessionID, entityID string, points int) error {
	path := fmt.Sprintf(`$.scores."%s"`, entityID)
	q := `
	UPDATE sessions
	SET data = json_set(data, ?, coalesce(json_extract(data, ?), 0) + ?)
	WHERE id = ?;
	`
	res, err := r.db.ExecContext(ctx, q, path, path, points, sessionID)
	if err != nil {
		return fmt.Errorf("failed to increment score: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) upsertSubDoc(ctx context.Context, table, sessionID, id string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	q := fmt.Sprintf(`INSERT OR REPLACE INTO %s (session_id, id, data) VALUES (?, ?, ?);`, table)
	if _, err := r.db.ExecContext(ctx, q, sessionID, id, string(b)); err != nil {
		return fmt.Errorf("failed to upsert %s document: %v", table, err)
	}
	return nil
}

func (r *SQLiteRepository) JoinSession(ctx context.Context, sessionID string, player *models.PlayerDoc) error {
	return r.upsertSubDoc(ctx, "players", sessionID, player.ID, player)
}

func (r *SQLiteRepository) UpdatePlayer(ctx context.Context, sessionID string, player *models.PlayerDoc) error {
	return r.upsertSubDoc(ctx, "players", sessionID, player.ID, player)
}

func (r *SQLiteRepository) RemovePlayer(ctx context.Context, sessionID, playerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE session_id = ? AND id = ?;`, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPlayers(ctx context.Context, sessionID string) ([]*models.PlayerDoc, error) {
	q := `
	SELECT data FROM players WHERE session_id = ?
	ORDER BY json_extract(data, '$.joinedAt');
	`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()

	var players []*models.PlayerDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan player: %v", err)
		}
		player := &models.PlayerDoc{}
		if err := json.Unmarshal([]byte(data), player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %v", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *SQLiteRepository) CreateTeam(ctx context.Context, sessionID string, team *models.TeamDoc) error {
	return r.upsertSubDoc(ctx, "teams", sessionID, team.ID, team)
}

func (r *SQLiteRepository) IncrementTeamScore(ctx context.Context, sessionID, teamID string, points int) error {
	q := `
	UPDATE teams
	SET data = json_set(data, '$.score', coalesce(json_extract(data, '$.score'), 0) + ?)
	WHERE session_id = ? AND id = ?;
	`
	res, err := r.db.ExecContext(ctx, q, points, sessionID, teamID)
	if err != nil {
		return fmt.Errorf("failed to increment team score: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) ListTeams(ctx context.Context, sessionID string) ([]*models.TeamDoc, error) {
	q := `SELECT data FROM teams WHERE session_id = ? ORDER BY json_extract(data, '$.name');`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %v", err)
	}
	defer rows.Close()

	var teams []*models.TeamDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan team: %v", err)
		}
		team := &models.TeamDoc{}
		if err := json.Unmarshal([]byte(data), team); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team: %v", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *SQLiteRepository) CreateMission(ctx context.Context, mission *models.MissionDoc) error {
	return r.upsertDoc(ctx, "missions", mission.ID, mission)
}

func (r *SQLiteRepository) UpdateMission(ctx context.Context, mission *models.MissionDoc) error {
	return r.upsertDoc(ctx, "missions", mission.ID, mission)
}

func (r *SQLiteRepository) ListMissions(ctx context.Context) ([]*models.MissionDoc, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM missions ORDER BY json_extract(data, '$.name');`)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %v", err)
	}
	defer rows.Close()

	var missions []*models.MissionDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %v", err)
		}
		mission := &models.MissionDoc{}
		if err := json.Unmarshal([]byte(data), mission); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mission: %v", err)
		}
		missions = append(missions, mission)
	}
	return missions, rows.Err()
}

func (r *SQLiteRepository) CreateInstructor(ctx context.Context, instructor *models.InstructorDoc) error {
	return r.upsertDoc(ctx, "instructors", instructor.ID, instructor)
}

func (r *SQLiteRepository) UpdateInstructor(ctx context.Context, instructor *models.InstructorDoc) error {
	return r.upsertDoc(ctx, "instructors", instructor.ID, instructor)
}

func (r *SQLiteRepository) DeleteInstructor(ctx context.Context, instructorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = ?;`, instructorID)
	if err != nil {
		return fmt.Errorf("failed to delete instructor: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) ListInstructors(ctx context.Context) ([]*models.InstructorDoc, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM instructors ORDER BY json_extract(data, '$.name');`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instructors: %v", err)
	}
	defer rows.Close()

	var instructors []*models.InstructorDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan instructor: %v", err)
		}
		instructor := &models.InstructorDoc{}
		if err := json.Unmarshal([]byte(data), instructor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal instructor: %v", err)
		}
		instructors = append(instructors, instructor)
	}
	return instructors, rows.Err()
}

func (r *SQLiteRepository) SaveStats(ctx context.Context, stats *models.StatsDoc) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %v", err)
	}
	q := `INSERT OR REPLACE INTO stats (session_id, data) VALUES (?, ?);`
	if _, err := r.db.ExecContext(ctx, q, stats.SessionID, string(b)); err != nil {
		return fmt.Errorf("failed to save stats: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) GetStats(ctx context.Context, sessionID string) (*models.StatsDoc, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM stats WHERE session_id = ?;`, sessionID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan stats: %v", err)
	}
	stats := &models.StatsDoc{}
	if err := json.Unmarshal([]byte(data), stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %v", err)
	}
	return stats, nil
}

func (r *SQLiteRepository) ListStats(ctx context.Context, limit int) ([]*models.StatsDoc, error) {
	q := `
	SELECT data FROM stats
	ORDER BY json_extract(data, '$.savedAt') DESC
	LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %v", err)
	}
	defer rows.Close()

	var all []*models.StatsDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %v", err)
		}
		stats := &models.StatsDoc{}
		if err := json.Unmarshal([]byte(data), stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %v", err)
		}
		all = append(all, stats)
	}
	return all, rows.Err()
}
