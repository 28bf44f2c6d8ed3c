package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

// InMemoryRepository keeps all documents in process memory. It backs
// offline/demo mode and tests; nothing survives a restart.
type InMemoryRepository struct {
	lock        sync.RWMutex
	sessions    map[string]*models.SessionDoc
	players     map[string]map[string]*models.PlayerDoc
	teams       map[string]map[string]*models.TeamDoc
	missions    map[string]*models.MissionDoc
	instructors map[string]*models.InstructorDoc
	stats       map[string]*models.StatsDoc
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions:    make(map[string]*models.SessionDoc),
		players:     make(map[string]map[string]*models.PlayerDoc),
		teams:       make(map[string]map[string]*models.TeamDoc),
		missions:    make(map[string]*models.MissionDoc),
		instructors: make(map[string]*models.InstructorDoc),
		stats:       make(map[string]*models.StatsDoc),
	}
}

func (r *InMemoryRepository) Close(_ context.Context) error {
	return nil
}

func (r *InMemoryRepository) CreateSession(_ context.Context, doc *models.SessionDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sessions[doc.ID] = doc
	return nil
}

func (r *InMemoryRepository) GetSession(_ context.Context, sessionID string) (*models.SessionDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	doc, ok := r.sessions[sessionID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return doc, nil
}

func (r *InMemoryRepository) ListSessions(_ context.Context, limit int) ([]*models.SessionDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	docs := make([]*models.SessionDoc, 0, len(r.sessions))
	for _, doc := range r.sessions {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (r *InMemoryRepository) SaveSession(_ context.Context, doc *models.SessionDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sessions[doc.ID] = doc
	return nil
}

func (r *InMemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return &ErrNotFound{}
	}
	delete(r.sessions, sessionID)
	delete(r.players, sessionID)
	delete(r.teams, sessionID)
	return nil
}

func (r *InMemoryRepository) SetPixel(_ context.Context, sessionID string, coord types.Coord, pixel models.PixelDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	doc, ok := r.sessions[sessionID]
	if !ok {
		return &ErrNotFound{}
	}
	if doc.Pixels == nil {
		doc.Pixels = make(map[string]models.PixelDoc)
	}
	doc.Pixels[models.PixelKey(coord)] = pixel
	return nil
}

func (r *InMemoryRepository) SetPixels(_ context.Context, sessionID string, pixels map[types.Coord]models.PixelDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	doc, ok := r.sessions[sessionID]
	if !ok {
		return &ErrNotFound{}
	}
	if doc.Pixels == nil {
		doc.Pixels = make(map[string]models.PixelDoc)
	}
	for coord, pixel := range pixels {
		doc.Pixels[models.PixelKey(coord)] = pixel
	}
	return nil
}

func (r *InMemoryRepository) IncrementScore(_ context.Context, sessionID, entityID string, points int) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	doc, ok := r.sessions[sessionID]
	if !ok {
		return &ErrNotFound{}
	}
	if doc.Scores == nil {
		doc.Scores = make(map[string]int)
	}
	doc.Scores[entityID] += points
	return nil
}

func (r *InMemoryRepository) JoinSession(_ context.Context, sessionID string, player *models.PlayerDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return &ErrNotFound{}
	}
	if r.players[sessionID] == nil {
		r.players[sessionID] = make(map[string]*models.PlayerDoc)
	}
	r.players[sessionID][player.ID] = player
	return nil
}

func (r *InMemoryRepository) UpdatePlayer(_ context.Context, sessionID string, player *models.PlayerDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.players[sessionID] == nil {
		return &ErrNotFound{}
	}
	if _, ok := r.players[sessionID][player.ID]; !ok {
		return &ErrNotFound{}
	}
	r.players[sessionID][player.ID] = player
	return nil
}

func (r *InMemoryRepository) RemovePlayer(_ context.Context, sessionID, playerID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.players[sessionID] == nil {
		return &ErrNotFound{}
	}
	delete(r.players[sessionID], playerID)
	return nil
}

func (r *InMemoryRepository) ListPlayers(_ context.Context, sessionID string) ([]*models.PlayerDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	players := make([]*models.PlayerDoc, 0, len(r.players[sessionID]))
	for _, player := range r.players[sessionID] {
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (r *InMemoryRepository) CreateTeam(_ context.Context, sessionID string, team *models.TeamDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.teams[sessionID] == nil {
		r.teams[sessionID] = make(map[string]*models.TeamDoc)
	}
	r.teams[sessionID][team.ID] = team
	return nil
}

func (r *InMemoryRepository) IncrementTeamScore(_ context.Context, sessionID, teamID string, points int) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.teams[sessionID] == nil {
		return &ErrNotFound{}
	}
	team, ok := r.teams[sessionID][teamID]
	if !ok {
		return &ErrNotFound{}
	}
	team.Score += points
	return nil
}

func (r *InMemoryRepository) ListTeams(_ context.Context, sessionID string) ([]*models.TeamDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	teams := make([]*models.TeamDoc, 0, len(r.teams[sessionID]))
	for _, team := range r.teams[sessionID] {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Name < teams[j].Name
	})
	return teams, nil
}

func (r *InMemoryRepository) CreateMission(_ context.Context, mission *models.MissionDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.missions[mission.ID] = mission
	return nil
}

func (r *InMemoryRepository) UpdateMission(_ context.Context, mission *models.MissionDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.missions[mission.ID]; !ok {
		return &ErrNotFound{}
	}
	r.missions[mission.ID] = mission
	return nil
}

func (r *InMemoryRepository) ListMissions(_ context.Context) ([]*models.MissionDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	missions := make([]*models.MissionDoc, 0, len(r.missions))
	for _, mission := range r.missions {
		missions = append(missions, mission)
	}
	sort.Slice(missions, func(i, j int) bool {
		return missions[i].Name < missions[j].Name
	})
	return missions, nil
}

func (r *InMemoryRepository) CreateInstructor(_ context.Context, instructor *models.InstructorDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.instructors[instructor.ID] = instructor
	return nil
}

func (r *InMemoryRepository) UpdateInstructor(_ context.Context, instructor *models.InstructorDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.instructors[instructor.ID]; !ok {
		return &ErrNotFound{}
	}
	r.instructors[instructor.ID] = instructor
	return nil
}

func (r *InMemoryRepository) DeleteInstructor(_ context.Context, instructorID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.instructors[instructorID]; !ok {
		return &ErrNotFound{}
	}
	delete(r.instructors, instructorID)
	return nil
}

func (r *InMemoryRepository) ListInstructors(_ context.Context) ([]*models.InstructorDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	instructors := make([]*models.InstructorDoc, 0, len(r.instructors))
	for _, instructor := range r.instructors {
		instructors = append(instructors, instructor)
	}
	sort.Slice(instructors, func(i, j int) bool {
		return instructors[i].Name < instructors[j].Name
	})
	return instructors, nil
}

func (r *InMemoryRepository) SaveStats(_ context.Context, stats *models.StatsDoc) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats[stats.SessionID] = stats
	return nil
}

func (r *InMemoryRepository) GetStats(_ context.Context, sessionID string) (*models.StatsDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	stats, ok := r.stats[sessionID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return stats, nil
}

func (r *InMemoryRepository) ListStats(_ context.Context, limit int) ([]*models.StatsDoc, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	stats := make([]*models.StatsDoc, 0, len(r.stats))
	for _, s := range r.stats {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].SavedAt.After(stats[j].SavedAt)
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
