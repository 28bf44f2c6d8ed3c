package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rinooks/pixel-war/pkg/game/constants"
	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

const defaultListLimit = 50

type CreateSessionRequest struct {
	Name          string  `json:"name"`
	GameMode      string  `json:"gameMode,omitempty"`
	RenderMode    string  `json:"renderMode,omitempty"`
	CanvasSize    int     `json:"canvasSize,omitempty"`
	TimerDuration float64 `json:"timerDuration,omitempty"`
	Teams         int     `json:"teams,omitempty"`
}

type SessionResponse struct {
	Session *models.SessionDoc  `json:"session"`
	Teams   []*models.TeamDoc   `json:"teams,omitempty"`
	Players []*models.PlayerDoc `json:"players,omitempty"`
}

func HandleListSessions(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r)
		sessions, err := repository.ListSessions(r.Context(), limit)
		if err != nil {
			log.Error("failed to list sessions: %v", err)
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, sessions)
	}
}

func HandleCreateSession(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &CreateSessionRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}

		state := types.NewSessionState(uuid.NewString(), req.Name)
		if req.GameMode != "" {
			state.GameMode = types.GameMode(req.GameMode)
		}
		if req.RenderMode != "" {
			state.RenderMode = types.RenderMode(req.RenderMode)
		}
		if req.CanvasSize > 0 {
			state.CanvasSize = req.CanvasSize
		}
		if req.TimerDuration > 0 {
			state.SetTimerDuration(req.TimerDuration)
		}

		doc := models.SessionDocFromState(state)
		if err := repository.CreateSession(r.Context(), doc); err != nil {
			log.Error("failed to create session: %v", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		teams, err := createSessionTeams(r, repository, state, req.Teams)
		if err != nil {
			log.Error("failed to create teams: %v", err)
			http.Error(w, "Failed to create teams", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, &SessionResponse{Session: doc, Teams: teams})
	}
}

func createSessionTeams(r *http.Request, repository repositories.Repository, state *types.SessionState, count int) ([]*models.TeamDoc, error) {
	if state.GameMode != types.GameModeTeam {
		return nil, nil
	}
	if count <= 0 {
		count = 2
	}
	if count > constants.MaxTeamsPerSession {
		count = constants.MaxTeamsPerSession
	}

	teams := make([]*models.TeamDoc, 0, count)
	for _, colorName := range constants.TeamColorOrder[:count] {
		team := &models.TeamDoc{
			ID:    colorName,
			Name:  titleCase(colorName),
			Color: constants.TeamColors[colorName],
		}
		if err := repository.CreateTeam(r.Context(), state.ID, team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func HandleGetSession(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		session, err := repository.GetSession(r.Context(), sessionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get session: %v", err)
			http.Error(w, "Failed to get session", http.StatusInternalServerError)
			return
		}

		teams, err := repository.ListTeams(r.Context(), sessionID)
		if err != nil {
			log.Error("failed to list teams: %v", err)
			http.Error(w, "Failed to list teams", http.StatusInternalServerError)
			return
		}
		players, err := repository.ListPlayers(r.Context(), sessionID)
		if err != nil {
			log.Error("failed to list players: %v", err)
			http.Error(w, "Failed to list players", http.StatusInternalServerError)
			return
		}

		writeJSON(w, &SessionResponse{Session: session, Teams: teams, Players: players})
	}
}

type UpdateSessionRequest struct {
	Name          string  `json:"name,omitempty"`
	GameMode      string  `json:"gameMode,omitempty"`
	RenderMode    string  `json:"renderMode,omitempty"`
	CanvasSize    int     `json:"canvasSize,omitempty"`
	TimerDuration float64 `json:"timerDuration,omitempty"`
}

func HandleUpdateSession(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		req := &UpdateSessionRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, err := repository.GetSession(r.Context(), sessionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get session: %v", err)
			http.Error(w, "Failed to get session", http.StatusInternalServerError)
			return
		}

		if req.Name != "" {
			session.Name = req.Name
		}
		if req.GameMode != "" {
			session.GameMode = req.GameMode
		}
		if req.RenderMode != "" {
			session.RenderMode = req.RenderMode
		}
		if req.CanvasSize > 0 {
			session.CanvasSize = req.CanvasSize
		}
		if req.TimerDuration > 0 {
			session.TimerDuration = req.TimerDuration
		}
		session.UpdatedAt = time.Now()

		if err := repository.SaveSession(r.Context(), session); err != nil {
			log.Error("failed to update session: %v", err)
			http.Error(w, "Failed to update session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, &SessionResponse{Session: session})
	}
}

func HandleDeleteSession(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		if err := repository.DeleteSession(r.Context(), sessionID); err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete session: %v", err)
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleGetStats(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		stats, err := repository.GetStats(r.Context(), sessionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Stats not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get stats: %v", err)
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, stats)
	}
}

func HandleListStats(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repository.ListStats(r.Context(), queryLimit(r))
		if err != nil {
			log.Error("failed to list stats: %v", err)
			http.Error(w, "Failed to list stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, stats)
	}
}

func queryLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
