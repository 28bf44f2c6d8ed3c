package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

func HandleListMissions(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missions, err := repository.ListMissions(r.Context())
		if err != nil {
			log.Error("failed to list missions: %v", err)
			http.Error(w, "Failed to list missions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, missions)
	}
}

func HandleCreateMission(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mission := &models.MissionDoc{}
		if err := json.NewDecoder(r.Body).Decode(mission); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if mission.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		if mission.ID == "" {
			mission.ID = uuid.NewString()
		}
		mission.CreatedAt = time.Now()

		if err := repository.CreateMission(r.Context(), mission); err != nil {
			log.Error("failed to create mission: %v", err)
			http.Error(w, "Failed to create mission", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, mission)
	}
}

func HandleUpdateMission(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mission := &models.MissionDoc{}
		if err := json.NewDecoder(r.Body).Decode(mission); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		mission.ID = mux.Vars(r)["missionID"]

		if err := repository.UpdateMission(r.Context(), mission); err != nil {
			log.Error("failed to update mission: %v", err)
			http.Error(w, "Failed to update mission", http.StatusInternalServerError)
			return
		}
		writeJSON(w, mission)
	}
}
