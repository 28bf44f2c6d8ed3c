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

func HandleListInstructors(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instructors, err := repository.ListInstructors(r.Context())
		if err != nil {
			log.Error("failed to list instructors: %v", err)
			http.Error(w, "Failed to list instructors", http.StatusInternalServerError)
			return
		}
		writeJSON(w, instructors)
	}
}

func HandleCreateInstructor(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instructor := &models.InstructorDoc{}
		if err := json.NewDecoder(r.Body).Decode(instructor); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if instructor.Email == "" {
			http.Error(w, "Email is required", http.StatusBadRequest)
			return
		}
		if instructor.ID == "" {
			instructor.ID = uuid.NewString()
		}
		instructor.IsActive = true
		instructor.CreatedAt = time.Now()

		if err := repository.CreateInstructor(r.Context(), instructor); err != nil {
			log.Error("failed to create instructor: %v", err)
			http.Error(w, "Failed to create instructor", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, instructor)
	}
}

func HandleUpdateInstructor(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instructor := &models.InstructorDoc{}
		if err := json.NewDecoder(r.Body).Decode(instructor); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		instructor.ID = mux.Vars(r)["instructorID"]

		if err := repository.UpdateInstructor(r.Context(), instructor); err != nil {
			log.Error("failed to update instructor: %v", err)
			http.Error(w, "Failed to update instructor", http.StatusInternalServerError)
			return
		}
		writeJSON(w, instructor)
	}
}

func HandleDeleteInstructor(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instructorID := mux.Vars(r)["instructorID"]
		if err := repository.DeleteInstructor(r.Context(), instructorID); err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Instructor not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete instructor: %v", err)
			http.Error(w, "Failed to delete instructor", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
