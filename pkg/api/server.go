package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rinooks/pixel-war/pkg/api/handlers"
	apimiddleware "github.com/rinooks/pixel-war/pkg/api/middleware"
	authproviders "github.com/rinooks/pixel-war/pkg/auth/providers"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/repositories"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Addr          string
	TLS           *TLSConfig
	AuthProvider  authproviders.AuthProvider
	Repository    repositories.Repository
	Metrics       *metrics.Manager
	PublicBaseURL string
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := NewRouter(opts)
	server := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the API route table. Reads are open; mutations require
// an instructor bearer token.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	authMiddleware := apimiddleware.NewAuthMiddleware(opts.AuthProvider, opts.Repository)
	auth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/api/sessions", handlers.HandleListSessions(opts.Repository)).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions", handlers.HandleCreateSession(opts.Repository)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{sessionID}", handlers.HandleGetSession(opts.Repository)).Methods(http.MethodGet)
	router.Handle("/api/sessions/{sessionID}", auth(handlers.HandleUpdateSession(opts.Repository))).Methods(http.MethodPatch)
	router.Handle("/api/sessions/{sessionID}", auth(handlers.HandleDeleteSession(opts.Repository))).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{sessionID}/qr", handlers.HandleJoinQR(opts.Repository, opts.PublicBaseURL)).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{sessionID}/stats", handlers.HandleGetStats(opts.Repository)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", handlers.HandleListStats(opts.Repository)).Methods(http.MethodGet)

	router.HandleFunc("/api/missions", handlers.HandleListMissions(opts.Repository)).Methods(http.MethodGet)
	router.Handle("/api/missions", auth(handlers.HandleCreateMission(opts.Repository))).Methods(http.MethodPost)
	router.Handle("/api/missions/{missionID}", auth(handlers.HandleUpdateMission(opts.Repository))).Methods(http.MethodPut)

	router.Handle("/api/instructors", auth(handlers.HandleListInstructors(opts.Repository))).Methods(http.MethodGet)
	router.Handle("/api/instructors", auth(handlers.HandleCreateInstructor(opts.Repository))).Methods(http.MethodPost)
	router.Handle("/api/instructors/{instructorID}", auth(handlers.HandleUpdateInstructor(opts.Repository))).Methods(http.MethodPut)
	router.Handle("/api/instructors/{instructorID}", auth(handlers.HandleDeleteInstructor(opts.Repository))).Methods(http.MethodDelete)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
