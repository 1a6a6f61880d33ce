// Package api exposes the tournament runner over HTTP for arenad.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/snakearena/snakearena/internal/sandbox"
	"github.com/snakearena/snakearena/internal/store"
	"github.com/snakearena/snakearena/internal/tournament"
)

// runFunc plays a full tournament between two competitor modules. It is
// a field so tests can substitute a canned runner.
type runFunc func(ctx context.Context, red, blue []byte, cfg tournament.Config) (*tournament.Stats, error)

// Server handles HTTP requests.
type Server struct {
	db          store.DB
	logger      *zap.Logger
	workers     int
	gameTimeout time.Duration
	run         runFunc
}

// NewServer creates an API server. workers of zero lets the scheduler
// pick its own parallelism.
func NewServer(db store.DB, logger *zap.Logger, workers int, gameTimeout time.Duration) *Server {
	s := &Server{
		db:          db,
		logger:      logger,
		workers:     workers,
		gameTimeout: gameTimeout,
	}
	s.run = s.runSandboxed
	return s
}

func (s *Server) runSandboxed(ctx context.Context, red, blue []byte, cfg tournament.Config) (*tournament.Stats, error) {
	return tournament.Run(ctx, cfg, func(ctx context.Context) (tournament.Player, error) {
		return sandbox.New(ctx, sandbox.Options{GameTimeout: s.gameTimeout}, red, blue)
	})
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", s.handleRunTournament)
		r.Get("/", s.handleListTournaments)
		r.Get("/{id}", s.handleGetTournament)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// ErrorResponse is the structured error body.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	errTypeValidation = "VALIDATION_ERROR"
	errTypeCompetitor = "INVALID_COMPETITOR"
	errTypeNotFound   = "NOT_FOUND"
	errTypeInternal   = "INTERNAL_ERROR"
)

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, ErrorResponse{Type: errType, Message: message})
}
