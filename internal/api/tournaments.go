package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/snakearena/snakearena/internal/sandbox"
	"github.com/snakearena/snakearena/internal/store"
	"github.com/snakearena/snakearena/internal/tournament"
)

// TournamentRequest asks arenad to run and archive one tournament. The
// module fields are paths on the daemon host.
type TournamentRequest struct {
	RedModule  string `json:"red_module"`
	BlueModule string `json:"blue_module"`
	StartSeed  uint32 `json:"start_seed"`
	Games      uint32 `json:"games"`
	Workers    int    `json:"workers"`
}

// POST /tournaments
func (s *Server) handleRunTournament(w http.ResponseWriter, r *http.Request) {
	var req TournamentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, "invalid JSON: "+err.Error())
		return
	}
	if req.RedModule == "" || req.BlueModule == "" {
		s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, "red_module and blue_module are required")
		return
	}
	if req.Games == 0 {
		req.Games = 100
	}
	if req.Workers == 0 {
		req.Workers = s.workers
	}

	red, err := os.ReadFile(req.RedModule)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, "read red module: "+err.Error())
		return
	}
	blue, err := os.ReadFile(req.BlueModule)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, "read blue module: "+err.Error())
		return
	}

	cfg := tournament.Config{
		StartSeed: req.StartSeed,
		Games:     req.Games,
		Workers:   req.Workers,
	}
	if err := cfg.Validate(); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, err.Error())
		return
	}

	start := time.Now()
	stats, err := s.run(r.Context(), red, blue, cfg)
	if err != nil {
		var invalid *sandbox.InvalidCompetitorError
		if errors.As(err, &invalid) {
			s.writeError(w, http.StatusUnprocessableEntity, errTypeCompetitor, invalid.Error())
			return
		}
		s.logger.Error("tournament failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errTypeInternal, "tournament failed: "+err.Error())
		return
	}

	t := &store.Tournament{
		RedModule:  req.RedModule,
		BlueModule: req.BlueModule,
		StartSeed:  req.StartSeed,
		Games:      req.Games,
		Workers:    req.Workers,
		RedWins:    stats.Wins[sandbox.WinnerRed],
		BlueWins:   stats.Wins[sandbox.WinnerBlue],
		Ties:       stats.Wins[sandbox.WinnerTie],
		CreatedAt:  time.Now().UTC(),
	}
	for _, winner := range []sandbox.Winner{sandbox.WinnerRed, sandbox.WinnerBlue, sandbox.WinnerTie} {
		for _, row := range stats.ReasonRows(winner) {
			t.LoseReasons = append(t.LoseReasons, store.LoseReason{
				Winner:       winner.String(),
				Reason:       row.Reason,
				Count:        row.Count,
				ExampleSeeds: row.ExampleSeeds,
			})
		}
	}

	if err := s.db.SaveTournament(t); err != nil {
		s.logger.Error("save tournament", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errTypeInternal, "save tournament: "+err.Error())
		return
	}

	s.logger.Info("tournament complete",
		zap.String("id", t.ID),
		zap.Uint32("games", t.Games),
		zap.Duration("duration", time.Since(start)),
	)
	s.writeJSON(w, http.StatusCreated, t)
}

// GET /tournaments?limit=
func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusUnprocessableEntity, errTypeValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := s.db.ListTournaments(limit)
	if err != nil {
		s.logger.Error("list tournaments", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errTypeInternal, "list tournaments: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tournaments": items,
		"count":       len(items),
	})
}

// GET /tournaments/{id}
func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.db.GetTournament(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, errTypeNotFound, "tournament not found")
		return
	case err != nil:
		s.logger.Error("get tournament", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errTypeInternal, "get tournament: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}
