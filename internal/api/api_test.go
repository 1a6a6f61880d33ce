package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/snakearena/snakearena/internal/sandbox"
	"github.com/snakearena/snakearena/internal/store"
	"github.com/snakearena/snakearena/internal/tournament"
)

// mockDB is a simple in-memory implementation of store.DB for testing.
type mockDB struct {
	saved []*store.Tournament
}

func (m *mockDB) SaveTournament(t *store.Tournament) error {
	if t.ID == "" {
		t.ID = "test-id"
	}
	m.saved = append(m.saved, t)
	return nil
}

func (m *mockDB) GetTournament(id string) (*store.Tournament, error) {
	for _, t := range m.saved {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockDB) ListTournaments(limit int) ([]*store.Tournament, error) {
	return m.saved, nil
}

func (m *mockDB) Close() error { return nil }

func newTestServer(t *testing.T, db *mockDB, run runFunc) *Server {
	t.Helper()
	s := NewServer(db, zap.NewNop(), 2, time.Second)
	if run != nil {
		s.run = run
	}
	return s
}

// writeModules drops two placeholder competitor files and returns their paths.
func writeModules(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	red := filepath.Join(dir, "red.wasm")
	blue := filepath.Join(dir, "blue.wasm")
	for _, p := range []string{red, blue} {
		if err := os.WriteFile(p, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return red, blue
}

func cannedRun(stats *tournament.Stats, err error) runFunc {
	return func(ctx context.Context, red, blue []byte, cfg tournament.Config) (*tournament.Stats, error) {
		return stats, err
	}
}

func cannedStats() *tournament.Stats {
	return tournament.StatsFromGames([]tournament.Game{
		{Seed: 0, Result: sandbox.GameResult{Winner: sandbox.WinnerRed, LoseReason: "starved"}},
		{Seed: 1, Result: sandbox.GameResult{Winner: sandbox.WinnerBlue, LoseReason: "collided with wall"}},
		{Seed: 2, Result: sandbox.GameResult{Winner: sandbox.WinnerTie, LoseReason: "collided with snake"}},
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &mockDB{}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestRunTournamentEndpoint(t *testing.T) {
	db := &mockDB{}
	server := newTestServer(t, db, cannedRun(cannedStats(), nil))
	red, blue := writeModules(t)

	body, _ := json.Marshal(TournamentRequest{
		RedModule:  red,
		BlueModule: blue,
		Games:      3,
	})
	req := httptest.NewRequest("POST", "/tournaments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var got store.Tournament
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RedWins != 1 || got.BlueWins != 1 || got.Ties != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", got.RedWins, got.BlueWins, got.Ties)
	}
	if len(got.LoseReasons) != 3 {
		t.Errorf("lose reasons = %d, want 3", len(got.LoseReasons))
	}
	if len(db.saved) != 1 {
		t.Fatalf("saved = %d tournaments, want 1", len(db.saved))
	}
}

func TestRunTournamentValidation(t *testing.T) {
	red, blue := writeModules(t)

	cases := []struct {
		name string
		req  TournamentRequest
	}{
		{"missing modules", TournamentRequest{}},
		{"unreadable module", TournamentRequest{RedModule: "/no/such/file.wasm", BlueModule: blue}},
		{"seed range overflow", TournamentRequest{RedModule: red, BlueModule: blue, StartSeed: 1<<32 - 1, Games: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, &mockDB{}, cannedRun(cannedStats(), nil))
			body, _ := json.Marshal(tc.req)
			req := httptest.NewRequest("POST", "/tournaments", bytes.NewReader(body))
			w := httptest.NewRecorder()
			server.Routes().ServeHTTP(w, req)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Type != errTypeValidation {
				t.Errorf("error type = %q, want %q", resp.Type, errTypeValidation)
			}
		})
	}
}

func TestRunTournamentInvalidCompetitor(t *testing.T) {
	server := newTestServer(t, &mockDB{},
		cannedRun(nil, &sandbox.InvalidCompetitorError{Side: sandbox.SideBlue}))
	red, blue := writeModules(t)

	body, _ := json.Marshal(TournamentRequest{RedModule: red, BlueModule: blue})
	req := httptest.NewRequest("POST", "/tournaments", bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Type != errTypeCompetitor {
		t.Errorf("error type = %q, want %q", resp.Type, errTypeCompetitor)
	}
}

func TestGetTournamentEndpoint(t *testing.T) {
	db := &mockDB{saved: []*store.Tournament{{ID: "abc", Games: 10}}}
	server := newTestServer(t, db, nil)

	req := httptest.NewRequest("GET", "/tournaments/abc", nil)
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/tournaments/missing", nil)
	w = httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestListTournamentsEndpoint(t *testing.T) {
	db := &mockDB{saved: []*store.Tournament{{ID: "a"}, {ID: "b"}}}
	server := newTestServer(t, db, nil)

	req := httptest.NewRequest("GET", "/tournaments", nil)
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}
