package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("tournament not found")

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an archive database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tournaments (
			id TEXT PRIMARY KEY,
			red_module TEXT NOT NULL,
			blue_module TEXT NOT NULL,
			start_seed INTEGER NOT NULL,
			games INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			red_wins INTEGER NOT NULL DEFAULT 0,
			blue_wins INTEGER NOT NULL DEFAULT 0,
			ties INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lose_reasons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tournament_id TEXT NOT NULL,
			winner TEXT NOT NULL,
			reason TEXT NOT NULL,
			count INTEGER NOT NULL,
			example_seeds TEXT NOT NULL,
			FOREIGN KEY (tournament_id) REFERENCES tournaments(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lose_reasons_tournament ON lose_reasons(tournament_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveTournament stores a run and its lose-reason breakdown in one
// transaction.
func (s *SQLiteDB) SaveTournament(t *Tournament) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO tournaments (
		id, red_module, blue_module, start_seed, games, workers,
		red_wins, blue_wins, ties
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.RedModule, t.BlueModule, t.StartSeed, t.Games, t.Workers,
		t.RedWins, t.BlueWins, t.Ties,
	)
	if err != nil {
		return err
	}

	if len(t.LoseReasons) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO lose_reasons
			(tournament_id, winner, reason, count, example_seeds)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, lr := range t.LoseReasons {
			if _, err := stmt.Exec(t.ID, lr.Winner, lr.Reason, lr.Count, encodeSeeds(lr.ExampleSeeds)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetTournament loads one run with its lose-reason breakdown.
func (s *SQLiteDB) GetTournament(id string) (*Tournament, error) {
	t := &Tournament{}
	err := s.db.QueryRow(`SELECT id, red_module, blue_module, start_seed,
		games, workers, red_wins, blue_wins, ties, created_at
		FROM tournaments WHERE id = ?`, id).Scan(
		&t.ID, &t.RedModule, &t.BlueModule, &t.StartSeed,
		&t.Games, &t.Workers, &t.RedWins, &t.BlueWins, &t.Ties, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT winner, reason, count, example_seeds
		FROM lose_reasons WHERE tournament_id = ? ORDER BY count DESC, reason`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var lr LoseReason
		var seeds string
		if err := rows.Scan(&lr.Winner, &lr.Reason, &lr.Count, &seeds); err != nil {
			return nil, err
		}
		lr.ExampleSeeds = decodeSeeds(seeds)
		t.LoseReasons = append(t.LoseReasons, lr)
	}
	return t, rows.Err()
}

// ListTournaments returns recent runs, newest first, without their
// lose-reason breakdowns.
func (s *SQLiteDB) ListTournaments(limit int) ([]*Tournament, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, red_module, blue_module, start_seed,
		games, workers, red_wins, blue_wins, ties, created_at
		FROM tournaments ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tournament
	for rows.Next() {
		t := &Tournament{}
		if err := rows.Scan(&t.ID, &t.RedModule, &t.BlueModule, &t.StartSeed,
			&t.Games, &t.Workers, &t.RedWins, &t.BlueWins, &t.Ties, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func encodeSeeds(seeds []uint32) string {
	parts := make([]string, len(seeds))
	for i, s := range seeds {
		parts[i] = strconv.FormatUint(uint64(s), 10)
	}
	return strings.Join(parts, ",")
}

func decodeSeeds(s string) []uint32 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(v))
	}
	return out
}
