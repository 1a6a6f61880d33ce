// Package tournament fans games out across worker goroutines, each
// owning a private sandbox instance, and aggregates the results.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/snakearena/snakearena/internal/sandbox"
)

var (
	ErrNoGames           = errors.New("game count must be positive")
	ErrSeedRangeOverflow = errors.New("seed range overflows the 32-bit seed domain")
)

// Player runs games. Each worker gets its own Player and never shares
// it; implementations need no internal locking.
type Player interface {
	RunGame(ctx context.Context, seed uint32) (sandbox.GameResult, error)
	Close(ctx context.Context) error
}

// NewPlayer constructs one Player per worker. Construction errors are
// setup-fatal for the run.
type NewPlayer func(ctx context.Context) (Player, error)

// Game pairs a claimed seed with its result.
type Game struct {
	Seed   uint32
	Result sandbox.GameResult
}

// Config describes one tournament.
type Config struct {
	StartSeed uint32
	Games     uint32
	// Workers defaults to the available hardware parallelism.
	Workers int
	// OnResult, when set, observes every completed game from the
	// collector goroutine, in completion order.
	OnResult func(Game)
}

// Validate rejects configurations that must not spawn workers.
func (c Config) Validate() error {
	if c.Games == 0 {
		return ErrNoGames
	}
	if uint64(c.StartSeed)+uint64(c.Games)-1 > math.MaxUint32 {
		return fmt.Errorf("%w: start %d, games %d", ErrSeedRangeOverflow, c.StartSeed, c.Games)
	}
	return nil
}

// Run plays Games games seeded [StartSeed, StartSeed+Games) and
// returns the aggregate. Workers claim seeds from a shared cursor;
// each seed in range is played exactly once. The first worker error
// cancels the run: remaining workers stop claiming seeds and the
// error is returned instead of a partial, misleading aggregate.
func Run(ctx context.Context, cfg Config, newPlayer NewPlayer) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Seed claims and result aggregation are independent domains: the
	// cursor is an atomic counter, results flow over a channel to a
	// single collector. No game ever touches both at once.
	var cursor atomic.Uint64
	cursor.Store(uint64(cfg.StartSeed))
	limit := uint64(cfg.StartSeed) + uint64(cfg.Games)

	results := make(chan Game, workers*2)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runWorker(ctx, &cursor, limit, newPlayer, results); err != nil {
				errs <- err
				cancel()
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	stats := newStats()
	for g := range results {
		stats.record(g)
		if cfg.OnResult != nil {
			cfg.OnResult(g)
		}
	}

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// runWorker loops claim -> play -> report until the seed range is
// exhausted or the run is cancelled.
func runWorker(ctx context.Context, cursor *atomic.Uint64, limit uint64, newPlayer NewPlayer, results chan<- Game) error {
	player, err := newPlayer(ctx)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	defer player.Close(ctx)

	for {
		claim := cursor.Add(1) - 1
		if claim >= limit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		seed := uint32(claim)

		res, err := player.RunGame(ctx, seed)
		if err != nil {
			return fmt.Errorf("game seed %d: %w", seed, err)
		}

		select {
		case results <- Game{Seed: seed, Result: res}:
		case <-ctx.Done():
			return nil
		}
	}
}
