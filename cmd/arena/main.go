// Command arena pits two competitor wasm modules against each other
// over a seed range and prints the aggregate results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/snakearena/snakearena/internal/report"
	"github.com/snakearena/snakearena/internal/sandbox"
	"github.com/snakearena/snakearena/internal/tournament"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "arena:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		redPath  = flag.String("red", "", "path to the red competitor wasm module (required)")
		bluePath = flag.String("blue", "", "path to the blue competitor wasm module (required)")
		seed     = flag.Uint64("seed", 0, "first seed of the tournament")
		games    = flag.Uint64("games", 100, "number of games to play")
		threads  = flag.Int("threads", runtime.NumCPU(), "worker count")
		timeout  = flag.Duration("timeout", 10*time.Second, "per-game execution timeout")
		jsonOut  = flag.Bool("json", false, "print a machine-readable summary instead of the trace")
	)
	flag.Parse()

	if *redPath == "" || *bluePath == "" {
		flag.Usage()
		return errors.New("-red and -blue are required")
	}
	if *seed > math.MaxUint32 {
		return fmt.Errorf("-seed %d exceeds the 32-bit seed domain", *seed)
	}
	if *games > math.MaxUint32 {
		return fmt.Errorf("-games %d exceeds the 32-bit seed domain", *games)
	}

	red, err := os.ReadFile(*redPath)
	if err != nil {
		return fmt.Errorf("read red module: %w", err)
	}
	blue, err := os.ReadFile(*bluePath)
	if err != nil {
		return fmt.Errorf("read blue module: %w", err)
	}

	cfg := tournament.Config{
		StartSeed: uint32(*seed),
		Games:     uint32(*games),
		Workers:   *threads,
	}
	if !*jsonOut {
		cfg.OnResult = func(g tournament.Game) {
			fmt.Println(report.TraceLine(g))
		}
	}

	stats, err := tournament.Run(context.Background(), cfg, func(ctx context.Context) (tournament.Player, error) {
		return sandbox.New(ctx, sandbox.Options{GameTimeout: *timeout}, red, blue)
	})
	if err != nil {
		var invalid *sandbox.InvalidCompetitorError
		if errors.As(err, &invalid) {
			return fmt.Errorf("competitor rejected: %s", invalid)
		}
		return err
	}

	if *jsonOut {
		return report.PrintJSON(os.Stdout, stats)
	}
	report.PrintSummary(os.Stdout, stats, cfg.Games)
	return nil
}
