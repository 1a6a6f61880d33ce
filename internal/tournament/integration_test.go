package tournament

import (
	"context"
	"testing"

	"github.com/snakearena/snakearena/internal/sandbox"
)

var validModule = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// TestTournamentIntegration runs a full tournament against real
// boundary instances.
func TestTournamentIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	cfg := Config{StartSeed: 0, Games: 100, Workers: 4}
	stats, err := Run(context.Background(), cfg, func(ctx context.Context) (Player, error) {
		return sandbox.New(ctx, sandbox.Options{}, validModule, validModule)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if total := stats.Total(); total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
	// The support runtime is deterministic per seed, so the split over
	// seeds 0..99 is fixed.
	if stats.Wins[sandbox.WinnerRed] != 33 ||
		stats.Wins[sandbox.WinnerBlue] != 32 ||
		stats.Wins[sandbox.WinnerTie] != 35 {
		t.Errorf("wins = %v, want RED=33 BLUE=32 TIE=35", stats.Wins)
	}

	for w, reasons := range stats.LoseReasons {
		for reason, rs := range reasons {
			if len(rs.ExampleSeeds) > maxExampleSeeds {
				t.Errorf("%v/%q: %d example seeds", w, reason, len(rs.ExampleSeeds))
			}
			for _, s := range rs.ExampleSeeds {
				if s >= 100 {
					t.Errorf("%v/%q: example seed %d out of range", w, reason, s)
				}
			}
		}
	}
}

func TestTournamentIntegrationInvalidModuleAborts(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	cfg := Config{StartSeed: 0, Games: 10, Workers: 2}
	_, err := Run(context.Background(), cfg, func(ctx context.Context) (Player, error) {
		return sandbox.New(ctx, sandbox.Options{}, []byte("garbage"), validModule)
	})
	if err == nil {
		t.Fatal("expected run to abort")
	}
}
