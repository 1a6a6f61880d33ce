package tournament

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/snakearena/snakearena/internal/sandbox"
)

// maxExampleSeeds bounds the example list per lose reason: first five
// seen, no replacement.
const maxExampleSeeds = 5

// ReasonStat counts one lose reason under one winner, with a bounded
// set of example seeds to replay.
type ReasonStat struct {
	Count        uint32   `json:"count"`
	ExampleSeeds []uint32 `json:"example_seeds"`
}

// Stats is the tournament aggregate. It is built by the collector
// goroutine during a run and is safe to read only after Run returns.
type Stats struct {
	Wins        map[sandbox.Winner]uint32                    `json:"wins"`
	LoseReasons map[sandbox.Winner]map[string]*ReasonStat    `json:"lose_reasons"`
}

// StatsFromGames aggregates already-completed games, applying the same
// counting rules the collector uses during a live run.
func StatsFromGames(games []Game) *Stats {
	s := newStats()
	for _, g := range games {
		s.record(g)
	}
	return s
}

func newStats() *Stats {
	return &Stats{
		Wins:        make(map[sandbox.Winner]uint32),
		LoseReasons: make(map[sandbox.Winner]map[string]*ReasonStat),
	}
}

func (s *Stats) record(g Game) {
	s.Wins[g.Result.Winner]++

	reasons := s.LoseReasons[g.Result.Winner]
	if reasons == nil {
		reasons = make(map[string]*ReasonStat)
		s.LoseReasons[g.Result.Winner] = reasons
	}
	rs := reasons[g.Result.LoseReason]
	if rs == nil {
		rs = &ReasonStat{}
		reasons[g.Result.LoseReason] = rs
	}
	rs.Count++
	if len(rs.ExampleSeeds) < maxExampleSeeds {
		rs.ExampleSeeds = append(rs.ExampleSeeds, g.Seed)
	}
}

// Total returns the number of games recorded.
func (s *Stats) Total() uint32 {
	var n uint32
	for _, c := range s.Wins {
		n += c
	}
	return n
}

// WinRate returns a winner's share of all recorded games as a
// percentage with one decimal place. Exact decimal arithmetic keeps
// user-facing rates free of float artifacts.
func (s *Stats) WinRate(w sandbox.Winner) decimal.Decimal {
	total := s.Total()
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Wins[w])).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 1)
}

// ReasonRow is one lose-reason table row, ready for presentation.
type ReasonRow struct {
	Reason       string
	Count        uint32
	ExampleSeeds []uint32
}

// ReasonRows returns the lose reasons recorded under a winner, sorted
// by count descending, with example seeds sorted ascending.
func (s *Stats) ReasonRows(w sandbox.Winner) []ReasonRow {
	rows := make([]ReasonRow, 0, len(s.LoseReasons[w]))
	for reason, rs := range s.LoseReasons[w] {
		seeds := make([]uint32, len(rs.ExampleSeeds))
		copy(seeds, rs.ExampleSeeds)
		sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
		rows = append(rows, ReasonRow{Reason: reason, Count: rs.Count, ExampleSeeds: seeds})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}
