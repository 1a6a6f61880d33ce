// Package report renders tournament output: per-game trace lines, the
// results summary, and per-side lose-reason tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/snakearena/snakearena/internal/sandbox"
	"github.com/snakearena/snakearena/internal/tournament"
)

var (
	redTag  = color.New(color.FgRed).SprintFunc()
	blueTag = color.New(color.FgBlue).SprintFunc()
	tieTag  = color.New(color.FgWhite).SprintFunc()
)

func winnerTag(w sandbox.Winner) string {
	switch w {
	case sandbox.WinnerRed:
		return redTag("RED")
	case sandbox.WinnerBlue:
		return blueTag("BLUE")
	default:
		return tieTag("TIE")
	}
}

// TraceLine formats one completed game for the per-game trace.
func TraceLine(g tournament.Game) string {
	return fmt.Sprintf("%05d = %s (%d:%05d) %s",
		g.Seed, winnerTag(g.Result.Winner), g.Result.Tick, g.Result.Cycle, g.Result.LoseReason)
}

// PrintSummary writes the human-readable results block.
func PrintSummary(w io.Writer, stats *tournament.Stats, games uint32) {
	fmt.Fprintf(w, "\n===== RESULTS =====\n")
	fmt.Fprintf(w, "GAMES SIMULATED: %d\n", games)
	fmt.Fprintf(w, "%s WINS: %d (%s%%)\n",
		redTag("RED"), stats.Wins[sandbox.WinnerRed], stats.WinRate(sandbox.WinnerRed).StringFixed(1))
	fmt.Fprintf(w, "TIES: %d (%s%%)\n",
		stats.Wins[sandbox.WinnerTie], stats.WinRate(sandbox.WinnerTie).StringFixed(1))
	fmt.Fprintf(w, "%s WINS: %d (%s%%)\n",
		blueTag("BLUE"), stats.Wins[sandbox.WinnerBlue], stats.WinRate(sandbox.WinnerBlue).StringFixed(1))

	// Reasons recorded under the opposing winner explain why this
	// side's snake died.
	fmt.Fprintf(w, "\n\n%s lose reasons (why the last snake died)\n", redTag("RED"))
	printLoseReasons(w, stats, sandbox.WinnerBlue)
	fmt.Fprintf(w, "\n\n%s lose reasons (why the last snake died)\n", blueTag("BLUE"))
	printLoseReasons(w, stats, sandbox.WinnerRed)
}

func printLoseReasons(w io.Writer, stats *tournament.Stats, winner sandbox.Winner) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Reason", "Count", "Seed Examples"})

	for _, row := range stats.ReasonRows(winner) {
		seeds := make([]string, len(row.ExampleSeeds))
		for i, s := range row.ExampleSeeds {
			seeds[i] = strconv.FormatUint(uint64(s), 10)
		}
		table.Append([]string{row.Reason, strconv.FormatUint(uint64(row.Count), 10), strings.Join(seeds, ", ")})
	}

	table.Render()
}

// Summary is the machine-readable result counts.
type Summary struct {
	Red  uint32 `json:"red"`
	Tie  uint32 `json:"tie"`
	Blue uint32 `json:"blue"`
}

// NewSummary extracts the win counts from a finished tournament.
func NewSummary(stats *tournament.Stats) Summary {
	return Summary{
		Red:  stats.Wins[sandbox.WinnerRed],
		Tie:  stats.Wins[sandbox.WinnerTie],
		Blue: stats.Wins[sandbox.WinnerBlue],
	}
}

// PrintJSON writes the machine-readable summary.
func PrintJSON(w io.Writer, stats *tournament.Stats) error {
	out, err := json.MarshalIndent(NewSummary(stats), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
