package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/leonfresh/chessleaks"
)

// TextReport writes a leak report as plain terminal output.
type TextReport struct {
	w io.Writer
}

// NewTextReport creates a new plain-text report writer.
func NewTextReport(w io.Writer) *TextReport {
	return &TextReport{w: w}
}

// Write renders the complete report.
func (r *TextReport) Write(rep *chessleaks.Report) {
	fmt.Fprintf(r.w, "=== Leak report for %s (%s, %s) ===\n", rep.Player, rep.Source, rep.Mode)
	fmt.Fprintf(r.w, "Games analyzed: %d\n", rep.GamesAnalyzed)
	fmt.Fprintf(r.w, "Repeated opening positions: %d\n", rep.RepeatedPositionCount)

	fmt.Fprintf(r.w, "\n=== Opening leaks: %d ===\n", len(rep.Leaks))
	for i, leak := range rep.Leaks {
		fmt.Fprintf(r.w, "%2d. you play %s, engine prefers %s (-%d cp, seen %dx, played %dx)\n",
			i+1, leak.PlayerMove, orDash(leak.EngineBestMove), leak.CentipawnLoss,
			leak.ReachCount, leak.MoveCount)
		fmt.Fprintf(r.w, "    %s\n", strings.Join(leak.Tags, ", "))
		fmt.Fprintf(r.w, "    position: %s\n", leak.FENBefore)
	}

	fmt.Fprintf(r.w, "\n=== Missed tactics: %d", len(rep.MissedTactics))
	if rep.TacticsFound > len(rep.MissedTactics) {
		fmt.Fprintf(r.w, " (of %d found)", rep.TacticsFound)
	}
	fmt.Fprintln(r.w, " ===")
	for i, tac := range rep.MissedTactics {
		fmt.Fprintf(r.w, "%2d. game %d ply %d: played %s, missed %s (-%d cp)\n",
			i+1, tac.GameIndex+1, tac.PlyNumber, tac.PlayerMove, tac.EngineBestMove,
			tac.CentipawnLoss)
		line := strings.Join(tac.Tags, ", ")
		if tac.TimeRemainingSeconds != nil {
			line += fmt.Sprintf(", %.0fs on the clock", *tac.TimeRemainingSeconds)
		}
		fmt.Fprintf(r.w, "    %s\n", line)
	}

	skipped := 0
	for _, d := range rep.Diagnostics {
		if d.SkippedReason() != "" {
			skipped++
		}
	}
	fmt.Fprintf(r.w, "\n=== Summary ===\n")
	fmt.Fprintf(r.w, "Mean leak loss: %.0f cp\n", rep.Summary.LeakLoss.Mean)
	fmt.Fprintf(r.w, "Mean tactic swing: %.0f cp\n", rep.Summary.TacticLoss.Mean)
	fmt.Fprintf(r.w, "Positions skipped: %d of %d traced\n", skipped, len(rep.Diagnostics))
}
