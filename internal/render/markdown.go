// Package render formats analysis reports for human consumption.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leonfresh/chessleaks"
)

// MarkdownReport writes a leak report in Markdown format.
type MarkdownReport struct {
	w io.Writer
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// Write renders the complete report: header, summary, findings, and the
// diagnostics appendix.
func (r *MarkdownReport) Write(rep *chessleaks.Report) {
	r.WriteHeader(fmt.Sprintf("Leak report for %s", rep.Player))
	r.WriteOverview(rep)
	r.WriteSummary(rep.Summary)
	r.WriteLeaks(rep.Leaks)
	r.WriteTactics(rep.MissedTactics)
	r.WriteDiagnostics(rep.Diagnostics)
	r.WriteFooter(rep.RunID)
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
}

// WriteOverview writes the run parameters section.
func (r *MarkdownReport) WriteOverview(rep *chessleaks.Report) {
	fmt.Fprintln(r.w, "## Overview")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Source:** %s\n", rep.Source)
	fmt.Fprintf(r.w, "- **Mode:** %s\n", rep.Mode)
	fmt.Fprintf(r.w, "- **Games analyzed:** %d\n", rep.GamesAnalyzed)
	fmt.Fprintf(r.w, "- **Repeated opening positions:** %d\n", rep.RepeatedPositionCount)
	fmt.Fprintf(r.w, "- **Missed tactics found:** %d\n", rep.TacticsFound)
	fmt.Fprintln(r.w)
}

// WriteSummary writes the loss statistics table.
func (r *MarkdownReport) WriteSummary(sum chessleaks.Summary) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | Opening Leaks | Missed Tactics |")
	fmt.Fprintln(r.w, "|--------|---------------|----------------|")
	fmt.Fprintf(r.w, "| Count | %d | %d |\n", sum.LeakLoss.Count, sum.TacticLoss.Count)
	fmt.Fprintf(r.w, "| Mean loss (cp) | %.1f | %.1f |\n", sum.LeakLoss.Mean, sum.TacticLoss.Mean)
	fmt.Fprintf(r.w, "| Median loss (cp) | %.1f | %.1f |\n", sum.LeakLoss.Median, sum.TacticLoss.Median)
	fmt.Fprintf(r.w, "| Std dev | %.1f | %.1f |\n", sum.LeakLoss.StdDev, sum.TacticLoss.StdDev)
	fmt.Fprintf(r.w, "| Worst (cp) | %.0f | %.0f |\n", sum.LeakLoss.Max, sum.TacticLoss.Max)
	fmt.Fprintln(r.w)
}

// WriteLeaks writes the opening leak table, worst first.
func (r *MarkdownReport) WriteLeaks(leaks []chessleaks.OpeningLeak) {
	fmt.Fprintln(r.w, "## Opening Leaks")
	fmt.Fprintln(r.w)
	if len(leaks) == 0 {
		fmt.Fprintln(r.w, "No repeated opening mistakes found.")
		fmt.Fprintln(r.w)
		return
	}

	fmt.Fprintln(r.w, "| # | You Play | Engine Prefers | Loss (cp) | Seen | Played | Tags | Position |")
	fmt.Fprintln(r.w, "|---|----------|----------------|-----------|------|--------|------|----------|")
	for i, leak := range leaks {
		fmt.Fprintf(r.w, "| %d | %s | %s | %d | %d | %d | %s | `%s` |\n",
			i+1, leak.PlayerMove, orDash(leak.EngineBestMove), leak.CentipawnLoss,
			leak.ReachCount, leak.MoveCount, strings.Join(leak.Tags, ", "), leak.FENBefore)
	}
	fmt.Fprintln(r.w)

	r.writeLossChart("Leak Loss", losses(len(leaks), func(i int) int { return leaks[i].CentipawnLoss }))
}

// WriteTactics writes the missed tactic table, worst first.
func (r *MarkdownReport) WriteTactics(tactics []chessleaks.MissedTactic) {
	fmt.Fprintln(r.w, "## Missed Tactics")
	fmt.Fprintln(r.w)
	if len(tactics) == 0 {
		fmt.Fprintln(r.w, "No missed tactics found.")
		fmt.Fprintln(r.w)
		return
	}

	fmt.Fprintln(r.w, "| # | Game | Ply | You Played | Best Move | Swing (cp) | Clock | Tags |")
	fmt.Fprintln(r.w, "|---|------|-----|------------|-----------|------------|-------|------|")
	for i, tac := range tactics {
		clock := "-"
		if tac.TimeRemainingSeconds != nil {
			clock = fmt.Sprintf("%.0fs", *tac.TimeRemainingSeconds)
		}
		fmt.Fprintf(r.w, "| %d | %d | %d | %s | %s | %d | %s | %s |\n",
			i+1, tac.GameIndex+1, tac.PlyNumber, tac.PlayerMove, tac.EngineBestMove,
			tac.CentipawnLoss, clock, strings.Join(tac.Tags, ", "))
	}
	fmt.Fprintln(r.w)
}

// WriteDiagnostics writes the appendix of skipped positions.
func (r *MarkdownReport) WriteDiagnostics(diags []chessleaks.Diagnostic) {
	skipped := 0
	for _, d := range diags {
		if d.SkippedReason() != "" {
			skipped++
		}
	}

	fmt.Fprintln(r.w, "## Diagnostics")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Positions traced:** %d\n", len(diags))
	fmt.Fprintf(r.w, "- **Skipped:** %d\n", skipped)
	fmt.Fprintln(r.w)
	if skipped == 0 {
		return
	}

	fmt.Fprintln(r.w, "| Phase | Reason | Move | Detail |")
	fmt.Fprintln(r.w, "|-------|--------|------|--------|")
	for _, d := range diags {
		if d.SkippedReason() == "" {
			continue
		}
		fmt.Fprintf(r.w, "| %s | %s | %s | %s |\n",
			d.Phase, d.SkippedReason(), orDash(d.Move), orDash(d.Detail))
	}
	fmt.Fprintln(r.w)
}

// writeLossChart writes an ASCII histogram of centipawn losses.
func (r *MarkdownReport) writeLossChart(name string, data []int) {
	if len(data) < 2 {
		return
	}
	fmt.Fprintf(r.w, "### %s Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")

	const buckets = 8
	hist, lo, step := makeHistogram(data, buckets)
	maxCount := 0
	for _, count := range hist {
		if count > maxCount {
			maxCount = count
		}
	}

	width := 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * width / maxCount
		}
		bar := strings.Repeat("█", barLen)
		from := lo + int(float64(i)*step)
		to := lo + int(float64(i+1)*step) - 1
		fmt.Fprintf(r.w, "%5d-%5d │ %s %d\n", from, to, bar, count)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// makeHistogram buckets data between its min and max and returns the
// counts along with the lower bound and bucket width.
func makeHistogram(data []int, buckets int) ([]int, int, float64) {
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		max = min + 1
	}

	hist := make([]int, buckets)
	step := float64(max-min+1) / float64(buckets)
	for _, v := range data {
		bucket := int(float64(v-min) / step)
		if bucket >= buckets {
			bucket = buckets - 1
		}
		hist[bucket]++
	}
	return hist, min, step
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter(runID string) {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "*Report generated by chessleaks (run %s)*\n", runID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func losses(n int, at func(int) int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = at(i)
	}
	return out
}
