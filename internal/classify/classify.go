// Package classify assigns human-readable tags to analysis findings.
package classify

import (
	"github.com/notnil/chess"

	"github.com/leonfresh/chessleaks/internal/board"
)

// maxTags bounds how many tags a single finding carries.
const maxTags = 3

// Severity thresholds in centipawns for missed tactics.
const (
	blunderSwing   = 900
	missedWinSwing = 500
)

// TacticTags describes a missed tactic by the size of the swing and the
// circumstances it happened under.
func TacticTags(swing int, mate, lowTime bool) []string {
	var tags []string
	switch {
	case mate:
		tags = append(tags, "Missed Mate")
	case swing >= blunderSwing:
		tags = append(tags, "Blunder")
	case swing >= missedWinSwing:
		tags = append(tags, "Missed Win")
	default:
		tags = append(tags, "Missed Tactic")
	}
	if lowTime {
		tags = append(tags, "Low Time")
	}
	return tags
}

// LeakTags describes an opening leak by comparing the habitual move with
// the engine's preference. moveCount of reachCount games played the
// habitual move.
func LeakTags(played, best *chess.Move, moveCount, reachCount int) []string {
	var tags []string

	if best != nil && played != nil {
		if best.HasTag(chess.Check) && !played.HasTag(chess.Check) {
			tags = append(tags, "Missed Check")
		}
		if isCapture(best) && !isCapture(played) {
			tags = append(tags, "Missed Capture")
		}
		if board.IsCastle(best) && !board.IsCastle(played) {
			tags = append(tags, "Delayed Castling")
		}
		if isCenter(best.S2()) && !isCenter(played.S2()) {
			tags = append(tags, "Ceded Center")
		}
	}

	// The same reply in at least 70% of reaching games is a habit, not
	// a one-off.
	if reachCount > 0 && moveCount*10 >= reachCount*7 {
		tags = append(tags, "Repeated Habit")
	}

	if len(tags) == 0 {
		tags = append(tags, "Inaccuracy")
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

func isCapture(m *chess.Move) bool {
	return m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant)
}

func isCenter(sq chess.Square) bool {
	switch sq {
	case chess.D4, chess.E4, chess.D5, chess.E5:
		return true
	}
	return false
}
