package engine

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	cpRe       = regexp.MustCompile(` cp (-?[0-9]+)`)
	mateRe     = regexp.MustCompile(` mate (-?[0-9]+)`)
	bestMoveRe = regexp.MustCompile(`^bestmove ([a-z0-9]+)`)
)

// parseInfo extracts the score from a UCI "info" line into eval.
// Later info lines overwrite earlier ones, so the deepest search wins.
func parseInfo(line string, eval *Evaluation) {
	if !strings.HasPrefix(line, "info ") || !strings.Contains(line, " score ") {
		return
	}
	if m := mateRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			eval.Mate = &n
			eval.Centipawns = nil
		}
		return
	}
	if m := cpRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			eval.Centipawns = &n
			eval.Mate = nil
		}
	}
}

// parsePV extracts the principal variation from a UCI "info" line.
// Returns nil if the line carries no pv.
func parsePV(line string) []string {
	idx := strings.Index(line, " pv ")
	if !strings.HasPrefix(line, "info ") || idx < 0 {
		return nil
	}
	return strings.Fields(line[idx+4:])
}

// parseBestMove extracts the move from a "bestmove" line.
// Returns false until the engine reports one. "bestmove (none)" yields
// ok=true with an empty move: the search finished with nothing to play.
func parseBestMove(line string) (move string, ok bool) {
	if !strings.HasPrefix(line, "bestmove") {
		return "", false
	}
	if m := bestMoveRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", true
}
