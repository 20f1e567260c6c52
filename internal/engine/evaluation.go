package engine

import "strconv"

// mateScore is the centipawn-equivalent magnitude assigned to forced mates
// so they compare above any ordinary evaluation. Shorter mates score higher.
const mateScore = 100000

// Evaluation is the engine's assessment of a position, always from the
// perspective of the side to move.
type Evaluation struct {
	// Centipawns is the evaluation in centipawns.
	// Nil if the position has a forced mate.
	Centipawns *int

	// Mate is the number of moves until checkmate.
	// Positive values mean the side to move delivers mate, negative means
	// it receives mate. Nil if there is no forced mate.
	Mate *int

	// BestMove is the engine's preferred move in UCI notation.
	// Empty if the engine reported none (e.g. the game is over).
	BestMove string
}

// Score collapses the evaluation to a single comparable centipawn value.
// Mates map near ±mateScore so any mate outranks any material advantage,
// and faster mates outrank slower ones. Mate 0 means the side to move is
// already checkmated.
func (e *Evaluation) Score() int {
	if e.Mate != nil {
		m := *e.Mate
		if m > 0 {
			return mateScore - m
		}
		return -(mateScore + m)
	}
	if e.Centipawns != nil {
		return *e.Centipawns
	}
	return 0
}

// IsMate returns true if the position has a forced checkmate.
func (e *Evaluation) IsMate() bool {
	return e.Mate != nil
}

// String returns a human-readable score.
// Examples: "+1.25", "-0.50", "#3", "#-5"
func (e *Evaluation) String() string {
	if e.Mate != nil {
		return "#" + strconv.Itoa(*e.Mate)
	}
	if e.Centipawns == nil {
		return "?"
	}
	cp := *e.Centipawns
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	whole := cp / 100
	frac := cp % 100
	if frac < 10 {
		return sign + strconv.Itoa(whole) + ".0" + strconv.Itoa(frac)
	}
	return sign + strconv.Itoa(whole) + "." + strconv.Itoa(frac)
}

// Clone returns a deep copy so cached evaluations stay immutable.
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := &Evaluation{BestMove: e.BestMove}
	if e.Centipawns != nil {
		cp := *e.Centipawns
		out.Centipawns = &cp
	}
	if e.Mate != nil {
		m := *e.Mate
		out.Mate = &m
	}
	return out
}

// Line is an evaluation together with the engine's principal variation.
type Line struct {
	Evaluation

	// PV is the engine's best line of play in UCI notation.
	PV []string
}
