// Package diag records per-position trace entries explaining what the
// analysis did with each candidate position.
package diag

// Outcomes for a processed position.
const (
	// OutcomeEvaluated means both engine evaluations completed and the
	// position was fully scored, whether or not it produced a finding.
	OutcomeEvaluated = "evaluated"

	// OutcomeInvalidMove means a recorded move could not be applied and
	// the game was truncated at that ply.
	OutcomeInvalidMove = "invalid_move"

	// OutcomeMissingEval means the engine returned no usable evaluation
	// and the position was skipped.
	OutcomeMissingEval = "missing_eval"
)

// Phases that emit diagnostics.
const (
	PhaseAggregate = "aggregate"
	PhaseEval      = "eval"
	PhaseTactics   = "tactics"
)

// Entry is one diagnostic record.
type Entry struct {
	Phase   string
	Outcome string

	// FEN and Key identify the position, when one is involved.
	FEN string
	Key string

	// Move is the player move under consideration, in the game's notation.
	Move string

	// Detail carries a human-readable explanation.
	Detail string

	// Reach is how many games reached the position, for aggregate entries.
	Reach int

	// GameIndex and Ply locate the event inside the fetched game list.
	// They are -1 when not applicable.
	GameIndex int
	Ply       int

	// EvalBefore and EvalAfter hold the engine scores in centipawns from
	// the player's perspective, when both evaluations completed.
	EvalBefore *int
	EvalAfter  *int
}

// SkippedReason returns why the position produced no finding, or "" for
// fully evaluated positions.
func (e *Entry) SkippedReason() string {
	if e.Outcome == OutcomeEvaluated {
		return ""
	}
	return e.Outcome
}
