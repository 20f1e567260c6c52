package chessleaks

import (
	"github.com/leonfresh/chessleaks/internal/diag"
	"github.com/leonfresh/chessleaks/internal/opening"
	"github.com/leonfresh/chessleaks/internal/tactics"
)

// Report is the result of one analysis run. It is created once per run
// and never mutated after return.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"runId"`

	Player string `json:"player"`
	Source Source `json:"source"`
	Mode   Mode   `json:"mode"`

	// GamesAnalyzed is how many games were fetched and replayed.
	GamesAnalyzed int `json:"gamesAnalyzed"`

	// RepeatedPositionCount is how many positions recurred often enough
	// to be evaluated for opening leaks.
	RepeatedPositionCount int `json:"repeatedPositionCount"`

	// Leaks holds habitual opening mistakes, descending by loss.
	Leaks []OpeningLeak `json:"leaks"`

	// MissedTactics holds overlooked forcing wins, descending by loss.
	// The list is capped by Request.MaxTactics.
	MissedTactics []MissedTactic `json:"missedTactics"`

	// TacticsFound is the true tactic count, including any beyond the cap.
	TacticsFound int `json:"tacticsFound"`

	// Summary aggregates the loss distributions.
	Summary Summary `json:"summary"`

	// Diagnostics is the full per-position trace of the run.
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// OpeningLeak is a position the player keeps reaching where their
// habitual move concedes a significant evaluation loss.
type OpeningLeak struct {
	// FENBefore is the position with the player to move.
	FENBefore string `json:"fenBefore"`

	// FENAfter is the position after the habitual move.
	FENAfter string `json:"fenAfter"`

	// PlayerMove is the habitual move in the game's notation.
	PlayerMove string `json:"playerMove"`

	// EngineBestMove is the engine's preference in UCI notation.
	EngineBestMove string `json:"engineBestMove,omitempty"`

	// Tags classify the mistake. At least one, at most three.
	Tags []string `json:"tags"`

	// ReachCount is how often the position occurred; MoveCount how
	// often the habitual move was chosen there.
	ReachCount int `json:"reachCount"`
	MoveCount  int `json:"moveCount"`

	// CentipawnLoss is EvalBefore - EvalAfter, both in the player's
	// perspective.
	CentipawnLoss int `json:"centipawnLoss"`
	EvalBefore    int `json:"evalBefore"`
	EvalAfter     int `json:"evalAfter"`

	// SideToMove and PlayerColor are "w" or "b". They match, since
	// leaks are collected at the player's turns.
	SideToMove  string `json:"sideToMove"`
	PlayerColor string `json:"playerColor"`
}

// MissedTactic is a single moment where the player overlooked a
// forcing continuation the engine grades decisively better.
type MissedTactic struct {
	FENBefore      string `json:"fenBefore"`
	FENAfter       string `json:"fenAfter"`
	PlayerMove     string `json:"playerMove"`
	EngineBestMove string `json:"engineBestMove"`

	// EvalBefore and EvalAfter are in the player's perspective; the
	// loss is their difference.
	EvalBefore    int `json:"evalBefore"`
	EvalAfter     int `json:"evalAfter"`
	CentipawnLoss int `json:"centipawnLoss"`

	// GameIndex and PlyNumber locate the moment in the fetched games.
	GameIndex int `json:"gameIndex"`
	PlyNumber int `json:"plyNumber"`

	// Mate reports whether the missed continuation forced mate.
	Mate bool `json:"mate"`

	PlayerColor string   `json:"playerColor"`
	Tags        []string `json:"tags"`

	// TimeRemainingSeconds is the player's clock after the move, when
	// the source recorded clocks.
	TimeRemainingSeconds *float64 `json:"timeRemainingSeconds,omitempty"`
}

// Diagnostic records the outcome of one examined position, including
// the ones that produced no finding.
type Diagnostic struct {
	// Phase is the pass that produced the entry: aggregate, eval or
	// tactics.
	Phase string `json:"phase"`

	// Outcome is evaluated, invalid_move or missing_eval.
	Outcome string `json:"outcome"`

	FEN    string `json:"fen,omitempty"`
	Key    string `json:"key,omitempty"`
	Move   string `json:"move,omitempty"`
	Detail string `json:"detail,omitempty"`

	// ReachCount is set for opening positions.
	ReachCount int `json:"reachCount,omitempty"`

	// GameIndex and Ply locate the entry; -1 when the entry belongs to
	// an aggregated position rather than a single game moment.
	GameIndex int `json:"gameIndex"`
	Ply       int `json:"ply"`

	// EvalBefore and EvalAfter are set on evaluated entries.
	EvalBefore *int `json:"evalBefore,omitempty"`
	EvalAfter  *int `json:"evalAfter,omitempty"`
}

// SkippedReason returns "" for evaluated entries and the outcome
// string otherwise.
func (d Diagnostic) SkippedReason() string {
	if d.Outcome == diag.OutcomeEvaluated {
		return ""
	}
	return d.Outcome
}

// Line is an engine line: a rendered score and the principal variation
// in UCI notation.
type Line struct {
	Moves []string `json:"moves"`
	Score string   `json:"score"`
}

func colorLetter(white bool) string {
	if white {
		return "w"
	}
	return "b"
}

func fromLeak(l opening.Leak) OpeningLeak {
	color := colorLetter(l.PlayerIsWhite)
	return OpeningLeak{
		FENBefore:      l.FENBefore,
		FENAfter:       l.FENAfter,
		PlayerMove:     l.PlayerMove,
		EngineBestMove: l.EngineBestMove,
		Tags:           l.Tags,
		ReachCount:     l.ReachCount,
		MoveCount:      l.MoveCount,
		CentipawnLoss:  l.Loss,
		EvalBefore:     l.EvalBefore,
		EvalAfter:      l.EvalAfter,
		SideToMove:     color,
		PlayerColor:    color,
	}
}

func fromTactic(t tactics.Tactic) MissedTactic {
	return MissedTactic{
		FENBefore:            t.FENBefore,
		FENAfter:             t.FENAfter,
		PlayerMove:           t.PlayerMove,
		EngineBestMove:       t.EngineBestMove,
		EvalBefore:           t.EvalBefore,
		EvalAfter:            t.EvalAfter,
		CentipawnLoss:        t.Swing,
		GameIndex:            t.GameIndex,
		PlyNumber:            t.Ply,
		Mate:                 t.Mate,
		PlayerColor:          colorLetter(t.PlayerIsWhite),
		Tags:                 t.Tags,
		TimeRemainingSeconds: t.TimeRemainingSeconds,
	}
}

func fromDiag(e diag.Entry) Diagnostic {
	return Diagnostic{
		Phase:      e.Phase,
		Outcome:    e.Outcome,
		FEN:        e.FEN,
		Key:        e.Key,
		Move:       e.Move,
		Detail:     e.Detail,
		ReachCount: e.Reach,
		GameIndex:  e.GameIndex,
		Ply:        e.Ply,
		EvalBefore: e.EvalBefore,
		EvalAfter:  e.EvalAfter,
	}
}
