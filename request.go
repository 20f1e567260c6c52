package chessleaks

import "fmt"

// Source selects the game provider.
type Source string

// Supported sources.
const (
	SourceLichess  Source = "lichess"
	SourceChessCom Source = "chesscom"
)

// Mode selects which analysis passes run.
type Mode string

// Supported modes.
const (
	ModeOpenings Mode = "openings"
	ModeTactics  Mode = "tactics"
	ModeBoth     Mode = "both"
)

// Defaults applied to unset Request fields.
const (
	DefaultMaxGames        = 200
	DefaultOpeningPlies    = 24
	DefaultLossThreshold   = 100
	DefaultTacticThreshold = 200
	DefaultEngineDepth     = 10
	DefaultMaxTactics      = 25
)

// Clamp bounds for request fields.
const (
	minGames = 1
	maxGames = 1000
	minPlies = 4
	maxPlies = 60
	minDepth = 6
	maxDepth = 24
)

// Request describes one analysis run. The zero value of every field
// except Player falls back to a documented default.
type Request struct {
	// Player is the account name on the chosen source.
	Player string

	// Source picks the game provider. Defaults to SourceLichess.
	Source Source

	// Mode picks the analysis passes. Defaults to ModeBoth.
	Mode Mode

	// MaxGames bounds how many games are fetched, clamped to [1, 1000].
	MaxGames int

	// MaxOpeningPlies is the opening window in plies, clamped to [4, 60].
	MaxOpeningPlies int

	// CentipawnLossThreshold is the loss an opening habit must strictly
	// exceed to be reported.
	CentipawnLossThreshold int

	// TacticLossThreshold is the swing a missed tactic must strictly
	// exceed to be reported.
	TacticLossThreshold int

	// EngineDepth is the search depth per evaluation, clamped to [6, 24].
	EngineDepth int

	// MaxTactics caps the reported tactics list. The true total found
	// is always reported.
	MaxTactics int

	// OnProgress receives phase updates during the run. Optional. A
	// panicking callback is contained and never aborts the run.
	OnProgress ProgressFunc
}

// withDefaults fills unset fields and clamps out-of-range values.
func (r Request) withDefaults() Request {
	if r.Source == "" {
		r.Source = SourceLichess
	}
	if r.Mode == "" {
		r.Mode = ModeBoth
	}
	r.MaxGames = clamp(r.MaxGames, DefaultMaxGames, minGames, maxGames)
	r.MaxOpeningPlies = clamp(r.MaxOpeningPlies, DefaultOpeningPlies, minPlies, maxPlies)
	r.EngineDepth = clamp(r.EngineDepth, DefaultEngineDepth, minDepth, maxDepth)
	if r.CentipawnLossThreshold <= 0 {
		r.CentipawnLossThreshold = DefaultLossThreshold
	}
	if r.TacticLossThreshold <= 0 {
		r.TacticLossThreshold = DefaultTacticThreshold
	}
	if r.MaxTactics <= 0 {
		r.MaxTactics = DefaultMaxTactics
	}
	return r
}

func (r Request) validate() error {
	if r.Player == "" {
		return ErrNoPlayer
	}
	switch r.Source {
	case SourceLichess, SourceChessCom:
	default:
		return fmt.Errorf("chessleaks: unknown source %q", r.Source)
	}
	switch r.Mode {
	case ModeOpenings, ModeTactics, ModeBoth:
	default:
		return fmt.Errorf("chessleaks: unknown mode %q", r.Mode)
	}
	return nil
}

func clamp(v, def, floor, ceil int) int {
	if v <= 0 {
		v = def
	}
	if v < floor {
		return floor
	}
	if v > ceil {
		return ceil
	}
	return v
}
