// Package tactics scans games for moments where the player overlooked a
// forcing continuation the engine finds decisively better.
package tactics

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/board"
	"github.com/leonfresh/chessleaks/internal/classify"
	"github.com/leonfresh/chessleaks/internal/diag"
	"github.com/leonfresh/chessleaks/internal/engine"
	"github.com/leonfresh/chessleaks/internal/stats"
)

// Defaults for zero Config fields.
const (
	defaultThreshold   = 200
	defaultLostMargin  = 300
	defaultMaxTactics  = 25
	defaultDepth       = 10
	defaultLowTimeSecs = 15
)

// Oracle evaluates positions. Satisfied by engine.Client.
type Oracle interface {
	Evaluate(ctx context.Context, fen string, depth int) (*engine.Evaluation, error)
}

// ProgressFunc reports scan progress in games.
type ProgressFunc func(current, total int)

// Config holds scanner settings.
type Config struct {
	// Threshold is the evaluation swing a missed move must exceed.
	Threshold int

	// LostMargin skips positions where the player is already lost by at
	// least this much; a missed tactic there changes nothing.
	LostMargin int

	// MaxTactics caps how many findings are returned. The total count is
	// still reported.
	MaxTactics int

	// Depth is the engine search depth.
	Depth int

	// LowTimeSecs marks findings made with at most this many seconds on
	// the clock.
	LowTimeSecs int

	Logger    *zap.Logger
	Collector stats.Collector
}

// Game is one game from the player's perspective.
type Game struct {
	// Tokens are the moves in SAN or UCI, in play order.
	Tokens []string

	PlayerIsWhite bool

	// ClocksCentis holds centiseconds remaining after each ply, aligned
	// with Tokens. Nil when unknown.
	ClocksCentis []int
}

// Tactic is one overlooked forcing opportunity.
type Tactic struct {
	Key            string
	FENBefore      string
	FENAfter       string
	GameIndex      int
	Ply            int
	PlayerMove     string // in the game's notation
	EngineBestMove string // UCI
	EvalBefore     int    // centipawns, player's perspective
	EvalAfter      int
	Swing          int
	Mate           bool
	PlayerIsWhite  bool

	// TimeRemainingSeconds is the player's clock after the move, when
	// the source recorded clocks.
	TimeRemainingSeconds *float64

	Tags []string
}

// Result is the outcome of a scan.
type Result struct {
	// Tactics holds up to MaxTactics findings in game order.
	Tactics []Tactic

	// Total counts all findings, including those beyond the cap.
	Total int

	Diagnostics []diag.Entry
}

// Scanner finds missed tactics in games.
type Scanner struct {
	cfg    Config
	oracle Oracle
}

// NewScanner creates a scanner. Zero config fields use defaults.
func NewScanner(oracle Oracle, cfg Config) *Scanner {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.LostMargin <= 0 {
		cfg.LostMargin = defaultLostMargin
	}
	if cfg.MaxTactics <= 0 {
		cfg.MaxTactics = defaultMaxTactics
	}
	if cfg.Depth <= 0 {
		cfg.Depth = defaultDepth
	}
	if cfg.LowTimeSecs <= 0 {
		cfg.LowTimeSecs = defaultLowTimeSecs
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Collector == nil {
		cfg.Collector = stats.NewNoop()
	}
	return &Scanner{cfg: cfg, oracle: oracle}
}

// Scan walks every game and reports positions where the engine's best
// move is forcing, differs from the played move, and the played move
// gave up more than the threshold. A position is reported at most once
// across all games. Engine failures skip the position; only context
// cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, games []Game, progress ProgressFunc) (*Result, error) {
	res := &Result{}
	seen := make(map[string]bool)

	for gi, g := range games {
		if err := s.scanGame(ctx, gi, g, seen, res); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(gi+1, len(games))
		}
	}
	return res, nil
}

func (s *Scanner) scanGame(ctx context.Context, gi int, g Game, seen map[string]bool, res *Result) error {
	var abort error
	visited := 0
	err := board.Walk(g.Tokens, func(ply int, before *chess.Position, mv *chess.Move, after *chess.Position) bool {
		visited++
		if (before.Turn() == chess.White) != g.PlayerIsWhite {
			return true
		}
		// Cheap prefilter: no forcing move available means no tactic to miss.
		if !board.AnyForcing(before) {
			return true
		}
		key, err := board.Key(before)
		if err != nil || seen[key] {
			return true
		}
		abort = s.scanPly(ctx, gi, ply, g, key, before, mv, after, seen, res)
		return abort == nil
	})
	if abort != nil {
		return abort
	}
	if err != nil {
		move := ""
		if visited < len(g.Tokens) {
			move = g.Tokens[visited]
		}
		s.cfg.Logger.Debug("truncating game at invalid move",
			zap.Int("game", gi),
			zap.Int("ply", visited),
			zap.String("move", move))
		res.Diagnostics = append(res.Diagnostics, diag.Entry{
			Phase:     diag.PhaseTactics,
			Outcome:   diag.OutcomeInvalidMove,
			Move:      move,
			Detail:    err.Error(),
			GameIndex: gi,
			Ply:       visited,
		})
	}
	return nil
}

func (s *Scanner) scanPly(ctx context.Context, gi, ply int, g Game, key string, before *chess.Position, mv *chess.Move, after *chess.Position, seen map[string]bool, res *Result) error {
	fenBefore := before.String()
	token := g.Tokens[ply]

	evBefore, err := s.oracle.Evaluate(ctx, fenBefore, s.cfg.Depth)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Diagnostics = append(res.Diagnostics, s.missingEval(gi, ply, fenBefore, key, token, err))
		return nil
	}
	if evBefore == nil {
		res.Diagnostics = append(res.Diagnostics, s.missingEval(gi, ply, fenBefore, key, token, nil))
		return nil
	}

	scoreBefore := evBefore.Score()
	if scoreBefore <= -s.cfg.LostMargin {
		// Already lost; skip without spending a second evaluation.
		return nil
	}

	best := evBefore.BestMove
	if best == "" {
		res.Diagnostics = append(res.Diagnostics,
			s.missingEval(gi, ply, fenBefore, key, token, errors.New("engine returned no best move")))
		return nil
	}
	bestMv, err := board.Decode(before, best)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics,
			s.missingEval(gi, ply, fenBefore, key, token, fmt.Errorf("undecodable best move %q: %v", best, err)))
		return nil
	}

	// Only a forcing alternative the player did not play counts.
	if !board.Forcing(bestMv) {
		return nil
	}
	if bestMv.String() == mv.String() {
		return nil
	}

	evAfter, err := s.oracle.Evaluate(ctx, after.String(), s.cfg.Depth)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Diagnostics = append(res.Diagnostics, s.missingEval(gi, ply, fenBefore, key, token, err))
		return nil
	}
	if evAfter == nil {
		res.Diagnostics = append(res.Diagnostics, s.missingEval(gi, ply, fenBefore, key, token, nil))
		return nil
	}

	scoreAfter := -evAfter.Score()
	swing := scoreBefore - scoreAfter

	res.Diagnostics = append(res.Diagnostics, diag.Entry{
		Phase:      diag.PhaseTactics,
		Outcome:    diag.OutcomeEvaluated,
		FEN:        fenBefore,
		Key:        key,
		Move:       token,
		GameIndex:  gi,
		Ply:        ply,
		EvalBefore: &scoreBefore,
		EvalAfter:  &scoreAfter,
	})

	if swing <= s.cfg.Threshold {
		return nil
	}

	seen[key] = true
	res.Total++
	s.cfg.Collector.IncCounter(stats.MetricTacticsMissed, 1)
	if len(res.Tactics) >= s.cfg.MaxTactics {
		return nil
	}

	mate := evBefore.Mate != nil && *evBefore.Mate > 0
	var remaining *float64
	lowTime := false
	if ply < len(g.ClocksCentis) {
		secs := float64(g.ClocksCentis[ply]) / 100.0
		remaining = &secs
		lowTime = secs <= float64(s.cfg.LowTimeSecs)
	}

	res.Tactics = append(res.Tactics, Tactic{
		Key:                  key,
		FENBefore:            fenBefore,
		FENAfter:             after.String(),
		GameIndex:            gi,
		Ply:                  ply,
		PlayerMove:           token,
		EngineBestMove:       best,
		EvalBefore:           scoreBefore,
		EvalAfter:            scoreAfter,
		Swing:                swing,
		Mate:                 mate,
		PlayerIsWhite:        g.PlayerIsWhite,
		TimeRemainingSeconds: remaining,
		Tags:                 classify.TacticTags(swing, mate, lowTime),
	})
	return nil
}

func (s *Scanner) missingEval(gi, ply int, fenStr, key, token string, err error) diag.Entry {
	detail := "engine returned no score"
	if err != nil {
		detail = err.Error()
	}
	return diag.Entry{
		Phase:     diag.PhaseTactics,
		Outcome:   diag.OutcomeMissingEval,
		FEN:       fenStr,
		Key:       key,
		Move:      token,
		Detail:    detail,
		GameIndex: gi,
		Ply:       ply,
	}
}
