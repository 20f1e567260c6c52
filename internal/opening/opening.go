// Package opening finds habitual opening mistakes by aggregating the
// positions a player keeps reaching and scoring their usual reply.
package opening

import (
	"context"
	"fmt"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/board"
	"github.com/leonfresh/chessleaks/internal/classify"
	"github.com/leonfresh/chessleaks/internal/diag"
	"github.com/leonfresh/chessleaks/internal/engine"
	"github.com/leonfresh/chessleaks/internal/stats"
)

// minReach is how many games must reach a position before it counts as
// part of the player's repertoire.
const minReach = 3

// Defaults for zero Config fields.
const (
	defaultMaxPlies  = 24
	defaultThreshold = 100
	defaultDepth     = 10
)

// Oracle evaluates positions. Satisfied by engine.Client.
type Oracle interface {
	Evaluate(ctx context.Context, fen string, depth int) (*engine.Evaluation, error)
}

// ProgressFunc reports aggregation and evaluation progress.
type ProgressFunc func(current, total int)

// Config holds aggregation settings.
type Config struct {
	// MaxPlies bounds how deep into each game positions are collected.
	MaxPlies int

	// Threshold is the centipawn loss a habitual move must exceed to be
	// reported.
	Threshold int

	// Depth is the engine search depth.
	Depth int

	Logger    *zap.Logger
	Collector stats.Collector
}

// Game is one game from the player's perspective.
type Game struct {
	// Tokens are the moves in SAN or UCI, in play order.
	Tokens []string

	PlayerIsWhite bool
}

// Leak is a habitual opening move that loses meaningful evaluation.
type Leak struct {
	Key            string
	FENBefore      string
	FENAfter       string
	PlayerMove     string // in the game's notation
	EngineBestMove string // UCI
	ReachCount     int
	MoveCount      int
	EvalBefore     int // centipawns, player's perspective
	EvalAfter      int
	Loss           int
	PlayerIsWhite  bool
	Tags           []string
}

// Result is the outcome of evaluating the aggregated repertoire.
type Result struct {
	Leaks       []Leak
	Diagnostics []diag.Entry

	// RepeatedPositions is how many positions recurred often enough to
	// be evaluated.
	RepeatedPositions int
}

// bucket aggregates one position across games.
type bucket struct {
	key           string
	fen           string // full FEN as first observed
	reach         int
	moves         map[string]int
	moveOrder     []string // tokens in first-seen order
	playerIsWhite bool
}

// plurality returns the most played reply. Ties keep the earliest seen.
func (b *bucket) plurality() (string, int) {
	var tok string
	count := 0
	for _, t := range b.moveOrder {
		if c := b.moves[t]; c > count {
			tok, count = t, c
		}
	}
	return tok, count
}

// Aggregator collects positions from games, then evaluates the habitual
// replies with the engine.
type Aggregator struct {
	cfg    Config
	oracle Oracle

	buckets map[string]*bucket
	order   []string // bucket keys in first-seen order
	diags   []diag.Entry
}

// NewAggregator creates an aggregator. Zero config fields use defaults.
func NewAggregator(oracle Oracle, cfg Config) *Aggregator {
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = defaultMaxPlies
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.Depth <= 0 {
		cfg.Depth = defaultDepth
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Collector == nil {
		cfg.Collector = stats.NewNoop()
	}
	return &Aggregator{
		cfg:     cfg,
		oracle:  oracle,
		buckets: make(map[string]*bucket),
	}
}

// Collect walks each game's opening window and buckets the positions
// where the player was to move. Games with unplayable moves are truncated
// at the offending ply and recorded as diagnostics.
func (a *Aggregator) Collect(games []Game, progress ProgressFunc) {
	for gi, g := range games {
		a.collectGame(gi, g)
		if progress != nil {
			progress(gi+1, len(games))
		}
	}
}

func (a *Aggregator) collectGame(gi int, g Game) {
	visited := 0
	err := board.Walk(g.Tokens, func(ply int, before *chess.Position, mv *chess.Move, after *chess.Position) bool {
		visited++
		if ply >= a.cfg.MaxPlies {
			return false
		}
		if (before.Turn() == chess.White) != g.PlayerIsWhite {
			return true
		}

		key, err := board.Key(before)
		if err != nil {
			return true
		}
		b := a.buckets[key]
		if b == nil {
			b = &bucket{
				key:           key,
				fen:           before.String(),
				moves:         make(map[string]int),
				playerIsWhite: g.PlayerIsWhite,
			}
			a.buckets[key] = b
			a.order = append(a.order, key)
		}
		b.reach++
		token := g.Tokens[ply]
		if _, seen := b.moves[token]; !seen {
			b.moveOrder = append(b.moveOrder, token)
		}
		b.moves[token]++
		return true
	})
	if err != nil {
		move := ""
		if visited < len(g.Tokens) {
			move = g.Tokens[visited]
		}
		a.logger().Debug("truncating game at invalid move",
			zap.Int("game", gi),
			zap.Int("ply", visited),
			zap.String("move", move))
		a.diags = append(a.diags, diag.Entry{
			Phase:     diag.PhaseAggregate,
			Outcome:   diag.OutcomeInvalidMove,
			Move:      move,
			Detail:    err.Error(),
			GameIndex: gi,
			Ply:       visited,
		})
	}
}

// Evaluate scores every repertoire position's habitual reply and returns
// the moves that leak evaluation. Engine failures skip the position and
// are recorded as diagnostics; only context cancellation aborts.
func (a *Aggregator) Evaluate(ctx context.Context, progress ProgressFunc) (*Result, error) {
	res := &Result{Diagnostics: a.diags}

	var retained []*bucket
	for _, key := range a.order {
		if b := a.buckets[key]; b.reach >= minReach {
			retained = append(retained, b)
		}
	}
	res.RepeatedPositions = len(retained)

	for i, b := range retained {
		if err := a.evaluateBucket(ctx, b, res); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i+1, len(retained))
		}
	}
	return res, nil
}

func (a *Aggregator) evaluateBucket(ctx context.Context, b *bucket, res *Result) error {
	token, count := b.plurality()

	evBefore, err := a.oracle.Evaluate(ctx, b.fen, a.cfg.Depth)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Diagnostics = append(res.Diagnostics, a.missingEval(b, token, err))
		return nil
	}
	if evBefore == nil {
		res.Diagnostics = append(res.Diagnostics, a.missingEval(b, token, nil))
		return nil
	}

	pos, err := board.PositionFromFEN(b.fen)
	if err != nil {
		return fmt.Errorf("rebuilding position: %w", err)
	}
	mv, next, err := board.Apply(pos, token)
	if err != nil {
		// The token applied during collection, so this cannot normally fail.
		res.Diagnostics = append(res.Diagnostics, diag.Entry{
			Phase:     diag.PhaseEval,
			Outcome:   diag.OutcomeInvalidMove,
			FEN:       b.fen,
			Key:       b.key,
			Move:      token,
			Detail:    err.Error(),
			Reach:     b.reach,
			GameIndex: -1,
			Ply:       -1,
		})
		return nil
	}
	fenAfter := next.String()

	evAfter, err := a.oracle.Evaluate(ctx, fenAfter, a.cfg.Depth)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Diagnostics = append(res.Diagnostics, a.missingEval(b, token, err))
		return nil
	}
	if evAfter == nil {
		res.Diagnostics = append(res.Diagnostics, a.missingEval(b, token, nil))
		return nil
	}

	// Both scores from the player's perspective: the player is to move
	// before, the opponent after.
	before := evBefore.Score()
	after := -evAfter.Score()
	loss := before - after

	res.Diagnostics = append(res.Diagnostics, diag.Entry{
		Phase:      diag.PhaseEval,
		Outcome:    diag.OutcomeEvaluated,
		FEN:        b.fen,
		Key:        b.key,
		Move:       token,
		Reach:      b.reach,
		GameIndex:  -1,
		Ply:        -1,
		EvalBefore: &before,
		EvalAfter:  &after,
	})

	if loss <= a.cfg.Threshold {
		return nil
	}
	if evBefore.BestMove != "" && mv.String() == evBefore.BestMove {
		// The habitual move is the engine's own choice; the apparent
		// loss is search noise.
		return nil
	}

	var bestMv *chess.Move
	if evBefore.BestMove != "" {
		if m, err := board.Decode(pos, evBefore.BestMove); err == nil {
			bestMv = m
		}
	}

	res.Leaks = append(res.Leaks, Leak{
		Key:            b.key,
		FENBefore:      b.fen,
		FENAfter:       fenAfter,
		PlayerMove:     token,
		EngineBestMove: evBefore.BestMove,
		ReachCount:     b.reach,
		MoveCount:      count,
		EvalBefore:     before,
		EvalAfter:      after,
		Loss:           loss,
		PlayerIsWhite:  b.playerIsWhite,
		Tags:           classify.LeakTags(mv, bestMv, count, b.reach),
	})
	a.cfg.Collector.IncCounter(stats.MetricLeaksFound, 1)
	return nil
}

func (a *Aggregator) missingEval(b *bucket, token string, err error) diag.Entry {
	detail := "engine returned no score"
	if err != nil {
		detail = err.Error()
	}
	return diag.Entry{
		Phase:     diag.PhaseEval,
		Outcome:   diag.OutcomeMissingEval,
		FEN:       b.fen,
		Key:       b.key,
		Move:      token,
		Detail:    detail,
		Reach:     b.reach,
		GameIndex: -1,
		Ply:       -1,
	}
}

func (a *Aggregator) logger() *zap.Logger {
	return a.cfg.Logger
}
