// Package chessleaks builds leak reports from a player's online games:
// recurring opening mistakes and overlooked tactical wins, graded by a
// local UCI engine.
//
// Example usage:
//
//	analyzer, err := chessleaks.New(
//	    chessleaks.WithEnginePath("stockfish"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	report, err := analyzer.Analyze(ctx, chessleaks.Request{
//	    Player: "hikaru",
//	    Source: chessleaks.SourceChessCom,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d opening leaks, %d missed tactics\n",
//	    len(report.Leaks), len(report.MissedTactics))
package chessleaks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/engine"
	"github.com/leonfresh/chessleaks/internal/gamecache"
	"github.com/leonfresh/chessleaks/internal/gamecache/cached"
	"github.com/leonfresh/chessleaks/internal/opening"
	"github.com/leonfresh/chessleaks/internal/source"
	"github.com/leonfresh/chessleaks/internal/source/chesscom"
	"github.com/leonfresh/chessleaks/internal/source/lichess"
	"github.com/leonfresh/chessleaks/internal/stats"
	"github.com/leonfresh/chessleaks/internal/tactics"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("chessleaks: analyzer closed")

	// ErrNoPlayer indicates the request named no player.
	ErrNoPlayer = errors.New("chessleaks: no player specified")
)

// defaultLineLength bounds BestLine variations when no limit is given.
const defaultLineLength = 10

// oracle is the engine surface the analysis passes consume.
type oracle interface {
	Evaluate(ctx context.Context, fen string, depth int) (*engine.Evaluation, error)
	PrincipalVariation(ctx context.Context, fen string, depth, maxPlies int) (*engine.Line, error)
}

// Analyzer runs leak analyses against a player's fetched games.
// An Analyzer is safe for concurrent use by multiple goroutines; all
// engine traffic funnels through one serialized request queue.
type Analyzer struct {
	oracle       oracle
	engine       *engine.Client // nil when an oracle was injected
	fetchers     map[source.Kind]source.Fetcher
	archive      gamecache.Store // nil without an archive cache
	archiveOwned bool
	stats        stats.Collector
	logger       *zap.Logger
	closed       atomic.Bool
}

// New creates a new Analyzer with the given options.
// If no options are provided, sensible defaults are used: a stockfish
// binary from PATH, no archive cache, no-op logging and metrics. The
// engine process is not spawned until the first evaluation.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	a := &Analyzer{
		fetchers:     cfg.fetchers,
		archiveOwned: cfg.archiveOwned,
		stats:        cfg.stats,
		logger:       cfg.logger,
	}

	a.oracle = cfg.oracle
	if a.oracle == nil {
		client, err := engine.New(engine.NewProcess(cfg.enginePath, cfg.engineArgs...), engine.Config{
			CacheSize: cfg.engineCacheSize,
			Logger:    cfg.logger,
			Collector: cfg.stats,
		})
		if err != nil {
			return nil, fmt.Errorf("creating engine client: %w", err)
		}
		a.engine = client
		a.oracle = client
	}

	if cfg.archive != nil {
		wrapped, err := cached.New(cfg.archive, archiveCacheCapacity, cfg.stats)
		if err != nil {
			return nil, fmt.Errorf("wrapping archive cache: %w", err)
		}
		a.archive = wrapped
	}

	httpClient := source.NewClient(
		source.WithLogger(cfg.logger),
		source.WithCollector(cfg.stats),
	)
	if _, ok := a.fetchers[source.Lichess]; !ok {
		a.fetchers[source.Lichess] = lichess.New(httpClient, lichess.Config{
			BaseURL: cfg.lichessBaseURL,
			Logger:  cfg.logger,
		})
	}
	if _, ok := a.fetchers[source.ChessCom]; !ok {
		a.fetchers[source.ChessCom] = chesscom.New(httpClient, chesscom.Config{
			BaseURL: cfg.chesscomBaseURL,
			Cache:   a.archive,
			Logger:  cfg.logger,
		})
	}

	a.logger.Debug("analyzer initialized",
		zap.String("engine", cfg.enginePath),
		zap.Bool("archiveCache", a.archive != nil),
	)

	return a, nil
}

// Analyze fetches the player's games and builds a leak report.
//
// Remote source failures abort the run with an error wrapping
// source.ErrUnavailable. Engine failures never do: affected positions
// are skipped and recorded in Report.Diagnostics, so an unreachable
// engine yields an empty-but-valid report.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:         uuid.NewString(),
		Player:        req.Player,
		Source:        req.Source,
		Mode:          req.Mode,
		Leaks:         []OpeningLeak{},
		MissedTactics: []MissedTactic{},
		Diagnostics:   []Diagnostic{},
	}

	progress := safeProgress(req.OnProgress, a.logger)
	logger := a.logger.With(
		zap.String("runId", report.RunID),
		zap.String("player", req.Player),
		zap.String("source", string(req.Source)),
	)

	fetcher, ok := a.fetchers[source.Kind(req.Source)]
	if !ok {
		return nil, fmt.Errorf("chessleaks: no fetcher for source %q", req.Source)
	}

	progress(Progress{Phase: PhaseFetch, Message: "fetching games"})
	games, err := fetcher.FetchGames(ctx, req.Player, req.MaxGames, func(current, total int) {
		progress(Progress{Phase: PhaseFetch, Message: "fetching games", Current: current, Total: total})
	})
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}
	a.stats.IncCounter(stats.MetricGamesFetched, int64(len(games)))
	report.GamesAnalyzed = len(games)

	progress(Progress{Phase: PhaseParse, Message: "preparing games"})
	openingGames := make([]opening.Game, len(games))
	tacticGames := make([]tactics.Game, len(games))
	for i, g := range games {
		white := source.PlaysWhite(g, req.Player)
		openingGames[i] = opening.Game{Tokens: g.MoveTokens, PlayerIsWhite: white}
		tacticGames[i] = tactics.Game{
			Tokens:        g.MoveTokens,
			PlayerIsWhite: white,
			ClocksCentis:  g.ClocksCentis,
		}
		progress(Progress{Phase: PhaseParse, Message: "preparing games", Current: i + 1, Total: len(games)})
	}

	if req.Mode != ModeTactics {
		agg := opening.NewAggregator(a.oracle, opening.Config{
			MaxPlies:  req.MaxOpeningPlies,
			Threshold: req.CentipawnLossThreshold,
			Depth:     req.EngineDepth,
			Logger:    logger,
			Collector: a.stats,
		})

		progress(Progress{Phase: PhaseAggregate, Message: "aggregating opening positions"})
		agg.Collect(openingGames, func(current, total int) {
			progress(Progress{Phase: PhaseAggregate, Message: "aggregating opening positions", Current: current, Total: total})
		})

		progress(Progress{Phase: PhaseEval, Message: "evaluating repeated positions"})
		res, err := agg.Evaluate(ctx, func(current, total int) {
			progress(Progress{Phase: PhaseEval, Message: "evaluating repeated positions", Current: current, Total: total})
		})
		if err != nil {
			return nil, fmt.Errorf("evaluating openings: %w", err)
		}

		report.RepeatedPositionCount = res.RepeatedPositions
		for _, l := range res.Leaks {
			report.Leaks = append(report.Leaks, fromLeak(l))
		}
		for _, d := range res.Diagnostics {
			report.Diagnostics = append(report.Diagnostics, fromDiag(d))
		}
	}

	if req.Mode != ModeOpenings {
		scanner := tactics.NewScanner(a.oracle, tactics.Config{
			Threshold:  req.TacticLossThreshold,
			MaxTactics: req.MaxTactics,
			Depth:      req.EngineDepth,
			Logger:     logger,
			Collector:  a.stats,
		})

		progress(Progress{Phase: PhaseTactics, Message: "scanning for missed tactics"})
		res, err := scanner.Scan(ctx, tacticGames, func(current, total int) {
			progress(Progress{Phase: PhaseTactics, Message: "scanning for missed tactics", Current: current, Total: total})
		})
		if err != nil {
			return nil, fmt.Errorf("scanning tactics: %w", err)
		}

		report.TacticsFound = res.Total
		for _, t := range res.Tactics {
			report.MissedTactics = append(report.MissedTactics, fromTactic(t))
		}
		for _, d := range res.Diagnostics {
			report.Diagnostics = append(report.Diagnostics, fromDiag(d))
		}
	}

	sort.SliceStable(report.Leaks, func(i, j int) bool {
		return report.Leaks[i].CentipawnLoss > report.Leaks[j].CentipawnLoss
	})
	sort.SliceStable(report.MissedTactics, func(i, j int) bool {
		return report.MissedTactics[i].CentipawnLoss > report.MissedTactics[j].CentipawnLoss
	})
	report.Summary = summarize(report.Leaks, report.MissedTactics)

	progress(Progress{
		Phase: PhaseDone,
		Message: fmt.Sprintf("%d games, %d leaks, %d missed tactics",
			report.GamesAnalyzed, len(report.Leaks), len(report.MissedTactics)),
	})
	logger.Info("analysis complete",
		zap.Int("games", report.GamesAnalyzed),
		zap.Int("leaks", len(report.Leaks)),
		zap.Int("tactics", len(report.MissedTactics)),
		zap.Int("diagnostics", len(report.Diagnostics)),
	)

	return report, nil
}

// BestLine returns the engine's principal variation from a position,
// for explaining a reported leak or tactic. Returns (nil, nil) when
// the engine produced no line.
func (a *Analyzer) BestLine(ctx context.Context, fenStr string, depth, maxPlies int) (*Line, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	depth = clamp(depth, DefaultEngineDepth, minDepth, maxDepth)
	if maxPlies <= 0 {
		maxPlies = defaultLineLength
	}

	line, err := a.oracle.PrincipalVariation(ctx, fenStr, depth, maxPlies)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, nil
	}
	return &Line{Moves: line.PV, Score: line.String()}, nil
}

// Close releases the engine process and any owned archive cache.
// After Close, the analyzer should not be used.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			return fmt.Errorf("closing engine: %w", err)
		}
	}
	if a.archive != nil && a.archiveOwned {
		if err := a.archive.Close(); err != nil {
			return fmt.Errorf("closing archive cache: %w", err)
		}
	}
	return nil
}
