// Package analyzerfx provides an fx module for a fully wired analyzer.
package analyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks"
	"github.com/leonfresh/chessleaks/internal/stats"
	"github.com/leonfresh/chessleaks/internal/stats/logger"
)

// Config holds configuration for the analyzer.
type Config struct {
	// EnginePath is the UCI engine binary to spawn.
	// Default is "stockfish" from PATH.
	EnginePath string

	// EngineArgs are extra arguments passed to the engine binary.
	EngineArgs []string

	// EngineCacheSize is the number of evaluations to cache in memory.
	EngineCacheSize int

	// CacheDir enables an on-disk archive cache for monthly game
	// downloads when non-empty.
	CacheDir string

	// LichessBaseURL and ChessComBaseURL override the provider APIs,
	// mainly for testing against local fixtures.
	LichessBaseURL  string
	ChessComBaseURL string
}

// Module provides a *chessleaks.Analyzer.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("analyzer",
	fx.Provide(
		newStatsCollector,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger, lc fx.Lifecycle) stats.Collector {
	c := logger.New(log.Named("chessleaks.stats"))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Flush()
			return nil
		},
	})
	return c
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *chessleaks.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	opts := []chessleaks.Option{
		chessleaks.WithLogger(p.Logger.Named("chessleaks")),
		chessleaks.WithStats(p.Collector),
		chessleaks.WithLichessBaseURL(p.Config.LichessBaseURL),
		chessleaks.WithChessComBaseURL(p.Config.ChessComBaseURL),
	}
	if p.Config.EnginePath != "" {
		opts = append(opts, chessleaks.WithEnginePath(p.Config.EnginePath, p.Config.EngineArgs...))
	}
	if p.Config.EngineCacheSize > 0 {
		opts = append(opts, chessleaks.WithEngineCacheSize(p.Config.EngineCacheSize))
	}
	if p.Config.CacheDir != "" {
		opt, err := chessleaks.WithArchiveCache(p.Config.CacheDir)
		if err != nil {
			return Result{}, err
		}
		opts = append(opts, opt)
	}

	analyzer, err := chessleaks.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return analyzer.Close()
		},
	})

	return Result{Analyzer: analyzer}, nil
}
