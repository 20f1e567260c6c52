// Package enginefx provides an fx module for a UCI engine client.
package enginefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/engine"
	"github.com/leonfresh/chessleaks/internal/stats"
	"github.com/leonfresh/chessleaks/internal/stats/logger"
)

// Config holds configuration for the engine client.
type Config struct {
	// EnginePath is the UCI engine binary to spawn.
	// Default is "stockfish" from PATH.
	EnginePath string

	// EngineArgs are extra arguments passed to the engine binary.
	EngineArgs []string

	// CacheSize is the number of evaluations to cache in memory.
	// Default is 4096.
	CacheSize int
}

// Module provides a *engine.Client backed by a local engine process.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("engine",
	fx.Provide(
		newStatsCollector,
		newClient,
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

// Params holds dependencies for creating the engine client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided engine client.
type Result struct {
	fx.Out

	Client *engine.Client
}

func newClient(p Params) (Result, error) {
	path := p.Config.EnginePath
	if path == "" {
		path = "stockfish"
	}

	client, err := engine.New(engine.NewProcess(path, p.Config.EngineArgs...), engine.Config{
		CacheSize: p.Config.CacheSize,
		Logger:    p.Logger.Named("engine"),
		Collector: p.Collector,
	})
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
