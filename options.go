package chessleaks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/codec/zstdcodec"
	"github.com/leonfresh/chessleaks/internal/gamecache"
	"github.com/leonfresh/chessleaks/internal/gamecache/disk"
	"github.com/leonfresh/chessleaks/internal/source"
	"github.com/leonfresh/chessleaks/internal/stats"
)

// archiveCacheCapacity bounds the in-memory layer over the archive store.
const archiveCacheCapacity = 64

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	logger          *zap.Logger
	stats           stats.Collector
	enginePath      string
	engineArgs      []string
	engineCacheSize int
	oracle          oracle
	fetchers        map[source.Kind]source.Fetcher
	lichessBaseURL  string
	chesscomBaseURL string
	archive         gamecache.Store
	archiveOwned    bool
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		logger:          zap.NewNop(),
		stats:           stats.NewNoop(),
		enginePath:      "stockfish",
		engineCacheSize: 4096,
		fetchers:        make(map[source.Kind]source.Fetcher),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithEnginePath sets the UCI engine binary and its arguments.
// Default is "stockfish" found on PATH. The process is spawned lazily
// on the first evaluation.
func WithEnginePath(path string, args ...string) Option {
	return optionFunc(func(o *options) {
		o.enginePath = path
		o.engineArgs = args
	})
}

// WithEngineCacheSize sets how many evaluations the engine client
// caches. Default is 4096.
func WithEngineCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.engineCacheSize = n
		}
	})
}

// WithLichessBaseURL overrides the lichess API host, mainly for
// mirrors and tests.
func WithLichessBaseURL(u string) Option {
	return optionFunc(func(o *options) {
		o.lichessBaseURL = u
	})
}

// WithChessComBaseURL overrides the chess.com API host.
func WithChessComBaseURL(u string) Option {
	return optionFunc(func(o *options) {
		o.chesscomBaseURL = u
	})
}

// WithFetcher replaces the fetcher for one source, for custom game
// providers.
func WithFetcher(kind source.Kind, f source.Fetcher) Option {
	return optionFunc(func(o *options) {
		o.fetchers[kind] = f
	})
}

// WithArchiveCache persists fetched monthly archives under dir,
// compressed with zstd, so repeat runs skip the network for completed
// months. The analyzer owns the store and closes it on Close.
func WithArchiveCache(dir string) (Option, error) {
	st, err := disk.New(dir, zstdcodec.New())
	if err != nil {
		return nil, fmt.Errorf("creating archive cache: %w", err)
	}
	return optionFunc(func(o *options) {
		o.archive = st
		o.archiveOwned = true
	}), nil
}

// WithArchiveStore uses a caller-provided archive store. The caller
// keeps ownership and closes it.
func WithArchiveStore(s gamecache.Store) Option {
	return optionFunc(func(o *options) {
		o.archive = s
		o.archiveOwned = false
	})
}

// withOracle injects an evaluation backend, replacing the engine
// client. Used by tests.
func withOracle(o oracle) Option {
	return optionFunc(func(opts *options) {
		opts.oracle = o
	})
}
