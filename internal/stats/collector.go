// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Engine metrics.
	MetricEvaluations     = "chessleaks_engine_evaluations_total"
	MetricEvalCacheHits   = "chessleaks_engine_cache_hits_total"
	MetricEvalCacheMisses = "chessleaks_engine_cache_misses_total"
	MetricEngineFailures  = "chessleaks_engine_failures_total"
	MetricEngineTimeouts  = "chessleaks_engine_timeouts_total"
	MetricEvalSeconds     = "chessleaks_engine_eval_seconds"

	// Pipeline metrics.
	MetricGamesFetched  = "chessleaks_games_fetched_total"
	MetricFetchRetries  = "chessleaks_fetch_retries_total"
	MetricLeaksFound    = "chessleaks_opening_leaks_total"
	MetricTacticsMissed = "chessleaks_missed_tactics_total"

	// Archive cache metrics.
	MetricArchiveCacheHits   = "chessleaks_archive_cache_hits_total"
	MetricArchiveCacheMisses = "chessleaks_archive_cache_misses_total"
	MetricArchiveCacheSize   = "chessleaks_archive_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
