// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the application.
const (
	// Engine metrics.
	MetricEngineStarts       = "uciboard_engine_starts_total"
	MetricEngineFailures     = "uciboard_engine_failures_total"
	MetricEngineQueries      = "uciboard_engine_queries_total"
	MetricEngineQuerySeconds = "uciboard_engine_query_seconds"
	MetricAnalysisInfos      = "uciboard_analysis_infos_total"
	MetricLegalCacheHits     = "uciboard_legal_cache_hits_total"
	MetricLegalCacheMisses   = "uciboard_legal_cache_misses_total"

	// Game metrics.
	MetricGamesActive   = "uciboard_games_active"
	MetricGamesCreated  = "uciboard_games_created_total"
	MetricMovesPlayed   = "uciboard_moves_played_total"
	MetricMovesRejected = "uciboard_moves_rejected_total"
	MetricGamesFinished = "uciboard_games_finished_total"
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
