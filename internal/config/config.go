// Package config holds CLI process configuration, layered from defaults,
// an optional YAML file, and CHESSLEAKS_ environment variables.
package config

import "strings"

// Config carries the analyzer settings the CLI exposes.
type Config struct {
	// EnginePath locates the UCI engine binary.
	EnginePath string `koanf:"engine_path"`

	// EngineDepth sets the search depth per evaluation.
	EngineDepth int `koanf:"engine_depth"`

	// LossThreshold is the centipawn loss an opening move must exceed
	// to be reported.
	LossThreshold int `koanf:"loss_threshold"`

	// TacticThreshold is the swing a missed tactic must exceed.
	TacticThreshold int `koanf:"tactic_threshold"`

	// MaxGames bounds how many games are fetched per run.
	MaxGames int `koanf:"max_games"`

	// MaxTactics caps reported missed tactics.
	MaxTactics int `koanf:"max_tactics"`

	// OpeningPlies is the opening window in plies.
	OpeningPlies int `koanf:"opening_plies"`

	// CacheDir enables the on-disk archive cache when set.
	CacheDir string `koanf:"cache_dir"`

	// CacheCompression picks the archive codec: zstd, gzip, or none.
	CacheCompression string `koanf:"cache_compression"`

	// LichessURL and ChessComURL override the public API hosts,
	// mainly for mirrors and tests.
	LichessURL  string `koanf:"lichess_url"`
	ChessComURL string `koanf:"chesscom_url"`

	// Verbose switches the logger to development output.
	Verbose bool `koanf:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		EnginePath:       "stockfish",
		EngineDepth:      10,
		LossThreshold:    100,
		TacticThreshold:  200,
		MaxGames:         200,
		MaxTactics:       25,
		OpeningPlies:     24,
		CacheCompression: "zstd",
	}
}

// EngineArgs splits EnginePath into the binary and its arguments, so
// settings like "lc0 --weights=x" work from a single field.
func (c *Config) EngineArgs() (string, []string) {
	fields := strings.Fields(c.EnginePath)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
