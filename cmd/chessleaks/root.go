package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags.
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chessleaks",
	Short: "Find repeated opening mistakes and missed tactics in your games",
	Long: `Chessleaks fetches your recent games from lichess or chess.com and
grades them with a local UCI engine. It reports the opening moves you
habitually play that leak evaluation, and the forcing wins you missed.

A stockfish binary on PATH (or named via --engine) is required.

Examples:
  # Analyze recent lichess games
  chessleaks analyze magnus

  # Analyze chess.com games, tactics only, as a markdown report
  chessleaks analyze hikaru --source chesscom --mode tactics --format markdown

  # Inspect the archive cache
  chessleaks cache --cache-dir ~/.cache/chessleaks`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// newLogger builds the process logger. Verbose enables development
// output on stderr; otherwise logging stays silent.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}
