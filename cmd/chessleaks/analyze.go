package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leonfresh/chessleaks"
	"github.com/leonfresh/chessleaks/internal/codec"
	"github.com/leonfresh/chessleaks/internal/codec/gzipcodec"
	"github.com/leonfresh/chessleaks/internal/codec/noopcodec"
	"github.com/leonfresh/chessleaks/internal/codec/zstdcodec"
	"github.com/leonfresh/chessleaks/internal/config"
	"github.com/leonfresh/chessleaks/internal/gamecache/disk"
	"github.com/leonfresh/chessleaks/internal/render"
	statslogger "github.com/leonfresh/chessleaks/internal/stats/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [player]",
	Short: "Analyze a player's recent games for leaks",
	Long: `Fetch a player's recent games, aggregate their opening repertoire, and
grade habitual moves and overlooked tactics with the engine.

Remote fetch failures abort the run. An unreachable engine does not:
the affected positions are listed in the diagnostics section instead.

Examples:
  # Opening leaks and missed tactics from lichess
  chessleaks analyze magnus

  # Only missed tactics from chess.com, cached archives, JSON output
  chessleaks analyze hikaru --source chesscom --mode tactics \
      --cache-dir ~/.cache/chessleaks --format json

  # Deeper search over fewer games
  chessleaks analyze magnus --max-games 50 --depth 16`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	flagSource          string
	flagMode            string
	flagFormat          string
	flagOutput          string
	flagEngine          string
	flagCacheDir        string
	flagMaxGames        int
	flagDepth           int
	flagThreshold       int
	flagTacticThreshold int
	flagMaxTactics      int
	flagOpeningPlies    int
)

func init() {
	analyzeCmd.Flags().StringVar(&flagSource, "source", "lichess", "game source: lichess or chesscom")
	analyzeCmd.Flags().StringVar(&flagMode, "mode", "both", "analysis mode: openings, tactics, or both")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text, json, or markdown")
	analyzeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&flagEngine, "engine", "", "UCI engine binary, with optional arguments")
	analyzeCmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "directory for cached monthly archives")
	analyzeCmd.Flags().IntVar(&flagMaxGames, "max-games", 0, "maximum games to fetch")
	analyzeCmd.Flags().IntVar(&flagDepth, "depth", 0, "engine search depth")
	analyzeCmd.Flags().IntVar(&flagThreshold, "threshold", 0, "centipawn loss threshold for opening leaks")
	analyzeCmd.Flags().IntVar(&flagTacticThreshold, "tactic-threshold", 0, "centipawn swing threshold for missed tactics")
	analyzeCmd.Flags().IntVar(&flagMaxTactics, "max-tactics", 0, "maximum missed tactics to report")
	analyzeCmd.Flags().IntVar(&flagOpeningPlies, "opening-plies", 0, "opening window in plies")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Flags beat the config file and environment when explicitly set.
	if cmd.Flags().Changed("engine") {
		cfg.EnginePath = flagEngine
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = flagCacheDir
	}
	if cmd.Flags().Changed("max-games") {
		cfg.MaxGames = flagMaxGames
	}
	if cmd.Flags().Changed("depth") {
		cfg.EngineDepth = flagDepth
	}
	if cmd.Flags().Changed("threshold") {
		cfg.LossThreshold = flagThreshold
	}
	if cmd.Flags().Changed("tactic-threshold") {
		cfg.TacticThreshold = flagTacticThreshold
	}
	if cmd.Flags().Changed("max-tactics") {
		cfg.MaxTactics = flagMaxTactics
	}
	if cmd.Flags().Changed("opening-plies") {
		cfg.OpeningPlies = flagOpeningPlies
	}
	verbose = verbose || cfg.Verbose

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bin, binArgs := cfg.EngineArgs()
	opts := []chessleaks.Option{
		chessleaks.WithLogger(logger),
		chessleaks.WithEnginePath(bin, binArgs...),
		chessleaks.WithLichessBaseURL(cfg.LichessURL),
		chessleaks.WithChessComBaseURL(cfg.ChessComURL),
	}
	if verbose {
		// Metric totals land in the log once the run finishes.
		collector := statslogger.New(logger.Named("stats"))
		defer collector.Flush()
		opts = append(opts, chessleaks.WithStats(collector))
	}
	if cfg.CacheDir != "" {
		c, err := codecFromName(cfg.CacheCompression)
		if err != nil {
			return err
		}
		store, err := disk.New(cfg.CacheDir, c)
		if err != nil {
			return fmt.Errorf("opening archive cache: %w", err)
		}
		defer store.Close()
		opts = append(opts, chessleaks.WithArchiveStore(store))
	}

	analyzer, err := chessleaks.New(opts...)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := analyzer.Analyze(ctx, chessleaks.Request{
		Player:                 args[0],
		Source:                 chessleaks.Source(flagSource),
		Mode:                   chessleaks.Mode(flagMode),
		MaxGames:               cfg.MaxGames,
		MaxOpeningPlies:        cfg.OpeningPlies,
		CentipawnLossThreshold: cfg.LossThreshold,
		TacticLossThreshold:    cfg.TacticThreshold,
		EngineDepth:            cfg.EngineDepth,
		MaxTactics:             cfg.MaxTactics,
		OnProgress:             chessleaks.DefaultProgressFunc,
	})
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch flagFormat {
	case "text":
		render.NewTextReport(out).Write(report)
	case "markdown":
		render.NewMarkdownReport(out).Write(report)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want text, json, or markdown)", flagFormat)
	}

	return nil
}

func codecFromName(name string) (codec.Codec, error) {
	switch name {
	case "", "zstd":
		return zstdcodec.New(), nil
	case "gzip":
		return gzipcodec.New(), nil
	case "none":
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("unknown cache compression %q (want zstd, gzip, or none)", name)
	}
}
