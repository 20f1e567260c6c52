// Package chesscom fetches player games from the chess.com published-data API.
//
// Games arrive as monthly archives. Months that have ended never change,
// so their raw bodies can be cached across runs via gamecache.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leonfresh/chessleaks/internal/gamecache"
	"github.com/leonfresh/chessleaks/internal/source"
)

// DefaultBaseURL is the public chess.com API endpoint.
const DefaultBaseURL = "https://api.chess.com"

// Compile-time check that Fetcher implements source.Fetcher.
var _ source.Fetcher = (*Fetcher)(nil)

// errEnough stops the archive pipeline once maxGames have been collected.
var errEnough = errors.New("chesscom: collected enough games")

// Config holds fetcher settings.
type Config struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// Cache stores completed monthly archives across runs. Optional.
	Cache gamecache.Store

	Logger *zap.Logger
}

// Fetcher retrieves games from monthly chess.com archives, newest first.
type Fetcher struct {
	client  *source.Client
	baseURL string
	cache   gamecache.Store
	logger  *zap.Logger
}

// New creates a chess.com fetcher using the given HTTP client.
func New(client *source.Client, cfg Config) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Fetcher{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

type archivesRecord struct {
	Archives []string `json:"archives"`
}

type monthRecord struct {
	Games []gameRecord `json:"games"`
}

type gameRecord struct {
	PGN   string       `json:"pgn"`
	White playerRecord `json:"white"`
	Black playerRecord `json:"black"`
}

type playerRecord struct {
	Username string `json:"username"`
}

// month is one entry of the archives list.
type month struct {
	year, mon string
}

func (m month) key(player string) string {
	return strings.ToLower(player) + "/" + m.year + "-" + m.mon
}

func (m month) url(baseURL, player string) string {
	return fmt.Sprintf("%s/pub/player/%s/games/%s/%s", baseURL, player, m.year, m.mon)
}

// complete reports whether the month has fully elapsed, i.e. its archive
// will never change again.
func (m month) complete(now time.Time) bool {
	return m.year+"-"+m.mon < now.UTC().Format("2006-01")
}

// FetchGames walks the player's monthly archives from newest to oldest
// until maxGames games involving the player are collected. Month bodies
// are fetched one archive ahead while the previous one is parsed. An
// archive fetch failure surfaces only when the months fetched before it
// fall short of maxGames.
func (f *Fetcher) FetchGames(ctx context.Context, player string, maxGames int, progress source.ProgressFunc) ([]source.Game, error) {
	player = strings.ToLower(player)

	months, err := f.listArchives(ctx, player)
	if err != nil {
		return nil, err
	}

	type monthBody struct {
		m      month
		body   []byte
		cached bool
	}

	g, ctx := errgroup.WithContext(ctx)
	bodies := make(chan monthBody, 1)

	// A failed speculative fetch of an older month must not outrank games
	// already buffered, so the producer records the error instead of
	// failing the group. It is surfaced below only if the months that did
	// arrive fall short of maxGames.
	var fetchErr error
	g.Go(func() error {
		defer close(bodies)
		// Newest month first.
		for i := len(months) - 1; i >= 0; i-- {
			m := months[i]
			body, cached, err := f.loadMonth(ctx, player, m)
			if err != nil {
				fetchErr = err
				return nil
			}
			select {
			case bodies <- monthBody{m: m, body: body, cached: cached}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var games []source.Game
	g.Go(func() error {
		now := time.Now()
		for mb := range bodies {
			var rec monthRecord
			if err := json.Unmarshal(mb.body, &rec); err != nil {
				f.logger.Warn("skipping malformed month archive",
					zap.String("key", mb.m.key(player)),
					zap.Error(err))
				continue
			}

			// Only completed months are worth caching; the current month
			// still grows.
			if f.cache != nil && !mb.cached && mb.m.complete(now) {
				if err := f.cache.WriteArchive(ctx, mb.m.key(player), mb.body); err != nil {
					f.logger.Warn("caching archive failed",
						zap.String("key", mb.m.key(player)),
						zap.Error(err))
				}
			}

			// Games within a month are chronological; walk them newest first.
			for i := len(rec.Games) - 1; i >= 0; i-- {
				game, err := parseGame(rec.Games[i])
				if err != nil {
					f.logger.Debug("skipping game", zap.Error(err))
					continue
				}
				if !source.Involves(game, player) {
					continue
				}
				games = append(games, game)
				if progress != nil {
					progress(len(games), maxGames)
				}
				if len(games) >= maxGames {
					return errEnough
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errEnough) {
		return nil, err
	}
	if fetchErr != nil && len(games) < maxGames {
		return nil, fetchErr
	}

	f.logger.Debug("fetched chess.com games",
		zap.String("player", player),
		zap.Int("games", len(games)))
	return games, nil
}

// listArchives fetches the player's archive list and reduces it to months.
func (f *Fetcher) listArchives(ctx context.Context, player string) ([]month, error) {
	endpoint := fmt.Sprintf("%s/pub/player/%s/games/archives", f.baseURL, player)
	body, err := f.client.Get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}

	var rec archivesRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: parsing archives list: %v", source.ErrUnavailable, err)
	}

	months := make([]month, 0, len(rec.Archives))
	for _, u := range rec.Archives {
		if m, ok := monthFromURL(u); ok {
			months = append(months, m)
		}
	}
	return months, nil
}

// loadMonth returns a month's raw archive body, preferring the cache.
func (f *Fetcher) loadMonth(ctx context.Context, player string, m month) (body []byte, cached bool, err error) {
	if f.cache != nil {
		data, err := f.cache.ReadArchive(ctx, m.key(player))
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, gamecache.ErrNotFound) {
			f.logger.Warn("archive cache read failed",
				zap.String("key", m.key(player)),
				zap.Error(err))
		}
	}

	data, err := f.client.Get(ctx, m.url(f.baseURL, player), "application/json")
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// monthFromURL extracts the year and month from an archive URL such as
// "https://api.chess.com/pub/player/name/games/2024/03".
func monthFromURL(u string) (month, bool) {
	parts := strings.Split(strings.TrimSuffix(u, "/"), "/")
	if len(parts) < 2 {
		return month{}, false
	}
	y, m := parts[len(parts)-2], parts[len(parts)-1]
	if len(y) != 4 || len(m) != 2 {
		return month{}, false
	}
	return month{year: y, mon: m}, true
}

// parseGame converts an API game record to a source.Game.
func parseGame(rec gameRecord) (source.Game, error) {
	tokens, clockSecs := parseMovetext(movetextOf(rec.PGN))
	if len(tokens) == 0 {
		return source.Game{}, errors.New("game has no moves")
	}

	g := source.Game{
		MoveTokens: tokens,
		WhiteName:  rec.White.Username,
		BlackName:  rec.Black.Username,
	}
	if clockSecs != nil {
		centis := make([]int, len(clockSecs))
		for i, s := range clockSecs {
			centis[i] = s * 100
		}
		g.ClocksCentis = centis
	}
	return g, nil
}
