// Package lichess fetches player games from the Lichess export API.
package lichess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/source"
)

// DefaultBaseURL is the public Lichess API endpoint.
const DefaultBaseURL = "https://lichess.org"

// Compile-time check that Fetcher implements source.Fetcher.
var _ source.Fetcher = (*Fetcher)(nil)

// Config holds fetcher settings.
type Config struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	Logger *zap.Logger
}

// Fetcher retrieves games via the Lichess NDJSON export.
type Fetcher struct {
	client  *source.Client
	baseURL string
	logger  *zap.Logger
}

// New creates a Lichess fetcher using the given HTTP client.
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
		logger:  cfg.Logger,
	}
}

// gameRecord is one line of the NDJSON export.
type gameRecord struct {
	Moves   string `json:"moves"`
	Players struct {
		White struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"white"`
		Black struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"black"`
	} `json:"players"`
	// Clocks are centiseconds remaining after each ply.
	Clocks []int `json:"clocks"`
}

// FetchGames downloads up to maxGames of the player's most recent games.
func (f *Fetcher) FetchGames(ctx context.Context, player string, maxGames int, progress source.ProgressFunc) ([]source.Game, error) {
	endpoint := fmt.Sprintf("%s/api/games/user/%s?max=%d&clocks=true&moves=true",
		f.baseURL, url.PathEscape(player), maxGames)

	body, err := f.client.Get(ctx, endpoint, "application/x-ndjson")
	if err != nil {
		return nil, err
	}

	games := make([]source.Game, 0, maxGames)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	// Long games with clocks produce lines well past the default limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec gameRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			f.logger.Debug("skipping malformed game record", zap.Error(err))
			continue
		}
		if rec.Moves == "" {
			continue
		}

		g := source.Game{
			MoveTokens:   strings.Fields(rec.Moves),
			WhiteName:    rec.Players.White.User.Name,
			BlackName:    rec.Players.Black.User.Name,
			ClocksCentis: rec.Clocks,
		}
		if !source.Involves(g, player) {
			continue
		}

		games = append(games, g)
		if progress != nil {
			progress(len(games), maxGames)
		}
		if len(games) >= maxGames {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning export: %w", err)
	}

	f.logger.Debug("fetched lichess games",
		zap.String("player", player),
		zap.Int("games", len(games)))
	return games, nil
}
