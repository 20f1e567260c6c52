// Package source defines game archive providers and a shared HTTP client
// for fetching player games from public chess servers.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned when an archive provider cannot be reached
// after retries or answers with an unusable response.
var ErrUnavailable = errors.New("source: archive unavailable")

// Kind identifies a game archive provider.
type Kind string

const (
	Lichess  Kind = "lichess"
	ChessCom Kind = "chesscom"
)

// Game is one fetched game, reduced to what analysis needs.
type Game struct {
	// MoveTokens are the game's moves in the provider's notation,
	// SAN or UCI, in play order.
	MoveTokens []string

	// WhiteName and BlackName are the players as reported by the provider.
	WhiteName string
	BlackName string

	// ClocksCentis holds the clock reading after each ply in centiseconds,
	// aligned with MoveTokens. Nil when the provider has no clock data.
	ClocksCentis []int
}

// ProgressFunc reports fetch progress. Total is 0 when unknown.
type ProgressFunc func(current, total int)

// Fetcher retrieves up to maxGames of a player's most recent games.
type Fetcher interface {
	FetchGames(ctx context.Context, player string, maxGames int, progress ProgressFunc) ([]Game, error)
}

// Involves reports whether the named player took part in the game.
// Games with no recorded player names are kept.
func Involves(g Game, player string) bool {
	if g.WhiteName == "" && g.BlackName == "" {
		return true
	}
	return strings.EqualFold(g.WhiteName, player) || strings.EqualFold(g.BlackName, player)
}

// PlaysWhite reports which side the named player held.
// Unknown names default to White so analysis still has a perspective.
func PlaysWhite(g Game, player string) bool {
	if strings.EqualFold(g.WhiteName, player) {
		return true
	}
	if strings.EqualFold(g.BlackName, player) {
		return false
	}
	return true
}
