// Package board wraps the chess move model with the primitives the analysis
// pipeline needs: decoding archive move tokens, replaying games, deriving
// canonical position keys, and classifying forcing moves.
package board

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/leonfresh/chessleaks/internal/fen"
)

// ErrInvalidMove indicates a move token could not be resolved to a legal move.
var ErrInvalidMove = errors.New("board: invalid move")

// Decode resolves a move token against the position. Tokens in standard
// algebraic notation are tried first, then coordinate (UCI) notation. The
// returned move is always taken from the position's legal move list so its
// capture and check tags are populated.
func Decode(pos *chess.Position, token string) (*chess.Move, error) {
	notations := []chess.Notation{
		chess.AlgebraicNotation{},
		chess.UCINotation{},
	}
	for _, n := range notations {
		m, err := n.Decode(pos, token)
		if err != nil {
			continue
		}
		if vm := matchValid(pos, m); vm != nil {
			return vm, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMove, token)
}

// matchValid returns the legal move with the same squares and promotion as m,
// or nil when m is not legal in pos.
func matchValid(pos *chess.Position, m *chess.Move) *chess.Move {
	for _, vm := range pos.ValidMoves() {
		if vm.S1() == m.S1() && vm.S2() == m.S2() && vm.Promo() == m.Promo() {
			return vm
		}
	}
	return nil
}

// Apply decodes token against pos and returns the move with the resulting
// position.
func Apply(pos *chess.Position, token string) (*chess.Move, *chess.Position, error) {
	m, err := Decode(pos, token)
	if err != nil {
		return nil, nil, err
	}
	return m, pos.Update(m), nil
}

// Walk replays move tokens from the starting position, calling visit with the
// zero-based ply index, the position before the move, the decoded move, and
// the position after it. The walk stops early when visit returns false. A
// token that fails to decode ends the walk with an error wrapping
// ErrInvalidMove; plies before it have already been visited.
func Walk(tokens []string, visit func(ply int, before *chess.Position, move *chess.Move, after *chess.Position) bool) error {
	pos := chess.StartingPosition()
	for i, tok := range tokens {
		m, err := Decode(pos, tok)
		if err != nil {
			return fmt.Errorf("ply %d: %w", i, err)
		}
		next := pos.Update(m)
		if !visit(i, pos, m, next) {
			return nil
		}
		pos = next
	}
	return nil
}

// Key returns the canonical aggregation key for a position: its FEN reduced
// to piece placement, side to move, castling rights, and en passant square.
func Key(pos *chess.Position) (string, error) {
	return fen.Normalize(pos.String())
}

// PositionFromFEN builds a position from a full FEN string.
func PositionFromFEN(fenStr string) (*chess.Position, error) {
	opt, err := chess.FEN(fenStr)
	if err != nil {
		return nil, fmt.Errorf("parsing FEN: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

// Forcing reports whether the move is a capture or gives check. Mating moves
// are forcing by definition since mate is delivered with check.
func Forcing(m *chess.Move) bool {
	return m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant) || m.HasTag(chess.Check)
}

// AnyForcing reports whether the side to move has at least one forcing move
// available. Used as a cheap prefilter before asking the engine.
func AnyForcing(pos *chess.Position) bool {
	for _, m := range pos.ValidMoves() {
		if Forcing(m) {
			return true
		}
	}
	return false
}

// IsMate reports whether applying m to pos delivers checkmate.
func IsMate(pos *chess.Position, m *chess.Move) bool {
	return pos.Update(m).Status() == chess.Checkmate
}

// IsCastle reports whether the move castles either side.
func IsCastle(m *chess.Move) bool {
	return m.HasTag(chess.KingSideCastle) || m.HasTag(chess.QueenSideCastle)
}
