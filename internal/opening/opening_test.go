package opening

import (
	"context"
	"errors"
	"testing"

	"github.com/notnil/chess"

	"github.com/leonfresh/chessleaks/internal/board"
	"github.com/leonfresh/chessleaks/internal/diag"
	"github.com/leonfresh/chessleaks/internal/engine"
	"github.com/leonfresh/chessleaks/internal/fen"
)

// fakeOracle serves canned evaluations keyed by normalized FEN.
type fakeOracle struct {
	evals map[string]*engine.Evaluation
	err   error
	calls int
}

func (o *fakeOracle) Evaluate(ctx context.Context, fenStr string, depth int) (*engine.Evaluation, error) {
	o.calls++
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if o.err != nil {
		return nil, o.err
	}
	key, err := fen.Normalize(fenStr)
	if err != nil {
		return nil, err
	}
	ev, ok := o.evals[key]
	if !ok {
		return nil, nil
	}
	return ev.Clone(), nil
}

func evalWith(cp int, best string) *engine.Evaluation {
	return &engine.Evaluation{Centipawns: &cp, BestMove: best}
}

// keyAfter walks tokens from the start and returns the resulting
// position's normalized key.
func keyAfter(t *testing.T, tokens ...string) string {
	t.Helper()
	pos := chess.StartingPosition()
	for _, tok := range tokens {
		_, next, err := board.Apply(pos, tok)
		if err != nil {
			t.Fatalf("applying %q: %v", tok, err)
		}
		pos = next
	}
	key, err := board.Key(pos)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	return key
}

func whiteGames(n int, tokens ...string) []Game {
	games := make([]Game, n)
	for i := range games {
		games[i] = Game{Tokens: tokens, PlayerIsWhite: true}
	}
	return games
}

func run(t *testing.T, oracle Oracle, cfg Config, games []Game) *Result {
	t.Helper()
	agg := NewAggregator(oracle, cfg)
	agg.Collect(games, nil)
	res, err := agg.Evaluate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return res
}

func TestAggregator_PluralityLeak(t *testing.T) {
	// Three games open e4, one opens a3. The starting position is reached
	// four times and the plurality reply is e4.
	games := append(whiteGames(3, "e4", "e5"), whiteGames(1, "a3", "e5")...)

	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "d2d4"),
		keyAfter(t, "e4"): evalWith(120, "g8f6"), // +120 for the opponent
	}}

	res := run(t, oracle, Config{}, games)

	if len(res.Leaks) != 1 {
		t.Fatalf("got %d leaks, want 1", len(res.Leaks))
	}
	leak := res.Leaks[0]
	if leak.PlayerMove != "e4" {
		t.Errorf("PlayerMove = %q, want %q", leak.PlayerMove, "e4")
	}
	if leak.ReachCount != 4 {
		t.Errorf("ReachCount = %d, want 4", leak.ReachCount)
	}
	if leak.MoveCount != 3 {
		t.Errorf("MoveCount = %d, want 3", leak.MoveCount)
	}
	if leak.EvalBefore != 30 || leak.EvalAfter != -120 {
		t.Errorf("evals = (%d, %d), want (30, -120)", leak.EvalBefore, leak.EvalAfter)
	}
	if leak.Loss != 150 {
		t.Errorf("Loss = %d, want 150", leak.Loss)
	}
	if leak.EngineBestMove != "d2d4" {
		t.Errorf("EngineBestMove = %q, want %q", leak.EngineBestMove, "d2d4")
	}
	if !leak.PlayerIsWhite {
		t.Error("PlayerIsWhite = false, want true")
	}
	if res.RepeatedPositions != 1 {
		t.Errorf("RepeatedPositions = %d, want 1", res.RepeatedPositions)
	}

	// The leak's positions round-trip: applying the move to FENBefore
	// produces FENAfter.
	pos, err := board.PositionFromFEN(leak.FENBefore)
	if err != nil {
		t.Fatalf("PositionFromFEN() error = %v", err)
	}
	_, next, err := board.Apply(pos, leak.PlayerMove)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if next.String() != leak.FENAfter {
		t.Errorf("FENAfter = %q, want %q", leak.FENAfter, next.String())
	}
}

func TestAggregator_ThresholdIsStrict(t *testing.T) {
	games := whiteGames(3, "e4", "e5")

	// Loss of exactly 100 must not leak; the threshold is exclusive.
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "d2d4"),
		keyAfter(t, "e4"): evalWith(70, "g8f6"),
	}}

	res := run(t, oracle, Config{Threshold: 100}, games)
	if len(res.Leaks) != 0 {
		t.Fatalf("got %d leaks, want 0 (loss equals threshold)", len(res.Leaks))
	}

	// The position is still traced as evaluated.
	var evaluated int
	for _, d := range res.Diagnostics {
		if d.Outcome == diag.OutcomeEvaluated {
			evaluated++
			if d.EvalBefore == nil || *d.EvalBefore != 30 {
				t.Errorf("EvalBefore = %v, want 30", d.EvalBefore)
			}
			if d.EvalAfter == nil || *d.EvalAfter != -70 {
				t.Errorf("EvalAfter = %v, want -70", d.EvalAfter)
			}
		}
	}
	if evaluated != 1 {
		t.Errorf("evaluated diagnostics = %d, want 1", evaluated)
	}
}

func TestAggregator_MinReach(t *testing.T) {
	// Two games are not a repertoire.
	games := whiteGames(2, "e4", "e5")
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "d2d4"),
		keyAfter(t, "e4"): evalWith(300, "g8f6"),
	}}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 0 {
		t.Errorf("got %d leaks, want 0", len(res.Leaks))
	}
	if res.RepeatedPositions != 0 {
		t.Errorf("RepeatedPositions = %d, want 0", res.RepeatedPositions)
	}
	if oracle.calls != 0 {
		t.Errorf("oracle calls = %d, want 0 (nothing reached min occurrences)", oracle.calls)
	}
}

func TestAggregator_TieBreakFirstSeen(t *testing.T) {
	// e4 and d4 are played twice each; the tie goes to the move seen first.
	games := append(whiteGames(2, "e4", "e5"), whiteGames(2, "d4", "d5")...)

	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "c2c4"),
		keyAfter(t, "e4"): evalWith(120, "g8f6"),
		keyAfter(t, "d4"): evalWith(120, "g8f6"),
	}}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 1 {
		t.Fatalf("got %d leaks, want 1", len(res.Leaks))
	}
	if res.Leaks[0].PlayerMove != "e4" {
		t.Errorf("PlayerMove = %q, want %q (first seen wins ties)", res.Leaks[0].PlayerMove, "e4")
	}
	if res.Leaks[0].MoveCount != 2 {
		t.Errorf("MoveCount = %d, want 2", res.Leaks[0].MoveCount)
	}
}

func TestAggregator_EngineChoiceNeverLeaks(t *testing.T) {
	games := whiteGames(3, "e4", "e5")

	// The habitual move is the engine's own preference; even a large
	// apparent loss is search noise, not a leak.
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "e2e4"),
		keyAfter(t, "e4"): evalWith(300, "g8f6"),
	}}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 0 {
		t.Errorf("got %d leaks, want 0", len(res.Leaks))
	}
}

func TestAggregator_EngineUnavailable(t *testing.T) {
	games := whiteGames(3, "e4", "e5")
	oracle := &fakeOracle{err: engine.ErrUnavailable}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 0 {
		t.Errorf("got %d leaks, want 0", len(res.Leaks))
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if d.Outcome != diag.OutcomeMissingEval {
		t.Errorf("Outcome = %q, want %q", d.Outcome, diag.OutcomeMissingEval)
	}
	if d.SkippedReason() != diag.OutcomeMissingEval {
		t.Errorf("SkippedReason() = %q, want %q", d.SkippedReason(), diag.OutcomeMissingEval)
	}
}

func TestAggregator_NilEvaluationSkips(t *testing.T) {
	games := whiteGames(3, "e4", "e5")
	// The oracle knows the starting position but not the one after e4.
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t): evalWith(30, "d2d4"),
	}}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 0 {
		t.Errorf("got %d leaks, want 0", len(res.Leaks))
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Outcome != diag.OutcomeMissingEval {
		t.Errorf("diagnostics = %+v, want one missing_eval entry", res.Diagnostics)
	}
}

func TestAggregator_InvalidMoveTruncates(t *testing.T) {
	games := whiteGames(3, "e4", "e5")
	games = append(games, Game{Tokens: []string{"e4", "e5", "Qxh7"}, PlayerIsWhite: true})

	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "d2d4"),
		keyAfter(t, "e4"): evalWith(120, "g8f6"),
	}}

	res := run(t, oracle, Config{}, games)

	// The truncated game still contributed its opening ply.
	if len(res.Leaks) != 1 || res.Leaks[0].ReachCount != 4 {
		t.Fatalf("leaks = %+v, want one leak reached 4 times", res.Leaks)
	}

	var truncated *diag.Entry
	for i := range res.Diagnostics {
		if res.Diagnostics[i].Outcome == diag.OutcomeInvalidMove {
			truncated = &res.Diagnostics[i]
		}
	}
	if truncated == nil {
		t.Fatal("no invalid_move diagnostic recorded")
	}
	if truncated.GameIndex != 3 {
		t.Errorf("GameIndex = %d, want 3", truncated.GameIndex)
	}
	if truncated.Ply != 2 {
		t.Errorf("Ply = %d, want 2", truncated.Ply)
	}
	if truncated.Move != "Qxh7" {
		t.Errorf("Move = %q, want %q", truncated.Move, "Qxh7")
	}
}

func TestAggregator_BlackPerspective(t *testing.T) {
	games := make([]Game, 3)
	for i := range games {
		games[i] = Game{Tokens: []string{"e4", "e5"}, PlayerIsWhite: false}
	}

	// The player's position is after 1. e4 with Black to move. Scores
	// there are already from Black's perspective; scores after 1... e5
	// are from White's and get negated.
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t, "e4"):       evalWith(-20, "c7c5"),
		keyAfter(t, "e4", "e5"): evalWith(130, "g1f3"),
	}}

	res := run(t, oracle, Config{}, games)
	if len(res.Leaks) != 1 {
		t.Fatalf("got %d leaks, want 1", len(res.Leaks))
	}
	leak := res.Leaks[0]
	if leak.PlayerMove != "e5" {
		t.Errorf("PlayerMove = %q, want %q", leak.PlayerMove, "e5")
	}
	if leak.EvalBefore != -20 || leak.EvalAfter != -130 {
		t.Errorf("evals = (%d, %d), want (-20, -130)", leak.EvalBefore, leak.EvalAfter)
	}
	if leak.Loss != 110 {
		t.Errorf("Loss = %d, want 110", leak.Loss)
	}
	if leak.PlayerIsWhite {
		t.Error("PlayerIsWhite = true, want false")
	}
}

func TestAggregator_MaxPliesWindow(t *testing.T) {
	// With a 2-ply window only the first White move is collected.
	games := whiteGames(3, "e4", "e5", "Nf3", "Nc6")
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{
		keyAfter(t):       evalWith(30, "d2d4"),
		keyAfter(t, "e4"): evalWith(120, "g8f6"),
	}}

	agg := NewAggregator(oracle, Config{MaxPlies: 2})
	agg.Collect(games, nil)
	if len(agg.buckets) != 1 {
		t.Errorf("buckets = %d, want 1 (window is 2 plies)", len(agg.buckets))
	}
}

func TestAggregator_Cancelled(t *testing.T) {
	games := whiteGames(3, "e4", "e5")
	oracle := &fakeOracle{evals: map[string]*engine.Evaluation{}}

	agg := NewAggregator(oracle, Config{})
	agg.Collect(games, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agg.Evaluate(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Evaluate() error = %v, want context.Canceled", err)
	}
}
