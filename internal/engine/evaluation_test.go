package engine

import "testing"

func intPtr(n int) *int { return &n }

func TestEvaluation_Score(t *testing.T) {
	tests := []struct {
		name string
		eval Evaluation
		want int
	}{
		{"centipawns positive", Evaluation{Centipawns: intPtr(125)}, 125},
		{"centipawns negative", Evaluation{Centipawns: intPtr(-50)}, -50},
		{"mate in 3", Evaluation{Mate: intPtr(3)}, 99997},
		{"mated in 5", Evaluation{Mate: intPtr(-5)}, -99995},
		{"already mated", Evaluation{Mate: intPtr(0)}, -100000},
		{"empty", Evaluation{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eval.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvaluation_ScoreOrdering(t *testing.T) {
	// Any mate for the side to move must outrank any material advantage,
	// and faster mates must outrank slower ones.
	mate2 := Evaluation{Mate: intPtr(2)}
	mate7 := Evaluation{Mate: intPtr(7)}
	huge := Evaluation{Centipawns: intPtr(5000)}

	if mate2.Score() <= mate7.Score() {
		t.Error("mate in 2 should outrank mate in 7")
	}
	if mate7.Score() <= huge.Score() {
		t.Error("any mate should outrank a material advantage")
	}
}

func TestEvaluation_String(t *testing.T) {
	tests := []struct {
		name string
		eval Evaluation
		want string
	}{
		{"positive", Evaluation{Centipawns: intPtr(125)}, "+1.25"},
		{"negative", Evaluation{Centipawns: intPtr(-50)}, "-0.50"},
		{"small fraction", Evaluation{Centipawns: intPtr(105)}, "+1.05"},
		{"zero", Evaluation{Centipawns: intPtr(0)}, "+0.00"},
		{"mate", Evaluation{Mate: intPtr(3)}, "#3"},
		{"mated", Evaluation{Mate: intPtr(-5)}, "#-5"},
		{"unknown", Evaluation{}, "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eval.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluation_Clone(t *testing.T) {
	orig := &Evaluation{Centipawns: intPtr(30), BestMove: "e2e4"}
	clone := orig.Clone()

	*clone.Centipawns = 999
	clone.BestMove = "d2d4"

	if *orig.Centipawns != 30 {
		t.Errorf("Clone() shares Centipawns pointer: orig = %d", *orig.Centipawns)
	}
	if orig.BestMove != "e2e4" {
		t.Errorf("orig.BestMove = %q, want %q", orig.BestMove, "e2e4")
	}

	var nilEval *Evaluation
	if nilEval.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}
