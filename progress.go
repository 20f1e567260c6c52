package chessleaks

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Phase identifies a pipeline stage.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseFetch     Phase = "fetch"
	PhaseParse     Phase = "parse"
	PhaseAggregate Phase = "aggregate"
	PhaseEval      Phase = "eval"
	PhaseTactics   Phase = "tactics"
	PhaseDone      Phase = "done"
)

// Progress is one pipeline update. Current and Total are zero for
// updates that only announce a phase.
type Progress struct {
	Phase   Phase
	Message string
	Current int
	Total   int
}

// ProgressFunc receives pipeline updates. Callbacks run synchronously
// on the analysis goroutine and should return quickly.
type ProgressFunc func(Progress)

// safeProgress wraps fn so a panicking callback cannot abort the run.
// A nil fn becomes a no-op.
func safeProgress(fn ProgressFunc, logger *zap.Logger) ProgressFunc {
	if fn == nil {
		return func(Progress) {}
	}
	return func(p Progress) {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("progress callback panicked",
					zap.String("phase", string(p.Phase)),
					zap.Any("panic", r))
			}
		}()
		fn(p)
	}
}

// DefaultProgressFunc prints progress to stderr, updating the current
// line in place and finishing with a newline on the done phase.
// Suitable for CLI use.
func DefaultProgressFunc(p Progress) {
	switch {
	case p.Phase == PhaseDone:
		fmt.Fprintf(os.Stderr, "\r[%s] %s\n", p.Phase, p.Message)
	case p.Total > 0:
		fmt.Fprintf(os.Stderr, "\r[%s] %s (%d/%d)", p.Phase, p.Message, p.Current, p.Total)
	default:
		fmt.Fprintf(os.Stderr, "\r[%s] %s", p.Phase, p.Message)
	}
}
