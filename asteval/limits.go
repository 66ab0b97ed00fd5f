package asteval

import (
	"context"
	"time"
)

// limits tracks the per-eval resource budget described in spec §4.7: a
// wall-clock deadline and a cycle counter, checked cooperatively by the
// evaluator rather than preemptively.
//
// Grounded on gql/context.go's CheckCancellation (panic on ctx.Err()),
// generalized to also enforce a cycle budget, since GQL relies entirely on
// its caller's context.Context and has no notion of "too many AST node
// visits".
type limits struct {
	deadline   time.Time
	maxCycles  int64
	cycles     int64
	maxDepth   int
	depth      int
}

func newLimits(wallClock time.Duration, maxCycles int64, maxDepth int) *limits {
	l := &limits{maxCycles: maxCycles, maxDepth: maxDepth}
	if wallClock > 0 {
		l.deadline = time.Now().Add(wallClock)
	}
	return l
}

// tick is called once per AST node visited. It panics with RuntimeError on
// budget exhaustion, the same way an unsafe arithmetic bound does.
func (l *limits) tick(ctx context.Context, n ASTNode) {
	if l == nil {
		return
	}
	l.cycles++
	if l.maxCycles > 0 && l.cycles > l.maxCycles {
		raise(RuntimeError, n, "exceeded max-cycle budget (%d)", l.maxCycles)
	}
	if !l.deadline.IsZero() && time.Now().After(l.deadline) {
		raise(RuntimeError, n, "exceeded wall-clock budget")
	}
	select {
	case <-ctx.Done():
		raise(RuntimeError, n, "cancelled: %v", ctx.Err())
	default:
	}
}

// enterCall increments the call-depth counter used to bound recursion (spec
// §4.7's "runaway recursion surfaces as RecursionError") and returns a
// function that decrements it.
func (l *limits) enterCall(n ASTNode) func() {
	if l == nil {
		return func() {}
	}
	l.depth++
	if l.maxDepth > 0 && l.depth > l.maxDepth {
		l.depth--
		raise(RecursionError, n, "maximum recursion depth exceeded")
	}
	return func() { l.depth-- }
}
