package asteval

import (
	"context"
	"testing"
)

// Eval parses and evaluates a script against the given interpreter,
// failing the test immediately on a parse or raised error. Grounded on
// gqltest.Eval's "parse then run, must.Nil the error" shape, generalized
// from gql.Session's byte-slice Parse to this package's string-based one.
func Eval(t testing.TB, src string, i *Interpreter) Value {
	t.Helper()
	node, perr := i.Parse("(test)", src)
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	val, err := i.Run(context.Background(), node, true)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return val
}

// EvalErr parses and evaluates a script, returning the raised error (if
// any) instead of failing the test — for tests asserting a specific
// exception kind is raised.
func EvalErr(t testing.TB, src string, i *Interpreter) (Value, *EvalError) {
	t.Helper()
	node, perr := i.Parse("(test)", src)
	if perr != nil {
		return None, perr
	}
	return i.Run(context.Background(), node, true)
}

// NewTestInterpreter creates an Interpreter for unit tests. It is New with
// the same options, so DefaultConfig's budgets (wall clock, statement
// length, recursion depth) apply unless an option overrides them.
func NewTestInterpreter(opts ...Option) *Interpreter {
	return New(opts...)
}
