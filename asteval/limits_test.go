package asteval_test

import (
	"testing"

	"github.com/grailbio/asteval/asteval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxCyclesBudgetExceeded(t *testing.T) {
	cfg := asteval.DefaultConfig()
	cfg.MaxCycles = 5
	i := asteval.New(asteval.WithConfig(cfg))
	_, err := asteval.EvalErr(t, "1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RuntimeError, err.Kind)
}

func TestMaxRecursionDepthExceeded(t *testing.T) {
	cfg := asteval.DefaultConfig()
	cfg.MaxRecursionDepth = 10
	i := asteval.New(asteval.WithConfig(cfg))
	asteval.Eval(t, `
def recurse(n):
    return recurse(n + 1)
`, i)
	_, err := asteval.EvalErr(t, "recurse(0)", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RecursionError, err.Kind)
}
