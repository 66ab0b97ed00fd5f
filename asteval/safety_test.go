package asteval_test

import (
	"testing"

	"github.com/grailbio/asteval/asteval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafePowRejectsHugeExponent(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "2 ** 1000000", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RuntimeError, err.Kind)
}

func TestSafeMulRejectsHugeStringRepeat(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "'a' * 100000000", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RuntimeError, err.Kind)
}

func TestSafeLshiftRejectsHugeShift(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "1 << 100000", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RuntimeError, err.Kind)
}

func TestUnsafeAttributeDenylist(t *testing.T) {
	i := asteval.New()
	for _, expr := range []string{
		"(1).__class__",
		"(1).__globals__",
		"'x'.__reduce__",
		"'x'.format",
		"'x'.format_map",
	} {
		_, err := asteval.EvalErr(t, expr, i)
		require.NotNilf(t, err, "expr %q should have raised", expr)
		assert.Equalf(t, asteval.AttributeError, err.Kind, "expr %q", expr)
	}
}

func TestImportDisabledByDefault(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "import os", i)
	require.NotNil(t, err)
}
