package asteval_test

import (
	"testing"

	"github.com/grailbio/asteval/asteval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberLiterals(t *testing.T) {
	i := asteval.New()
	cases := []struct{ src, want string }{
		{"0x1F", "31"},
		{"0o17", "15"},
		{"0b101", "5"},
		{"10", "10"},
		{"10.5", "10.5"},
		{"1e3", "1000.0"},
	}
	for _, c := range cases {
		got := asteval.Repr(asteval.Eval(t, c.src, i))
		assert.Equalf(t, c.want, got, "literal %q", c.src)
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, `"a\nb"`, i)
	assert.Equal(t, "a\nb", val.Str())
}

func TestSubscriptAndSlice(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "xs = [10, 20, 30, 40, 50]", i)
	assert.Equal(t, int64(30), asteval.Eval(t, "xs[2]", i).Int64())
	assert.Equal(t, int64(50), asteval.Eval(t, "xs[-1]", i).Int64())
	assert.Equal(t, "[20, 30]", asteval.Repr(asteval.Eval(t, "xs[1:3]", i)))
	assert.Equal(t, "[10, 20, 30, 40, 50]", asteval.Repr(asteval.Eval(t, "xs[:]", i)))
	assert.Equal(t, "[50, 40, 30, 20, 10]", asteval.Repr(asteval.Eval(t, "xs[::-1]", i)))
}

func TestDictLiteralAndAccess(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, `d = {'a': 1, 'b': 2}`, i)
	assert.Equal(t, int64(1), asteval.Eval(t, "d['a']", i).Int64())
	_, err := asteval.EvalErr(t, "d['missing']", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.KeyError, err.Kind)
}

func TestTupleAndUnpacking(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "a, b = 1, 2", i)
	assert.Equal(t, int64(1), asteval.Eval(t, "a", i).Int64())
	assert.Equal(t, int64(2), asteval.Eval(t, "b", i).Int64())
}

func TestSyntaxErrorOnUnterminatedBlock(t *testing.T) {
	i := asteval.New()
	_, perr := i.Parse("(test)", "if True:")
	require.NotNil(t, perr)
	assert.Equal(t, asteval.SyntaxError, perr.Kind)
}

func TestAugAssign(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "n = 10", i)
	asteval.Eval(t, "n += 5", i)
	assert.Equal(t, int64(15), asteval.Eval(t, "n", i).Int64())
	asteval.Eval(t, "n *= 2", i)
	assert.Equal(t, int64(30), asteval.Eval(t, "n", i).Int64())
}

func TestCommentsIgnored(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, "1020  # a trailing comment\n", i)
	assert.Equal(t, int64(1020), val.Int64())
}

type recordingManager struct{ trace *[]string }

func (m *recordingManager) Enter() asteval.Value {
	*m.trace = append(*m.trace, "enter")
	return asteval.GoToValue("entered")
}

func (m *recordingManager) Exit(exc *asteval.EvalError) bool {
	*m.trace = append(*m.trace, "exit")
	return false
}

func TestWithStatementRunsEnterBodyExit(t *testing.T) {
	var trace []string
	i := asteval.New(asteval.WithSymbols(map[string]interface{}{
		"mgr": &recordingManager{trace: &trace},
	}))
	val := asteval.Eval(t, `
with mgr as x:
    result = x
result
`, i)
	assert.Equal(t, "entered", val.Str())
	assert.Equal(t, []string{"enter", "exit"}, trace)
}

func TestIndexErrorOnOutOfRange(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "xs = [1, 2, 3]", i)
	_, err := asteval.EvalErr(t, "xs[10]", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.IndexError, err.Kind)
}
