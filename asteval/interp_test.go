package asteval_test

import (
	"context"
	"testing"

	"github.com/grailbio/asteval/asteval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGlobal(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "foo = 20 + 15", i)
	asteval.Eval(t, "bar = foo * 3", i)
	val := asteval.Eval(t, "bar + 3", i)
	assert.Equal(t, int64(20+15)*3+3, val.Int64())
}

func TestWithSymbols(t *testing.T) {
	i := asteval.New(asteval.WithSymbols(map[string]interface{}{"blahblahconst": int64(12345)}))
	val := asteval.Eval(t, "blahblahconst", i)
	assert.Equal(t, int64(12345), val.Int64())
}

func TestLogicalOps(t *testing.T) {
	i := asteval.New()
	assert.True(t, asteval.Eval(t, "True or False", i).Truthy())
	assert.True(t, asteval.Eval(t, "False or True", i).Truthy())
	assert.False(t, asteval.Eval(t, "False or False", i).Truthy())
	assert.False(t, asteval.Eval(t, "True and False", i).Truthy())
	assert.False(t, asteval.Eval(t, "False and True", i).Truthy())
	assert.True(t, asteval.Eval(t, "True and True", i).Truthy())
	assert.False(t, asteval.Eval(t, "not True", i).Truthy())
	assert.True(t, asteval.Eval(t, "not False", i).Truthy())
}

func TestArithmetic(t *testing.T) {
	i := asteval.New()
	assert.Equal(t, "30", asteval.Repr(asteval.Eval(t, "10 + 20", i)))
	assert.Equal(t, "7", asteval.Repr(asteval.Eval(t, "22 // 3", i)))
	assert.Equal(t, "1", asteval.Repr(asteval.Eval(t, "22 % 3", i)))
	assert.Equal(t, "1024", asteval.Repr(asteval.Eval(t, "2 ** 10", i)))
	assert.Equal(t, "2.5", asteval.Repr(asteval.Eval(t, "5 / 2", i)))
}

func TestNegate(t *testing.T) {
	i := asteval.New()
	assert.Equal(t, "-10", asteval.Repr(asteval.Eval(t, "-10", i)))
	asteval.Eval(t, "abc = 123", i)
	assert.Equal(t, "-123", asteval.Repr(asteval.Eval(t, "-abc", i)))
}

func TestStringOps(t *testing.T) {
	i := asteval.New()
	assert.Equal(t, `'ab'`, asteval.Repr(asteval.Eval(t, `'a' + 'b'`, i)))
	assert.Equal(t, `'aaa'`, asteval.Repr(asteval.Eval(t, `'a' * 3`, i)))
	assert.Equal(t, int64(3), asteval.Eval(t, `len('abc')`, i).Int64())
}

func TestComparisonChaining(t *testing.T) {
	i := asteval.New()
	assert.True(t, asteval.Eval(t, "1 < 2 < 3", i).Truthy())
	assert.False(t, asteval.Eval(t, "1 < 2 < 1", i).Truthy())

	// A chained comparison must short-circuit: once "2 < 1" fails, the last
	// operand, bump(), must never run. bump counts its calls in a dict it
	// mutates in place, since an assignment to a plain name inside a
	// procedure body is discarded when the call returns.
	asteval.Eval(t, "calls = {'n': 0}", i)
	asteval.Eval(t, `
def bump():
    calls['n'] = calls['n'] + 1
    return 1
`, i)
	asteval.Eval(t, "2 < 1 < bump()", i)
	assert.Equal(t, int64(0), asteval.Eval(t, "calls['n']", i).Int64())
}

func TestIfElse(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, `
if 1 < 2:
    x = "yes"
else:
    x = "no"
x
`, i)
	assert.Equal(t, "yes", val.Str())
}

func TestWhileLoopElse(t *testing.T) {
	i := asteval.New()
	// A while-loop's else clause runs only when the loop finishes without
	// hitting a break.
	val := asteval.Eval(t, `
n = 0
result = "not set"
while n < 3:
    n = n + 1
else:
    result = "completed"
result
`, i)
	assert.Equal(t, "completed", val.Str())

	val = asteval.Eval(t, `
n = 0
result = "not set"
while n < 3:
    if n == 1:
        break
    n = n + 1
else:
    result = "completed"
result
`, i)
	assert.Equal(t, "not set", val.Str())
}

func TestForLoopOverList(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, `
total = 0
for x in [1, 2, 3, 4]:
    total = total + x
total
`, i)
	assert.Equal(t, int64(10), val.Int64())
}

func TestTryExceptElseFinally(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, `
trace = []
try:
    1 / 0
except ZeroDivisionError:
    trace = trace + ["except"]
else:
    trace = trace + ["else"]
finally:
    trace = trace + ["finally"]
trace
`, i)
	assert.Equal(t, `['except', 'finally']`, asteval.Repr(val))

	val = asteval.Eval(t, `
trace = []
try:
    trace = trace + ["try"]
except ZeroDivisionError:
    trace = trace + ["except"]
else:
    trace = trace + ["else"]
finally:
    trace = trace + ["finally"]
trace
`, i)
	assert.Equal(t, `['try', 'else', 'finally']`, asteval.Repr(val))
}

func TestListComprehensionScopeRestored(t *testing.T) {
	i := asteval.New()
	// A comprehension target must not leak or clobber an existing binding
	// of the same name outside the comprehension (spec's scope save/restore
	// requirement).
	asteval.Eval(t, "x = 'outer'", i)
	val := asteval.Eval(t, "[x * 2 for x in [1, 2, 3]]", i)
	assert.Equal(t, "[2, 4, 6]", asteval.Repr(val))
	assert.Equal(t, "outer", asteval.Eval(t, "x", i).Str())
}

func TestDictAndSetComprehension(t *testing.T) {
	i := asteval.New()
	val := asteval.Eval(t, "{x: x * x for x in [1, 2, 3]}", i)
	assert.Equal(t, "{1: 1, 2: 4, 3: 9}", asteval.Repr(val))

	val = asteval.Eval(t, "{x % 3 for x in [1, 2, 3, 4, 5, 6]}", i)
	assert.Equal(t, 3, val.Set().Len())
}

func TestProcedureDefaultsAndVarargs(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, `
def f(a, b=10, *args, **kwargs):
    return (a, b, args, kwargs)
`, i)
	val := asteval.Eval(t, "f(1)", i)
	assert.Equal(t, "(1, 10, (), {})", asteval.Repr(val))

	val = asteval.Eval(t, "f(1, 2, 3, 4, x=5)", i)
	assert.Equal(t, "(1, 2, (3, 4), {'x': 5})", asteval.Repr(val))
}

func TestProcedureScopeDoesNotLeak(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "y = 'module-level'", i)
	asteval.Eval(t, `
def f():
    y = 'local'
    return y
`, i)
	val := asteval.Eval(t, "f()", i)
	assert.Equal(t, "local", val.Str())
	assert.Equal(t, "module-level", asteval.Eval(t, "y", i).Str())
}

func TestFStringLiteral(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "name = 'world'", i)
	val := asteval.Eval(t, `f"hello {name}, {1 + 1}"`, i)
	assert.Equal(t, "hello world, 2", val.Str())
}

func TestReadonlySymbolRejectsAssignment(t *testing.T) {
	i := asteval.New(asteval.WithSymbols(map[string]interface{}{"frozen": int64(1)}),
		asteval.WithReadonlySymbols("frozen"))
	_, err := asteval.EvalErr(t, "frozen = 2", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.NameError, err.Kind)
}

func TestBuiltinsReadonly(t *testing.T) {
	i := asteval.New(asteval.WithConfig(func() asteval.Config {
		c := asteval.DefaultConfig()
		c.BuiltinsReadonly = true
		return c
	}()))
	_, err := asteval.EvalErr(t, "len = 1", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.NameError, err.Kind)
}

func TestUnsafeAttributeRejected(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "(1).__class__", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.AttributeError, err.Kind)
}

func TestDivisionByZero(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "1 / 0", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.ZeroDivisionError, err.Kind)
}

func TestUndefinedNameRaisesNameError(t *testing.T) {
	i := asteval.New()
	_, err := asteval.EvalErr(t, "undefined_name_xyz", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.NameError, err.Kind)
}

func TestDuplicateSuccessiveErrorsCollapsed(t *testing.T) {
	i := asteval.New()
	ctx := context.Background()
	for n := 0; n < 3; n++ {
		node, perr := i.Parse("(test)", "1 / 0")
		require.Nil(t, perr)
		_, _ = i.Run(ctx, node, false)
	}
	assert.Len(t, i.Errors(), 1)
}

func TestMinimalConfigDisablesControlFlow(t *testing.T) {
	cfg := asteval.DefaultConfig().Minimal()
	i := asteval.New(asteval.WithConfig(cfg))
	_, err := asteval.EvalErr(t, "if True:\n    1\n", i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.NotImplementedError, err.Kind)
}

func TestMaxStatementLengthRejected(t *testing.T) {
	cfg := asteval.DefaultConfig()
	cfg.MaxStatementLength = 10
	i := asteval.New(asteval.WithConfig(cfg))
	_, perr := i.Parse("(test)", "1 + 1 + 1 + 1 + 1 + 1")
	require.NotNil(t, perr)
	assert.Equal(t, asteval.SyntaxError, perr.Kind)
}

func TestUserDefinedSymbols(t *testing.T) {
	i := asteval.New()
	asteval.Eval(t, "a = 1", i)
	asteval.Eval(t, "b = 2", i)
	names := i.UserDefinedSymbols()
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
	assert.NotContains(t, names, "len")
}
