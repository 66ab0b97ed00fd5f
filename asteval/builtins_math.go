package asteval

import (
	"math"

	"github.com/grailbio/asteval/symbol"
)

// registerMath preloads the `math` module (spec §6's "trig/algebraic math
// preload"): it is bound directly as a symbol, not gated behind NodeImport,
// since scripts are expected to reach it as `math.sqrt(x)` regardless of
// whether `import` itself is enabled.
func registerMath(i *Interpreter) {
	fn1 := func(name string, f func(float64) float64) Value {
		return HostValue(&GoFunc{Name: "math." + name, Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			requireArgs(n, args, 1, "math."+name)
			return floatValue(f(args[0].Float()))
		}})
	}
	fn2 := func(name string, f func(a, b float64) float64) Value {
		return HostValue(&GoFunc{Name: "math." + name, Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			requireArgs(n, args, 2, "math."+name)
			return floatValue(f(args[0].Float(), args[1].Float()))
		}})
	}
	members := map[string]Value{
		"pi":  floatValue(math.Pi),
		"e":   floatValue(math.E),
		"inf": floatValue(math.Inf(1)),
		"nan": floatValue(math.NaN()),

		"sqrt":  fn1("sqrt", math.Sqrt),
		"sin":   fn1("sin", math.Sin),
		"cos":   fn1("cos", math.Cos),
		"tan":   fn1("tan", math.Tan),
		"asin":  fn1("asin", math.Asin),
		"acos":  fn1("acos", math.Acos),
		"atan":  fn1("atan", math.Atan),
		"log2":  fn1("log2", math.Log2),
		"log10": fn1("log10", math.Log10),
		"exp":   fn1("exp", math.Exp),
		"floor": fn1("floor", math.Floor),
		"ceil":  fn1("ceil", math.Ceil),
		"trunc": fn1("trunc", math.Trunc),
		"fabs":  fn1("fabs", math.Abs),
		"degrees": fn1("degrees", func(r float64) float64 { return r * 180 / math.Pi }),
		"radians": fn1("radians", func(d float64) float64 { return d * math.Pi / 180 }),

		"atan2":  fn2("atan2", math.Atan2),
		"hypot":  fn2("hypot", math.Hypot),
		"pow":    fn2("pow", math.Pow),
		"fmod":   fn2("fmod", math.Mod),

		"log": HostValue(&GoFunc{Name: "math.log", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			if len(args) == 2 {
				return floatValue(math.Log(args[0].Float()) / math.Log(args[1].Float()))
			}
			requireArgs(n, args, 1, "math.log")
			return floatValue(math.Log(args[0].Float()))
		}}),
		"isnan": HostValue(&GoFunc{Name: "math.isnan", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			requireArgs(n, args, 1, "math.isnan")
			return boolValue(math.IsNaN(args[0].Float()))
		}}),
		"isinf": HostValue(&GoFunc{Name: "math.isinf", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			requireArgs(n, args, 1, "math.isinf")
			return boolValue(math.IsInf(args[0].Float(), 0))
		}}),
		"gcd": HostValue(&GoFunc{Name: "math.gcd", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			requireArgs(n, args, 2, "math.gcd")
			a, b := args[0].Int64(), args[1].Int64()
			if a < 0 {
				a = -a
			}
			if b < 0 {
				b = -b
			}
			for b != 0 {
				a, b = b, a%b
			}
			return intValue(a)
		}}),
	}
	i.symtab.PreloadBuiltin(symbol.Intern("math"), HostValue(&hostModule{name: "math", members: members}), true)
}
