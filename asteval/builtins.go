package asteval

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/grailbio/asteval/symbol"
)

// registerBuiltins preloads the identifier set spec §6 names: the
// constructor/introspection builtins, the exception-kind constructors, the
// `math` module, and `print`/`open`. Every entry is marked no-deepcopy, the
// same "process/interpreter-level, not user state" marker PreloadBuiltin
// gives every other builtin.
//
// Grounded on gql/builtin_ops.go's one-function-per-builtin style; that file
// implements GQL's operator table (==, +, cogroup helpers), not a Python
// builtin namespace, so only the *shape* (plain Go functions, arity/type
// checked by hand, no reflection-based generic dispatch) is reused.
// builtinFn is a builtin's implementation signature: positional args
// already evaluated (and *-expanded), kwargs nil when the call passed none.
type builtinFn func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value

// builtinReg binds name to fn in the interpreter being constructed, used by
// registerBuiltins and the registerPrint/registerOpen/registerMath helpers
// it delegates to.
type builtinReg func(name string, fn builtinFn)

func registerBuiltins(i *Interpreter) {
	reg := builtinReg(func(name string, fn builtinFn) {
		i.symtab.PreloadBuiltin(symbol.Intern(name), HostValue(&GoFunc{Name: name, Fn: fn}), true)
	})
	for _, kind := range []ErrKind{
		SyntaxError, NameError, TypeError, AttributeError, ValueError, KeyError,
		IndexError, ZeroDivisionError, AssertionError, ImportError,
		NotImplementedError, RuntimeError, RecursionError, OverflowError,
		MemoryError, FileNotFoundError,
	} {
		kind := kind
		reg(string(kind), func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			msg := ""
			if len(args) > 0 {
				msg = Str(args[0])
			}
			return HostValue(newError(kind, n, "%s", msg))
		})
	}

	reg("abs", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "abs")
		v := args[0]
		if v.Kind() == FloatKind {
			f := v.Float()
			if f < 0 {
				f = -f
			}
			return floatValue(f)
		}
		return intValueBig(new(big.Int).Abs(v.Int()))
	})
	reg("all", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "all")
		for _, v := range sequenceFor(n, args[0]) {
			if !v.Truthy() {
				return boolValue(false)
			}
		}
		return boolValue(true)
	})
	reg("any", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "any")
		for _, v := range sequenceFor(n, args[0]) {
			if v.Truthy() {
				return boolValue(true)
			}
		}
		return boolValue(false)
	})
	reg("bin", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "bin")
		return stringValue("0b" + args[0].Int().Text(2))
	})
	reg("oct", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "oct")
		return stringValue("0o" + args[0].Int().Text(8))
	})
	reg("hex", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "hex")
		return stringValue("0x" + args[0].Int().Text(16))
	})
	reg("bool", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return boolValue(false)
		}
		return boolValue(args[0].Truthy())
	})
	reg("bytes", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return bytesValue(nil)
		}
		if args[0].Kind() == StringKind {
			return bytesValue([]byte(args[0].Str()))
		}
		var b []byte
		for _, v := range sequenceFor(n, args[0]) {
			b = append(b, byte(v.Int64()))
		}
		return bytesValue(b)
	})
	reg("bytearray", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return bytesValue(nil)
		}
		return bytesValue(args[0].Bytes())
	})
	reg("chr", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "chr")
		return stringValue(string(rune(args[0].Int64())))
	})
	reg("ord", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "ord")
		r := []rune(args[0].Str())
		if len(r) != 1 {
			raise(TypeError, n, "ord() expected a character, got string of length %d", len(r))
		}
		return intValue(int64(r[0]))
	})
	reg("dict", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		d := NewDict()
		if len(args) > 0 {
			switch args[0].Kind() {
			case DictKind:
				for _, k := range args[0].Dict().Keys() {
					v, _ := args[0].Dict().Get(k)
					d.Set(k, v)
				}
			default:
				for _, pair := range sequenceFor(n, args[0]) {
					p := pair.Sequence()
					if len(p) != 2 {
						raise(ValueError, n, "dictionary update sequence element has length %d; 2 is required", len(p))
					}
					d.Set(p[0], p[1])
				}
			}
		}
		if kwargs != nil {
			for _, k := range kwargs.Keys() {
				v, _ := kwargs.Get(k)
				d.Set(k, v)
			}
		}
		return dictValue(d)
	})
	reg("divmod", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 2, "divmod")
		q := binFloorDiv(n, args[0], args[1])
		m := binMod(n, args[0], args[1])
		return tupleValue([]Value{q, m})
	})
	reg("enumerate", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "enumerate")
		start := int64(0)
		if len(args) > 1 {
			start = args[1].Int64()
		}
		var out []Value
		for idx, v := range sequenceFor(n, args[0]) {
			out = append(out, tupleValue([]Value{intValue(start + int64(idx)), v}))
		}
		return listValue(out)
	})
	reg("filter", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 2, "filter")
		var out []Value
		for _, v := range sequenceFor(n, args[1]) {
			if args[0].IsNone() {
				if v.Truthy() {
					out = append(out, v)
				}
				continue
			}
			if callValue(i, n, args[0], []Value{v}).Truthy() {
				out = append(out, v)
			}
		}
		return listValue(out)
	})
	reg("map", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) < 2 {
			raise(TypeError, n, "map() requires a function and at least one iterable")
		}
		seqs := make([][]Value, len(args)-1)
		minLen := -1
		for idx, a := range args[1:] {
			seqs[idx] = sequenceFor(n, a)
			if minLen < 0 || len(seqs[idx]) < minLen {
				minLen = len(seqs[idx])
			}
		}
		var out []Value
		for k := 0; k < minLen; k++ {
			row := make([]Value, len(seqs))
			for idx := range seqs {
				row[idx] = seqs[idx][k]
			}
			out = append(out, callValue(i, n, args[0], row))
		}
		return listValue(out)
	})
	reg("float", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return floatValue(0)
		}
		if args[0].Kind() == StringKind {
			f, err := strconv.ParseFloat(strings.TrimSpace(args[0].Str()), 64)
			if err != nil {
				raise(ValueError, n, "could not convert string to float: '%s'", args[0].Str())
			}
			return floatValue(f)
		}
		return floatValue(args[0].Float())
	})
	reg("format", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "format")
		spec := ""
		if len(args) > 1 {
			spec = Str(args[1])
		}
		return stringValue(pyFormatSpec(args[0], spec))
	})
	reg("frozenset", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		s := NewSet()
		if len(args) > 0 {
			for _, v := range sequenceFor(n, args[0]) {
				s.Add(v)
			}
		}
		return setValue(s)
	})
	reg("hash", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "hash")
		var h int64
		for _, c := range hashKey(args[0]) {
			h = h*31 + int64(c)
		}
		return intValue(h)
	})
	reg("id", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "id")
		return intValue(int64(uintptr(args[0].p)))
	})
	reg("int", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return intValue(0)
		}
		base := 10
		if len(args) > 1 {
			base = int(args[1].Int64())
		}
		if args[0].Kind() == StringKind {
			bi, ok := new(big.Int).SetString(strings.TrimSpace(args[0].Str()), base)
			if !ok {
				raise(ValueError, n, "invalid literal for int() with base %d: '%s'", base, args[0].Str())
			}
			return intValueBig(bi)
		}
		return intValueBig(args[0].Int())
	})
	reg("isinstance", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 2, "isinstance")
		names := []string{Str(args[1])}
		if args[1].Kind() == TupleKind {
			names = nil
			for _, v := range args[1].Tuple().Items {
				names = append(names, Str(v))
			}
		}
		for _, want := range names {
			if kindMatchesName(args[0].Kind(), want) {
				return boolValue(true)
			}
		}
		return boolValue(false)
	})
	reg("len", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "len")
		v := args[0]
		switch v.Kind() {
		case StringKind:
			return intValue(int64(len([]rune(v.Str()))))
		case BytesKind:
			return intValue(int64(len(v.Bytes())))
		case ListKind:
			return intValue(int64(len(v.List().Items)))
		case TupleKind:
			return intValue(int64(len(v.Tuple().Items)))
		case DictKind:
			return intValue(int64(v.Dict().Len()))
		case SetKind:
			return intValue(int64(v.Set().Len()))
		}
		raise(TypeError, n, "object of type '%s' has no len()", v.Kind())
		return Value{}
	})
	reg("list", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return listValue(nil)
		}
		return listValue(append([]Value{}, sequenceFor(n, args[0])...))
	})
	reg("max", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value { return minMax(i, n, args, kwargs, false) })
	reg("min", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value { return minMax(i, n, args, kwargs, true) })
	reg("pow", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 2, "pow")
		r := binPow(n, args[0], args[1])
		if len(args) > 2 {
			return binMod(n, r, args[2])
		}
		return r
	})
	reg("range", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			stop = args[0].Int64()
		case 2:
			start, stop = args[0].Int64(), args[1].Int64()
		case 3:
			start, stop, step = args[0].Int64(), args[1].Int64(), args[2].Int64()
		default:
			raise(TypeError, n, "range expected 1 to 3 arguments, got %d", len(args))
		}
		if step == 0 {
			raise(ValueError, n, "range() arg 3 must not be zero")
		}
		var out []Value
		if step > 0 {
			for v := start; v < stop; v += step {
				out = append(out, intValue(v))
			}
		} else {
			for v := start; v > stop; v += step {
				out = append(out, intValue(v))
			}
		}
		return listValue(out)
	})
	reg("repr", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "repr")
		return stringValue(Repr(args[0]))
	})
	reg("reversed", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "reversed")
		items := append([]Value{}, sequenceFor(n, args[0])...)
		for l, r := 0, len(items)-1; l < r; l, r = l+1, r-1 {
			items[l], items[r] = items[r], items[l]
		}
		return listValue(items)
	})
	reg("round", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "round")
		ndigits := 0
		haveNdigits := false
		if len(args) > 1 {
			ndigits = int(args[1].Int64())
			haveNdigits = true
		}
		r := roundHalfToEven(args[0].Float(), ndigits)
		if !haveNdigits {
			return intValueBig(big.NewInt(int64(r)))
		}
		return floatValue(r)
	})
	reg("set", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		s := NewSet()
		if len(args) > 0 {
			for _, v := range sequenceFor(n, args[0]) {
				s.Add(v)
			}
		}
		return setValue(s)
	})
	reg("slice", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		t := sliceTriple{}
		switch len(args) {
		case 1:
			t.upper = &args[0]
		case 2:
			t.lower, t.upper = &args[0], &args[1]
		case 3:
			t.lower, t.upper, t.step = &args[0], &args[1], &args[2]
		default:
			raise(TypeError, n, "slice expected 1 to 3 arguments, got %d", len(args))
		}
		return HostValue(t)
	})
	reg("sorted", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "sorted")
		items := append([]Value{}, sequenceFor(n, args[0])...)
		reverse := false
		var key Value
		hasKey := false
		if kwargs != nil {
			if v, ok := kwargs.Get(stringValue("reverse")); ok {
				reverse = v.Truthy()
			}
			if v, ok := kwargs.Get(stringValue("key")); ok {
				key, hasKey = v, true
			}
		}
		var less func(a, b Value) bool
		if hasKey {
			less = func(a, b Value) bool {
				return compareLess(callValue(i, n, key, []Value{a}), callValue(i, n, key, []Value{b}))
			}
		}
		sortValues(items, reverse, less)
		return listValue(items)
	})
	reg("str", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return stringValue("")
		}
		return stringValue(Str(args[0]))
	})
	reg("sum", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		requireArgs(n, args, 1, "sum")
		acc := intValue(0)
		if len(args) > 1 {
			acc = args[1]
		}
		for _, v := range sequenceFor(n, args[0]) {
			acc = binAdd(n, acc, v)
		}
		return acc
	})
	reg("tuple", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return tupleValue(nil)
		}
		return tupleValue(append([]Value{}, sequenceFor(n, args[0])...))
	})
	reg("zip", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) == 0 {
			return listValue(nil)
		}
		seqs := make([][]Value, len(args))
		minLen := -1
		for idx, a := range args {
			seqs[idx] = sequenceFor(n, a)
			if minLen < 0 || len(seqs[idx]) < minLen {
				minLen = len(seqs[idx])
			}
		}
		var out []Value
		for k := 0; k < minLen; k++ {
			row := make([]Value, len(seqs))
			for idx := range seqs {
				row[idx] = seqs[idx][k]
			}
			out = append(out, tupleValue(row))
		}
		return listValue(out)
	})

	registerPrint(reg)
	registerOpen(reg)
	registerMath(i)
}

func requireArgs(n ASTNode, args []Value, want int, name string) {
	if len(args) != want {
		raise(TypeError, n, "%s() takes exactly %d argument(s) (%d given)", name, want, len(args))
	}
}

// callValue invokes callee (a Procedure or GoFunc) with positional args and
// no keywords — the shape every higher-order builtin (map/filter/sorted's
// key) needs.
func callValue(i *Interpreter, n ASTNode, callee Value, args []Value) Value {
	switch callee.Kind() {
	case ProcKind:
		return callee.Proc().Call(i, n, args, nil)
	case HostKind:
		if gf, ok := callee.Host().(*GoFunc); ok {
			return gf.Fn(i, n, args, nil)
		}
	}
	raise(TypeError, n, "'%s' object is not callable", callee.Kind())
	return Value{}
}

func minMax(i *Interpreter, n ASTNode, args []Value, kwargs *Dict, wantMin bool) Value {
	var items []Value
	if len(args) == 1 {
		items = sequenceFor(n, args[0])
	} else {
		items = args
	}
	if len(items) == 0 {
		raise(ValueError, n, "arg is an empty sequence")
	}
	var key Value
	hasKey := false
	if kwargs != nil {
		if v, ok := kwargs.Get(stringValue("key")); ok {
			key, hasKey = v, true
		}
	}
	best := items[0]
	bestKey := best
	if hasKey {
		bestKey = callValue(i, n, key, []Value{best})
	}
	for _, v := range items[1:] {
		k := v
		if hasKey {
			k = callValue(i, n, key, []Value{v})
		}
		if (wantMin && compareLess(k, bestKey)) || (!wantMin && compareLess(bestKey, k)) {
			best, bestKey = v, k
		}
	}
	return best
}

func kindMatchesName(k Kind, name string) bool {
	switch name {
	case "int":
		return k == IntKind
	case "float":
		return k == FloatKind
	case "bool":
		return k == BoolKind
	case "str":
		return k == StringKind
	case "bytes":
		return k == BytesKind
	case "list":
		return k == ListKind
	case "tuple":
		return k == TupleKind
	case "dict":
		return k == DictKind
	case "set", "frozenset":
		return k == SetKind
	case "NoneType":
		return k == NoneKind
	}
	return false
}

func roundHalfToEven(f float64, ndigits int) float64 {
	shift := 1.0
	for k := 0; k < ndigits; k++ {
		shift *= 10
	}
	for k := 0; k > ndigits; k-- {
		shift /= 10
	}
	scaled := f * shift
	floor := fmt.Sprintf("%.0f", scaled)
	rounded, _ := strconv.ParseFloat(floor, 64)
	return rounded / shift
}
