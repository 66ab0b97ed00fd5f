package asteval

import (
	"fmt"
	"math"
	"math/big"
)

// BinOp implements spec §4.5's binary operator table.
//
// Grounded on gql/builtin_ops.go's binary-op-table style (dispatch by
// operator string, numeric-pair promotion rules) generalized from GQL's
// query-oriented operator set to Python's arithmetic/bitwise/string set,
// with the safe_pow/safe_mul/safe_add/safe_lshift bound checks from spec
// §4.2 interposed.
type BinOp struct {
	nodeBase
	Op          string
	Left, Right ASTNode
}

func (n *BinOp) Kind() NodeKind { return NodeBinOp }
func (n *BinOp) String() string { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }

func (n *BinOp) eval(i *Interpreter) Value {
	l := i.Eval1(n.Left)
	r := i.Eval1(n.Right)
	return evalBinOp(n, n.Op, l, r)
}

func evalBinOp(n ASTNode, op string, l, r Value) Value {
	switch op {
	case "+":
		return binAdd(n, l, r)
	case "-":
		return binArith(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }, func(a, b float64) float64 { return a - b })
	case "*":
		return binMul(n, l, r)
	case "/":
		return binTrueDiv(n, l, r)
	case "//":
		return binFloorDiv(n, l, r)
	case "%":
		return binMod(n, l, r)
	case "**":
		return binPow(n, l, r)
	case "<<":
		return binShift(n, l, r, true)
	case ">>":
		return binShift(n, l, r, false)
	case "&":
		return binBitwise(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })
	case "|":
		return binBitwise(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })
	case "^":
		return binBitwise(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })
	}
	raise(NotImplementedError, n, "unsupported operator %q", op)
	return Value{}
}

func isFloatPair(l, r Value) bool { return l.Kind() == FloatKind || r.Kind() == FloatKind }

func binArith(n ASTNode, l, r Value, bi func(a, b *big.Int) *big.Int, f func(a, b float64) float64) Value {
	if l.Kind() == StringKind || l.Kind() == ListKind || l.Kind() == TupleKind {
		raise(TypeError, n, "unsupported operand type(s): '%s' and '%s'", l.Kind(), r.Kind())
	}
	if isFloatPair(l, r) {
		return floatValue(f(l.Float(), r.Float()))
	}
	return intValueBig(bi(l.Int(), r.Int()))
}

func binAdd(n ASTNode, l, r Value) Value {
	switch l.Kind() {
	case StringKind:
		if r.Kind() != StringKind {
			raise(TypeError, n, `can only concatenate str (not "%s") to str`, r.Kind())
		}
		safeAdd(n, len(l.Str())+len(r.Str()))
		return stringValue(l.Str() + r.Str())
	case BytesKind:
		if r.Kind() != BytesKind {
			raise(TypeError, n, "can't concat bytes to %s", r.Kind())
		}
		safeAdd(n, len(l.Bytes())+len(r.Bytes()))
		return bytesValue(append(append([]byte{}, l.Bytes()...), r.Bytes()...))
	case ListKind:
		if r.Kind() != ListKind {
			raise(TypeError, n, `can only concatenate list (not "%s") to list`, r.Kind())
		}
		return listValue(append(append([]Value{}, l.List().Items...), r.List().Items...))
	case TupleKind:
		if r.Kind() != TupleKind {
			raise(TypeError, n, `can only concatenate tuple (not "%s") to tuple`, r.Kind())
		}
		return tupleValue(append(append([]Value{}, l.Tuple().Items...), r.Tuple().Items...))
	}
	return binArith(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }, func(a, b float64) float64 { return a + b })
}

func binMul(n ASTNode, l, r Value) Value {
	switch {
	case l.Kind() == StringKind && isNumeric(r):
		count := int(r.Int64())
		safeMul(n, len(l.Str())*max0(count))
		return stringValue(repeatString(l.Str(), count))
	case r.Kind() == StringKind && isNumeric(l):
		count := int(l.Int64())
		safeMul(n, len(r.Str())*max0(count))
		return stringValue(repeatString(r.Str(), count))
	case l.Kind() == ListKind && isNumeric(r):
		return listValue(repeatSeq(l.List().Items, int(r.Int64())))
	case r.Kind() == ListKind && isNumeric(l):
		return listValue(repeatSeq(r.List().Items, int(l.Int64())))
	}
	return binArith(n, l, r, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }, func(a, b float64) float64 { return a * b })
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for k := 0; k < n; k++ {
		out = append(out, s...)
	}
	return string(out)
}

func repeatSeq(items []Value, n int) []Value {
	if n <= 0 {
		return nil
	}
	out := make([]Value, 0, len(items)*n)
	for k := 0; k < n; k++ {
		out = append(out, items...)
	}
	return out
}

func binTrueDiv(n ASTNode, l, r Value) Value {
	rf := r.Float()
	if rf == 0 {
		raise(ZeroDivisionError, n, "division by zero")
	}
	return floatValue(l.Float() / rf)
}

func binFloorDiv(n ASTNode, l, r Value) Value {
	if isFloatPair(l, r) {
		rf := r.Float()
		if rf == 0 {
			raise(ZeroDivisionError, n, "float floor division by zero")
		}
		return floatValue(math.Floor(l.Float() / rf))
	}
	rb := r.Int()
	if rb.Sign() == 0 {
		raise(ZeroDivisionError, n, "integer division or modulo by zero")
	}
	// big.Int.DivMod gives Euclidean division (0 <= m < |b|); Python's `//`
	// floors toward -inf, which only differs from Euclidean when b < 0.
	q, m := new(big.Int), new(big.Int)
	q.DivMod(l.Int(), rb, m)
	if rb.Sign() < 0 && m.Sign() != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return intValueBig(q)
}

func binMod(n ASTNode, l, r Value) Value {
	if isFloatPair(l, r) {
		rf := r.Float()
		if rf == 0 {
			raise(ZeroDivisionError, n, "float modulo")
		}
		m := math.Mod(l.Float(), rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return floatValue(m)
	}
	if l.Kind() == StringKind {
		return stringValue(pyPercentFormat(n, l.Str(), r))
	}
	rb := r.Int()
	if rb.Sign() == 0 {
		raise(ZeroDivisionError, n, "integer division or modulo by zero")
	}
	m := new(big.Int).Mod(l.Int(), rb)
	if m.Sign() != 0 && rb.Sign() < 0 {
		m.Add(m, rb)
	}
	return intValueBig(m)
}

func binPow(n ASTNode, l, r Value) Value {
	safePow(n, r)
	if isFloatPair(l, r) {
		return floatValue(math.Pow(l.Float(), r.Float()))
	}
	if r.Int().Sign() < 0 {
		return floatValue(math.Pow(l.Float(), r.Float()))
	}
	return intValueBig(new(big.Int).Exp(l.Int(), r.Int(), nil))
}

func binShift(n ASTNode, l, r Value, left bool) Value {
	shift := r.Int64()
	if shift < 0 {
		raise(ValueError, n, "negative shift count")
	}
	safeLshift(n, shift)
	li := l.Int()
	out := new(big.Int)
	if left {
		out.Lsh(li, uint(shift))
	} else {
		out.Rsh(li, uint(shift))
	}
	return intValueBig(out)
}

func binBitwise(n ASTNode, l, r Value, f func(a, b *big.Int) *big.Int) Value {
	return intValueBig(f(l.Int(), r.Int()))
}

// UnaryOp implements `-x`, `+x`, `~x`, `not x`.
type UnaryOp struct {
	nodeBase
	Op string
	X  ASTNode
}

func (n *UnaryOp) Kind() NodeKind { return NodeUnaryOp }
func (n *UnaryOp) String() string { return fmt.Sprintf("(%s%s)", n.Op, n.X) }

func (n *UnaryOp) eval(i *Interpreter) Value {
	v := i.Eval1(n.X)
	switch n.Op {
	case "not":
		return boolValue(!v.Truthy())
	case "-":
		if v.Kind() == FloatKind {
			return floatValue(-v.Float())
		}
		return intValueBig(new(big.Int).Neg(v.Int()))
	case "+":
		if v.Kind() == FloatKind {
			return floatValue(v.Float())
		}
		return intValueBig(new(big.Int).Set(v.Int()))
	case "~":
		return intValueBig(new(big.Int).Not(v.Int()))
	}
	raise(NotImplementedError, n, "unsupported unary operator %q", n.Op)
	return Value{}
}

// BoolOp implements short-circuiting `and`/`or`, returning the last
// evaluated operand rather than a coerced bool (spec §4.5).
type BoolOp struct {
	nodeBase
	Op     string // "and" or "or"
	Values []ASTNode
}

func (n *BoolOp) Kind() NodeKind { return NodeBoolOp }
func (n *BoolOp) String() string { return fmtNode(n.Op, n.Values...) }

func (n *BoolOp) eval(i *Interpreter) Value {
	var last Value
	for idx, x := range n.Values {
		last = i.Eval1(x)
		if idx == len(n.Values)-1 {
			break
		}
		if n.Op == "and" && !last.Truthy() {
			return last
		}
		if n.Op == "or" && last.Truthy() {
			return last
		}
	}
	return last
}

// Compare implements chained comparison: `a<b<c` evaluates `a<b` then
// `b<c`, both under logical AND, short-circuiting on the first falsy result
// (spec §4.5).
type Compare struct {
	nodeBase
	Left        ASTNode
	Ops         []string
	Comparators []ASTNode
}

func (n *Compare) Kind() NodeKind { return NodeCompare }

func (n *Compare) String() string {
	s := n.Left.String()
	for i, op := range n.Ops {
		s += " " + op + " " + n.Comparators[i].String()
	}
	return "(" + s + ")"
}

func (n *Compare) eval(i *Interpreter) Value {
	left := i.Eval1(n.Left)
	for idx, op := range n.Ops {
		right := i.Eval1(n.Comparators[idx])
		if !evalCompareOp(n, op, left, right) {
			return boolValue(false)
		}
		left = right
	}
	return boolValue(true)
}

func evalCompareOp(n ASTNode, op string, l, r Value) bool {
	switch op {
	case "==":
		return Equal(l, r)
	case "!=":
		return !Equal(l, r)
	case "<":
		return compareLess(l, r)
	case "<=":
		return !compareLess(r, l)
	case ">":
		return compareLess(r, l)
	case ">=":
		return !compareLess(l, r)
	case "in":
		return containsValue(n, r, l)
	case "not in":
		return !containsValue(n, r, l)
	case "is":
		return sameObject(l, r)
	case "is not":
		return !sameObject(l, r)
	}
	raise(NotImplementedError, n, "unsupported comparison %q", op)
	return false
}

func sameObject(l, r Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	switch l.Kind() {
	case NoneKind, EmptyKind, ReturnedNoneKind, EllipsisKind:
		return true
	case BoolKind, IntKind:
		return Equal(l, r)
	}
	return l.p == r.p
}

func containsValue(n ASTNode, container, item Value) bool {
	switch container.Kind() {
	case StringKind:
		if item.Kind() != StringKind {
			raise(TypeError, n, "'in <string>' requires string as left operand")
		}
		return indexOfSubstring(container.Str(), item.Str()) >= 0
	case BytesKind:
		return indexOfSubstring(string(container.Bytes()), string(item.Bytes())) >= 0
	case ListKind:
		for _, e := range container.List().Items {
			if Equal(e, item) {
				return true
			}
		}
		return false
	case TupleKind:
		for _, e := range container.Tuple().Items {
			if Equal(e, item) {
				return true
			}
		}
		return false
	case SetKind:
		return container.Set().Has(item)
	case DictKind:
		_, ok := container.Dict().Get(item)
		return ok
	}
	raise(TypeError, n, "argument of type '%s' is not iterable", container.Kind())
	return false
}

func indexOfSubstring(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	if sub == "" {
		return 0
	}
	return -1
}

// IfExp implements the conditional expression `a if cond else b`.
type IfExp struct {
	nodeBase
	Test, Body, Orelse ASTNode
}

func (n *IfExp) Kind() NodeKind { return NodeIfExp }
func (n *IfExp) String() string { return fmt.Sprintf("(%s if %s else %s)", n.Body, n.Test, n.Orelse) }

func (n *IfExp) eval(i *Interpreter) Value {
	if i.Eval1(n.Test).Truthy() {
		return i.Eval1(n.Body)
	}
	return i.Eval1(n.Orelse)
}

// Starred implements `*expr` inside a call's argument list or an assignment
// target tuple (spec §4.4's `starred` kind).
type Starred struct {
	nodeBase
	X ASTNode
}

func (n *Starred) Kind() NodeKind    { return NodeStarred }
func (n *Starred) eval(i *Interpreter) Value { return i.Eval1(n.X) }
func (n *Starred) String() string    { return "*" + n.X.String() }
