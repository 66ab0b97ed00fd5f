package asteval

import (
	"fmt"
	"strings"
)

// ListLit, TupleLit, SetLit, DictLit implement the container literal node
// kinds (spec §4.4's `list`, `tuple`, `set`, `dict`). A `*Starred` element
// inside Elts is expanded in place, matching Python's `[*a, b]` / `(*a, b)`
// literal splicing.
type ListLit struct {
	nodeBase
	Elts []ASTNode
}

func (n *ListLit) Kind() NodeKind { return NodeList }
func (n *ListLit) String() string { return "[" + joinNodes(n.Elts) + "]" }
func (n *ListLit) eval(i *Interpreter) Value {
	return listValue(evalElts(i, n.Elts))
}

type TupleLit struct {
	nodeBase
	Elts []ASTNode
}

func (n *TupleLit) Kind() NodeKind { return NodeTuple }
func (n *TupleLit) String() string { return "(" + joinNodes(n.Elts) + ")" }
func (n *TupleLit) eval(i *Interpreter) Value {
	return tupleValue(evalElts(i, n.Elts))
}

type SetLit struct {
	nodeBase
	Elts []ASTNode
}

func (n *SetLit) Kind() NodeKind { return NodeSet }
func (n *SetLit) String() string { return "{" + joinNodes(n.Elts) + "}" }
func (n *SetLit) eval(i *Interpreter) Value {
	s := NewSet()
	for _, v := range evalElts(i, n.Elts) {
		s.Add(v)
	}
	return setValue(s)
}

func evalElts(i *Interpreter, elts []ASTNode) []Value {
	var out []Value
	for _, e := range elts {
		if st, ok := e.(*Starred); ok {
			out = append(out, i.Eval1(st.X).Sequence()...)
			continue
		}
		out = append(out, i.Eval1(e))
	}
	return out
}

func joinNodes(nodes []ASTNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// DictLit implements the `dict` literal node kind. A nil entry in Keys
// marks a `**expr` merge (Values[i] evaluates to a Dict whose pairs are
// copied in), matching Python's dict-literal unpacking.
type DictLit struct {
	nodeBase
	Keys   []ASTNode // nil element => dict-unpack at Values[i]
	Values []ASTNode
}

func (n *DictLit) Kind() NodeKind { return NodeDict }

func (n *DictLit) String() string {
	parts := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		if k == nil {
			parts[i] = "**" + n.Values[i].String()
			continue
		}
		parts[i] = k.String() + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (n *DictLit) eval(i *Interpreter) Value {
	d := NewDict()
	for idx, k := range n.Keys {
		if k == nil {
			src := i.Eval1(n.Values[idx])
			for _, key := range src.Dict().Keys() {
				v, _ := src.Dict().Get(key)
				d.Set(key, v)
			}
			continue
		}
		d.Set(i.Eval1(k), i.Eval1(n.Values[idx]))
	}
	return dictValue(d)
}

// Attribute implements `recv.attr` (spec §4.5's "Attributes"). Only load
// context flows through eval; store/delete go through the assignment
// helpers in ast_assign.go, since those need the unevaluated receiver.
type Attribute struct {
	nodeBase
	Value ASTNode
	Attr  string
	Store bool
}

func (n *Attribute) Kind() NodeKind { return NodeAttribute }
func (n *Attribute) String() string { return n.Value.String() + "." + n.Attr }

func (n *Attribute) eval(i *Interpreter) Value {
	if n.Store {
		raise(RuntimeError, n, "attribute in store context evaluated directly")
	}
	recv := i.Eval1(n.Value)
	return safeGetattr(n, recv, n.Attr, i.config.AllowUnsafeModules)
}

// Index wraps a single subscript key expression (spec §4.4's `index`).
type Index struct {
	nodeBase
	Value ASTNode
}

func (n *Index) Kind() NodeKind        { return NodeIndex }
func (n *Index) String() string        { return n.Value.String() }
func (n *Index) eval(i *Interpreter) Value { return i.Eval1(n.Value) }

// SliceExpr implements a `lower:upper:step` slice (spec §4.5's "Slice nodes
// produce a triple"). Each bound is optional. Its eval result is an opaque
// host value carrying the evaluated triple; Subscript unwraps it directly
// and no other node ever consumes a slice's value.
type SliceExpr struct {
	nodeBase
	Lower, Upper, Step ASTNode
}

type sliceTriple struct{ lower, upper, step *Value }

func (n *SliceExpr) Kind() NodeKind { return NodeSlice }

func (n *SliceExpr) String() string {
	s := ""
	if n.Lower != nil {
		s += n.Lower.String()
	}
	s += ":"
	if n.Upper != nil {
		s += n.Upper.String()
	}
	if n.Step != nil {
		s += ":" + n.Step.String()
	}
	return s
}

func (n *SliceExpr) eval(i *Interpreter) Value {
	t := sliceTriple{}
	if n.Lower != nil {
		v := i.Eval1(n.Lower)
		t.lower = &v
	}
	if n.Upper != nil {
		v := i.Eval1(n.Upper)
		t.upper = &v
	}
	if n.Step != nil {
		v := i.Eval1(n.Step)
		t.step = &v
	}
	return HostValue(t)
}

// ExtSlice implements a multi-dimension subscript key `a[i, j]` (spec
// §4.4's `extslice`). We have no ndarray type (§1 non-goal), so the only
// meaningful use is a tuple-valued dict/host-object key; each dimension is
// evaluated as an ordinary index and collected into a tuple.
type ExtSlice struct {
	nodeBase
	Dims []ASTNode
}

func (n *ExtSlice) Kind() NodeKind { return NodeExtSlice }
func (n *ExtSlice) String() string { return joinNodes(n.Dims) }
func (n *ExtSlice) eval(i *Interpreter) Value {
	return tupleValue(evalElts(i, n.Dims))
}

// Subscript implements `base[key]` (spec §4.5's "Subscript").
type Subscript struct {
	nodeBase
	Value ASTNode
	Slice ASTNode
	Store bool
}

func (n *Subscript) Kind() NodeKind { return NodeSubscript }
func (n *Subscript) String() string { return fmt.Sprintf("%s[%s]", n.Value, n.Slice) }

func (n *Subscript) eval(i *Interpreter) Value {
	if n.Store {
		raise(RuntimeError, n, "subscript in store context evaluated directly")
	}
	base := i.Eval1(n.Value)
	key := i.Eval1(n.Slice)
	if key.Kind() == HostKind {
		if triple, ok := key.Host().(sliceTriple); ok {
			return sliceGet(n, base, triple)
		}
	}
	return subscriptGet(n, base, key)
}

func normalizeIndex(n ASTNode, idx, length int) int {
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		raise(IndexError, n, "index out of range")
	}
	return idx
}

func subscriptGet(n ASTNode, base, key Value) Value {
	if key.Kind() == EllipsisKind {
		return base
	}
	switch base.Kind() {
	case ListKind:
		items := base.List().Items
		return items[normalizeIndex(n, int(key.Int64()), len(items))]
	case TupleKind:
		items := base.Tuple().Items
		return items[normalizeIndex(n, int(key.Int64()), len(items))]
	case StringKind:
		runes := []rune(base.Str())
		return stringValue(string(runes[normalizeIndex(n, int(key.Int64()), len(runes))]))
	case BytesKind:
		b := base.Bytes()
		return intValue(int64(b[normalizeIndex(n, int(key.Int64()), len(b))]))
	case DictKind:
		v, ok := base.Dict().Get(key)
		if !ok {
			raise(KeyError, n, "%s", Repr(key))
		}
		return v
	}
	raise(TypeError, n, "'%s' object is not subscriptable", base.Kind())
	return Value{}
}

func sliceBounds(t sliceTriple, length int) (lo, hi, step int) {
	step = 1
	if t.step != nil {
		step = int(t.step.Int64())
		if step == 0 {
			panic(newError(ValueError, nil, "slice step cannot be zero"))
		}
	}
	if step > 0 {
		lo, hi = 0, length
	} else {
		lo, hi = length-1, -1
	}
	if t.lower != nil {
		lo = clampSliceIndex(int(t.lower.Int64()), length, step > 0)
	}
	if t.upper != nil {
		hi = clampSliceIndex(int(t.upper.Int64()), length, step > 0)
	}
	return
}

func clampSliceIndex(idx, length int, forward bool) int {
	if idx < 0 {
		idx += length
	}
	if forward {
		if idx < 0 {
			idx = 0
		}
		if idx > length {
			idx = length
		}
		return idx
	}
	if idx < -1 {
		idx = -1
	}
	if idx >= length {
		idx = length - 1
	}
	return idx
}

func sliceGet(n ASTNode, base Value, t sliceTriple) Value {
	switch base.Kind() {
	case ListKind:
		return listValue(sliceSeq(base.List().Items, t))
	case TupleKind:
		return tupleValue(sliceSeq(base.Tuple().Items, t))
	case StringKind:
		runes := []rune(base.Str())
		out := sliceRunes(runes, t)
		return stringValue(string(out))
	case BytesKind:
		return bytesValue(sliceBytes(base.Bytes(), t))
	case EllipsisKind:
		return base
	}
	raise(TypeError, n, "'%s' object is not subscriptable", base.Kind())
	return Value{}
}

func sliceSeq(items []Value, t sliceTriple) []Value {
	lo, hi, step := sliceBounds(t, len(items))
	var out []Value
	if step > 0 {
		for idx := lo; idx < hi; idx += step {
			out = append(out, items[idx])
		}
	} else {
		for idx := lo; idx > hi; idx += step {
			out = append(out, items[idx])
		}
	}
	return out
}

func sliceRunes(items []rune, t sliceTriple) []rune {
	lo, hi, step := sliceBounds(t, len(items))
	var out []rune
	if step > 0 {
		for idx := lo; idx < hi; idx += step {
			out = append(out, items[idx])
		}
	} else {
		for idx := lo; idx > hi; idx += step {
			out = append(out, items[idx])
		}
	}
	return out
}

func sliceBytes(items []byte, t sliceTriple) []byte {
	lo, hi, step := sliceBounds(t, len(items))
	var out []byte
	if step > 0 {
		for idx := lo; idx < hi; idx += step {
			out = append(out, items[idx])
		}
	} else {
		for idx := lo; idx > hi; idx += step {
			out = append(out, items[idx])
		}
	}
	return out
}
