package asteval

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unsafe"
)

// Value is a tagged variant holding any runtime datum the evaluator can
// produce: a scalar, a container, a callable, or an opaque host object.
//
// Scalars that fit in a machine word (bool, float64) are carried inline in
// v. Everything else is boxed behind p. This mirrors the teacher's
// Value{typ,p,v} layout; unlike the teacher we box through a plain pointer
// to a concrete Go type rather than a reflect.StringHeader-shaped byte
// range, since nothing here is on a hot distributed-shuffle path.
type Value struct {
	kind Kind
	v    uint64
	p    unsafe.Pointer
}

// Empty is the sentinel returned by a symbol-table miss.
var Empty = Value{kind: EmptyKind}

// None is the language's null value.
var None = Value{kind: NoneKind}

// ReturnedNone marks a `return` (or bare `return None`) that explicitly
// produced no value. The procedure-call boundary converts it back to None.
var ReturnedNone = Value{kind: ReturnedNoneKind}

// Ellipsis is the `...` literal.
var Ellipsis = Value{kind: EllipsisKind}

func boolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: BoolKind, v: n}
}

func floatValue(f float64) Value {
	return Value{kind: FloatKind, v: math.Float64bits(f)}
}

func intValue(i int64) Value {
	return intValueBig(big.NewInt(i))
}

func intValueBig(i *big.Int) Value {
	return Value{kind: IntKind, p: unsafe.Pointer(i)}
}

func stringValue(s string) Value {
	s2 := s
	return Value{kind: StringKind, p: unsafe.Pointer(&s2)}
}

func bytesValue(b []byte) Value {
	b2 := b
	return Value{kind: BytesKind, p: unsafe.Pointer(&b2)}
}

func listValue(items []Value) Value {
	l := &List{Items: items}
	return Value{kind: ListKind, p: unsafe.Pointer(l)}
}

func tupleValue(items []Value) Value {
	t := &Tuple{Items: items}
	return Value{kind: TupleKind, p: unsafe.Pointer(t)}
}

func dictValue(d *Dict) Value {
	return Value{kind: DictKind, p: unsafe.Pointer(d)}
}

func setValue(s *Set) Value {
	return Value{kind: SetKind, p: unsafe.Pointer(s)}
}

func procValue(p *Procedure) Value {
	return Value{kind: ProcKind, p: unsafe.Pointer(p)}
}

// HostValue boxes an arbitrary Go value so it can flow through the
// evaluator as an opaque host object. Attribute access on it is mediated by
// safeGetattr (see safety.go).
func HostValue(v interface{}) Value {
	h := &hostObject{v: v}
	return Value{kind: HostKind, p: unsafe.Pointer(h)}
}

type hostObject struct{ v interface{} }

// Kind reports the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the symbol-miss sentinel.
func (v Value) IsEmpty() bool { return v.kind == EmptyKind }

// IsNone reports whether v is None (ReturnedNone is NOT None: callers that
// need to treat it as None should normalize first via Normalize()).
func (v Value) IsNone() bool { return v.kind == NoneKind }

// Normalize turns ReturnedNone into None; every other kind passes through.
func (v Value) Normalize() Value {
	if v.kind == ReturnedNoneKind {
		return None
	}
	return v
}

func (v Value) Bool() bool { return v.v != 0 }

func (v Value) Float() float64 {
	switch v.kind {
	case FloatKind:
		return math.Float64frombits(v.v)
	case IntKind:
		f := new(big.Float).SetInt(v.bigInt())
		r, _ := f.Float64()
		return r
	case BoolKind:
		if v.Bool() {
			return 1
		}
		return 0
	}
	panic(wrongKindError(v, "float"))
}

func (v Value) bigInt() *big.Int { return (*big.Int)(v.p) }

// Int returns v's big.Int representation, converting from float or bool.
func (v Value) Int() *big.Int {
	switch v.kind {
	case IntKind:
		return v.bigInt()
	case BoolKind:
		if v.Bool() {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case FloatKind:
		bi, _ := big.NewFloat(v.Float()).Int(nil)
		return bi
	}
	panic(wrongKindError(v, "int"))
}

// Int64 truncates Int() to an int64, for use in contexts (indices, shift
// counts) that cannot be arbitrary precision in practice.
func (v Value) Int64() int64 {
	i := v.Int()
	if !i.IsInt64() {
		panic(newError(OverflowError, nil, "integer too large to convert"))
	}
	return i.Int64()
}

func (v Value) Str() string {
	if v.kind != StringKind {
		panic(wrongKindError(v, "str"))
	}
	return *(*string)(v.p)
}

func (v Value) Bytes() []byte {
	if v.kind != BytesKind {
		panic(wrongKindError(v, "bytes"))
	}
	return *(*[]byte)(v.p)
}

func (v Value) List() *List {
	if v.kind != ListKind {
		panic(wrongKindError(v, "list"))
	}
	return (*List)(v.p)
}

func (v Value) Tuple() *Tuple {
	if v.kind != TupleKind {
		panic(wrongKindError(v, "tuple"))
	}
	return (*Tuple)(v.p)
}

// Sequence returns the underlying []Value for list, tuple, or set-like
// containers without allocating — callers must not mutate a tuple's slice.
// Strings (one element per character) and bytes (one int per byte) get a
// freshly built slice.
func (v Value) Sequence() []Value {
	switch v.kind {
	case BytesKind:
		b := v.Bytes()
		out := make([]Value, len(b))
		for idx, c := range b {
			out[idx] = intValue(int64(c))
		}
		return out
	case ListKind:
		return v.List().Items
	case TupleKind:
		return v.Tuple().Items
	case SetKind:
		return v.Set().order
	case StringKind:
		s := v.Str()
		out := make([]Value, 0, len(s))
		for _, r := range s {
			out = append(out, stringValue(string(r)))
		}
		return out
	}
	panic(wrongKindError(v, "sequence"))
}

func (v Value) Dict() *Dict {
	if v.kind != DictKind {
		panic(wrongKindError(v, "dict"))
	}
	return (*Dict)(v.p)
}

func (v Value) Set() *Set {
	if v.kind != SetKind {
		panic(wrongKindError(v, "set"))
	}
	return (*Set)(v.p)
}

func (v Value) Proc() *Procedure {
	if v.kind != ProcKind {
		panic(wrongKindError(v, "function"))
	}
	return (*Procedure)(v.p)
}

func (v Value) Host() interface{} {
	if v.kind != HostKind {
		panic(wrongKindError(v, "host-object"))
	}
	return (*hostObject)(v.p).v
}

// List is the mutable ordered sequence container.
type List struct{ Items []Value }

// Tuple is the (conventionally) immutable ordered sequence container.
type Tuple struct{ Items []Value }

// Dict is an insertion-ordered mapping from Value to Value. Keys must be
// hashable (scalars, strings, tuples of hashable values).
type Dict struct {
	order []Value
	keys  map[string]Value
	vals  map[string]Value
}

func NewDict() *Dict {
	return &Dict{keys: map[string]Value{}, vals: map[string]Value{}}
}

func (d *Dict) Len() int { return len(d.order) }

func (d *Dict) Get(key Value) (Value, bool) {
	v, ok := d.vals[hashKey(key)]
	return v, ok
}

func (d *Dict) Set(key, val Value) {
	hk := hashKey(key)
	if _, ok := d.vals[hk]; !ok {
		d.order = append(d.order, key)
		d.keys[hk] = key
	}
	d.vals[hk] = val
}

func (d *Dict) Delete(key Value) bool {
	hk := hashKey(key)
	if _, ok := d.vals[hk]; !ok {
		return false
	}
	delete(d.vals, hk)
	delete(d.keys, hk)
	for i, k := range d.order {
		if hashKey(k) == hk {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns keys in insertion order.
func (d *Dict) Keys() []Value { return d.order }

func (d *Dict) Clone() *Dict {
	nd := NewDict()
	for _, k := range d.order {
		v, _ := d.Get(k)
		nd.Set(k, v)
	}
	return nd
}

// Set is an insertion-ordered set of hashable Values.
type Set struct {
	order []Value
	m     map[string]bool
}

func NewSet() *Set { return &Set{m: map[string]bool{}} }

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Has(v Value) bool { return s.m[hashKey(v)] }

func (s *Set) Add(v Value) {
	hk := hashKey(v)
	if s.m[hk] {
		return
	}
	s.m[hk] = true
	s.order = append(s.order, v)
}

func (s *Set) Delete(v Value) bool {
	hk := hashKey(v)
	if !s.m[hk] {
		return false
	}
	delete(s.m, hk)
	for i, e := range s.order {
		if hashKey(e) == hk {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Set) Clone() *Set {
	ns := NewSet()
	for _, v := range s.order {
		ns.Add(v)
	}
	return ns
}

// hashKey produces a deterministic string key for any hashable Value. It is
// not exposed to user code; it exists only to back Dict/Set's Go maps.
func hashKey(v Value) string {
	switch v.kind {
	case NoneKind:
		return "n"
	case EllipsisKind:
		return "e"
	case BoolKind:
		return "b" + strconv.FormatBool(v.Bool())
	case IntKind:
		return "i" + v.Int().String()
	case FloatKind:
		return "f" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case StringKind:
		return "s" + v.Str()
	case BytesKind:
		return "y" + string(v.Bytes())
	case TupleKind:
		var sb strings.Builder
		sb.WriteByte('t')
		for _, e := range v.Tuple().Items {
			sb.WriteString(hashKey(e))
			sb.WriteByte(',')
		}
		return sb.String()
	}
	panic(newError(TypeError, nil, fmt.Sprintf("unhashable type: '%s'", v.kind)))
}

func wrongKindError(v Value, want string) *EvalError {
	return newError(TypeError, nil, fmt.Sprintf("expected %s, got %s", want, v.kind))
}

// Truthy implements Python-style truthiness.
func (v Value) Truthy() bool {
	switch v.kind {
	case NoneKind, EmptyKind, ReturnedNoneKind:
		return false
	case BoolKind:
		return v.Bool()
	case IntKind:
		return v.Int().Sign() != 0
	case FloatKind:
		return v.Float() != 0
	case StringKind:
		return len(v.Str()) != 0
	case BytesKind:
		return len(v.Bytes()) != 0
	case ListKind:
		return len(v.List().Items) != 0
	case TupleKind:
		return len(v.Tuple().Items) != 0
	case DictKind:
		return v.Dict().Len() != 0
	case SetKind:
		return v.Set().Len() != 0
	default:
		return true
	}
}

// Equal implements Python-style `==` for the kinds the evaluator supports.
func Equal(a, b Value) bool {
	if isNumeric(a) && isNumeric(b) {
		return numericEqual(a, b)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case NoneKind, EmptyKind, ReturnedNoneKind, EllipsisKind:
		return true
	case StringKind:
		return a.Str() == b.Str()
	case BytesKind:
		return string(a.Bytes()) == string(b.Bytes())
	case ListKind:
		return sequenceEqual(a.List().Items, b.List().Items)
	case TupleKind:
		return sequenceEqual(a.Tuple().Items, b.Tuple().Items)
	case SetKind:
		sa, sb := a.Set(), b.Set()
		if sa.Len() != sb.Len() {
			return false
		}
		for _, e := range sa.order {
			if !sb.Has(e) {
				return false
			}
		}
		return true
	case DictKind:
		da, db := a.Dict(), b.Dict()
		if da.Len() != db.Len() {
			return false
		}
		for _, k := range da.order {
			va, _ := da.Get(k)
			vb, ok := db.Get(k)
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case ProcKind:
		return a.p == b.p
	case HostKind:
		return a.Host() == b.Host()
	}
	return false
}

func sequenceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isNumeric(v Value) bool {
	switch v.kind {
	case BoolKind, IntKind, FloatKind:
		return true
	}
	return false
}

func numericEqual(a, b Value) bool {
	if a.kind == FloatKind || b.kind == FloatKind {
		return a.Float() == b.Float()
	}
	return a.Int().Cmp(b.Int()) == 0
}

// pyQuote renders s as a Python string literal: single quotes, unless s
// contains a single quote and no double quote.
func pyQuote(s string) string {
	q := strconv.Quote(s)
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return q
	}
	body := strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + strings.ReplaceAll(body, "'", `\'`) + "'"
}

// Repr renders v the way Python's repr() would, for print()'s default str
// path and for the parse/eval round-trip conformance property.
func Repr(v Value) string {
	switch v.kind {
	case EmptyKind:
		return "<empty>"
	case ReturnedNoneKind:
		return "None"
	case NoneKind:
		return "None"
	case EllipsisKind:
		return "Ellipsis"
	case BoolKind:
		if v.Bool() {
			return "True"
		}
		return "False"
	case IntKind:
		return v.Int().String()
	case FloatKind:
		return formatFloat(v.Float())
	case StringKind:
		return pyQuote(v.Str())
	case BytesKind:
		return "b" + pyQuote(string(v.Bytes()))
	case ListKind:
		return "[" + joinRepr(v.List().Items) + "]"
	case TupleKind:
		items := v.Tuple().Items
		if len(items) == 1 {
			return "(" + Repr(items[0]) + ",)"
		}
		return "(" + joinRepr(items) + ")"
	case SetKind:
		if v.Set().Len() == 0 {
			return "set()"
		}
		return "{" + joinRepr(v.Set().order) + "}"
	case DictKind:
		d := v.Dict()
		parts := make([]string, 0, d.Len())
		for _, k := range d.order {
			val, _ := d.Get(k)
			parts = append(parts, Repr(k)+": "+Repr(val))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ProcKind:
		return fmt.Sprintf("<function %s>", v.Proc().Name)
	case HostKind:
		return fmt.Sprintf("%v", v.Host())
	}
	return "<invalid>"
}

func joinRepr(items []Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = Repr(v)
	}
	return strings.Join(parts, ", ")
}

// Str renders v the way Python's str() would (identical to Repr except for
// strings and bytes, which print unquoted/decoded).
func Str(v Value) string {
	switch v.kind {
	case StringKind:
		return v.Str()
	case BytesKind:
		return string(v.Bytes())
	default:
		return Repr(v)
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// sortValues sorts a slice of Values in place using Python's default
// ordering for the supported comparable kinds. Panics with TypeError on an
// unorderable mix, matching CPython's `'<' not supported between instances`.
func sortValues(items []Value, reverse bool, less func(a, b Value) bool) {
	if less == nil {
		less = func(a, b Value) bool { return compareLess(a, b) }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if reverse {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func compareLess(a, b Value) bool {
	if isNumeric(a) && isNumeric(b) {
		if a.kind == FloatKind || b.kind == FloatKind {
			return a.Float() < b.Float()
		}
		return a.Int().Cmp(b.Int()) < 0
	}
	if a.kind == StringKind && b.kind == StringKind {
		return a.Str() < b.Str()
	}
	if (a.kind == ListKind || a.kind == TupleKind) && a.kind == b.kind {
		ai, bi := a.Sequence(), b.Sequence()
		for i := 0; i < len(ai) && i < len(bi); i++ {
			if !Equal(ai[i], bi[i]) {
				return compareLess(ai[i], bi[i])
			}
		}
		return len(ai) < len(bi)
	}
	panic(newError(TypeError, nil, fmt.Sprintf("'<' not supported between instances of '%s' and '%s'", a.kind, b.kind)))
}
