package asteval

import (
	"reflect"

	"github.com/grailbio/asteval/symbol"
)

// Assign implements spec §4.5's "Assignment targets": a name, attribute,
// subscript, or nested tuple/list of targets. Multiple Targets implement
// SPEC_FULL §D.4's chained assignment `a = b = expr`.
type Assign struct {
	nodeBase
	Targets []ASTNode
	Value   ASTNode
}

func (n *Assign) Kind() NodeKind { return NodeAssign }

func (n *Assign) String() string {
	s := ""
	for _, t := range n.Targets {
		s += t.String() + " = "
	}
	return s + n.Value.String()
}

func (n *Assign) eval(i *Interpreter) Value {
	val := i.Eval1(n.Value)
	for _, t := range n.Targets {
		assignTo(i, t, val)
	}
	return val
}

// assignTo binds val into target, recursing through nested tuple/list
// unpacking targets.
func assignTo(i *Interpreter, target ASTNode, val Value) {
	switch t := target.(type) {
	case *Name:
		if !validSymbolName(t.Id) {
			raise(SyntaxError, t, "invalid identifier '%s'", t.Id)
		}
		if err := i.symtab.Set(symbol.Intern(t.Id), val); err != nil {
			i.recordError(err)
			panic(err)
		}
	case *Attribute:
		recv := i.Eval1(t.Value)
		setAttr(t, recv, t.Attr, val)
	case *Subscript:
		base := i.Eval1(t.Value)
		key := i.Eval1(t.Slice)
		if key.Kind() == HostKind {
			if triple, ok := key.Host().(sliceTriple); ok {
				sliceSet(t, base, triple, val)
				return
			}
		}
		subscriptSet(t, base, key, val)
	case *TupleLit:
		unpackAssign(i, t.Elts, val, t)
	case *ListLit:
		unpackAssign(i, t.Elts, val, t)
	case *Starred:
		assignTo(i, t.X, val)
	default:
		raise(RuntimeError, target, "invalid assignment target")
	}
}

// unpackAssign implements tuple/list-target unpacking, including a single
// `*rest` element collecting the surplus (Python's extended iterable
// unpacking). Arity mismatch raises ValueError per spec §4.5.
func unpackAssign(i *Interpreter, targets []ASTNode, val Value, n ASTNode) {
	items := val.Sequence()
	starIdx := -1
	for idx, t := range targets {
		if _, ok := t.(*Starred); ok {
			if starIdx >= 0 {
				raise(SyntaxError, n, "multiple starred expressions in assignment")
			}
			starIdx = idx
		}
	}
	if starIdx < 0 {
		if len(items) != len(targets) {
			raise(ValueError, n, "too many values to unpack")
		}
		for idx, t := range targets {
			assignTo(i, t, items[idx])
		}
		return
	}
	before := starIdx
	after := len(targets) - starIdx - 1
	if len(items) < before+after {
		raise(ValueError, n, "not enough values to unpack")
	}
	for idx := 0; idx < before; idx++ {
		assignTo(i, targets[idx], items[idx])
	}
	mid := items[before : len(items)-after]
	assignTo(i, targets[starIdx].(*Starred).X, listValue(append([]Value{}, mid...)))
	for idx := 0; idx < after; idx++ {
		assignTo(i, targets[starIdx+1+idx], items[len(items)-after+idx])
	}
}

// loadValue evaluates target as an ordinary load expression, used by
// AugAssign to read the current value before rewriting `x OP= v` into
// `x = x OP v` (spec §4.5).
func loadValue(i *Interpreter, target ASTNode) Value {
	switch t := target.(type) {
	case *Attribute:
		recv := i.Eval1(t.Value)
		return safeGetattr(t, recv, t.Attr, i.config.AllowUnsafeModules)
	case *Subscript:
		base := i.Eval1(t.Value)
		key := i.Eval1(t.Slice)
		return subscriptGet(t, base, key)
	default:
		return i.Eval1(target)
	}
}

// AugAssign implements `x OP= v` (spec §4.5), enumerated over SPEC_FULL
// §D.1's full operator set.
type AugAssign struct {
	nodeBase
	Target ASTNode
	Op     string
	Value  ASTNode
}

func (n *AugAssign) Kind() NodeKind { return NodeAugAssign }
func (n *AugAssign) String() string { return n.Target.String() + " " + n.Op + "= " + n.Value.String() }

func (n *AugAssign) eval(i *Interpreter) Value {
	cur := loadValue(i, n.Target)
	rhs := i.Eval1(n.Value)
	newVal := evalBinOp(n, n.Op, cur, rhs)
	assignTo(i, n.Target, newVal)
	return newVal
}

// Delete implements the `del` statement.
type Delete struct {
	nodeBase
	Targets []ASTNode
}

func (n *Delete) Kind() NodeKind { return NodeDelete }
func (n *Delete) String() string { return "del " + joinNodes(n.Targets) }

func (n *Delete) eval(i *Interpreter) Value {
	for _, target := range n.Targets {
		switch t := target.(type) {
		case *Name:
			if err := i.symtab.Remove(symbol.Intern(t.Id)); err != nil {
				i.recordError(err)
				panic(err)
			}
		case *Subscript:
			base := i.Eval1(t.Value)
			key := i.Eval1(t.Slice)
			deleteSubscript(t, base, key)
		case *Attribute:
			raise(AttributeError, t, "can't delete attribute '%s'", t.Attr)
		default:
			raise(RuntimeError, target, "invalid delete target")
		}
	}
	return None
}

func deleteSubscript(n ASTNode, base, key Value) {
	switch base.Kind() {
	case DictKind:
		if !base.Dict().Delete(key) {
			raise(KeyError, n, "%s", Repr(key))
		}
	case SetKind:
		if !base.Set().Delete(key) {
			raise(KeyError, n, "%s", Repr(key))
		}
	case ListKind:
		l := base.List()
		idx := normalizeIndex(n, int(key.Int64()), len(l.Items))
		l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	default:
		raise(TypeError, n, "'%s' object doesn't support item deletion", base.Kind())
	}
}

func subscriptSet(n ASTNode, base, key, val Value) {
	switch base.Kind() {
	case ListKind:
		l := base.List()
		idx := normalizeIndex(n, int(key.Int64()), len(l.Items))
		l.Items[idx] = val
	case DictKind:
		base.Dict().Set(key, val)
	default:
		raise(TypeError, n, "'%s' object does not support item assignment", base.Kind())
	}
}

func sliceSet(n ASTNode, base Value, t sliceTriple, val Value) {
	if base.Kind() != ListKind {
		raise(TypeError, n, "'%s' object does not support slice assignment", base.Kind())
	}
	l := base.List()
	lo, hi, step := sliceBounds(t, len(l.Items))
	repl := val.Sequence()
	if step != 1 {
		idxs := []int{}
		if step > 0 {
			for idx := lo; idx < hi; idx += step {
				idxs = append(idxs, idx)
			}
		} else {
			for idx := lo; idx > hi; idx += step {
				idxs = append(idxs, idx)
			}
		}
		if len(idxs) != len(repl) {
			raise(ValueError, n, "attempt to assign sequence of size %d to extended slice of size %d", len(repl), len(idxs))
		}
		for k, idx := range idxs {
			l.Items[idx] = repl[k]
		}
		return
	}
	if lo > hi {
		hi = lo
	}
	out := append([]Value{}, l.Items[:lo]...)
	out = append(out, repl...)
	out = append(out, l.Items[hi:]...)
	l.Items = out
}

// setAttr performs the host's native set-attribute (spec §4.5's "store uses
// the host's native set-attribute"), via reflection on an exported struct
// field.
func setAttr(n ASTNode, recv Value, name string, val Value) {
	if unsafeAttr[name] || isDunder(name) {
		raise(AttributeError, n, "no safe attribute '%s' for %s", name, Repr(recv))
	}
	if recv.Kind() != HostKind {
		raise(AttributeError, n, "'%s' object has no attribute '%s'", recv.Kind(), name)
	}
	rv := reflect.ValueOf(recv.Host())
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || !rv.CanSet() {
		raise(AttributeError, n, "'%s' object attribute '%s' is not writable", recv.Kind(), name)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanSet() {
		raise(AttributeError, n, "no attribute '%s'", name)
	}
	f.Set(reflect.ValueOf(goNativeFor(f.Type(), val)))
}

// goNativeFor converts val to the Go type t expects, for setAttr's
// reflect-based struct-field assignment.
func goNativeFor(t reflect.Type, val Value) interface{} {
	switch t.Kind() {
	case reflect.String:
		return Str(val)
	case reflect.Bool:
		return val.Truthy()
	case reflect.Float64, reflect.Float32:
		return val.Float()
	case reflect.Int, reflect.Int64, reflect.Int32:
		return val.Int64()
	default:
		return val.Host()
	}
}
