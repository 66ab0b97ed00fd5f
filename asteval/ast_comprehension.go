package asteval

import "strings"

// Comprehension is one `for target in iter if cond1 if cond2` clause; a
// ListComp/SetComp/DictComp may chain several for nested comprehensions.
type Comprehension struct {
	Target ASTNode
	Iter   ASTNode
	Ifs    []ASTNode
}

func (c Comprehension) String() string {
	s := "for " + c.Target.String() + " in " + c.Iter.String()
	for _, cond := range c.Ifs {
		s += " if " + cond.String()
	}
	return s
}

func genString(gens []Comprehension) string {
	parts := make([]string, len(gens))
	for i, g := range gens {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

// runGenerators recursively iterates gens[idx:], binding each target and
// filtering by its Ifs, invoking body once per surviving combination.
// Targets are assigned into the current scope; the ListComp, SetComp and
// DictComp evaluators snapshot the innermost frame before calling this and
// restore it afterwards, so the targets do not leak (spec §4.5).
func runGenerators(i *Interpreter, gens []Comprehension, idx int, body func()) {
	if idx == len(gens) {
		body()
		return
	}
	g := gens[idx]
	items := sequenceFor(g.Iter, i.Eval1(g.Iter))
	for _, item := range items {
		assignTo(i, g.Target, item)
		ok := true
		for _, cond := range g.Ifs {
			if !i.Eval1(cond).Truthy() {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		runGenerators(i, gens, idx+1, body)
		if i.interrupt != interruptNone {
			return
		}
	}
}

// ListComp implements `[elt for ... ]` (spec §4.4's `listcomp`).
type ListComp struct {
	nodeBase
	Elt        ASTNode
	Generators []Comprehension
}

func (n *ListComp) Kind() NodeKind { return NodeListComp }
func (n *ListComp) String() string { return "[" + n.Elt.String() + " " + genString(n.Generators) + "]" }

func (n *ListComp) eval(i *Interpreter) Value {
	snap := i.symtab.Snapshot()
	defer i.symtab.Restore(snap)
	var items []Value
	runGenerators(i, n.Generators, 0, func() {
		items = append(items, i.Eval1(n.Elt))
	})
	return listValue(items)
}

// SetComp implements `{elt for ... }` (spec §4.4's `setcomp`).
type SetComp struct {
	nodeBase
	Elt        ASTNode
	Generators []Comprehension
}

func (n *SetComp) Kind() NodeKind { return NodeSetComp }
func (n *SetComp) String() string { return "{" + n.Elt.String() + " " + genString(n.Generators) + "}" }

func (n *SetComp) eval(i *Interpreter) Value {
	snap := i.symtab.Snapshot()
	defer i.symtab.Restore(snap)
	s := NewSet()
	runGenerators(i, n.Generators, 0, func() {
		s.Add(i.Eval1(n.Elt))
	})
	return setValue(s)
}

// DictComp implements `{key: value for ... }` (spec §4.4's `dictcomp`).
type DictComp struct {
	nodeBase
	Key, Value ASTNode
	Generators []Comprehension
}

func (n *DictComp) Kind() NodeKind { return NodeDictComp }
func (n *DictComp) String() string {
	return "{" + n.Key.String() + ": " + n.Value.String() + " " + genString(n.Generators) + "}"
}

func (n *DictComp) eval(i *Interpreter) Value {
	snap := i.symtab.Snapshot()
	defer i.symtab.Restore(snap)
	d := NewDict()
	runGenerators(i, n.Generators, 0, func() {
		d.Set(i.Eval1(n.Key), i.Eval1(n.Value))
	})
	return dictValue(d)
}
