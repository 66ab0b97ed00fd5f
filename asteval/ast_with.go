package asteval

import "strings"

// WithManager is the Go-side context-manager protocol a host object can
// implement to participate in a `with` statement: Enter returns the value
// bound by `as`, Exit runs unconditionally and may return true to swallow a
// pending exception (Python's `__exit__` truthy-return rule).
type WithManager interface {
	Enter() Value
	Exit(exc *EvalError) bool
}

// WithItem is one `expr as target` clause of a With.
type WithItem struct {
	Context ASTNode
	Target  ASTNode // nil if no `as`
}

// With implements the `with` statement (spec §4.4's `with`, enabled by
// default like the other statement kinds in spec §3's Configuration table).
// Only host objects implementing WithManager are usable context managers —
// there is no bare try/finally fallback since this evaluator exposes no
// generic resource needing one.
type With struct {
	nodeBase
	Items []WithItem
	Body  []ASTNode
}

func (n *With) Kind() NodeKind { return NodeWith }

func (n *With) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.Context.String()
	}
	return "with " + strings.Join(parts, ", ") + ": ..."
}

func (n *With) eval(i *Interpreter) Value {
	var mgrs []WithManager
	for _, item := range n.Items {
		ctxVal := i.Eval1(item.Context)
		if ctxVal.Kind() != HostKind {
			raise(TypeError, n, "'%s' object does not support the context manager protocol", ctxVal.Kind())
		}
		mgr, ok := ctxVal.Host().(WithManager)
		if !ok {
			raise(TypeError, n, "'%s' object does not support the context manager protocol", ctxVal.Kind())
		}
		mgrs = append(mgrs, mgr)
		if item.Target != nil {
			assignTo(i, item.Target, mgr.Enter())
		} else {
			mgr.Enter()
		}
	}

	var result Value
	caught := Recover(func() {
		result = runBody(i, n.Body)
	})
	for idx := len(mgrs) - 1; idx >= 0; idx-- {
		if mgrs[idx].Exit(caught) {
			caught = nil
		}
	}
	if caught != nil {
		panic(caught)
	}
	return result
}
