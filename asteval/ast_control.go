package asteval

import "github.com/grailbio/asteval/symbol"

// If implements the `if`/`elif`/`else` statement. `elif` chains are
// represented as a nested If in Orelse, matching how a recursive-descent
// parser naturally builds the tree.
type If struct {
	nodeBase
	Test   ASTNode
	Body   []ASTNode
	Orelse []ASTNode
}

func (n *If) Kind() NodeKind { return NodeIf }
func (n *If) String() string { return "if " + n.Test.String() + ": ..." }

func (n *If) eval(i *Interpreter) Value {
	if i.Eval1(n.Test).Truthy() {
		return runBody(i, n.Body)
	}
	return runBody(i, n.Orelse)
}

// For implements `for target in iter: body` with Python's loop-`else`
// (Orelse runs only if the loop completes without `break`, per spec §4.5).
type For struct {
	nodeBase
	Target ASTNode
	Iter   ASTNode
	Body   []ASTNode
	Orelse []ASTNode
}

func (n *For) Kind() NodeKind { return NodeFor }
func (n *For) String() string { return "for " + n.Target.String() + " in " + n.Iter.String() + ": ..." }

func (n *For) eval(i *Interpreter) Value {
	iterVal := i.Eval1(n.Iter)
	items := sequenceFor(n, iterVal)
	broke := false
	for _, item := range items {
		assignTo(i, n.Target, item)
		runBody(i, n.Body)
		switch i.interrupt {
		case interruptBreak:
			i.interrupt = interruptNone
			broke = true
		case interruptContinue:
			i.interrupt = interruptNone
			continue
		case interruptReturn:
			return None
		}
		if broke {
			break
		}
	}
	if !broke {
		return runBody(i, n.Orelse)
	}
	return None
}

// sequenceFor enumerates a for-loop's iterable: sequences directly, dict
// iterates its keys (Python's `for k in d`), everything else is a TypeError.
func sequenceFor(n ASTNode, v Value) []Value {
	if v.Kind() == DictKind {
		return v.Dict().Keys()
	}
	switch v.Kind() {
	case ListKind, TupleKind, SetKind, StringKind, BytesKind:
		return v.Sequence()
	}
	raise(TypeError, n, "'%s' object is not iterable", v.Kind())
	return nil
}

// While implements `while test: body` with the same loop-`else` semantics
// as For.
type While struct {
	nodeBase
	Test   ASTNode
	Body   []ASTNode
	Orelse []ASTNode
}

func (n *While) Kind() NodeKind { return NodeWhile }
func (n *While) String() string { return "while " + n.Test.String() + ": ..." }

func (n *While) eval(i *Interpreter) Value {
	broke := false
	for i.Eval1(n.Test).Truthy() {
		runBody(i, n.Body)
		switch i.interrupt {
		case interruptBreak:
			i.interrupt = interruptNone
			broke = true
		case interruptContinue:
			i.interrupt = interruptNone
			continue
		case interruptReturn:
			return None
		}
		if broke {
			break
		}
	}
	if !broke {
		return runBody(i, n.Orelse)
	}
	return None
}

// Break implements the `break` statement, via the interrupt flag that the
// nearest enclosing For/While clears.
type Break struct{ nodeBase }

func (n *Break) Kind() NodeKind { return NodeBreak }
func (n *Break) String() string { return "break" }
func (n *Break) eval(i *Interpreter) Value {
	i.interrupt = interruptBreak
	return None
}

// Continue implements the `continue` statement.
type Continue struct{ nodeBase }

func (n *Continue) Kind() NodeKind { return NodeContinue }
func (n *Continue) String() string { return "continue" }
func (n *Continue) eval(i *Interpreter) Value {
	i.interrupt = interruptContinue
	return None
}

// ExceptHandler is one `except Kind1, Kind2 as name:` clause of a Try. An
// empty Kinds matches any EvalError (bare `except:`).
type ExceptHandler struct {
	nodeBase
	Kinds []ErrKind
	Name  string
	Body  []ASTNode
}

func (n *ExceptHandler) Kind() NodeKind { return NodeExceptHandler }
func (n *ExceptHandler) String() string { return "except: ..." }
func (n *ExceptHandler) eval(i *Interpreter) Value { return runBody(i, n.Body) }

func (n *ExceptHandler) matches(e *EvalError) bool {
	if len(n.Kinds) == 0 {
		return true
	}
	for _, k := range n.Kinds {
		if k == e.Kind {
			return true
		}
	}
	return false
}

// Try implements `try/except/else/finally` (spec §7). Body runs; on a
// raised EvalError, the first matching handler runs with curExc set so a
// bare `raise` inside it re-raises; Orelse runs only when Body raised
// nothing; Finally always runs last, and an exception raised inside it (or
// an unhandled one from Body) propagates after Finally completes.
type Try struct {
	nodeBase
	Body     []ASTNode
	Handlers []*ExceptHandler
	Orelse   []ASTNode
	Finally  []ASTNode
}

func (n *Try) Kind() NodeKind { return NodeTry }
func (n *Try) String() string { return "try: ..." }

func (n *Try) eval(i *Interpreter) Value {
	var result Value
	var pending *EvalError

	caught := Recover(func() {
		result = runBody(i, n.Body)
	})
	if caught == nil {
		result = runBody(i, n.Orelse)
	} else {
		handled := false
		for _, h := range n.Handlers {
			if !h.matches(caught) {
				continue
			}
			handled = true
			i.ClearErrors()
			prevExc := i.curExc
			i.curExc = caught
			if h.Name != "" {
				i.symtab.SetLocal(symbol.Intern(h.Name), exceptionValue(caught))
			}
			if herr := Recover(func() { result = h.eval(i) }); herr != nil {
				pending = herr
			}
			i.curExc = prevExc
			break
		}
		if !handled {
			pending = caught
		}
	}

	if ferr := Recover(func() { runBody(i, n.Finally) }); ferr != nil {
		pending = ferr
	}
	if pending != nil {
		panic(pending)
	}
	return result
}

// Raise implements `raise`, `raise Exc`, and `raise Exc from Cause` (spec
// §7). A bare `raise` re-raises the exception currently being handled.
type Raise struct {
	nodeBase
	Exc   ASTNode
	Cause ASTNode
}

func (n *Raise) Kind() NodeKind { return NodeRaise }
func (n *Raise) String() string { return "raise" }

func (n *Raise) eval(i *Interpreter) Value {
	if n.Exc == nil {
		if i.curExc == nil {
			raise(RuntimeError, n, "No active exception to re-raise")
		}
		panic(i.curExc)
	}
	v := i.Eval1(n.Exc)
	e := asEvalError(n, v)
	if n.Cause != nil {
		cause := i.Eval1(n.Cause)
		if ce, ok := cause.Host().(*EvalError); ok {
			e.Cause = ce
		}
	}
	panic(e)
}

// asEvalError converts a raised value into an *EvalError. Exception
// constructors (registered in builtins.go) produce a HostValue wrapping one
// directly; anything else is wrapped as a bare RuntimeError carrying its
// string form, matching "raise <non-exception>" being itself a TypeError in
// real Python, simplified here to a single error kind.
func asEvalError(n ASTNode, v Value) *EvalError {
	if v.Kind() == HostKind {
		if e, ok := v.Host().(*EvalError); ok {
			cp := *e
			if cp.Node == nil {
				cp.Node = n
				cp.Pos = n.pos()
			}
			return &cp
		}
	}
	return newError(RuntimeError, n, "%s", Str(v))
}

// exceptionValue boxes e as the Value bound to `except ... as name`.
func exceptionValue(e *EvalError) Value { return HostValue(e) }

// Assert implements `assert test, msg`.
type Assert struct {
	nodeBase
	Test ASTNode
	Msg  ASTNode
}

func (n *Assert) Kind() NodeKind { return NodeAssert }
func (n *Assert) String() string { return "assert " + n.Test.String() }

func (n *Assert) eval(i *Interpreter) Value {
	if i.Eval1(n.Test).Truthy() {
		return None
	}
	if n.Msg != nil {
		raise(AssertionError, n, "%s", Str(i.Eval1(n.Msg)))
	}
	raise(AssertionError, n, "")
	return None
}
