package asteval

import (
	"strings"

	"github.com/grailbio/asteval/symbol"
)

// GoFunc is a builtin's Go implementation, boxed as a HostValue (spec §6's
// preloaded builtin callables). kwargs is nil when the call passed none.
type GoFunc struct {
	Name string
	Fn   func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value
}

func (f *GoFunc) String() string { return "<built-in function " + f.Name + ">" }

// Arg is one formal parameter of a FunctionDef (spec §4.4's `arg` kind). Its
// eval is only reached if a host overrides node dispatch for "arg"; the
// normal path is FunctionDef evaluating Default directly at def time.
type Arg struct {
	nodeBase
	Name    string
	Default ASTNode
}

func (n *Arg) Kind() NodeKind { return NodeArg }
func (n *Arg) String() string { return n.Name }
func (n *Arg) eval(i *Interpreter) Value {
	if n.Default == nil {
		return None
	}
	return i.Eval1(n.Default)
}

// FunctionDef implements `def name(params): body` (spec §4.6). Parameter
// defaults are evaluated once, at def time, and captured in the resulting
// Procedure — matching Python's (in)famous mutable-default semantics.
type FunctionDef struct {
	nodeBase
	Name   string
	Doc    string
	Params []*Arg
	Vararg string
	Varkw  string
	Body   []ASTNode
}

func (n *FunctionDef) Kind() NodeKind { return NodeFunctionDef }

func (n *FunctionDef) String() string {
	names := make([]string, len(n.Params))
	for idx, a := range n.Params {
		names[idx] = a.String()
	}
	return "def " + n.Name + "(" + strings.Join(names, ", ") + "): ..."
}

func (n *FunctionDef) eval(i *Interpreter) Value {
	p := &Procedure{
		Name:    n.Name,
		Doc:     n.Doc,
		Vararg:  n.Vararg,
		Varkw:   n.Varkw,
		Body:    n.Body,
		Source:  n.String(),
		DefLine: n.Pos.Line,
	}
	for _, a := range n.Params {
		p.Params = append(p.Params, a.Name)
		if a.Default != nil {
			p.Defaults = append(p.Defaults, i.Eval1(a.Default))
		}
	}
	v := procValue(p)
	if err := i.symtab.Set(symbol.Intern(n.Name), v); err != nil {
		i.recordError(err)
		panic(err)
	}
	return v
}

// Return implements the `return` statement (spec §4.6). A bare `return`
// (Value == nil) produces ReturnedNone, distinguishing it only for
// introspection; Procedure.Call normalizes it back to None regardless.
type Return struct {
	nodeBase
	Value ASTNode
}

func (n *Return) Kind() NodeKind { return NodeReturn }
func (n *Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

func (n *Return) eval(i *Interpreter) Value {
	if n.Value == nil {
		i.retval = ReturnedNone
	} else {
		i.retval = i.Eval1(n.Value)
		if i.retval.IsNone() {
			i.retval = ReturnedNone
		}
	}
	i.hasRetval = true
	i.interrupt = interruptReturn
	return i.retval
}

// Keyword is one `name=value` or `**expr` argument of a Call.
type Keyword struct {
	Name  string // "" marks a **expr dict-merge keyword argument
	Value ASTNode
}

// Call implements function/procedure invocation (spec §4.6), including
// `*args`/`**kwargs` expansion at the call site.
type Call struct {
	nodeBase
	Func     ASTNode
	Args     []ASTNode // may contain *Starred elements
	Keywords []Keyword
}

func (n *Call) Kind() NodeKind { return NodeCall }

func (n *Call) String() string {
	return fmtNode(n.Func.String(), n.Args...)
}

func (n *Call) eval(i *Interpreter) Value {
	callee := i.Eval1(n.Func)
	args := evalElts(i, n.Args)
	kwargs := map[string]Value{}
	for _, kw := range n.Keywords {
		v := i.Eval1(kw.Value)
		if kw.Name == "" {
			if v.Kind() != DictKind {
				raise(TypeError, n, "argument after ** must be a dict")
			}
			for _, k := range v.Dict().Keys() {
				val, _ := v.Dict().Get(k)
				name := k.Str()
				if _, dup := kwargs[name]; dup {
					raise(SyntaxError, n, "keyword argument repeated: %s", name)
				}
				kwargs[name] = val
			}
			continue
		}
		if _, dup := kwargs[kw.Name]; dup {
			raise(SyntaxError, n, "keyword argument repeated: %s", kw.Name)
		}
		kwargs[kw.Name] = v
	}

	switch callee.Kind() {
	case ProcKind:
		return callee.Proc().Call(i, n, args, kwargs)
	case HostKind:
		if gf, ok := callee.Host().(*GoFunc); ok {
			var kd *Dict
			if len(kwargs) > 0 {
				kd = NewDict()
				for k, v := range kwargs {
					kd.Set(stringValue(k), v)
				}
			}
			return gf.Fn(i, n, args, kd)
		}
	}
	raise(TypeError, n, "'%s' object is not callable", callee.Kind())
	return Value{}
}
