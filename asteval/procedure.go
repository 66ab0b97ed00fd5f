package asteval

import (
	"strings"

	"github.com/grailbio/asteval/symbol"
)

// Procedure is a user-defined function (spec §4.6). Defaults are evaluated
// once, at def time, and stored as Values — exactly like Python's own
// mutable-default-argument behavior.
//
// Grounded on gql/func.go's UserFunction (name, formal params, body,
// closure-free invocation via a fresh bindings map); generalized to
// Python's full parameter grammar (positional defaults, *args, **kwargs),
// which GQL's user-defined functions do not have.
type Procedure struct {
	Name       string
	Doc        string
	Params     []string // positional/keyword-or-positional parameter names, in order
	Defaults   []Value  // Defaults[i] is Params[len(Params)-len(Defaults)+i]'s default
	Vararg     string   // "" if the def has no *args
	Varkw      string   // "" if the def has no **kwargs
	Body       []ASTNode
	Source     string
	DefLine    int
}

func (p *Procedure) String() string {
	return "<function " + p.Name + ">"
}

// numRequired is the count of leading Params with no default.
func (p *Procedure) numRequired() int { return len(p.Params) - len(p.Defaults) }

// Call implements spec §4.6's 8-step binding-order algorithm, then runs the
// body in a fresh call scope. args is the already-evaluated, already-starred-
// expanded positional argument list; kwargs maps keyword name to value
// (duplicate-keyword detection happens before this is built, in ast_func.go's
// Call.eval, since only there do we still have the source AST to blame).
func (p *Procedure) Call(i *Interpreter, n ASTNode, args []Value, kwargs map[string]Value) Value {
	undoDepth := i.limits.enterCall(n)
	defer undoDepth()

	locals := make(map[symbol.ID]Value, len(p.Params)+2)
	bound := make(map[string]bool, len(p.Params))

	// Step 1-2: positional args fill Params left to right; surplus beyond
	// len(Params) goes to *args if present, else is a TypeError.
	pos := args
	for idx, name := range p.Params {
		if idx < len(pos) {
			locals[symbol.Intern(name)] = pos[idx]
			bound[name] = true
		}
	}
	var extra []Value
	if len(pos) > len(p.Params) {
		extra = append([]Value{}, pos[len(p.Params):]...)
	}

	// Step 3: keyword args fill remaining Params by name; a keyword matching
	// an already positionally-bound param is a duplicate-argument TypeError.
	for name, v := range kwargs {
		found := false
		for _, pname := range p.Params {
			if pname == name {
				found = true
				if bound[pname] {
					raise(TypeError, n, "%s() got multiple values for argument '%s'", p.Name, name)
				}
				locals[symbol.Intern(pname)] = v
				bound[pname] = true
				break
			}
		}
		if !found {
			if p.Varkw == "" {
				raise(TypeError, n, "%s() got an unexpected keyword argument '%s'", p.Name, name)
			}
		}
	}

	// Step 4: arity check — every required (no-default) param must now be
	// bound.
	for idx := 0; idx < p.numRequired(); idx++ {
		if !bound[p.Params[idx]] {
			raise(TypeError, n, "%s() missing required argument: '%s'", p.Name, p.Params[idx])
		}
	}

	// Step 5: remaining unbound params take their defaults.
	for idx := p.numRequired(); idx < len(p.Params); idx++ {
		name := p.Params[idx]
		if !bound[name] {
			locals[symbol.Intern(name)] = p.Defaults[idx-p.numRequired()]
		}
	}

	// Step 6: *args collects positional surplus.
	if p.Vararg != "" {
		locals[symbol.Intern(p.Vararg)] = tupleValue(extra)
	} else if len(extra) > 0 {
		raise(TypeError, n, "%s() takes %d positional arguments but %d were given", p.Name, len(p.Params), len(args))
	}

	// Step 7-8: **kwargs collects keyword surplus not matching any Param.
	if p.Varkw != "" {
		d := NewDict()
		for name, v := range kwargs {
			isParam := false
			for _, pname := range p.Params {
				if pname == name {
					isParam = true
					break
				}
			}
			if !isParam {
				d.Set(stringValue(name), v)
			}
		}
		locals[symbol.Intern(p.Varkw)] = dictValue(d)
	}

	undo := i.symtab.pushCall(locals)
	defer undo()

	prevInterrupt := i.interrupt
	i.interrupt = interruptNone
	runBody(i, p.Body)
	result := None
	if i.hasRetval {
		result = i.retval.Normalize()
	}
	i.hasRetval = false
	i.retval = Value{}
	i.interrupt = prevInterrupt
	return result
}

func paramListString(p *Procedure) string {
	parts := make([]string, 0, len(p.Params)+2)
	for idx, name := range p.Params {
		if idx >= p.numRequired() {
			parts = append(parts, name+"="+Repr(p.Defaults[idx-p.numRequired()]))
		} else {
			parts = append(parts, name)
		}
	}
	if p.Vararg != "" {
		parts = append(parts, "*"+p.Vararg)
	}
	if p.Varkw != "" {
		parts = append(parts, "**"+p.Varkw)
	}
	return strings.Join(parts, ", ")
}
