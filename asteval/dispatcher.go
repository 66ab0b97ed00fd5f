package asteval

// Handler evaluates an AST node under the given interpreter. The default
// handler installed for every kind simply calls the node's own eval method;
// an embedder may override it via Interpreter.SetNodeHandler to change or
// instrument that kind's semantics at runtime (spec §4.4).
type Handler func(i *Interpreter, n ASTNode) Value

func defaultHandler(i *Interpreter, n ASTNode) Value { return n.eval(i) }

// dispatcher is the per-instance node-kind -> handler registry.
//
// Grounded on gql/ast.go's ASTNode interface, which GQL dispatches through a
// static Go type switch / interface method call because GQL is never
// reconfigured at the node-kind level. Spec §4.4 requires runtime
// enable/disable/replace per kind, which a type switch cannot express, so
// this registry is new code written in the teacher's idiom (a small struct
// wrapping a map, no reflection) rather than adapted from any one teacher
// file.
type dispatcher struct {
	handlers map[NodeKind]Handler
}

func newDispatcher(cfg Config) *dispatcher {
	d := &dispatcher{handlers: make(map[NodeKind]Handler, len(allNodeKinds))}
	for _, k := range allNodeKinds {
		if cfg.enabled(k) {
			d.handlers[k] = defaultHandler
		}
	}
	return d
}

// dispatch looks up n's handler and invokes it, raising NotImplementedError
// for a disabled or unknown kind.
func (d *dispatcher) dispatch(i *Interpreter, n ASTNode) Value {
	h, ok := d.handlers[n.Kind()]
	if !ok {
		raise(NotImplementedError, n, "'%s' is not supported", n.Kind())
	}
	return h(i, n)
}

// RemoveNodeHandler disables kind: subsequent evaluation of a node of that
// kind raises NotImplementedError. Disabling NodeImport also clears
// AllowUnsafeModules, per spec §4.4.
func (i *Interpreter) RemoveNodeHandler(kind NodeKind) {
	delete(i.dispatcher.handlers, kind)
	if kind == NodeImport {
		i.config.AllowUnsafeModules = false
	}
}

// SetNodeHandler installs h as kind's handler, replacing the default (or a
// previously disabled) one. A nil h restores the default behavior. Enabling
// NodeImport this way also sets AllowUnsafeModules, mirroring the clear on
// RemoveNodeHandler: an embedder who explicitly turns import back on is
// presumed to want the modules it imports usable, not merely bindable.
func (i *Interpreter) SetNodeHandler(kind NodeKind, h Handler) {
	if h == nil {
		h = defaultHandler
	}
	i.dispatcher.handlers[kind] = h
	if kind == NodeImport {
		i.config.AllowUnsafeModules = true
	}
}
