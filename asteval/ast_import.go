package asteval

import (
	"strings"

	"github.com/grailbio/asteval/symbol"
)

// hostModule is the Value a WithModule-registered import resolves to: a
// named bag of members, looked up through the attrResolver hook in
// safety.go's resolveAttr rather than reflection (there is no Go struct
// backing a script-visible module).
type hostModule struct {
	name    string
	members map[string]Value
}

func (m *hostModule) String() string { return "<module '" + m.name + "'>" }

func (m *hostModule) ResolveAttr(name string) (Value, bool) {
	v, ok := m.members[name]
	return v, ok
}

// Import implements `import a.b.c` (spec §4.4's `import`, disabled by
// default). Only modules the host pre-registered via WithModule resolve;
// anything else is ImportError.
type Import struct {
	nodeBase
	Module string
	Asname string // "" binds under Module's first dotted component
}

func (n *Import) Kind() NodeKind { return NodeImport }
func (n *Import) String() string {
	if n.Asname != "" {
		return "import " + n.Module + " as " + n.Asname
	}
	return "import " + n.Module
}

func (n *Import) eval(i *Interpreter) Value {
	mv := lookupModule(i, n, n.Module)
	name := n.Asname
	if name == "" {
		name = strings.SplitN(n.Module, ".", 2)[0]
	}
	bindImport(i, n, name, mv)
	return None
}

// ImportFrom implements `from module import a, b as c` (spec §4.4's
// `importfrom`).
type ImportFrom struct {
	nodeBase
	Module  string
	Names   []string
	Asnames []string // parallel to Names; "" entries mean no alias
}

func (n *ImportFrom) Kind() NodeKind { return NodeImportFrom }
func (n *ImportFrom) String() string {
	return "from " + n.Module + " import " + strings.Join(n.Names, ", ")
}

func (n *ImportFrom) eval(i *Interpreter) Value {
	mv := lookupModule(i, n, n.Module)
	for idx, member := range n.Names {
		v := safeGetattr(n, mv, member, i.config.AllowUnsafeModules)
		name := member
		if n.Asnames[idx] != "" {
			name = n.Asnames[idx]
		}
		bindImport(i, n, name, v)
	}
	return None
}

func lookupModule(i *Interpreter, n ASTNode, name string) Value {
	if v, ok := i.modules[name]; ok {
		return v
	}
	raise(ImportError, n, "no module named '%s'", name)
	return Value{}
}

func bindImport(i *Interpreter, n ASTNode, name string, v Value) {
	if !validSymbolName(name) {
		raise(SyntaxError, n, "invalid identifier '%s'", name)
	}
	if err := i.symtab.Set(symbol.Intern(name), v); err != nil {
		i.recordError(err)
		panic(err)
	}
}
