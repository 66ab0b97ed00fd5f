package asteval

// Core AST node types: the dispatch interface, Module, bare expression
// statements, Name, and constant literals.
//
// Grounded on gql/ast.go's ASTNode interface (eval/String/pos). We drop its
// `hash(b *bindings) hash.Hash` method: that exists solely so bigslice can
// content-address a GQL expression tree across machines for distributed
// caching, a concern spec.md's single-process, non-distributed evaluator
// does not have (§1, §5 non-goals). We also add a Kind() method absent from
// the teacher, since spec §4.4 dispatches by node-kind through a registry
// the teacher never needed (GQL is not reconfigurable per node kind).

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/grailbio/asteval/symbol"
)

// ASTNode is one node of the parsed syntax tree.
type ASTNode interface {
	// Kind identifies which dispatcher entry evaluates this node.
	Kind() NodeKind

	// eval implements this node's default semantics. Only called through
	// Interpreter.Eval1/dispatcher.dispatch, never directly, so that the
	// node-handler registry (and its runtime overrides) stays the single
	// entry point.
	eval(i *Interpreter) Value

	// String renders a human-readable, logging-only description; it is not
	// guaranteed to be valid source.
	String() string

	// pos reports this node's source location.
	pos() scanner.Position
}

// nodeBase factors out the position field and pos() method every concrete
// node embeds, matching the teacher's per-node `Pos scanner.Position` field.
type nodeBase struct {
	Pos scanner.Position
}

func (n nodeBase) pos() scanner.Position { return n.Pos }

// astUnknown is used when no source-code location is known, e.g. for errors
// raised by a builtin rather than by evaluating a specific node.
type astUnknownNode struct{}

func (astUnknownNode) Kind() NodeKind                { return "" }
func (astUnknownNode) eval(i *Interpreter) Value     { panic("astUnknown.eval") }
func (astUnknownNode) String() string                { return "<unknown>" }
func (astUnknownNode) pos() scanner.Position         { return scanner.Position{} }

var astUnknown ASTNode = astUnknownNode{}

// Module is the root node returned by Parse: a flat list of top-level
// statements, evaluated in order. Its value is that of the last statement
// (spec §9's chosen "last-evaluated-expression" semantics for eval).
type Module struct {
	nodeBase
	Body []ASTNode
}

func (n *Module) Kind() NodeKind { return NodeModule }

func (n *Module) eval(i *Interpreter) Value {
	return runBody(i, n.Body)
}

func (n *Module) String() string {
	parts := make([]string, len(n.Body))
	for idx, s := range n.Body {
		parts[idx] = s.String()
	}
	return strings.Join(parts, "\n")
}

// runBody evaluates a statement list in order, honoring the interrupt flag
// (break/continue/return) by stopping early: the nearest enclosing
// loop/procedure frame is responsible for interpreting and then clearing it.
func runBody(i *Interpreter, body []ASTNode) Value {
	var val Value
	for _, stmt := range body {
		val = i.Eval1(stmt)
		if i.interrupt != interruptNone {
			break
		}
	}
	return val
}

// Expression is the root node of a single-expression parse (Python's
// ast.Expression, as opposed to Module's list of statements) — used when a
// host parses one expression for repeated evaluation rather than a script.
type Expression struct {
	nodeBase
	Body ASTNode
}

func (n *Expression) Kind() NodeKind        { return NodeExpression }
func (n *Expression) eval(i *Interpreter) Value { return i.Eval1(n.Body) }
func (n *Expression) String() string        { return n.Body.String() }

// ExprStmt wraps a bare expression used as a statement (Python's ast.Expr),
// e.g. a docstring or a call made for its side effect.
type ExprStmt struct {
	nodeBase
	X ASTNode
}

func (n *ExprStmt) Kind() NodeKind    { return NodeExpr }
func (n *ExprStmt) eval(i *Interpreter) Value { return i.Eval1(n.X) }
func (n *ExprStmt) String() string    { return n.X.String() }

// Pass implements the `pass` statement: no-op.
type Pass struct{ nodeBase }

func (n *Pass) Kind() NodeKind        { return NodePass }
func (n *Pass) eval(i *Interpreter) Value { return None }
func (n *Pass) String() string        { return "pass" }

// Name is an identifier reference (spec §4.5's "Names").
type Name struct {
	nodeBase
	Id string
}

func (n *Name) Kind() NodeKind { return NodeName }

func (n *Name) eval(i *Interpreter) Value {
	v, ok := i.symtab.Get(symbol.Intern(n.Id))
	if !ok {
		raise(NameError, n, "name '%s' is not defined", n.Id)
	}
	return v
}

func (n *Name) String() string { return n.Id }

// Constant is a literal: number, string, bytes, None, bool, or Ellipsis
// (spec §4.4's `constant` kind).
type Constant struct {
	nodeBase
	Val Value
}

func (n *Constant) Kind() NodeKind        { return NodeConstant }
func (n *Constant) eval(i *Interpreter) Value { return n.Val }
func (n *Constant) String() string        { return Repr(n.Val) }

func newConstant(pos scanner.Position, v Value) *Constant {
	return &Constant{nodeBase: nodeBase{Pos: pos}, Val: v}
}

// fmtNode is a small helper used by several node Strings to render a
// call-like "name(args...)" form without repeating strings.Join everywhere.
func fmtNode(name string, args ...ASTNode) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
