package asteval

import "time"

// NodeKind names one of the AST node kinds the dispatcher can enable,
// disable, or replace at runtime (spec §4.4).
type NodeKind string

// The supported node kinds, per spec §4.4's minimum list.
const (
	NodeModule         NodeKind = "module"
	NodeExpression     NodeKind = "expression"
	NodeExpr           NodeKind = "expr"
	NodeConstant       NodeKind = "constant"
	NodeName           NodeKind = "name"
	NodeAssign         NodeKind = "assign"
	NodeAugAssign      NodeKind = "augassign"
	NodeDelete         NodeKind = "delete"
	NodeAttribute      NodeKind = "attribute"
	NodeSubscript      NodeKind = "subscript"
	NodeSlice          NodeKind = "slice"
	NodeIndex          NodeKind = "index"
	NodeExtSlice       NodeKind = "extslice"
	NodeList           NodeKind = "list"
	NodeTuple          NodeKind = "tuple"
	NodeSet            NodeKind = "set"
	NodeDict           NodeKind = "dict"
	NodeBinOp          NodeKind = "binop"
	NodeUnaryOp        NodeKind = "unaryop"
	NodeBoolOp         NodeKind = "boolop"
	NodeCompare        NodeKind = "compare"
	NodeIf             NodeKind = "if"
	NodeIfExp          NodeKind = "ifexp"
	NodeFor            NodeKind = "for"
	NodeWhile          NodeKind = "while"
	NodeBreak          NodeKind = "break"
	NodeContinue       NodeKind = "continue"
	NodeTry            NodeKind = "try"
	NodeExceptHandler  NodeKind = "excepthandler"
	NodeRaise          NodeKind = "raise"
	NodeAssert         NodeKind = "assert"
	NodePass           NodeKind = "pass"
	NodeReturn         NodeKind = "return"
	NodeCall           NodeKind = "call"
	NodeArg            NodeKind = "arg"
	NodeFunctionDef    NodeKind = "functiondef"
	NodeListComp       NodeKind = "listcomp"
	NodeSetComp        NodeKind = "setcomp"
	NodeDictComp       NodeKind = "dictcomp"
	NodeJoinedStr      NodeKind = "joinedstr"
	NodeFormattedValue NodeKind = "formattedvalue"
	NodeWith           NodeKind = "with"
	NodeImport         NodeKind = "import"
	NodeImportFrom     NodeKind = "importfrom"
	NodeStarred        NodeKind = "starred"
)

// allNodeKinds lists every kind the dispatcher recognizes, used to validate
// Config.Nodes and to build the "minimal" preset.
var allNodeKinds = []NodeKind{
	NodeModule, NodeExpression, NodeExpr, NodeConstant, NodeName, NodeAssign,
	NodeAugAssign, NodeDelete, NodeAttribute, NodeSubscript, NodeSlice,
	NodeIndex, NodeExtSlice, NodeList, NodeTuple, NodeSet, NodeDict,
	NodeBinOp, NodeUnaryOp, NodeBoolOp, NodeCompare, NodeIf, NodeIfExp,
	NodeFor, NodeWhile, NodeBreak, NodeContinue, NodeTry, NodeExceptHandler,
	NodeRaise, NodeAssert, NodePass, NodeReturn, NodeCall, NodeArg,
	NodeFunctionDef, NodeListComp, NodeSetComp, NodeDictComp, NodeJoinedStr,
	NodeFormattedValue, NodeWith, NodeImport, NodeImportFrom, NodeStarred,
}

// advancedNodeKinds are disabled by the `minimal` preset (spec §3's
// Configuration table: "minimal: preset disabling every advanced statement
// above").
var advancedNodeKinds = []NodeKind{
	NodeIf, NodeIfExp, NodeFor, NodeWhile, NodeTry, NodeExceptHandler,
	NodeWith, NodeFunctionDef, NodeListComp, NodeSetComp, NodeDictComp,
	NodeAugAssign, NodeAssert, NodeDelete, NodeRaise, NodeImport,
	NodeImportFrom, NodeFormattedValue,
}

// Config is the Go realization of spec §3's Configuration table.
//
// Grounded on gql/gql.go's Opts struct + Init; unlike the teacher's single
// global Init(), every field here is per-Interpreter, since spec §4.4
// requires per-instance node enable/disable.
type Config struct {
	// Nodes maps a node kind to whether it is enabled. A kind absent from
	// the map is treated as enabled (every kind defaults on).
	Nodes map[NodeKind]bool

	// MaxStatementLength rejects source longer than this many characters
	// before parsing. Zero means the default (50000); negative disables the
	// check up to the hard cap (1e8).
	MaxStatementLength int

	// BuiltinsReadonly freezes every identifier present at construction.
	BuiltinsReadonly bool

	// ReadonlySymbols explicitly marks these names readonly in addition to
	// whatever BuiltinsReadonly implies.
	ReadonlySymbols []string

	// NestedSymtable selects the nested scope model (spec §3); default is
	// flat/snapshot.
	NestedSymtable bool

	// UseNumericLibrary is accepted for API compatibility with spec §6 but
	// is a non-goal here (§1): no array library is preloaded regardless of
	// its value.
	UseNumericLibrary bool

	// WallClockBudget bounds a single eval call (spec §4.7). Zero disables
	// the check.
	WallClockBudget time.Duration

	// MaxCycles bounds the number of AST nodes visited in a single eval
	// call. Zero disables the check.
	MaxCycles int64

	// MaxRecursionDepth bounds nested procedure calls before RecursionError
	// is raised (SPEC_FULL §D.7). Zero means the default (1000).
	MaxRecursionDepth int

	// AllowUnsafeModules disables the unsafe-host-module rejection in
	// safe_getattr. Importing is still gated separately by NodeImport.
	AllowUnsafeModules bool
}

const (
	defaultMaxStatementLength = 50000
	hardMaxStatementLength    = 100000000
	defaultWallClockBudget    = 3 * time.Second
	defaultMaxRecursionDepth  = 1000
)

// DefaultConfig returns the Config an Interpreter uses when none is given.
//
// import/importfrom are disabled here per spec §3's Configuration table
// ("import, importfrom ... (default OFF)"); an embedder opts in by setting
// Nodes[NodeImport]/Nodes[NodeImportFrom] to true or by calling
// Interpreter.SetNodeHandler for them.
func DefaultConfig() Config {
	return Config{
		Nodes: map[NodeKind]bool{
			NodeImport:     false,
			NodeImportFrom: false,
		},
		MaxStatementLength: defaultMaxStatementLength,
		WallClockBudget:    defaultWallClockBudget,
		MaxRecursionDepth:  defaultMaxRecursionDepth,
	}
}

// Minimal applies spec §3's `minimal` preset: disable every advanced
// statement kind, leaving only expressions/names/literals/calls.
func (c Config) Minimal() Config {
	if c.Nodes == nil {
		c.Nodes = map[NodeKind]bool{}
	} else {
		nodes := make(map[NodeKind]bool, len(c.Nodes))
		for k, v := range c.Nodes {
			nodes[k] = v
		}
		c.Nodes = nodes
	}
	for _, k := range advancedNodeKinds {
		c.Nodes[k] = false
	}
	return c
}

func (c Config) enabled(k NodeKind) bool {
	if c.Nodes == nil {
		return true
	}
	v, ok := c.Nodes[k]
	if !ok {
		return true
	}
	return v
}

func (c Config) effectiveMaxRecursionDepth() int {
	if c.MaxRecursionDepth == 0 {
		return defaultMaxRecursionDepth
	}
	return c.MaxRecursionDepth
}

func (c Config) maxStatementLength() int {
	switch {
	case c.MaxStatementLength < 0:
		return hardMaxStatementLength
	case c.MaxStatementLength == 0:
		return defaultMaxStatementLength
	case c.MaxStatementLength > hardMaxStatementLength:
		return hardMaxStatementLength
	default:
		return c.MaxStatementLength
	}
}
