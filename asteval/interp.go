package asteval

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/asteval/symbol"
)

// Interpreter is the embedding surface (spec §6): new/eval/parse/run plus
// the inspectable error list and error_msg.
//
// Grounded on gql/gql.go's Session (NewSession/EvalStatements/Eval/
// Bindings). Unlike Session, an Interpreter owns its full configuration
// (Config, dispatcher, resource limits) rather than reading process-wide
// globals set by a single gql.Init call, since spec §5 requires many
// independent, never-shared instances.
type Interpreter struct {
	config     Config
	dispatcher *dispatcher
	symtab     *SymbolTable

	writer    io.Writer
	errWriter io.Writer

	errs      []*EvalError
	interrupt interruptKind
	limits    *limits
	ctx       context.Context

	retval    Value
	hasRetval bool

	// curExc is the exception currently being handled, set by Try while
	// running an ExceptHandler body so that a bare `raise` re-raises it.
	curExc *EvalError

	// modules is the host-supplied import registry (spec §4.4's `import`/
	// `importfrom`, disabled by default): dotted module name -> module value.
	modules map[string]Value
}

// WithModule registers a host module importable by name, e.g.
// WithModule("json", jsonModule) lets scripts (with NodeImport enabled) say
// `import json`. members is looked up by ResolveAttr when the module value
// flows through Attribute/ImportFrom.
func WithModule(name string, members map[string]interface{}) Option {
	return func(i *Interpreter) {
		if i.modules == nil {
			i.modules = map[string]Value{}
		}
		mv := make(map[string]Value, len(members))
		for k, v := range members {
			mv[k] = GoToValue(v)
		}
		i.modules[name] = HostValue(&hostModule{name: name, members: mv})
	}
}

type interruptKind int

const (
	interruptNone interruptKind = iota
	interruptBreak
	interruptContinue
	interruptReturn
)

// Option configures a new Interpreter, in the same spirit as the teacher's
// gql.Opts.
type Option func(*Interpreter)

// WithWriter sets the writer `print()` writes to. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option { return func(i *Interpreter) { i.writer = w } }

// WithErrWriter sets the writer errors are printed to by Eval when
// showErrors is true. Defaults to os.Stderr.
func WithErrWriter(w io.Writer) Option { return func(i *Interpreter) { i.errWriter = w } }

// WithConfig installs cfg wholesale, replacing DefaultConfig().
func WithConfig(cfg Config) Option { return func(i *Interpreter) { i.config = cfg } }

// WithSymbols preloads the initial symbol map the host provides at
// construction (spec §6's "initial symbol map").
func WithSymbols(vals map[string]interface{}) Option {
	return func(i *Interpreter) {
		if i.symtab == nil {
			return
		}
		m := make(map[symbol.ID]Value, len(vals))
		for k, v := range vals {
			m[symbol.Intern(k)] = GoToValue(v)
		}
		i.symtab.Update(m)
	}
}

// WithReadonlySymbols marks the given names readonly in addition to
// Config.ReadonlySymbols.
func WithReadonlySymbols(names ...string) Option {
	return func(i *Interpreter) {
		if i.symtab == nil {
			return
		}
		for _, n := range names {
			i.symtab.SetReadonly(symbol.Intern(n))
		}
	}
}

// New constructs an Interpreter. The options run twice, in order: once
// before the symbol table exists, so that WithConfig shapes how it is
// built, and again after the builtins are registered. Options that touch
// the symbol table (WithSymbols, WithReadonlySymbols) take effect on the
// second pass only.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		config:    DefaultConfig(),
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.symtab = NewSymbolTable(i.config.NestedSymtable)
	i.dispatcher = newDispatcher(i.config)
	registerBuiltins(i)
	for _, opt := range opts {
		opt(i)
	}
	for _, n := range i.config.ReadonlySymbols {
		i.symtab.SetReadonly(symbol.Intern(n))
	}
	if i.config.BuiltinsReadonly {
		i.symtab.FreezeBuiltins()
	}
	return i
}

// SymbolTable exposes the interpreter's table, e.g. for a host that wants to
// inspect or mutate bindings between Eval calls.
func (i *Interpreter) SymbolTable() *SymbolTable { return i.symtab }

// Errors returns the captured ExceptionHolder list (spec §6/§7).
func (i *Interpreter) Errors() []*EvalError { return i.errs }

// ErrorMsg returns the first captured error's message, or "" if none.
func (i *Interpreter) ErrorMsg() string {
	if len(i.errs) == 0 {
		return ""
	}
	return i.errs[0].Error()
}

// ClearErrors empties the captured-error list, as a `try` block does on a
// successful match (spec §7).
func (i *Interpreter) ClearErrors() { i.errs = nil }

// recordError appends e, collapsing consecutive duplicates (spec §7).
func (i *Interpreter) recordError(e *EvalError) {
	if n := len(i.errs); n > 0 && i.errs[n-1].Same(e) {
		return
	}
	i.errs = append(i.errs, e)
}

// UserDefinedSymbols implements spec §6's user_defined_symbols().
func (i *Interpreter) UserDefinedSymbols() []string {
	ids := i.symtab.UserDefinedSymbols()
	out := make([]string, len(ids))
	for n, id := range ids {
		out[n] = id.Str()
	}
	return out
}

// Parse parses text into a Module node. filename is used in error messages
// only.
func (i *Interpreter) Parse(filename, text string) (ASTNode, *EvalError) {
	if n := len(text); n > i.config.maxStatementLength() {
		return nil, newError(SyntaxError, nil, "source length %d exceeds max_statement_length", n)
	}
	return parseModule(filename, text)
}

// Run evaluates a parsed node (typically the Module Parse returns) against
// the interpreter's table. If withRaise is true, the first captured error
// (if evaluation failed) is returned as the err return value in addition to
// being appended to Errors().
func (i *Interpreter) Run(ctx context.Context, node ASTNode, withRaise bool) (result Value, err *EvalError) {
	lim := newLimits(i.config.WallClockBudget, i.config.MaxCycles, i.config.effectiveMaxRecursionDepth())
	i.interrupt = interruptNone
	i.ctx = ctx
	i.limits = lim
	ee := Recover(func() {
		result = i.Eval1(node)
	})
	if ee != nil {
		i.recordError(ee)
		result = None
		if withRaise {
			err = ee
		}
	}
	return result.Normalize(), err
}

// Eval is the single-shot convenience entry point: parse then run. Parse or
// (uncaught) evaluation failures are printed to the err-writer unless
// showErrors is false; they additionally propagate to the caller only if
// raiseErrors is true.
func (i *Interpreter) Eval(ctx context.Context, text string, showErrors, raiseErrors bool) (Value, *EvalError) {
	nodes, perr := i.Parse("<input>", text)
	if perr != nil {
		i.recordError(perr)
		if showErrors {
			fmt.Fprintln(i.errWriter, perr.Error())
		}
		if raiseErrors {
			return None, perr
		}
		return None, nil
	}
	val, err := i.Run(ctx, nodes, raiseErrors)
	if err != nil && showErrors {
		fmt.Fprintln(i.errWriter, err.Error())
	}
	if err != nil && !raiseErrors {
		err = nil
	}
	return val, err
}

// Eval1 dispatches a single node through the current handler registry,
// applying the resource-limit tick first. Node-handler code (ast_*.go)
// calls i.Eval1(child) to recurse; it is the Go realization of spec §4's
// "recursive dispatch through the evaluator".
func (i *Interpreter) Eval1(n ASTNode) Value {
	i.limits.tick(i.ctx, n)
	return i.dispatcher.dispatch(i, n)
}
