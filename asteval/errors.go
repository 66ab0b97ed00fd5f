package asteval

import (
	"fmt"
	"runtime/debug"
	"text/scanner"

	"github.com/grailbio/base/errors"
)

// ErrKind mirrors the host Python exception taxonomy. The evaluator raises
// (panics with) one of these via newError/Panicf-style helpers and the
// Interpreter boundary recovers it into the interpreter's error list.
type ErrKind string

// The supported error kinds, per spec §7.
const (
	SyntaxError         ErrKind = "SyntaxError"
	NameError           ErrKind = "NameError"
	TypeError           ErrKind = "TypeError"
	AttributeError      ErrKind = "AttributeError"
	ValueError          ErrKind = "ValueError"
	KeyError            ErrKind = "KeyError"
	IndexError          ErrKind = "IndexError"
	ZeroDivisionError   ErrKind = "ZeroDivisionError"
	AssertionError      ErrKind = "AssertionError"
	ImportError         ErrKind = "ImportError"
	NotImplementedError ErrKind = "NotImplementedError"
	RuntimeError        ErrKind = "RuntimeError"
	RecursionError      ErrKind = "RecursionError"
	OverflowError       ErrKind = "OverflowError"
	MemoryError         ErrKind = "MemoryError"
	FileNotFoundError   ErrKind = "FileNotFoundError"
)

// EvalError is the Go realization of spec §3's ExceptionHolder: a captured
// exception kind, message, causing-node snippet, source position, and an
// optional wrapped host error.
type EvalError struct {
	Kind    ErrKind
	Message string
	Expr    string
	Pos     scanner.Position
	Node    ASTNode
	Cause   error
}

func (e *EvalError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Message, e.Expr)
}

func (e *EvalError) Unwrap() error { return e.Cause }

// Same reports whether e and other are a duplicate successive error per
// spec §7's "duplicate successive errors... are collapsed to one" rule:
// same kind, same causing expression text, same message.
func (e *EvalError) Same(other *EvalError) bool {
	if other == nil {
		return false
	}
	return e.Kind == other.Kind && e.Expr == other.Expr && e.Message == other.Message
}

// newError builds an *EvalError located at n (n may be nil when no node is
// available, e.g. a purely internal check).
func newError(kind ErrKind, n ASTNode, format string, args ...interface{}) *EvalError {
	e := &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Node = n
		e.Pos = n.pos()
		e.Expr = n.String()
	}
	return e
}

// raise panics with an *EvalError built from the given kind/node/message.
// Every node handler that detects a bad precondition calls this instead of
// building the panic value inline, so the Interpreter boundary always sees
// the same shape.
func raise(kind ErrKind, n ASTNode, format string, args ...interface{}) {
	panic(newError(kind, n, format, args...))
}

// Recover runs cb, converting any panic into an error. An *EvalError panic
// passes through unchanged (the caller type-asserts it back out); any other
// panic (a Go bug, not a language-level exception) is wrapped with
// grailbio/base/errors so the stack trace survives in the message.
func Recover(cb func()) (err *EvalError) {
	defer func() {
		if e := recover(); e != nil {
			if ee, ok := e.(*EvalError); ok {
				err = ee
				return
			}
			err = &EvalError{
				Kind:    RuntimeError,
				Message: errors.E("panic: %v: %v", e, string(debug.Stack())).Error(),
			}
		}
	}()
	cb()
	return nil
}
