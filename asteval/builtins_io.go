package asteval

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// registerPrint implements `print(*args, sep=' ', end='\n', file=None,
// flush=False)` (SPEC_FULL §D.3), writing to the interpreter's configured
// writer (or `file`, when given, and it is itself a fileHandle).
func registerPrint(reg builtinReg) {
	reg("print", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		sep, end := " ", "\n"
		w := i.writer
		flush := false
		if kwargs != nil {
			if v, ok := kwargs.Get(stringValue("sep")); ok {
				sep = Str(v)
			}
			if v, ok := kwargs.Get(stringValue("end")); ok {
				end = Str(v)
			}
			if v, ok := kwargs.Get(stringValue("flush")); ok {
				flush = v.Truthy()
			}
			if v, ok := kwargs.Get(stringValue("file")); ok && v.Kind() == HostKind {
				if fh, ok := v.Host().(*fileHandle); ok {
					w = fh.f
				}
			}
		}
		parts := make([]string, len(args))
		for idx, a := range args {
			parts[idx] = Str(a)
		}
		out := ""
		for idx, p := range parts {
			if idx > 0 {
				out += sep
			}
			out += p
		}
		fmt.Fprint(w, out+end)
		if flush {
			if f, ok := w.(*os.File); ok {
				f.Sync()
			}
		}
		return None
	})
}

// fileHandle wraps an open file in read-only safe mode (safeOpen enforces
// the mode/buffering bounds). It implements attrResolver (so Attribute
// lookups reach read/readline/readlines/close/name without falling into reflection over an
// *os.File, which unsafeHostTypes denylists directly) and WithManager, so
// `with open(path) as f:` works.
type fileHandle struct {
	f *os.File
	r *bufio.Reader
}

func (h *fileHandle) String() string { return fmt.Sprintf("<file '%s'>", h.f.Name()) }

func (h *fileHandle) ResolveAttr(name string) (Value, bool) {
	switch name {
	case "read":
		return HostValue(&GoFunc{Name: "read", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			b, err := io.ReadAll(h.r)
			if err != nil {
				raise(RuntimeError, n, "read: %v", err)
			}
			return stringValue(string(b))
		}}), true
	case "readline":
		return HostValue(&GoFunc{Name: "readline", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			line, err := h.r.ReadString('\n')
			if err != nil && line == "" {
				return stringValue("")
			}
			return stringValue(line)
		}}), true
	case "readlines":
		return HostValue(&GoFunc{Name: "readlines", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			var out []Value
			for {
				line, err := h.r.ReadString('\n')
				if line != "" {
					out = append(out, stringValue(line))
				}
				if err != nil {
					break
				}
			}
			return listValue(out)
		}}), true
	case "close":
		return HostValue(&GoFunc{Name: "close", Fn: func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
			h.f.Close()
			return None
		}}), true
	case "name":
		return stringValue(h.f.Name()), true
	}
	return Value{}, false
}

func (h *fileHandle) Enter() Value { return HostValue(h) }
func (h *fileHandle) Exit(exc *EvalError) bool {
	h.f.Close()
	return false
}

// registerOpen implements `open(path, mode='r', buffering=-1)`, read-only
// per safe_open (spec §4.2) — write modes are rejected before os.Open is
// even attempted.
func registerOpen(reg builtinReg) {
	reg("open", func(i *Interpreter, n ASTNode, args []Value, kwargs *Dict) Value {
		if len(args) < 1 || len(args) > 3 {
			raise(TypeError, n, "open() takes from 1 to 3 positional arguments but %d were given", len(args))
		}
		mode := "r"
		if len(args) > 1 {
			mode = Str(args[1])
		}
		buffering := -1
		if len(args) > 2 {
			buffering = int(args[2].Int64())
		}
		if kwargs != nil {
			if v, ok := kwargs.Get(stringValue("buffering")); ok {
				buffering = int(v.Int64())
			}
		}
		path := Str(args[0])
		safeOpen(n, path, mode, buffering)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				raise(FileNotFoundError, n, "%v", err)
			}
			raise(RuntimeError, n, "%v", err)
		}
		return HostValue(&fileHandle{f: f, r: bufio.NewReader(f)})
	})
}
