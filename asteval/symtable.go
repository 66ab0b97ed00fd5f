package asteval

import "github.com/grailbio/asteval/symbol"

// SymbolTable is the interpreter's mapping from identifier to Value, plus
// the readonly/no-deepcopy bookkeeping spec §3 asks for.
//
// Grounded on gql/eval.go's bindings/callFrame stack: a slice of frames
// searched top-down, with frame 0 reserved for process-wide builtins. Unlike
// the teacher we drop the two-inline-variable micro-optimization and the
// freepool (gql's `callFramePool`): those exist there to avoid a map
// allocation per bigslice shard invocation, a concern that does not exist
// for a single-threaded, non-reentrant interpreter evaluating one AST at a
// time (§5).
type SymbolTable struct {
	nested bool

	// frames[0] holds process/interpreter builtins. frames[1] holds globals.
	// In flat mode (the default) no further frame is ever pushed: a
	// procedure call instead clones frames[1], overlays its locals directly
	// onto it, and restores the clone on return (the "snapshot the outer
	// map, overlay, restore" trick spec §3 names). In nested mode, a
	// procedure call pushes a genuine new frame, preserving visibility of
	// every enclosing frame through the search path.
	frames []map[symbol.ID]Value

	readonly       map[symbol.ID]bool
	noDeepcopy     map[symbol.ID]bool
	builtinsFrozen bool
}

// NewSymbolTable creates an empty table. nested selects spec §3's nested
// scope model; false gives the flat/snapshot model.
func NewSymbolTable(nested bool) *SymbolTable {
	return &SymbolTable{
		nested:     nested,
		frames:     []map[symbol.ID]Value{{}, {}},
		readonly:   map[symbol.ID]bool{},
		noDeepcopy: map[symbol.ID]bool{},
	}
}

// PreloadBuiltin installs a builtin binding. Bypasses the readonly check
// (there is nothing to check yet) and optionally marks the name
// no-deepcopy, per spec's advisory metadata for callables/modules.
func (t *SymbolTable) PreloadBuiltin(name symbol.ID, v Value, noDeepcopy bool) {
	t.frames[0][name] = v
	if noDeepcopy {
		t.noDeepcopy[name] = true
	}
}

// FreezeBuiltins implements the `builtins_readonly` option: every identifier
// presently bound becomes readonly.
func (t *SymbolTable) FreezeBuiltins() {
	for name := range t.frames[0] {
		t.readonly[name] = true
	}
	for _, f := range t.frames[1:] {
		for name := range f {
			t.readonly[name] = true
		}
	}
	t.builtinsFrozen = true
}

// SetReadonly marks name (already bound or not) readonly.
func (t *SymbolTable) SetReadonly(name symbol.ID) { t.readonly[name] = true }

// IsReadonly reports whether name is in the readonly set.
func (t *SymbolTable) IsReadonly(name symbol.ID) bool { return t.readonly[name] }

// Get implements the `get` operation: search the current frame, then each
// enclosing frame (nested mode) or just the single merged frame (flat
// mode), then builtins. Returns Empty, false on a miss.
func (t *SymbolTable) Get(name symbol.ID) (Value, bool) {
	for i := len(t.frames) - 1; i >= 1; i-- {
		if v, ok := t.frames[i][name]; ok {
			return v, true
		}
	}
	if v, ok := t.frames[0][name]; ok {
		return v, true
	}
	return Empty, false
}

// Set implements the `set` operation, honouring the readonly set. In nested
// mode, assignment targets the innermost frame unless the name is already
// bound in an ancestor frame reachable through the search path (spec §3),
// in which case the existing binding is updated in place.
func (t *SymbolTable) Set(name symbol.ID, v Value) *EvalError {
	if t.readonly[name] {
		return newError(NameError, nil, "'%s' is read-only", name.Str())
	}
	top := len(t.frames) - 1
	if t.nested {
		for i := top; i >= 1; i-- {
			if _, ok := t.frames[i][name]; ok {
				t.frames[i][name] = v
				return nil
			}
		}
	}
	t.frames[top][name] = v
	return nil
}

// SetLocal binds name directly in the innermost frame, bypassing the
// readonly check. Used to bind an `except ... as name` target, which
// introduces a fresh local binding rather than assigning through user
// syntax.
func (t *SymbolTable) SetLocal(name symbol.ID, v Value) {
	t.frames[len(t.frames)-1][name] = v
}

// Remove implements the `remove` operation (the `del` statement).
func (t *SymbolTable) Remove(name symbol.ID) *EvalError {
	if t.readonly[name] {
		return newError(NameError, nil, "'%s' is read-only", name.Str())
	}
	for i := len(t.frames) - 1; i >= 1; i-- {
		if _, ok := t.frames[i][name]; ok {
			delete(t.frames[i], name)
			return nil
		}
	}
	return newError(NameError, nil, "name '%s' is not defined", name.Str())
}

// Update bulk-preloads name->value pairs into the outermost (global) frame,
// bypassing the readonly check. Used to seed the table at construction time
// with the host's initial symbol map, before any `builtins_readonly`/
// `readonly_symbols` option is applied.
func (t *SymbolTable) Update(vals map[symbol.ID]Value) {
	for k, v := range vals {
		t.frames[1][k] = v
	}
}

// Snapshot copies the innermost frame, for save/restore around comprehension
// target scoping (spec §4.5). Loop targets are not scoped this way; they stay
// bound after the loop.
func (t *SymbolTable) Snapshot() map[symbol.ID]Value {
	top := t.frames[len(t.frames)-1]
	snap := make(map[symbol.ID]Value, len(top))
	for k, v := range top {
		snap[k] = v
	}
	return snap
}

// Restore replaces the innermost frame's contents with snap.
func (t *SymbolTable) Restore(snap map[symbol.ID]Value) {
	t.frames[len(t.frames)-1] = snap
}

// pushCall begins a procedure invocation's local scope and returns a
// function that undoes it. In nested mode this pushes a genuine new frame;
// in flat mode it clones the current global frame, overlays locals directly
// onto the live frame, and restores the clone on return — precisely the
// "snapshot... overlay... restore" trick spec §3 describes.
func (t *SymbolTable) pushCall(locals map[symbol.ID]Value) (undo func()) {
	if t.nested {
		frame := make(map[symbol.ID]Value, len(locals))
		for k, v := range locals {
			frame[k] = v
		}
		t.frames = append(t.frames, frame)
		return func() { t.frames = t.frames[:len(t.frames)-1] }
	}
	top := len(t.frames) - 1
	saved := t.frames[top]
	merged := make(map[symbol.ID]Value, len(saved)+len(locals))
	for k, v := range saved {
		merged[k] = v
	}
	for k, v := range locals {
		merged[k] = v
	}
	t.frames[top] = merged
	return func() { t.frames[top] = saved }
}

// UserDefinedSymbols implements `user_defined_symbols()`: names introduced
// after construction, i.e. bound but not marked no_deepcopy.
func (t *SymbolTable) UserDefinedSymbols() []symbol.ID {
	var names []symbol.ID
	for i := 1; i < len(t.frames); i++ {
		for name := range t.frames[i] {
			if !t.noDeepcopy[name] {
				names = append(names, name)
			}
		}
	}
	return names
}
