// Package symbol interns identifier strings into small integers so that the
// evaluator's symbol tables, node handlers and procedure parameter lists can
// compare and hash identifiers without touching the string itself.
package symbol

import (
	"sync"

	"github.com/grailbio/base/log"
)

// ID represents an interned identifier.
type ID int32

const (
	// Invalid is the zero value; it is never returned by Intern.
	Invalid = ID(0)
)

type table struct {
	mu    sync.RWMutex
	ids   map[string]ID
	names []string // names[id] is the name of id. names[0] is unused.
}

var symbols = newTable()

func newTable() *table {
	return &table{
		ids:   map[string]ID{"": Invalid},
		names: []string{""},
	}
}

// Intern finds or creates the ID for the given string.
func Intern(name string) ID {
	if name == "" {
		log.Panicf("symbol: empty name")
	}
	symbols.mu.RLock()
	id, ok := symbols.ids[name]
	symbols.mu.RUnlock()
	if ok {
		return id
	}

	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	if id, ok := symbols.ids[name]; ok {
		return id
	}
	id = ID(len(symbols.names))
	symbols.names = append(symbols.names, name)
	symbols.ids[name] = id
	return id
}

// Str returns the identifier string this ID was interned from.
func (id ID) Str() string {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	if int(id) >= len(symbols.names) {
		log.Panicf("symbol: id %d not found", id)
	}
	return symbols.names[id]
}

// String implements fmt.Stringer. Prefer Str() in hot paths; this exists so
// that %v/%s formatting of an ID does something sane in log messages.
func (id ID) String() string { return id.Str() }
