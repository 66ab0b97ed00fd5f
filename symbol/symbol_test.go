package symbol_test

import (
	"testing"

	"github.com/grailbio/asteval/symbol"
	"github.com/stretchr/testify/assert"
)

func TestIntern(t *testing.T) {
	assert.Equal(t, symbol.Intern("abc"), symbol.Intern("abc"))
	assert.NotEqual(t, symbol.Intern("abc"), symbol.Intern("cde"))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"_", "_3", "x", "xyz", "camelCase"} {
		id := symbol.Intern(name)
		assert.Equal(t, name, id.Str())
	}
}

func TestReservedWords(t *testing.T) {
	assert.True(t, symbol.IsReservedWord("for"))
	assert.True(t, symbol.IsReservedWord("lambda"))
	assert.False(t, symbol.IsReservedWord("forever"))
	assert.False(t, symbol.IsReservedWord("x"))
}
