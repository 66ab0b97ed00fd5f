package asteval_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/asteval/asteval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	i := asteval.New(asteval.WithWriter(&buf))
	asteval.Eval(t, `print("hello", "world", sep="-")`, i)
	assert.Equal(t, "hello-world\n", buf.String())
}

func TestOpenReadsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644))

	i := asteval.New(asteval.WithSymbols(map[string]interface{}{"path": path}))
	val := asteval.Eval(t, `
with open(path) as f:
    data = f.read()
data
`, i)
	assert.Equal(t, "line one\nline two\n", val.Str())
}

func TestOpenRejectsWriteMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	i := asteval.New(asteval.WithSymbols(map[string]interface{}{"path": path}))
	_, err := asteval.EvalErr(t, `open(path, "w")`, i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.RuntimeError, err.Kind)
}

func TestOpenMissingFileRaisesFileNotFoundError(t *testing.T) {
	i := asteval.New(asteval.WithSymbols(map[string]interface{}{"path": "/no/such/file-xyz"}))
	_, err := asteval.EvalErr(t, `open(path)`, i)
	require.NotNil(t, err)
	assert.Equal(t, asteval.FileNotFoundError, err.Kind)
}
