package termutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/asteval/termutil"
	"github.com/grailbio/testutil/expect"
)

func TestBufferPrinter(t *testing.T) {
	p := termutil.NewBufferPrinter()
	p.WriteString("hello")
	expect.EQ(t, p.String(), "hello")
	p.Reset()
	p.WriteString("olleh")
	expect.EQ(t, p.String(), "olleh")
}

func TestFilePrinterTruncatesByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	expect.Nil(t, os.WriteFile(path, []byte("stale"), 0644))

	p, err := termutil.NewFilePrinter(path, false)
	expect.Nil(t, err)
	p.WriteString("fresh")
	p.Close()

	got, err := os.ReadFile(path)
	expect.Nil(t, err)
	expect.EQ(t, string(got), "fresh")
}

func TestFilePrinterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	expect.Nil(t, os.WriteFile(path, []byte("first,"), 0644))

	p, err := termutil.NewFilePrinter(path, true)
	expect.Nil(t, err)
	p.WriteString("second")
	p.Close()

	got, err := os.ReadFile(path)
	expect.Nil(t, err)
	expect.EQ(t, string(got), "first,second")
}
