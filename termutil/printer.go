// Package termutil provides output-writing abstractions for the asteval
// REPL and CLI: a plain batch writer for scripted/non-interactive use, and a
// paginating writer for an interactive terminal session.
package termutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/yasushi-saito/readline"
	"golang.org/x/crypto/ssh/terminal"
)

func screenSize() (int, int) {
	nCol, nRow, err := terminal.GetSize(syscall.Stdout)
	if err != nil {
		nCol, nRow = 80, 25 // an arbitrary default
	}
	nRow -= 4 // leave some space at the top of the screen
	if nRow < 4 {
		nRow = 4
	}
	return nCol, nRow
}

// Printer is an interface for paging long outputs for an interactive shell.
// It is a superset of io.Writer.
type Printer interface {
	// Write writes the given text data to the output. The implementation may
	// ask for "continue y/n?" in the middle when the data is long.
	Write(data []byte) (int, error)
	// WriteString is similar to Write(), but it takes a string.
	WriteString(data string)
	// WriteInt writes the value in decimal.
	WriteInt(v int64)
	// WriteFloat writes the value in dotted decimal.
	WriteFloat(v float64)
	// Ok becomes false if the user answers 'N' to a 'continue y/n?' prompt.
	// Once Ok returns false, all future Ok calls return false, and Write and
	// WriteString become no-ops.
	Ok() bool
	// ScreenSize returns the screen (width, height), as # of characters.
	ScreenSize() (int, int)
	// Close closes the printer and releases its resources.
	Close()
}

// batchPrinter is a non-interactive printer that prints to the given output
// without paging.
type batchPrinter struct {
	out    io.Writer
	err    errors.Once
	fmtBuf [128]byte
}

// NewBatchPrinter creates a Printer that writes to the given output
// non-interactively, without any paging.
func NewBatchPrinter(out io.Writer) Printer {
	return &batchPrinter{out: out}
}

func (p *batchPrinter) ScreenSize() (int, int) {
	const maxInt = int(^uint(0) >> 1)
	return maxInt, maxInt
}

func (p *batchPrinter) Write(data []byte) (int, error) {
	n, err := p.out.Write(data)
	if err != nil {
		if p.err.Err() == nil {
			log.Error.Printf("write: %v", err)
		}
		p.err.Set(err)
	}
	return n, err
}

func (p *batchPrinter) Close() {}

func (p *batchPrinter) WriteString(data string) { p.Write([]byte(data)) }

func (p *batchPrinter) WriteInt(v int64) {
	p.Write(strconv.AppendInt(p.fmtBuf[:0], v, 10))
}

func (p *batchPrinter) WriteFloat(v float64) {
	p.Write(strconv.AppendFloat(p.fmtBuf[:0], v, 'g', -1, 64))
}

func (p *batchPrinter) Ok() bool { return p.err.Err() == nil }

// BufferPrinter is a non-interactive printer that prints to an in-memory
// buffer without paging. Bytes() and String() retrieve the buffer contents.
type BufferPrinter struct {
	batchPrinter
	buf strings.Builder
}

// NewBufferPrinter creates a new, empty BufferPrinter.
func NewBufferPrinter() *BufferPrinter {
	b := &BufferPrinter{}
	b.batchPrinter.out = &b.buf
	return b
}

// Reset clears the accumulated buffer.
func (p *BufferPrinter) Reset() { p.buf.Reset() }

func (p *BufferPrinter) Close() { p.Reset() }

// String yields the data written via Write and WriteString. It is
// idempotent.
func (p *BufferPrinter) String() string { return p.buf.String() }

// Len returns the number of accumulated bytes; Len() == len(String()).
func (p *BufferPrinter) Len() int { return p.buf.Len() }

// NewFilePrinter creates a Printer that writes to a file. If append==true,
// it appends to the file if it already exists.
func NewFilePrinter(path string, append bool) (Printer, error) {
	openFlags := os.O_CREATE | os.O_WRONLY
	if append {
		openFlags |= os.O_APPEND
	} else {
		openFlags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, openFlags, 0644)
	if err != nil {
		return nil, errors.E("open "+path, err)
	}
	return &filePrinter{batchPrinter: batchPrinter{out: f}, f: f}, nil
}

type filePrinter struct {
	batchPrinter
	f *os.File
}

func (p *filePrinter) Close() {
	if err := p.f.Close(); err != nil {
		log.Error.Printf("close %v: %s", p.f.Name(), err)
	}
	p.f = nil
}

// NewPipePrinter creates a Printer that sends data to a new process. Arg
// name is the name or path of the process, and args are its arguments.
func NewPipePrinter(name string, arg ...string) (Printer, error) {
	cmd := exec.Command(name, arg...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.E(fmt.Sprintf("| %s: stdinpipe", name), err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.E(fmt.Sprintf("| %s: start", name), err)
	}
	return &pipePrinter{
		batchPrinter: batchPrinter{out: pipe},
		name:         name,
		cmdOut:       pipe,
		cmd:          cmd}, nil
}

type pipePrinter struct {
	batchPrinter

	name   string
	cmdOut io.WriteCloser
	cmd    *exec.Cmd
}

func (p *pipePrinter) ScreenSize() (int, int) { return screenSize() }

func (p *pipePrinter) Close() {
	if err := p.cmdOut.Close(); err != nil {
		log.Error.Printf("| %s: close: %s", p.name, err)
	}
	if err := p.cmd.Wait(); err != nil {
		log.Error.Printf("| %s: wait: %s", p.name, err)
	}
	p.out = nil
	p.cmd = nil
}

// terminalPrinter pages output to an interactive terminal, prompting the
// user to continue, redirect to a file, or pipe to another command once the
// screen fills.
type terminalPrinter struct {
	out io.Writer // usually os.Stdout
	ok  bool
	// buf stores data to print; data already sent to out is trimmed by nextOff.
	buf     bytes.Buffer
	nextOff int
	// remainingRows is # of rows left in the current page.
	remainingRows int
	// redirect becomes non-nil after the user chooses ">" or "|" at a
	// pagination prompt; all subsequent output then goes straight to it.
	redirect Printer
	fmtBuf   [128]byte
}

// NewTerminalPrinter creates a Printer that performs paging ("continue
// y/n?"). Arg out is usually os.Stdout.
func NewTerminalPrinter(out io.Writer) Printer {
	p := &terminalPrinter{out: out, ok: true}
	_, p.remainingRows = p.ScreenSize()
	return p
}

func (p *terminalPrinter) ScreenSize() (int, int) { return screenSize() }

var newline = []byte("\n")

// nextLine extracts and removes one text line from p.buf. Returns false if
// p.buf holds no complete line yet.
func (p *terminalPrinter) nextLine() ([]byte, bool) {
	buf := p.buf.Bytes()[p.nextOff:]
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return nil, false
	}
	line := buf[:i]
	p.nextOff += i + 1
	return line, true
}

func (p *terminalPrinter) Write(data []byte) (int, error) {
	if p.redirect != nil {
		return p.redirect.Write(data)
	}

	p.buf.Write(data)
loop:
	for p.ok {
		if p.remainingRows <= 0 {
			resp, arg := prompt()
			switch resp {
			case respYes:
				_, p.remainingRows = p.ScreenSize()
			case respNo:
				p.ok = false
				break loop
			case respWrite, respAppend:
				f, err := NewFilePrinter(arg, resp == respAppend)
				if err != nil {
					log.Printf("open %s: %v", arg, err)
					break
				}
				p.redirect = f
				fmt.Fprintf(os.Stderr, "Writing data to %s\n", arg)
			case respPipe:
				pipe, err := NewPipePrinter(arg)
				if err != nil {
					log.Error.Printf("|%v: %v", arg, err)
					break
				}
				p.redirect = pipe
			}
			if p.redirect != nil {
				p.redirect.Write(p.buf.Bytes())
				p.buf.Reset()
				break loop
			}
		}
		line, found := p.nextLine()
		if !found {
			break
		}
		if _, err := p.out.Write(line); err != nil {
			return len(data), err
		}
		if _, err := p.out.Write(newline); err != nil {
			return len(data), err
		}
		p.remainingRows--
	}
	return len(data), nil
}

func (p *terminalPrinter) WriteString(data string) { p.Write([]byte(data)) }

func (p *terminalPrinter) WriteInt(v int64) {
	p.Write(strconv.AppendInt(p.fmtBuf[:0], v, 10))
}

func (p *terminalPrinter) WriteFloat(v float64) {
	p.Write(strconv.AppendFloat(p.fmtBuf[:0], v, 'g', -1, 64))
}

func (p *terminalPrinter) Ok() bool {
	if !p.ok {
		return false
	}
	if p.redirect != nil && !p.redirect.Ok() {
		return false
	}
	return true
}

func (p *terminalPrinter) Close() {
	p.ok = true
	p.nextOff = 0
	p.buf.Reset()
	_, p.remainingRows = p.ScreenSize()
	if p.redirect != nil {
		p.redirect.Close()
		p.redirect = nil
	}
}

type userResponse int

const (
	respYes userResponse = iota
	respNo
	respPipe
	respWrite
	respAppend
)

// prompt shows an interactive "continue?" prompt and parses the response.
// The second return value holds a path, set only for {respWrite, respAppend}.
func prompt() (userResponse, string) {
	for {
		s, err := readline.Readline("Continue? Yes / No / >file / >>file / |less: ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return respYes, ""
		}
		if strings.HasPrefix(s, ">>") {
			return respAppend, strings.TrimSpace(s[2:])
		}
		if strings.HasPrefix(s, ">") {
			return respWrite, strings.TrimSpace(s[1:])
		}
		if strings.HasPrefix(s, "|") {
			return respPipe, strings.TrimSpace(s[1:])
		}
		lower := strings.ToLower(s)
		if strings.HasPrefix("yes", lower) {
			return respYes, ""
		}
		if strings.HasPrefix("no", lower) || strings.HasPrefix("quit", lower) {
			return respNo, ""
		}
		fmt.Println(`- Yes: continues showing the output page by page.
- No: stops the output.
- >file: writes the output to the given file.
- >>file: appends the output to the given file.
- |command: feeds the output to the given command, typically "|less".

"Y", "y", or an empty input is the same as "Yes".  "N", "n", "Q", or "q" is the same as "No".`)
		continue
	}
}
