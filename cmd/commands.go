// Package cmd implements command-line parsing and a REPL loop for asteval.
package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"runtime/debug"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/grailbio/asteval/asteval"
	"github.com/grailbio/asteval/termutil"
	"github.com/grailbio/base/log"
	"github.com/yasushi-saito/readline"
	"github.com/yasushi-saito/readline/creadline"
)

// command defines a REPL builtin command, e.g. "help" or "quit".
type command struct {
	callback func(ctx context.Context, args string)
	help     string
}

// Env captures all the state needed to run an interactive or batch asteval
// session. Thread compatible.
type Env struct {
	// interp is the interpreter that runs the scripts.
	interp *asteval.Interpreter
	// interactive is true if running under an interactive terminal.
	interactive bool
	builtinCmds map[string]command
}

var (
	pipeRE = regexp.MustCompile(`(.*)\|\s*(less)$`)

	// redirectRE matches >>path or >path. The "path" deliberately restricts
	// the characters to avoid matching a legitimate expression.
	redirectRE = regexp.MustCompile(`(.*?)(>?)>\s*([-\w\d.,=~_/:]+)$`)
)

// parseRedirect splits a line into its expression prefix and an optional
// output redirect (">file", ">>file", "|less"). Separated out for
// unittesting.
func parseRedirect(line string) (prefix string, out string, append bool, pipe bool) {
	prefix = strings.TrimSpace(line)
	if m := pipeRE.FindStringSubmatch(prefix); m != nil {
		prefix = strings.TrimSpace(m[1])
		out = strings.TrimSpace(m[2])
		pipe = true
	} else if m := redirectRE.FindStringSubmatch(prefix); m != nil {
		prefix = strings.TrimSpace(m[1])
		append = m[2] != ""
		out = strings.TrimSpace(m[3])
	}
	return
}

// New creates a new environment. Arg interactive should be true when this is
// an interactive commandline session.
func New(interp *asteval.Interpreter, interactive bool) *Env {
	env := &Env{interp: interp, interactive: interactive}
	env.builtinCmds = map[string]command{
		"quit": {
			callback: env.runQuit,
			help: `Usage: quit

  Terminates the session.`},
		"help": {
			callback: env.runHelp,
			help: `Usage: help [name]

  Shows help messages. If "name" is given, shows the help for that symbol.`},
		"history": {
			callback: env.runHistory,
			help: `Usage: history

  Shows the list of past inputs.`},
	}
	return env
}

// parseCommandline checks whether a commandline has a redirect suffix such
// as ">file". If so, it strips the suffix and returns a Printer matching the
// redirect spec.
func (c *Env) parseCommandline(line string) (string, termutil.Printer, bool) {
	prefix, out, append, pipe := parseRedirect(line)
	if out != "" {
		if pipe {
			p, err := termutil.NewPipePrinter(out)
			if err == nil {
				return prefix, p, true
			}
			log.Error.Print(err)
		} else {
			p, err := termutil.NewFilePrinter(out, append)
			if err == nil {
				return prefix, p, true
			}
			log.Error.Print(err)
		}
	}
	return prefix, c.NewOutput(), false
}

// Loop runs an interactive eval loop. It returns only when reading a line
// fails (for example at end of input).
func (c *Env) Loop() {
	ctx := context.Background()
	for {
		line, err := readline.Readline("asteval> ")
		if err != nil {
			fmt.Printf("\nreadline: %v\n", err)
			return
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		tokens := strings.SplitN(trimmed, " ", 2)
		if cmd, ok := c.builtinCmds[tokens[0]]; ok {
			args := ""
			if len(tokens) > 1 {
				args = tokens[1]
			}
			cmd.callback(ctx, args)
			continue
		}
		c.runEval(ctx, line)
	}
}

// runEval treats "line" as an asteval script and evaluates it. If the line
// is an incomplete statement (e.g. an open block), it prompts for more
// input until the parse succeeds or the user ends it with a blank line.
func (c *Env) runEval(ctx context.Context, line string) {
	line += "\n"
	defer func() {
		if err := recover(); err != nil {
			log.Printf("recovered from error: %v: %v", err, string(debug.Stack()))
		}
		hist := strings.TrimSpace(strings.ReplaceAll(line, "\n", " "))
		if err := readline.AddHistory(hist); err != nil {
			log.Error.Printf("readline.AddHistory: %v", err)
		}
	}()
	for {
		expr, out, redirected := c.parseCommandline(line)
		defer out.Close()
		node, perr := c.interp.Parse("(stdin)", expr)
		switch {
		case perr == nil:
			val, rerr := c.interp.Run(ctx, node, true)
			if rerr != nil {
				log.Error.Printf("%v", rerr)
				return
			}
			c.PrintValue(val, out)
			return
		case strings.HasSuffix(strings.TrimSpace(expr), ":") && !redirected:
			l, err := readline.Readline("... ")
			if err != nil {
				fmt.Printf("\nreadline: %v\n", err)
				return
			}
			if strings.TrimSpace(l) == "" {
				line += "\n"
				continue
			}
			line += l + "\n"
		default:
			log.Error.Printf("parse error: %v", perr)
			return
		}
	}
}

// PrintValue writes a value's repr to out, followed by a newline.
func (c *Env) PrintValue(val asteval.Value, out termutil.Printer) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("recovered from error: %v: %v", err, string(debug.Stack()))
		}
	}()
	if val.IsNone() {
		return
	}
	out.WriteString(asteval.Repr(val))
	if out.Ok() {
		out.Write([]byte("\n"))
	}
}

// NewOutput creates a Printer that writes to stdout, paginating when
// interactive.
func (c *Env) NewOutput() termutil.Printer {
	if c.interactive {
		return termutil.NewTerminalPrinter(os.Stdout)
	}
	return termutil.NewBatchPrinter(os.Stdout)
}

func (c *Env) runQuit(ctx context.Context, args string) {
	os.Exit(0)
}

func (c *Env) runHistory(ctx context.Context, args string) {
	defer func() {
		if err := readline.AddHistory(strings.TrimSpace("history " + args)); err != nil {
			log.Error.Printf("readline.AddHistory: %v", err)
		}
	}()
	_, out, _ := c.parseCommandline(args)
	defer out.Close()

	h := creadline.HistoryGetHistoryState()
	first := 0
	if len(h.Entries) > 1000 {
		first = len(h.Entries) - 1000
	}
	for i := first; i < len(h.Entries); i++ {
		fmt.Fprintf(out, "%3d %s\n", i+1, h.Entries[i].Line)
	}
}

func (c *Env) runHelp(ctx context.Context, args string) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("recovered from error: %v: %v", err, string(debug.Stack()))
		}
		if err := readline.AddHistory(strings.TrimSpace("help " + args)); err != nil {
			log.Error.Printf("readline.AddHistory: %v", err)
		}
	}()

	expr, out, _ := c.parseCommandline(args)
	defer out.Close()

	writeLine := func(s string) {
		out.WriteString(s)
		out.WriteString("\n")
	}
	writeList := func(list []string) {
		sort.Strings(list)
		w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
		last := rune(0)
		col := 0
		for _, name := range list {
			letter, _ := utf8.DecodeRuneInString(name)
			if col > 8 || (last != 0 && letter != last) {
				for col <= 8 {
					fmt.Fprint(w, "\t")
					col++
				}
				fmt.Fprint(w, "\n")
				col = 0
			}
			if col > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, name)
			last = letter
			col++
		}
		w.Flush()
		writeLine("")
	}

	if expr != "" {
		if cmd, ok := c.builtinCmds[expr]; ok {
			writeLine(cmd.help)
			return
		}
		node, perr := c.interp.Parse("(stdin)", expr)
		if perr != nil {
			log.Error.Print(perr)
			return
		}
		val, rerr := c.interp.Run(context.Background(), node, true)
		if rerr != nil {
			log.Error.Print(rerr)
			return
		}
		writeLine(asteval.Repr(val))
		return
	}
	writeLine("* List of commands:")
	for name, cmd := range c.builtinCmds {
		writeLine("- " + name + "\n" + cmd.help + "\n")
	}
	writeLine(`Any other input is interpreted as a script to evaluate.

A command can be followed by ">file", ">>file", or "|less".
- >file writes the outputs to a file.
- >>file appends the outputs to a file.
- |less sends the outputs to the "less" command.
`)
	writeLine("\n* List of bound symbols. Type 'help <name>' to show its value.")
	writeList(c.interp.UserDefinedSymbols())
}
