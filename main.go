// Command asteval is a standalone REPL and script runner for the asteval
// sandboxed expression language.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/grailbio/asteval/asteval"
	"github.com/grailbio/asteval/cmd"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
	"github.com/yasushi-saito/readline"
	"golang.org/x/crypto/ssh/terminal"
)

var (
	evalFlag       = flag.Bool("eval", false, "If set, evaluate the expressions found in the commandline, show the result, then exit the process")
	outputFlag     = flag.String("output", "", "File to write the final expression's repr to.")
	wallClockFlag  = flag.Duration("wall-clock-budget", 3*time.Second, "Maximum wall-clock time for a single eval; 0 disables the budget.")
	maxCyclesFlag  = flag.Int64("max-cycles", 0, "Maximum number of AST nodes visited per eval; 0 uses the interpreter default.")
	maxRecurseFlag = flag.Int("max-recursion-depth", 0, "Maximum nested procedure-call depth; 0 uses the interpreter default.")
)

// setGlobalVarFromFlags parses a "-name" or "-name=value" commandline
// argument and binds it as a pre-set symbol, the way a caller would via
// asteval.WithSymbols.
func setGlobalVarFromFlags(vars map[string]interface{}, arg string) {
	re0 := regexp.MustCompile(`^-?-([a-zA-Z_][a-zA-Z_0-9]*)$`)
	re1 := regexp.MustCompile(`^-?-([a-zA-Z_][a-zA-Z_0-9]*)=(.*)$`)

	if m := re0.FindStringSubmatch(arg); m != nil {
		log.Printf("set %s=true", m[1])
		vars[m[1]] = true
		return
	}
	m := re1.FindStringSubmatch(arg)
	must.Truef(m != nil,
		"failed to parse %q: arg must be either `-flag` (boolean) or `-flag=value` (string/number)", arg)
	if n, err := strconv.ParseInt(m[2], 0, 64); err == nil {
		log.Printf("set %s=%d (int)", m[1], n)
		vars[m[1]] = n
		return
	}
	if f, err := strconv.ParseFloat(m[2], 64); err == nil {
		log.Printf("set %s=%f (float)", m[1], f)
		vars[m[1]] = f
		return
	}
	log.Printf("set %s=%q (string)", m[1], m[2])
	vars[m[1]] = m[2]
}

func printValue(env *cmd.Env, val asteval.Value) {
	if *outputFlag != "" {
		must.Nil(os.WriteFile(*outputFlag, []byte(asteval.Repr(val)), 0644))
		return
	}
	if !val.IsNone() {
		out := env.NewOutput()
		defer out.Close()
		env.PrintValue(val, out)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	if err := readline.Init(readline.Opts{Name: "asteval", ExpandHistory: true}); err != nil {
		log.Error.Printf("readline.Init: %v", err)
	}
	flag.Parse()
	ctx := context.Background()

	cfg := asteval.DefaultConfig()
	cfg.WallClockBudget = *wallClockFlag
	if *maxCyclesFlag > 0 {
		cfg.MaxCycles = *maxCyclesFlag
	}
	if *maxRecurseFlag > 0 {
		cfg.MaxRecursionDepth = *maxRecurseFlag
	}

	vars := map[string]interface{}{}
	var scriptPath string
	if flag.NArg() > 0 && !*evalFlag {
		scriptPath = flag.Arg(0)
		for _, arg := range flag.Args()[1:] {
			setGlobalVarFromFlags(vars, arg)
		}
	}

	interp := asteval.New(asteval.WithConfig(cfg), asteval.WithSymbols(vars))
	interactive := terminal.IsTerminal(syscall.Stdin) && terminal.IsTerminal(syscall.Stdout) && flag.NArg() == 0
	env := cmd.New(interp, interactive)

	if *evalFlag {
		must.True(flag.NArg() > 0, "no expression specified with -eval")
		val, err := interp.Eval(ctx, strings.Join(flag.Args(), " "), true, true)
		must.Nil(err, "evaluate commandline expression")
		printValue(env, val)
		return
	}
	if scriptPath != "" {
		log.Printf("running asteval with commandline: %v", os.Args)
		src, err := os.ReadFile(scriptPath)
		must.Nilf(err, "read %v", scriptPath)
		val, err := interp.Eval(ctx, string(src), true, true)
		must.Nilf(err, "evaluate %v", scriptPath)
		printValue(env, val)
		return
	}
	// REPL
	must.True(*outputFlag == "", "--output cannot be used in REPL mode")
	fmt.Println("asteval")
	env.Loop()
}
