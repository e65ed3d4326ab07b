// shdump runs a script through the lexer/parser/expander pipeline and
// prints the expanded argv of every simple command in its top-level
// statements (not those nested in compound commands), tracing the
// way "set -x" does. It exists to exercise the library end to end, not as
// a shell: pipelines, control flow, and redirections are parsed but not
// executed, and command substitution only runs a single external command
// per "$(...)", not an arbitrary script.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/expand"
	"github.com/gopsh/shcore/parser"
	"github.com/gopsh/shcore/pattern"
	"github.com/gopsh/shcore/shellapi"
)

var command = flag.String("c", "", "script text to parse and trace, instead of reading a file/stdin")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shdump:", err)
		os.Exit(1)
	}
}

func run() error {
	src, name, err := readSource()
	if err != nil {
		return err
	}

	prog, errs := parser.Parse(src, parser.Config{Mode: parser.ModeCollecting})
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
	if prog == nil {
		return fmt.Errorf("%s: no program parsed", name)
	}

	store := shellapi.NewMapStore(name, scriptArgs(), os.Environ()...)
	cfg := &expand.Config{
		Vars:  store,
		Funcs: shellapi.NewMapFunctionTable(),
		Arith: shellapi.BasicArith{},
		Glob:  pattern.FSGlobber{},
	}
	cfg.Runner = &execRunner{cfg: cfg}

	return traceProgram(prog, cfg)
}

func readSource() (src []byte, name string, err error) {
	if *command != "" {
		return []byte(*command), "-c", nil
	}
	if flag.NArg() > 0 {
		b, err := os.ReadFile(flag.Arg(0))
		return b, flag.Arg(0), err
	}
	b, err := io.ReadAll(os.Stdin)
	return b, "stdin", err
}

// scriptArgs is the positional parameter list the parsed script sees:
// everything after the script file name, or every flag.Arg when reading
// from "-c"/stdin (there's no file name to consume as $0 in that case).
func scriptArgs() []string {
	if *command == "" && flag.NArg() > 0 {
		return flag.Args()[1:]
	}
	return flag.Args()
}

func traceProgram(prog *ast.Program, cfg *expand.Config) error {
	ctx := context.Background()
	for _, item := range prog.Items {
		st, ok := item.(*ast.Statement)
		if !ok {
			continue
		}
		if err := traceAndOr(ctx, st.List, cfg); err != nil {
			return err
		}
	}
	return nil
}

func traceAndOr(ctx context.Context, list *ast.AndOrList, cfg *expand.Config) error {
	for _, pl := range list.Pipelines {
		for _, stage := range pl.Stages {
			sc, ok := stage.Command.(*ast.SimpleCommand)
			if !ok || len(sc.Args) == 0 {
				continue
			}
			argv, err := expand.Fields(ctx, cfg, sc.Args...)
			if err != nil {
				return fmt.Errorf("expand: %w", err)
			}
			fmt.Println("+ " + strings.Join(argv, " "))
		}
	}
	return nil
}

// execRunner backs command substitution with a real child process, for
// the common case of a single external command. Scripts containing
// pipelines or control flow inside "$(...)" are rejected rather than
// silently misinterpreted, and process substitution always fails.
type execRunner struct {
	cfg *expand.Config
}

func (r *execRunner) RunCapture(ctx context.Context, body ast.StatementList, stdin []byte) ([]byte, error) {
	argv, err := r.singleCommandArgv(ctx, body)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

func (r *execRunner) RunProcSub(ctx context.Context, body ast.StatementList, dir shellapi.ProcDirection) (string, error) {
	return "", fmt.Errorf("shdump: process substitution is not supported by this trace-only runner")
}

func (r *execRunner) singleCommandArgv(ctx context.Context, body ast.StatementList) ([]string, error) {
	if len(body) != 1 || len(body[0].List.Pipelines) != 1 || len(body[0].List.Pipelines[0].Stages) != 1 {
		return nil, fmt.Errorf("shdump: command substitution only supports a single external command")
	}
	sc, ok := body[0].List.Pipelines[0].Stages[0].Command.(*ast.SimpleCommand)
	if !ok || len(sc.Args) == 0 {
		return nil, fmt.Errorf("shdump: command substitution only supports a single external command")
	}
	argv, err := expand.Fields(ctx, r.cfg, sc.Args...)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("shdump: empty command")
	}
	return argv, nil
}
