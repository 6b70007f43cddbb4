package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/creedlang/creed/ledger"
	"github.com/creedlang/creed/log"
	"github.com/creedlang/creed/runtime"
)

// Run compiles a source file, instantiates its blueprint, and executes one
// when-clause against the instance.
type Run struct {
	Bind   string `help:"YAML file of initial field overrides"               short:"b" type:"existingfile"`
	Ledger string `help:"SQLite ledger recording committed transitions"     short:"l" type:"path"`
	As     string `help:"Instance name (defaults to the blueprint name)"`

	Source string   `arg:"" help:"Source input file or '-' for stdin"          name:"source"`
	Clause string   `arg:"" help:"When-clause to execute"                      name:"clause"`
	Args   []string `arg:"" help:"Clause arguments as creed expressions"       name:"args"   optional:""`

	out io.Writer
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, diags, err := loadProgram(r.Source)
	if err != nil {
		return err
	}

	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", r.Source, d)
		}

		return ErrCompile.
			With(
				slog.String("source", r.Source),
				slog.Int("diagnostics", len(diags)),
			)
	}

	overrides, err := bindOverrides(r.Bind)
	if err != nil {
		return err
	}

	opts := []runtime.Option{}

	if r.Ledger != "" {
		journal, err := ledger.Open(r.Ledger)
		if err != nil {
			return ErrLedgerOpen.Wrap(err).With(slog.String("path", r.Ledger))
		}
		defer journal.Close()

		opts = append(opts, runtime.WithObserver(journal))
	}

	store := runtime.NewStore(prog, opts...)

	name := r.As
	if name == "" {
		name = defaultInstanceName(prog)
	}

	inst, err := store.Instantiate(name, overrides)
	if err != nil {
		return err
	}

	args, err := parseArgs(r.Args)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "executing clause",
		slog.String("instance", inst.Name),
		slog.String("clause", r.Clause),
		slog.Int("args", len(args)),
	)

	result, err := store.ExecuteWhen(ctx, name, r.Clause, args...)
	if err != nil {
		return err
	}

	r.print(result, inst)

	return nil
}

// print writes the execution outcome, memos, and the post-commit field
// snapshot to the output.
func (r *Run) print(result *runtime.Result, inst *runtime.Instance) {
	out := r.writer()

	fmt.Fprintf(out, "outcome: %s\n", result.Outcome)

	if result.Declared != "" {
		fmt.Fprintf(out, "declared: %s\n", result.Declared)
	}

	for _, memo := range result.Memos {
		fmt.Fprintf(out, "memo: %s\n", memo)
	}

	fields := inst.Fields()

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(out, "%s: %s\n", name, fields[name])
	}
}

func (r *Run) writer() io.Writer {
	if r.out != nil {
		return r.out
	}

	return os.Stdout
}
