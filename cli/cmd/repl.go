package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/creedlang/creed/cli/cmd/repl"
	"github.com/creedlang/creed/log"
	"github.com/creedlang/creed/runtime"
)

// Repl starts an interactive session against a live store.
type Repl struct {
	Bind string `help:"YAML file of initial field overrides" short:"b" type:"existingfile"`
	As   string `help:"Instance name (defaults to the blueprint name)"`

	Source string `arg:"" help:"Source input file or '-' for stdin" name:"source"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
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

	store := runtime.NewStore(prog)

	name := r.As
	if name == "" {
		name = defaultInstanceName(prog)
	}

	_, err = store.Instantiate(name, overrides)
	if err != nil {
		return err
	}

	return repl.Run(ctx, store, name, cacheDirFrom(ctx), log.Default())
}
