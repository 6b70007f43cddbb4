package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/creedlang/creed/runtime"
)

// Inspect compiles a source file, instantiates its blueprint, and prints the
// instance snapshot: fields, states, and the law report. An optional where
// predicate filters the output: when it evaluates false, nothing prints.
type Inspect struct {
	Bind  string `help:"YAML file of initial field overrides"                       short:"b" type:"existingfile"`
	Where string `help:"Predicate over fields and states, e.g. 'balance > 100'"    short:"w"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin" name:"source"`

	out io.Writer
}

// snapshot is the YAML document inspect prints.
type snapshot struct {
	Blueprint  string         `yaml:"blueprint"`
	Fields     map[string]any `yaml:"fields"`
	States     map[string]any `yaml:"states"`
	Violations []string       `yaml:"violations,omitempty"`
}

// Run executes the inspect command.
func (i *Inspect) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, diags, err := loadProgram(i.Source)
	if err != nil {
		return err
	}

	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", i.Source, d)
		}

		return ErrCompile.
			With(
				slog.String("source", i.Source),
				slog.Int("diagnostics", len(diags)),
			)
	}

	overrides, err := bindOverrides(i.Bind)
	if err != nil {
		return err
	}

	store := runtime.NewStore(prog)

	name := defaultInstanceName(prog)

	inst, err := store.Instantiate(name, overrides)
	if err != nil {
		return err
	}

	report, err := store.CheckLaws(name)
	if err != nil {
		return err
	}

	snap := buildSnapshot(inst, report.Violations())

	if i.Where != "" {
		keep, err := evalWhere(i.Where, snap)
		if err != nil {
			return ErrWhereEval.Wrap(err).With(slog.String("where", i.Where))
		}

		if !keep {
			return nil
		}
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	fmt.Fprint(i.writer(), string(data))

	return nil
}

// buildSnapshot converts the instance to plain Go values for YAML output and
// predicate evaluation.
func buildSnapshot(inst *runtime.Instance, violations []string) snapshot {
	fields := inst.Fields()
	states := inst.States()

	snap := snapshot{
		Blueprint:  inst.Blueprint.Name,
		Fields:     make(map[string]any, len(fields)),
		States:     make(map[string]any, len(states)),
		Violations: violations,
	}

	for name, val := range fields {
		snap.Fields[name] = nativeValue(val)
	}

	for name, active := range states {
		snap.States[name] = active
	}

	return snap
}

// evalWhere compiles and runs the predicate against a flat environment of
// field and state names. Fields shadow states on collision, which the
// compiler already rejects.
func evalWhere(src string, snap snapshot) (bool, error) {
	env := make(map[string]any, len(snap.Fields)+len(snap.States))

	for name, val := range snap.States {
		env[name] = val
	}

	for name, val := range snap.Fields {
		env[name] = val
	}

	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	keep, ok := result.(bool)
	if !ok {
		return false, NewError("where predicate is not boolean")
	}

	return keep, nil
}

func (i *Inspect) writer() io.Writer {
	if i.out != nil {
		return i.out
	}

	return os.Stdout
}
