package lang

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Program is a compiled blueprint together with the source it came from.
type Program struct {
	Blueprint *Blueprint
	Source    string
	Path      string
}

// Compile parses source text and validates the resulting blueprint. The
// returned diagnostics include both parse and validation findings; the
// program is nil when no blueprint could be recovered.
func Compile(src string) (*Program, []Diagnostic) {
	bp, diags := Parse(src)
	if bp == nil {
		return nil, diags
	}

	diags = append(diags, validate(bp)...)

	return &Program{Blueprint: bp, Source: src}, diags
}

// CompileFile reads and compiles a source file.
func CompileFile(path string) (*Program, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	src, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}

	prog, diags := Compile(string(src))
	if prog != nil {
		prog.Path = path
	}

	return prog, diags, nil
}

// validate checks cross-references the parser cannot: duplicate
// declarations, make-actions naming undeclared states, and set/change
// actions naming undeclared fields on the blueprint itself.
func validate(bp *Blueprint) []Diagnostic {
	var diags []Diagnostic

	report := func(line int, format string, args ...any) {
		diags = append(diags, Diagnostic{
			Line:    line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	fields := make(map[string]int, len(bp.Fields))

	for _, f := range bp.Fields {
		if prev, dup := fields[f.Name]; dup {
			report(f.Line, "field %s already declared on line %d", f.Name, prev)

			continue
		}

		fields[f.Name] = f.Line
	}

	states := make(map[string]int, len(bp.States))

	for _, s := range bp.States {
		if prev, dup := states[s.Name]; dup {
			report(s.Line, "state %s already declared on line %d", s.Name, prev)

			continue
		}

		if prev, dup := fields[s.Name]; dup {
			report(s.Line, "state %s collides with field on line %d", s.Name, prev)
		}

		states[s.Name] = s.Line
	}

	laws := make(map[string]int, len(bp.Laws))

	for _, l := range bp.Laws {
		if prev, dup := laws[l.Name]; dup {
			report(l.Line, "law %s already declared on line %d", l.Name, prev)
		}

		laws[l.Name] = l.Line
	}

	whens := make(map[string]int, len(bp.Whens))

	for _, w := range bp.Whens {
		if prev, dup := whens[w.Name]; dup {
			report(w.Line, "when %s already declared on line %d", w.Name, prev)
		}

		whens[w.Name] = w.Line

		params := make(map[string]bool, len(w.Params))

		for _, name := range w.Params {
			if params[name] {
				report(w.Line, "when %s repeats parameter %s", w.Name, name)
			}

			params[name] = true
		}

		validateActions(bp, w, fields, states, report)
	}

	return diags
}

// validateActions checks each action of a when-clause against the declared
// fields and states. Actions with dotted targets refer to other instances
// and are resolved at run time instead.
func validateActions(
	bp *Blueprint,
	w *WhenClause,
	fields, states map[string]int,
	report func(line int, format string, args ...any),
) {
	locals := make(map[string]bool, 2)

	for _, a := range w.Actions {
		switch a.Kind {
		case ActionSet, ActionChange:
			if a.Object != "" || locals[a.Field] {
				continue
			}

			if _, ok := fields[a.Field]; !ok {
				report(a.Line, "when %s targets undeclared field %s",
					w.Name, a.Field)
			}

		case ActionMake:
			if a.Object != "" && a.Object != bp.Name {
				continue
			}

			if _, ok := states[a.Field]; !ok {
				report(a.Line, "when %s enters undeclared state %s",
					w.Name, a.Field)
			}

		case ActionCalc:
			locals[a.Field] = true

		case ActionMemo:
		}
	}
}
