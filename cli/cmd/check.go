package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/creedlang/creed/lang"
)

// Check compiles a source file and reports diagnostics.
type Check struct {
	Format string `default:"text" enum:"text,json,yaml" help:"Diagnostic output format" short:"o"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin" name:"source"`

	out io.Writer
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	_, diags, err := loadProgram(c.Source)
	if err != nil {
		return err
	}

	err = c.report(diags)
	if err != nil {
		return err
	}

	if len(diags) > 0 {
		return ErrCompile.
			With(
				slog.String("source", c.Source),
				slog.Int("diagnostics", len(diags)),
			)
	}

	return nil
}

// report writes the diagnostics to the output in the selected format.
// Text output is one "line N: message" per diagnostic; json and yaml emit
// the full diagnostic list, empty lists included.
func (c *Check) report(diags []lang.Diagnostic) error {
	out := c.writer()

	switch c.Format {
	case "json":
		data, err := json.MarshalIndent(diags, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(diags)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		fmt.Fprint(out, string(data))

	default:
		for _, d := range diags {
			fmt.Fprintf(out, "%s: %s\n", c.Source, d)
		}
	}

	return nil
}

func (c *Check) writer() io.Writer {
	if c.out != nil {
		return c.out
	}

	return os.Stdout
}
