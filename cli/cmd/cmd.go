package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/creedlang/creed/lang"
	"github.com/creedlang/creed/runtime"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// cacheDirFrom returns the runtime cache directory published through kong
// vars, or "" when the command runs outside a kong parse (tests).
func cacheDirFrom(ctx context.Context) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[CacheIdentifier]
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// defaultInstanceName is the lowercased blueprint name. Actions written as
// "make account frozen" inside blueprint Account name the instance in
// lowercase, so the default instance follows that convention.
func defaultInstanceName(prog *lang.Program) string {
	return strings.ToLower(prog.Blueprint.Name)
}

// loadProgram compiles the given source path, reading stdin when the path
// is "-". Diagnostics are returned alongside the program; the program is nil
// only when no blueprint declaration could be recovered.
func loadProgram(path string) (*lang.Program, []lang.Diagnostic, error) {
	if path == stdinSource {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, nil, lang.ErrReadInput.Wrap(err).
				With(slog.String("path", stdinSource))
		}

		prog, diags := lang.Compile(string(src))

		return prog, diags, nil
	}

	return lang.CompileFile(path)
}

// bindOverrides reads a YAML file mapping field names to initial values.
// Scalar strings are first tried as creed expressions, so "Money(300)" binds
// a typed unit while "hello world" stays a plain string.
func bindOverrides(path string) (map[string]runtime.Value, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrBindFile.Wrap(err).With(slog.String("path", path))
	}

	var raw map[string]any

	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, ErrBindFile.Wrap(err).With(slog.String("path", path))
	}

	overrides := make(map[string]runtime.Value, len(raw))

	for name, v := range raw {
		val, err := bindValue(v)
		if err != nil {
			return nil, ErrBindFile.Wrap(err).
				With(slog.String("path", path), slog.String("field", name))
		}

		overrides[name] = val
	}

	return overrides, nil
}

// bindValue converts a decoded YAML scalar or sequence to a runtime value.
func bindValue(v any) (runtime.Value, error) {
	switch v := v.(type) {
	case nil:
		return runtime.Null(), nil

	case bool:
		return runtime.Boolean(v), nil

	case int:
		return runtime.Number(float64(v)), nil

	case int64:
		return runtime.Number(float64(v)), nil

	case uint64:
		return runtime.Number(float64(v)), nil

	case float64:
		return runtime.Number(v), nil

	case string:
		parsed, err := runtime.ParseValue(v)
		if err == nil {
			return parsed, nil
		}

		return runtime.String(v), nil

	case []any:
		elems := make([]runtime.Value, len(v))

		for i, e := range v {
			elem, err := bindValue(e)
			if err != nil {
				return runtime.Null(), err
			}

			elems[i] = elem
		}

		return runtime.Array(elems...), nil
	}

	return runtime.Null(), NewError("unsupported bind value type")
}

// nativeValue converts a runtime value to its plain Go representation for
// host-side queries. Units flatten to their magnitude.
func nativeValue(v runtime.Value) any {
	switch v.Kind {
	case runtime.KindNull:
		return nil

	case runtime.KindNumber, runtime.KindUnit:
		return v.Num

	case runtime.KindString, runtime.KindSymbol:
		return v.Str

	case runtime.KindBoolean:
		return v.Bool

	case runtime.KindArray:
		elems := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			elems[i] = nativeValue(e)
		}

		return elems
	}

	return v.String()
}

// parseArgs converts textual when-clause arguments to runtime values.
func parseArgs(args []string) ([]runtime.Value, error) {
	vals := make([]runtime.Value, len(args))

	for i, arg := range args {
		val, err := runtime.ParseValue(arg)
		if err != nil {
			return nil, err
		}

		vals[i] = val
	}

	return vals, nil
}
