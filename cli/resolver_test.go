package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveString(t *testing.T, doc string) kong.Resolver {
	t.Helper()

	r, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	return r
}

func lookupFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	flag := &kong.Flag{Value: &kong.Value{Name: name}}

	v, err := r.Resolve(nil, nil, flag)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", name, err)
	}

	return v
}

func TestResolve_HyphenAndUnderscore(t *testing.T) {
	t.Parallel()

	r := resolveString(t, "log_level: debug\nlog-format: json\n")

	if got := lookupFlag(t, r, "log-level"); got != "debug" {
		t.Errorf("log-level = %v, want debug", got)
	}

	if got := lookupFlag(t, r, "log-format"); got != "json" {
		t.Errorf("log-format = %v, want json", got)
	}

	if got := lookupFlag(t, r, "log-pretty"); got != nil {
		t.Errorf("log-pretty = %v, want nil", got)
	}
}

func TestResolve_NumbersAsStrings(t *testing.T) {
	t.Parallel()

	r := resolveString(t, "count: 42\nratio: 2.5\n")

	if got := lookupFlag(t, r, "count"); got != "42" {
		t.Errorf("count = %v (%T), want \"42\"", got, got)
	}

	if got := lookupFlag(t, r, "ratio"); got != "2.5" {
		t.Errorf("ratio = %v (%T), want \"2.5\"", got, got)
	}
}

func TestResolve_MalformedYAML(t *testing.T) {
	t.Parallel()

	r := resolveString(t, ":\n\t- not yaml")

	if got := lookupFlag(t, r, "log-level"); got != nil {
		t.Errorf("malformed config resolved %v, want nil", got)
	}
}
