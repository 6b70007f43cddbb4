package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creedlang/creed/runtime"
)

const accountSource = `
blueprint Account
  starts balance at Money(1000)
  can_be frozen
  law no_overdraft : balance below Money(0)

  when withdraw(amount)
    block if frozen
    must amount above Money(0) otherwise "amount must be positive"
    change balance by minus amount
    fin

  when freeze
    make account frozen
    fin
end
`

// writeFile writes content to a file under a fresh temp dir and returns its
// path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	return path
}

func TestBindValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want runtime.Value
	}{
		{name: "nil", in: nil, want: runtime.Null()},
		{name: "bool", in: true, want: runtime.Boolean(true)},
		{name: "int", in: 42, want: runtime.Number(42)},
		{name: "int64", in: int64(-3), want: runtime.Number(-3)},
		{name: "uint64", in: uint64(7), want: runtime.Number(7)},
		{name: "float", in: 2.5, want: runtime.Number(2.5)},
		{name: "plain_string", in: "hello world", want: runtime.String("hello world")},
		{name: "number_string", in: "-12.5", want: runtime.Number(-12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := bindValue(tt.in)
			if err != nil {
				t.Fatalf("bindValue(%v): %v", tt.in, err)
			}

			if got.Kind != tt.want.Kind ||
				got.Num != tt.want.Num ||
				got.Str != tt.want.Str ||
				got.Bool != tt.want.Bool {
				t.Errorf("bindValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBindValue_UnitExpression(t *testing.T) {
	t.Parallel()

	got, err := bindValue("Money(300)")
	if err != nil {
		t.Fatal(err)
	}

	if got.Kind != runtime.KindUnit || got.Num != 300 {
		t.Errorf("bindValue(Money(300)) = %v", got)
	}
}

func TestBindOverrides(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bind.yaml", "balance: Money(400)\nowner: alice liddell\n")

	overrides, err := bindOverrides(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := overrides["balance"]; got.Kind != runtime.KindUnit || got.Num != 400 {
		t.Errorf("balance override = %v", got)
	}

	if got := overrides["owner"]; got.Kind != runtime.KindString || got.Str != "alice liddell" {
		t.Errorf("owner override = %v", got)
	}
}

func TestBindOverrides_Missing(t *testing.T) {
	t.Parallel()

	_, err := bindOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing bind file")
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	vals, err := parseArgs([]string{"Money(300)", "-5", `"wire transfer"`})
	if err != nil {
		t.Fatal(err)
	}

	if vals[0].Kind != runtime.KindUnit || vals[0].Num != 300 {
		t.Errorf("arg 0 = %v", vals[0])
	}

	if vals[1].Kind != runtime.KindNumber || vals[1].Num != -5 {
		t.Errorf("arg 1 = %v", vals[1])
	}

	if vals[2].Kind != runtime.KindString || vals[2].Str != "wire transfer" {
		t.Errorf("arg 2 = %v", vals[2])
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{`"unterminated`})
	if err == nil {
		t.Fatal("expected error for malformed argument")
	}
}

func TestNativeValue(t *testing.T) {
	t.Parallel()

	unit, err := runtime.NewUnit("Money", 250)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   runtime.Value
		want any
	}{
		{name: "null", in: runtime.Null(), want: nil},
		{name: "number", in: runtime.Number(3), want: 3.0},
		{name: "string", in: runtime.String("x"), want: "x"},
		{name: "boolean", in: runtime.Boolean(true), want: true},
		{name: "unit_magnitude", in: unit, want: 250.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := nativeValue(tt.in); got != tt.want {
				t.Errorf("nativeValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultInstanceName(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)

	prog, diags, err := loadProgram(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	if got := defaultInstanceName(prog); got != "account" {
		t.Errorf("defaultInstanceName = %q, want account", got)
	}
}
