package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creedlang/creed/ledger"
	"github.com/creedlang/creed/runtime"
)

func TestRun_Withdraw(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)

	var out bytes.Buffer

	run := Run{
		Source: path,
		Clause: "withdraw",
		Args:   []string{"Money(300)"},
		out:    &out,
	}

	err := run.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()

	if !strings.Contains(got, "outcome: committed") {
		t.Errorf("missing outcome line: %q", got)
	}

	if !strings.Contains(got, "balance: Money(700)") {
		t.Errorf("missing post-commit balance: %q", got)
	}
}

func TestRun_BindOverrides(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)
	bind := writeFile(t, "bind.yaml", "balance: Money(50)\n")

	var out bytes.Buffer

	run := Run{
		Bind:   bind,
		Source: path,
		Clause: "withdraw",
		Args:   []string{"Money(20)"},
		out:    &out,
	}

	err := run.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "balance: Money(30)") {
		t.Errorf("override not applied: %q", out.String())
	}
}

func TestRun_LawViolationRollsBack(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)

	var out bytes.Buffer

	run := Run{
		Source: path,
		Clause: "withdraw",
		Args:   []string{"Money(2000)"},
		out:    &out,
	}

	err := run.Run(context.Background())
	if err == nil {
		t.Fatal("expected law violation")
	}

	var lawErr *runtime.LawViolatedError
	if !errors.As(err, &lawErr) {
		t.Fatalf("error type = %T, want *LawViolatedError", err)
	}

	if lawErr.Law != "no_overdraft" {
		t.Errorf("violated law = %q, want no_overdraft", lawErr.Law)
	}
}

func TestRun_LedgerRecordsCommit(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	var out bytes.Buffer

	run := Run{
		Ledger: dbPath,
		Source: path,
		Clause: "withdraw",
		Args:   []string{"Money(250)"},
		out:    &out,
	}

	err := run.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	journal, err := ledger.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	commits, err := journal.Commits(context.Background(), "account")
	if err != nil {
		t.Fatal(err)
	}

	if len(commits) != 1 {
		t.Fatalf("commit count = %d, want 1", len(commits))
	}

	if commits[0].Clause != "withdraw" {
		t.Errorf("recorded clause = %q, want withdraw", commits[0].Clause)
	}
}

func TestRun_UnknownClause(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "account.creed", accountSource)

	run := Run{Source: path, Clause: "explode", out: &bytes.Buffer{}}

	err := run.Run(context.Background())

	var notFound *runtime.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
}
