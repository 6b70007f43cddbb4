package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/creedlang/creed/lang"
	"github.com/creedlang/creed/runtime"
)

const accountSource = `
blueprint Account
  starts balance at Money(1000)
  law no_overdraft : balance below Money(0)

  when withdraw(amount)
    must amount above Money(0)
    change balance by minus amount
    memo "withdrawal"
    fin

  when close
    set balance to Money(0)
    finfr "account closed"
end
`

func openLedger(t *testing.T) *Ledger {
	t.Helper()

	led, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { led.Close() })

	return led
}

func newStore(t *testing.T, led *Ledger) *runtime.Store {
	t.Helper()

	prog, diags := lang.Compile(accountSource)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := runtime.NewStore(prog, runtime.WithObserver(led))

	if _, err := s.Instantiate("account", nil); err != nil {
		t.Fatal(err)
	}

	return s
}

func money(n float64) runtime.Value {
	return runtime.Unit(runtime.UnitMoney, "Money", n)
}

func TestLedger_RecordsCommits(t *testing.T) {
	led := openLedger(t)
	s := newStore(t, led)
	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(300)); err != nil {
		t.Fatal(err)
	}

	// A rolled-back execution must leave no trace.
	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(5000)); err == nil {
		t.Fatal("overdraft did not fail")
	}

	if _, err := s.ExecuteWhen(ctx, "account", "close"); err != nil {
		t.Fatal(err)
	}

	entries, err := led.Commits(ctx, "account")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 2 {
		t.Fatalf("recorded %d commits, want 2", len(entries))
	}

	withdraw := entries[0]
	if withdraw.Clause != "withdraw" || withdraw.Outcome != "committed" {
		t.Errorf("first entry = %s/%s", withdraw.Clause, withdraw.Outcome)
	}

	if withdraw.Args != "Money(300)" {
		t.Errorf("args = %q", withdraw.Args)
	}

	if len(withdraw.Memos) != 1 || withdraw.Memos[0] != "withdrawal" {
		t.Errorf("memos = %v", withdraw.Memos)
	}

	closed := entries[1]
	if closed.Outcome != "declared" || closed.Declared != "account closed" {
		t.Errorf("second entry = %s/%q", closed.Outcome, closed.Declared)
	}
}

// Commits lands many same-second appends in execution order. The timestamp
// column has second granularity, so ordering rides on seq alone.
func TestLedger_CommitOrder(t *testing.T) {
	led := openLedger(t)
	s := newStore(t, led)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(1)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := led.Commits(ctx, "account")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != n {
		t.Fatalf("recorded %d commits, want %d", len(entries), n)
	}

	for i := 1; i < n; i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Fatalf("entry %d seq %d not after %d", i, entries[i].Seq, entries[i-1].Seq)
		}
	}

	last, err := led.Mutations(ctx, entries[n-1].ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(last) != 1 || last[0].After != money(1000-n).String() {
		t.Errorf("final mutation = %+v, want balance Money(%d)", last, 1000-n)
	}
}

func TestLedger_RecordsMutations(t *testing.T) {
	led := openLedger(t)
	s := newStore(t, led)
	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(250)); err != nil {
		t.Fatal(err)
	}

	entries, err := led.Commits(ctx, "account")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 1 {
		t.Fatalf("recorded %d commits, want 1", len(entries))
	}

	muts, err := led.Mutations(ctx, entries[0].ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(muts) != 1 {
		t.Fatalf("recorded %d mutations, want 1", len(muts))
	}

	m := muts[0]
	if m.Field != "balance" || m.Before != "Money(1000)" || m.After != "Money(750)" {
		t.Errorf("mutation = %+v", m)
	}
}

func TestLedger_EmptyHistory(t *testing.T) {
	led := openLedger(t)

	entries, err := led.Commits(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}
