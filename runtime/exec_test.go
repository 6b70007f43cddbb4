package runtime

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/creedlang/creed/lang"
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

  when deposit(amount)
    must amount above Money(0)
    change balance by plus amount
    fin

  when freeze
    make account frozen
    fin

  when close
    set balance to Money(0)
    make account frozen
    finfr "account closed"
end
`

func newAccountStore(t *testing.T) *Store {
	t.Helper()

	prog, diags := lang.Compile(accountSource)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	return NewStore(prog)
}

func mustInstantiate(t *testing.T, s *Store, name string) *Instance {
	t.Helper()

	inst, err := s.Instantiate(name, nil)
	if err != nil {
		t.Fatal(err)
	}

	return inst
}

func money(n float64) Value { return Unit(UnitMoney, "Money", n) }

func balance(t *testing.T, inst *Instance) float64 {
	t.Helper()

	v, err := inst.Field("balance")
	if err != nil {
		t.Fatal(err)
	}

	return v.Num
}

// Withdrawing 300 from 1000 commits at 700; withdrawing 1000 more violates
// no_overdraft, names the law, and leaves the balance at 700.
func TestExecuteWhen_EndToEnd(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(300)); err != nil {
		t.Fatal(err)
	}

	if got := balance(t, inst); got != 700 {
		t.Fatalf("balance = %g, want 700", got)
	}

	_, err := s.ExecuteWhen(ctx, "account", "withdraw", money(1000))

	var violated *LawViolatedError
	if !errors.As(err, &violated) {
		t.Fatalf("err = %v, want *LawViolatedError", err)
	}

	if violated.Law != "no_overdraft" {
		t.Errorf("violated law = %q, want no_overdraft", violated.Law)
	}

	if got := balance(t, inst); got != 700 {
		t.Errorf("balance after rollback = %g, want 700", got)
	}
}

func TestExecuteWhen_GuardRejection(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	_, err := s.ExecuteWhen(ctx, "account", "withdraw", money(-5))

	var rejected *GuardRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *GuardRejectedError", err)
	}

	if rejected.Message != "amount must be positive" {
		t.Errorf("message = %q", rejected.Message)
	}

	if got := balance(t, inst); got != 1000 {
		t.Errorf("balance = %g, want untouched 1000", got)
	}
}

// A rejecting guard prevents every action in the clause, and the block-if
// guard reads state toggled by an earlier clause.
func TestExecuteWhen_GuardBeforeAction(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "account", "freeze"); err != nil {
		t.Fatal(err)
	}

	if !inst.InState("frozen") {
		t.Fatal("freeze did not enter the frozen state")
	}

	_, err := s.ExecuteWhen(ctx, "account", "withdraw", money(100))

	var rejected *GuardRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *GuardRejectedError", err)
	}

	if got := balance(t, inst); got != 1000 {
		t.Errorf("balance = %g, want 1000", got)
	}
}

// fin and a terminal finfr both commit; they differ only in the declared
// outcome. A terminal finfr is not a rollback.
func TestExecuteWhen_TerminalOutcomes(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	res, err := s.ExecuteWhen(ctx, "account", "deposit", money(1))
	if err != nil {
		t.Fatal(err)
	}

	if res.Outcome != OutcomeCommitted {
		t.Errorf("deposit outcome = %s, want committed", res.Outcome)
	}

	res, err = s.ExecuteWhen(ctx, "account", "close")
	if err != nil {
		t.Fatal(err)
	}

	if res.Outcome != OutcomeDeclared {
		t.Errorf("close outcome = %s, want declared", res.Outcome)
	}

	if res.Declared != "account closed" {
		t.Errorf("declared message = %q", res.Declared)
	}

	if got := balance(t, inst); got != 0 {
		t.Errorf("balance = %g, want committed 0", got)
	}

	if !inst.InState("frozen") {
		t.Error("close did not commit the frozen state")
	}
}

func TestExecuteWhen_LookupAndArity(t *testing.T) {
	s := newAccountStore(t)
	mustInstantiate(t, s, "account")
	ctx := context.Background()

	_, err := s.ExecuteWhen(ctx, "account", "explode")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("unknown clause err = %v, want *NotFoundError", err)
	}

	_, err = s.ExecuteWhen(ctx, "nobody", "withdraw", money(1))
	if !errors.As(err, &nf) {
		t.Errorf("unknown instance err = %v, want *NotFoundError", err)
	}

	_, err = s.ExecuteWhen(ctx, "account", "withdraw")

	var arity *ArityError
	if !errors.As(err, &arity) {
		t.Fatalf("err = %v, want *ArityError", err)
	}

	if arity.Want != 1 || arity.Got != 0 {
		t.Errorf("arity = %d/%d, want 1/0", arity.Want, arity.Got)
	}
}

func TestExecuteWhen_CalcAndMemo(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Meter
  starts reading at 10

  when sample(next)
    calc next minus reading as delta
    set reading to next
    memo "delta was " & delta
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)
	mustInstantiate(t, s, "meter")

	res, err := s.ExecuteWhen(context.Background(), "meter", "sample", Number(25))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Memos) != 1 || res.Memos[0] != "delta was 15" {
		t.Errorf("memos = %v", res.Memos)
	}

	if res.Value.Num != 25 {
		t.Errorf("result value = %s, want 25", res.Value)
	}
}

func TestExecuteWhen_WithinLaw(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Gauge
  starts level at 5
  law too_high : level above 10

  when fill(amount)
    must amount within 0 and 10
    change level by plus amount
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)
	mustInstantiate(t, s, "gauge")
	ctx := context.Background()

	// The within range is inclusive on both ends, and 5 + 5 = 10 sits
	// exactly on the law's boundary: above is strict, so 10 passes.
	if _, err := s.ExecuteWhen(ctx, "gauge", "fill", Number(5)); err != nil {
		t.Fatal(err)
	}

	_, err := s.ExecuteWhen(ctx, "gauge", "fill", Number(1))

	var violated *LawViolatedError
	if !errors.As(err, &violated) {
		t.Fatalf("err = %v, want *LawViolatedError", err)
	}

	_, err = s.ExecuteWhen(ctx, "gauge", "fill", Number(11))

	var rejected *GuardRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *GuardRejectedError", err)
	}
}

func TestExecuteWhen_RatioGuard(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Position
  starts exposure at 0
  starts limit at 100

  when open(amount)
    calc ratio(amount, limit, 1.0) as leverage
    change exposure by plus amount
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)
	inst, err := s.Instantiate("position", nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "position", "open", Number(100)); err != nil {
		t.Fatalf("boundary ratio rejected: %v", err)
	}

	_, err = s.ExecuteWhen(ctx, "position", "open", Number(101))

	var exceeded *RatioExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("err = %v, want *RatioExceededError", err)
	}

	if v, _ := inst.Field("exposure"); v.Num != 100 {
		t.Errorf("exposure = %g, want 100 after rollback", v.Num)
	}

	// Zero the limit: the ratio becomes undefined, treated as a rejection.
	if _, err := s.ExecuteWhen(ctx, "position", "open", Number(-100)); err != nil {
		t.Fatal(err)
	}

	inst2, err := s.Instantiate("degenerate", map[string]Value{
		"limit": Number(0),
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.ExecuteWhen(ctx, "degenerate", "open", Number(1))

	var undefined *RatioUndefinedError
	if !errors.As(err, &undefined) {
		t.Fatalf("err = %v, want *RatioUndefinedError", err)
	}

	if v, _ := inst2.Field("exposure"); v.Num != 0 {
		t.Errorf("exposure = %g, want 0 after rollback", v.Num)
	}
}

// Atomicity property: random deposit/withdraw sequences against the
// overdraft law; every rejected call leaves the field map identical to the
// state before the call.
func TestExecuteWhen_AtomicityProperty(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	rng := rand.New(rand.NewSource(1))

	for range 500 {
		before := inst.Fields()

		clause := "deposit"
		if rng.Intn(2) == 0 {
			clause = "withdraw"
		}

		amount := money(float64(rng.Intn(4000) - 1000))

		_, err := s.ExecuteWhen(ctx, "account", clause, amount)
		if err == nil {
			continue
		}

		after := inst.Fields()

		for name, want := range before {
			eq, eqErr := after[name].Eq(want)
			if eqErr != nil || !eq {
				t.Fatalf("%s(%s): field %s = %s, want %s after %v",
					clause, amount, name, after[name], want, err)
			}
		}
	}
}

func TestCheckLaws(t *testing.T) {
	s := newAccountStore(t)
	mustInstantiate(t, s, "account")

	report, err := s.CheckLaws("account")
	if err != nil {
		t.Fatal(err)
	}

	if !report.OK() {
		t.Errorf("fresh instance violates %v", report.Violations())
	}

	// Force a violation through an override on a second instance.
	if _, err := s.Instantiate("broke", map[string]Value{
		"balance": money(-1),
	}); err != nil {
		t.Fatal(err)
	}

	report, err = s.CheckLaws("broke")
	if err != nil {
		t.Fatal(err)
	}

	if report.OK() {
		t.Error("negative balance passed the overdraft law")
	}

	if vs := report.Violations(); len(vs) != 1 || vs[0] != "no_overdraft" {
		t.Errorf("violations = %v, want [no_overdraft]", vs)
	}
}

type recordingObserver struct {
	commits []Commit
	fail    error
}

func (o *recordingObserver) ClauseCommitted(_ context.Context, c Commit) error {
	o.commits = append(o.commits, c)

	return o.fail
}

func TestObserver_PostCommitOnly(t *testing.T) {
	prog, diags := lang.Compile(accountSource)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	obs := &recordingObserver{}
	s := NewStore(prog, WithObserver(obs))
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(300)); err != nil {
		t.Fatal(err)
	}

	// A rolled-back execution never reaches observers.
	if _, err := s.ExecuteWhen(ctx, "account", "withdraw", money(5000)); err == nil {
		t.Fatal("overdraft did not fail")
	}

	if len(obs.commits) != 1 {
		t.Fatalf("observer saw %d commits, want 1", len(obs.commits))
	}

	c := obs.commits[0]
	if c.Clause != "withdraw" || c.Instance != "account" {
		t.Errorf("commit = %s.%s", c.Instance, c.Clause)
	}

	if c.Before["balance"].Num != 1000 || c.After["balance"].Num != 700 {
		t.Errorf("commit balances = %s -> %s",
			c.Before["balance"], c.After["balance"])
	}

	// An observer failure reports to the caller but cannot undo the commit.
	obs.fail = errors.New("ledger offline")

	_, err := s.ExecuteWhen(ctx, "account", "deposit", money(50))
	if err == nil || err.Error() != "ledger offline" {
		t.Fatalf("err = %v, want ledger offline", err)
	}

	if got := balance(t, inst); got != 750 {
		t.Errorf("balance = %g, want committed 750", got)
	}
}

// make flips a state: entering it once, leaving it on the second call.
func TestExecuteWhen_MakeTogglesState(t *testing.T) {
	s := newAccountStore(t)
	inst := mustInstantiate(t, s, "account")
	ctx := context.Background()

	for _, want := range []bool{true, false, true} {
		if _, err := s.ExecuteWhen(ctx, "account", "freeze"); err != nil {
			t.Fatal(err)
		}

		if inst.InState("frozen") != want {
			t.Fatalf("frozen = %v, want %v", !want, want)
		}
	}
}
