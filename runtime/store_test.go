package runtime

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/creedlang/creed/lang"
)

func TestStore_Instantiate(t *testing.T) {
	s := newAccountStore(t)

	inst, err := s.Instantiate("alice", map[string]Value{
		"balance": money(50),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := balance(t, inst); got != 50 {
		t.Errorf("override balance = %g, want 50", got)
	}

	if _, err := s.Instantiate("alice", nil); err == nil {
		t.Error("duplicate name did not fail")
	}

	_, err = s.Instantiate("bob", map[string]Value{"ghost": Number(1)})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("unknown override err = %v, want *NotFoundError", err)
	}
}

func TestStore_InstancesAndRelease(t *testing.T) {
	s := newAccountStore(t)
	mustInstantiate(t, s, "alice")
	mustInstantiate(t, s, "bob")

	names := s.Instances()
	slices.Sort(names)

	if !slices.Equal(names, []string{"alice", "bob"}) {
		t.Errorf("instances = %v", names)
	}

	if err := s.Release("alice"); err != nil {
		t.Fatal(err)
	}

	if err := s.Release("alice"); err == nil {
		t.Error("double release did not fail")
	}

	if _, err := s.Instance("alice"); err == nil {
		t.Error("released instance still resolvable")
	}
}

// Dotted reads reach other instances in the store; dotted writes to anyone
// but the owning instance are refused.
func TestStore_CrossInstance(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Account
  starts balance at Money(100)

  when mirror
    set balance to reserve.balance
    fin

  when rob
    set reserve.balance to Money(0)
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)
	mustInstantiate(t, s, "account")

	reserve, err := s.Instantiate("reserve", map[string]Value{
		"balance": money(777),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	inst, err := s.Instance("account")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.ExecuteWhen(ctx, "account", "mirror"); err != nil {
		t.Fatal(err)
	}

	if got := balance(t, inst); got != 777 {
		t.Errorf("mirrored balance = %g, want 777", got)
	}

	if _, err := s.ExecuteWhen(ctx, "account", "rob"); err == nil {
		t.Error("cross-instance write did not fail")
	}

	if got := balance(t, reserve); got != 777 {
		t.Errorf("reserve balance = %g, want untouched 777", got)
	}
}

// Reading a declared state on another instance yields false while the state
// is inactive, the same as a self-read. Only undeclared names are lookup
// errors.
func TestStore_CrossInstanceStateRead(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Vault
  starts watched at 0
  can_be frozen

  when peek
    set watched to sentinel.frozen
    fin

  when pry
    set watched to sentinel.missing
    fin

  when seal
    make sentinel frozen
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)
	mustInstantiate(t, s, "vault")
	mustInstantiate(t, s, "sentinel")

	ctx := context.Background()

	if _, err := s.ExecuteWhen(ctx, "vault", "peek"); err != nil {
		t.Fatalf("reading an inactive state: %v", err)
	}

	inst, err := s.Instance("vault")
	if err != nil {
		t.Fatal(err)
	}

	v, err := inst.Field("watched")
	if err != nil {
		t.Fatal(err)
	}

	if v.Kind != KindBoolean || v.Bool {
		t.Errorf("watched = %s, want false", v)
	}

	if _, err := s.ExecuteWhen(ctx, "sentinel", "seal"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ExecuteWhen(ctx, "vault", "peek"); err != nil {
		t.Fatal(err)
	}

	if v, _ := inst.Field("watched"); v.Kind != KindBoolean || !v.Bool {
		t.Errorf("watched = %s, want true", v)
	}

	var nf *NotFoundError
	if _, err := s.ExecuteWhen(ctx, "vault", "pry"); !errors.As(err, &nf) {
		t.Errorf("undeclared name err = %v, want *NotFoundError", err)
	}
}

// Field initializers evaluate left to right, so later fields may be
// derived from earlier ones.
func TestStore_DerivedInitializers(t *testing.T) {
	prog, diags := lang.Compile(`
blueprint Loan
  starts principal at Money(1000)
  starts limit at principal times 2

  when noop
    fin
end
`)
	if len(diags) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	s := NewStore(prog)

	inst, err := s.Instantiate("loan", nil)
	if err != nil {
		t.Fatal(err)
	}

	v, err := inst.Field("limit")
	if err != nil {
		t.Fatal(err)
	}

	if v.Kind != KindUnit || v.Num != 2000 {
		t.Errorf("limit = %s, want Money(2000)", v)
	}
}
