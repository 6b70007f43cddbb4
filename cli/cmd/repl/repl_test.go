package repl

import (
	"strings"
	"testing"
)

func TestExecuteClause_Committed(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)

	out := m.executeClause("withdraw Money(300)")
	if !strings.Contains(out, "committed") {
		t.Errorf("output = %q, want committed", out)
	}

	fields := m.listFields()
	if !strings.Contains(fields, "Money(700)") {
		t.Errorf("fields = %q, want Money(700)", fields)
	}
}

func TestExecuteClause_Refused(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)

	out := m.executeClause("withdraw Money(2000)")
	if !strings.Contains(out, "refused") {
		t.Errorf("output = %q, want refused", out)
	}

	// The violating clause rolled back.
	fields := m.listFields()
	if !strings.Contains(fields, "Money(1000)") {
		t.Errorf("fields = %q, want Money(1000)", fields)
	}
}

func TestListClauses(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)

	out := m.listClauses()

	for _, want := range []string{"withdraw amount", "freeze"} {
		if !strings.Contains(out, want) {
			t.Errorf("clauses = %q, want %q", out, want)
		}
	}
}

func TestListLaws_AllHold(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)

	out := m.listLaws()
	if !strings.Contains(out, "all laws hold") {
		t.Errorf("laws = %q", out)
	}
}
