package runtime

import (
	"context"
	"fmt"

	"github.com/creedlang/creed/lang"
)

// Outcome distinguishes the two successful terminals of a clause. A
// rolled-back execution never produces an Outcome; it produces an error.
type Outcome int

const (
	// OutcomeCommitted is the fin terminal: the mutation committed and the
	// clause ended inside the valid state space.
	OutcomeCommitted Outcome = iota

	// OutcomeDeclared is the finfr terminal reached after all guards and
	// laws passed: the mutation committed, and the clause declares this
	// end state as an intentional terminal failure. It is distinguished
	// from a rejection by the absence of rollback, not by the keyword.
	OutcomeDeclared
)

// String returns the display name of the outcome.
func (o Outcome) String() string {
	if o == OutcomeDeclared {
		return "declared"
	}

	return "committed"
}

// Result is the value of a successful clause execution.
type Result struct {
	Value    Value
	Outcome  Outcome
	Declared string // finfr terminal message, when Outcome is OutcomeDeclared
	Memos    []string
}

// ExecuteWhen runs one when-clause against a named instance under the
// transactional guarantees: snapshot, guards, actions, laws, then commit or
// roll back. On any returned error the instance is unchanged. The instance
// lock is held for the whole clause; guards run strictly before actions,
// actions run in source order, and laws are checked strictly after the last
// action.
func (s *Store) ExecuteWhen(
	ctx context.Context,
	instance, clause string,
	args ...Value,
) (*Result, error) {
	inst, err := s.Instance(instance)
	if err != nil {
		return nil, err
	}

	w := inst.Blueprint.When(clause)
	if w == nil {
		return nil, &NotFoundError{What: "clause", Name: clause}
	}

	if len(args) != len(w.Params) {
		return nil, &ArityError{
			Clause: clause,
			Want:   len(w.Params),
			Got:    len(args),
		}
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	locals := make(map[string]Value, len(w.Params)+2)
	for i, name := range w.Params {
		locals[name] = args[i].Clone()
	}

	ev := &evaluator{instance: inst, store: s, locals: locals}

	undo := inst.snapshot()

	result, err := s.runClause(inst, w, ev)
	if err != nil {
		inst.restore(undo)

		return nil, err
	}

	commit := Commit{
		Instance: inst.Name,
		Clause:   clause,
		Args:     args,
		Before:   undo.fields,
		After:    cloneFields(inst.fields),
		Outcome:  result.Outcome,
		Declared: result.Declared,
		Memos:    result.Memos,
	}

	if err := s.notify(ctx, commit); err != nil {
		// The commit stands; the observer failure reports alongside it.
		return result, err
	}

	return result, nil
}

// runClause executes guards, actions, laws, and the terminal. It mutates
// the instance in place; the caller owns rollback.
func (s *Store) runClause(
	inst *Instance,
	w *lang.WhenClause,
	ev *evaluator,
) (*Result, error) {
	for _, g := range w.Guards {
		if err := s.checkGuard(w, g, ev); err != nil {
			return nil, err
		}
	}

	result := &Result{}

	for _, a := range w.Actions {
		if err := s.applyAction(inst, a, ev, result); err != nil {
			return nil, err
		}
	}

	for _, l := range inst.Blueprint.Laws {
		forbidden, err := ev.eval(l.Forbidden)
		if err != nil {
			return nil, err
		}

		if forbidden.Truthy() {
			return nil, &LawViolatedError{Clause: w.Name, Law: l.Name}
		}
	}

	if w.Terminal.Kind == lang.TerminalFinfr {
		result.Outcome = OutcomeDeclared
		result.Declared = w.Terminal.Message
	}

	return result, nil
}

func (s *Store) checkGuard(
	w *lang.WhenClause,
	g *lang.Guard,
	ev *evaluator,
) error {
	cond, err := ev.eval(g.Cond)
	if err != nil {
		return err
	}

	switch g.Kind {
	case lang.GuardBlock:
		if cond.Truthy() {
			return &GuardRejectedError{
				Clause:  w.Name,
				Message: "blocked: " + lang.FormatExpr(g.Cond),
			}
		}

	case lang.GuardMust:
		if !cond.Truthy() {
			msg := g.Otherwise
			if msg == "" {
				msg = "required: " + lang.FormatExpr(g.Cond)
			}

			return &GuardRejectedError{Clause: w.Name, Message: msg}
		}
	}

	return nil
}

func (s *Store) applyAction(
	inst *Instance,
	a *lang.Action,
	ev *evaluator,
	result *Result,
) error {
	switch a.Kind {
	case lang.ActionSet:
		if err := requireSelf(inst, a.Object); err != nil {
			return err
		}

		v, err := ev.eval(a.Value)
		if err != nil {
			return err
		}

		inst.fields[a.Field] = v
		result.Value = v

	case lang.ActionMake:
		if err := requireSelf(inst, a.Object); err != nil {
			return err
		}

		active, ok := inst.states[a.Field]
		if !ok {
			return &NotFoundError{What: "state", Name: a.Field}
		}

		inst.states[a.Field] = !active

	case lang.ActionChange:
		if err := requireSelf(inst, a.Object); err != nil {
			return err
		}

		current, ok := inst.fields[a.Field]
		if !ok {
			return &NotFoundError{What: "field", Name: a.Field}
		}

		delta, err := ev.eval(a.Value)
		if err != nil {
			return err
		}

		var next Value

		if a.Op == lang.OpMinus {
			next, err = current.Sub(delta)
		} else {
			next, err = current.Add(delta)
		}

		if err != nil {
			return err
		}

		inst.fields[a.Field] = next
		result.Value = next

	case lang.ActionCalc:
		v, err := ev.eval(a.Value)
		if err != nil {
			return err
		}

		ev.locals[a.Field] = v
		result.Value = v

	case lang.ActionMemo:
		v, err := ev.eval(a.Value)
		if err != nil {
			return err
		}

		result.Memos = append(result.Memos, v.String())
	}

	return nil
}

// requireSelf rejects dotted action targets naming anything but the owning
// instance. A clause mutates only its own fields; other instances are
// readable, never writable.
func requireSelf(inst *Instance, object string) error {
	if object == "" || object == inst.Name || object == inst.Blueprint.Name {
		return nil
	}

	return &NotFoundError{
		What: "writable instance",
		Name: object,
	}
}

// LawCheck is the verdict for one law.
type LawCheck struct {
	Law      string
	Violated bool
	Err      error
}

// LawReport is the result of checking every law on an instance.
type LawReport struct {
	Instance string
	Checks   []LawCheck
}

// Violations returns the names of violated laws.
func (r *LawReport) Violations() []string {
	var names []string

	for _, c := range r.Checks {
		if c.Violated {
			names = append(names, c.Law)
		}
	}

	return names
}

// OK reports whether every law holds and none failed to evaluate.
func (r *LawReport) OK() bool {
	for _, c := range r.Checks {
		if c.Violated || c.Err != nil {
			return false
		}
	}

	return true
}

// String summarizes the report on one line.
func (r *LawReport) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: all laws hold", r.Instance)
	}

	return fmt.Sprintf("%s: violated %v", r.Instance, r.Violations())
}

// CheckLaws evaluates every law on a named instance without mutating it.
func (s *Store) CheckLaws(instance string) (*LawReport, error) {
	inst, err := s.Instance(instance)
	if err != nil {
		return nil, err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	ev := &evaluator{instance: inst, store: s}
	report := &LawReport{Instance: instance}

	for _, l := range inst.Blueprint.Laws {
		check := LawCheck{Law: l.Name}

		forbidden, err := ev.eval(l.Forbidden)
		if err != nil {
			check.Err = err
		} else {
			check.Violated = forbidden.Truthy()
		}

		report.Checks = append(report.Checks, check)
	}

	return report, nil
}
