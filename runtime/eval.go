package runtime

import (
	"github.com/creedlang/creed/lang"
)

// evaluator computes expression values against one instance. Name
// resolution order is locals (parameters and calc bindings), then fields,
// then states; dotted access reaches other instances through the store.
//
// The evaluator accesses the instance's maps directly: during clause
// execution the store already holds the instance lock, and during
// instantiation the instance is not yet published.
type evaluator struct {
	instance *Instance
	store    *Store
	locals   map[string]Value
}

func (ev *evaluator) eval(e lang.Expr) (Value, error) {
	switch e := e.(type) {
	case *lang.Literal:
		return ev.evalLiteral(e), nil

	case *lang.Ident:
		return ev.resolve(e.Name)

	case *lang.FieldAccess:
		return ev.evalFieldAccess(e)

	case *lang.UnitExpr:
		return ev.evalUnit(e)

	case *lang.BinaryExpr:
		return ev.evalBinary(e)

	case *lang.RangeExpr:
		return ev.evalRange(e)

	case *lang.RatioExpr:
		return ev.evalRatio(e)
	}

	return Null(), &NotFoundError{What: "expression", Name: "unknown"}
}

func (ev *evaluator) evalLiteral(e *lang.Literal) Value {
	switch e.Kind {
	case lang.LitNumber:
		return Number(e.Num)
	case lang.LitString:
		return String(e.Str)
	case lang.LitEmpty:
		return Null()
	}

	return Null()
}

func (ev *evaluator) resolve(name string) (Value, error) {
	if v, ok := ev.locals[name]; ok {
		return v, nil
	}

	if ev.instance != nil {
		if v, ok := ev.instance.fields[name]; ok {
			return v, nil
		}

		if active, ok := ev.instance.states[name]; ok {
			return Boolean(active), nil
		}
	}

	return Null(), &NotFoundError{What: "name", Name: name}
}

func (ev *evaluator) evalFieldAccess(e *lang.FieldAccess) (Value, error) {
	// Self-reference by instance or blueprint name stays inside the held
	// lock; anything else is a read-only reach into another instance.
	if ev.instance != nil &&
		(e.Object == ev.instance.Name || e.Object == ev.instance.Blueprint.Name) {
		if v, ok := ev.instance.fields[e.Field]; ok {
			return v, nil
		}

		if active, ok := ev.instance.states[e.Field]; ok {
			return Boolean(active), nil
		}

		return Null(), &NotFoundError{What: "field", Name: e.Field}
	}

	if ev.store == nil {
		return Null(), &NotFoundError{What: "instance", Name: e.Object}
	}

	other, err := ev.store.Instance(e.Object)
	if err != nil {
		return Null(), err
	}

	// A declared state reads as its activity, false included. Only names
	// the blueprint never declares fall through to the field lookup.
	if other.Blueprint.HasState(e.Field) {
		return Boolean(other.InState(e.Field)), nil
	}

	return other.Field(e.Field)
}

func (ev *evaluator) evalUnit(e *lang.UnitExpr) (Value, error) {
	arg, err := ev.eval(e.Arg)
	if err != nil {
		return Null(), err
	}

	if arg.Kind != KindNumber {
		return Null(), &TypeMismatchError{
			Op:    e.TypeName,
			Left:  kindLabel(arg),
			Right: "number",
		}
	}

	return NewUnit(e.TypeName, arg.Num)
}

func (ev *evaluator) evalBinary(e *lang.BinaryExpr) (Value, error) {
	left, err := ev.eval(e.Left)
	if err != nil {
		return Null(), err
	}

	right, err := ev.eval(e.Right)
	if err != nil {
		return Null(), err
	}

	switch e.Op {
	case lang.OpIs:
		eq, err := left.Eq(right)

		return Boolean(eq), err

	case lang.OpAbove:
		gt, err := left.Gt(right)

		return Boolean(gt), err

	case lang.OpBelow:
		lt, err := left.Lt(right)

		return Boolean(lt), err

	case lang.OpIn:
		in, err := left.In(right)

		return Boolean(in), err

	case lang.OpAnd:
		return Boolean(left.Truthy() && right.Truthy()), nil

	case lang.OpPlus:
		return left.Add(right)

	case lang.OpMinus:
		return left.Sub(right)

	case lang.OpTimes:
		return left.Mul(right)

	case lang.OpDiv:
		return left.Div(right)

	case lang.OpMod:
		return left.Mod(right)

	case lang.OpConcat:
		return left.Concat(right)

	case lang.OpJoin:
		return left.NaturalAdd(right)
	}

	return Null(), &NotFoundError{What: "operator", Name: e.Op.String()}
}

// evalRange checks subject within low and high, inclusive on both ends.
func (ev *evaluator) evalRange(e *lang.RangeExpr) (Value, error) {
	subject, err := ev.eval(e.Subject)
	if err != nil {
		return Null(), err
	}

	low, err := ev.eval(e.Low)
	if err != nil {
		return Null(), err
	}

	high, err := ev.eval(e.High)
	if err != nil {
		return Null(), err
	}

	below, err := subject.Lt(low)
	if err != nil {
		return Null(), err
	}

	above, err := subject.Gt(high)
	if err != nil {
		return Null(), err
	}

	return Boolean(!below && !above), nil
}

func (ev *evaluator) evalRatio(e *lang.RatioExpr) (Value, error) {
	f, err := ev.eval(e.F)
	if err != nil {
		return Null(), err
	}

	g, err := ev.eval(e.G)
	if err != nil {
		return Null(), err
	}

	if e.Threshold == nil {
		return Ratio(f, g)
	}

	threshold, err := ev.eval(e.Threshold)
	if err != nil {
		return Null(), err
	}

	return RatioWithin(f, g, threshold)
}
