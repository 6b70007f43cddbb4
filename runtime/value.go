package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variants of [Value].
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBoolean
	KindArray
	KindSymbol
	KindUnit
)

// kindNames maps value kinds to their display names for diagnostics.
//
//nolint:gochecknoglobals
var kindNames = map[ValueKind]string{
	KindNull:    "empty",
	KindNumber:  "number",
	KindString:  "string",
	KindBoolean: "boolean",
	KindArray:   "array",
	KindSymbol:  "symbol",
	KindUnit:    "unit",
}

// String returns the display name of the kind.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is the tagged union over all runtime values. The zero value is the
// null value. Unit values additionally carry a [UnitKind] and their surface
// spelling (Money, Mass, ...).
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string // string payload, symbol name, or unit spelling
	Bool bool
	Arr  []Value
	Unit UnitKind
}

// Constructors for each variant.

func Null() Value              { return Value{} }
func Number(n float64) Value   { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value    { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value     { return Value{Kind: KindBoolean, Bool: b} }
func Array(vs ...Value) Value  { return Value{Kind: KindArray, Arr: vs} }
func Symbol(name string) Value { return Value{Kind: KindSymbol, Str: name} }

// Unit creates a typed-unit value such as Money(1000).
func Unit(kind UnitKind, name string, magnitude float64) Value {
	return Value{Kind: KindUnit, Unit: kind, Str: name, Num: magnitude}
}

// IsNull reports whether the value is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy reports the boolean reading of the value used by guards and laws:
// false, zero, the empty string, the empty array, and null are falsy;
// everything else, including zero-magnitude units, follows its payload.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindNumber, KindUnit:
		return v.Num != 0
	case KindString, KindSymbol:
		return v.Str != ""
	case KindBoolean:
		return v.Bool
	case KindArray:
		return len(v.Arr) > 0
	}

	return false
}

// Clone returns a deep copy of the value. Only arrays carry interior
// references; every other variant copies by value.
func (v Value) Clone() Value {
	if v.Kind != KindArray {
		return v
	}

	arr := make([]Value, len(v.Arr))
	for i, e := range v.Arr {
		arr[i] = e.Clone()
	}

	v.Arr = arr

	return v
}

// String renders the value as surface text.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "empty"

	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)

	case KindString:
		return v.Str

	case KindBoolean:
		return strconv.FormatBool(v.Bool)

	case KindArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}

		return "[" + strings.Join(parts, ", ") + "]"

	case KindSymbol:
		return v.Str

	case KindUnit:
		return fmt.Sprintf("%s(%s)",
			v.Str, strconv.FormatFloat(v.Num, 'f', -1, 64))
	}

	return ""
}

// Add adds two values: numbers add and same-kind units add. A unit plus a
// bare number is a type error; scale with times or div instead.
func (v Value) Add(o Value) (Value, error) {
	switch {
	case v.Kind == KindNumber && o.Kind == KindNumber:
		return Number(v.Num + o.Num), nil

	case v.Kind == KindUnit && o.Kind == KindUnit:
		if v.Unit != o.Unit {
			return Null(), mismatch("plus", v, o)
		}

		return Unit(v.Unit, v.Str, v.Num+o.Num), nil
	}

	return Null(), mismatch("plus", v, o)
}

// Sub subtracts o from v under the same kind rules as [Value.Add].
func (v Value) Sub(o Value) (Value, error) {
	switch {
	case v.Kind == KindNumber && o.Kind == KindNumber:
		return Number(v.Num - o.Num), nil

	case v.Kind == KindUnit && o.Kind == KindUnit:
		if v.Unit != o.Unit {
			return Null(), mismatch("minus", v, o)
		}

		return Unit(v.Unit, v.Str, v.Num-o.Num), nil
	}

	return Null(), mismatch("minus", v, o)
}

// Mul multiplies two numbers, or scales a unit by a dimensionless number.
// Multiplying two units is a type error; the language has no compound
// dimensions.
func (v Value) Mul(o Value) (Value, error) {
	switch {
	case v.Kind == KindNumber && o.Kind == KindNumber:
		return Number(v.Num * o.Num), nil

	case v.Kind == KindUnit && o.Kind == KindNumber:
		return Unit(v.Unit, v.Str, v.Num*o.Num), nil

	case v.Kind == KindNumber && o.Kind == KindUnit:
		return Unit(o.Unit, o.Str, v.Num*o.Num), nil
	}

	return Null(), mismatch("times", v, o)
}

// Div divides v by o. Dividing two same-kind units yields a dimensionless
// number. A divisor within [Epsilon] of zero is a [RatioUndefinedError]
// rather than a silent infinity.
func (v Value) Div(o Value) (Value, error) {
	var divisor float64

	switch o.Kind {
	case KindNumber, KindUnit:
		divisor = o.Num
	default:
		return Null(), mismatch("div", v, o)
	}

	if math.Abs(divisor) < Epsilon {
		return Null(), &RatioUndefinedError{Numerator: v, Denominator: o}
	}

	switch {
	case v.Kind == KindNumber && o.Kind == KindNumber:
		return Number(v.Num / divisor), nil

	case v.Kind == KindUnit && o.Kind == KindUnit:
		if v.Unit != o.Unit {
			return Null(), mismatch("div", v, o)
		}

		return Number(v.Num / divisor), nil

	case v.Kind == KindUnit && o.Kind == KindNumber:
		return Unit(v.Unit, v.Str, v.Num/divisor), nil
	}

	return Null(), mismatch("div", v, o)
}

// Mod computes the floating-point remainder of two numbers.
func (v Value) Mod(o Value) (Value, error) {
	if v.Kind != KindNumber || o.Kind != KindNumber {
		return Null(), mismatch("mod", v, o)
	}

	if math.Abs(o.Num) < Epsilon {
		return Null(), &RatioUndefinedError{Numerator: v, Denominator: o}
	}

	return Number(math.Mod(v.Num, o.Num)), nil
}

// Concat joins two values as strings with no separator (the & operator).
func (v Value) Concat(o Value) (Value, error) {
	return String(v.String() + o.String()), nil
}

// NaturalAdd joins two values as strings with a single space (the bare +
// operator), except that two numbers or units still add arithmetically.
func (v Value) NaturalAdd(o Value) (Value, error) {
	if (v.Kind == KindNumber || v.Kind == KindUnit) &&
		(o.Kind == KindNumber || o.Kind == KindUnit) {
		return v.Add(o)
	}

	return String(v.String() + " " + o.String()), nil
}

// Eq reports structural equality. Comparing units of different kinds is a
// type error; every other cross-kind comparison is simply false.
func (v Value) Eq(o Value) (bool, error) {
	if v.Kind == KindUnit && o.Kind == KindUnit && v.Unit != o.Unit {
		return false, mismatch("is", v, o)
	}

	if v.Kind != o.Kind {
		return false, nil
	}

	switch v.Kind {
	case KindNull:
		return true, nil
	case KindNumber, KindUnit:
		return v.Num == o.Num, nil
	case KindString, KindSymbol:
		return v.Str == o.Str, nil
	case KindBoolean:
		return v.Bool == o.Bool, nil
	case KindArray:
		if len(v.Arr) != len(o.Arr) {
			return false, nil
		}

		for i := range v.Arr {
			eq, err := v.Arr[i].Eq(o.Arr[i])
			if err != nil || !eq {
				return eq, err
			}
		}

		return true, nil
	}

	return false, nil
}

// Lt reports v < o over numbers, same-kind units, and strings.
func (v Value) Lt(o Value) (bool, error) {
	switch {
	case v.Kind == KindNumber && o.Kind == KindNumber:
		return v.Num < o.Num, nil

	case v.Kind == KindUnit && o.Kind == KindUnit:
		if v.Unit != o.Unit {
			return false, mismatch("below", v, o)
		}

		return v.Num < o.Num, nil

	case v.Kind == KindString && o.Kind == KindString:
		return v.Str < o.Str, nil
	}

	return false, mismatch("below", v, o)
}

// Gt reports v > o under the same kind rules as [Value.Lt].
func (v Value) Gt(o Value) (bool, error) {
	lt, err := o.Lt(v)
	if err != nil {
		return false, mismatch("above", v, o)
	}

	return lt, nil
}

// In reports membership of v in the array o.
func (v Value) In(o Value) (bool, error) {
	if o.Kind != KindArray {
		return false, mismatch("in", v, o)
	}

	for _, e := range o.Arr {
		eq, err := v.Eq(e)
		if err != nil {
			return false, err
		}

		if eq {
			return true, nil
		}
	}

	return false, nil
}

func mismatch(op string, left, right Value) error {
	return &TypeMismatchError{Op: op, Left: kindLabel(left), Right: kindLabel(right)}
}

// kindLabel names a value's kind for diagnostics, preferring the unit
// spelling (Money, Mass, ...) over the generic "unit".
func kindLabel(v Value) string {
	if v.Kind == KindUnit && v.Str != "" {
		return v.Str
	}

	return v.Kind.String()
}
