package runtime

import (
	"fmt"
	"log/slog"
)

// The failure taxonomy of clause execution. Every failure is a value
// returned to the caller; the interpreter never panics on malformed
// programs or mismatched operands. Each type implements slog.LogValuer so
// structured logs carry the discriminating detail.

// NotFoundError reports a lookup failure: an unknown clause, instance,
// field, state, or unit type.
type NotFoundError struct {
	What string // "clause", "instance", "field", "state", "unit type"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.Name)
}

func (e *NotFoundError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "not found"),
		slog.String("what", e.What),
		slog.String("name", e.Name),
	)
}

// NameTakenError reports an attempt to register a second instance under an
// existing name.
type NameTakenError struct {
	Name string
}

func (e *NameTakenError) Error() string {
	return fmt.Sprintf("instance %s already exists", e.Name)
}

func (e *NameTakenError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "name taken"),
		slog.String("name", e.Name),
	)
}

// ArityError reports a call with the wrong number of arguments. No
// mutation has begun when it is returned.
type ArityError struct {
	Clause string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("clause %s takes %d argument(s), got %d",
		e.Clause, e.Want, e.Got)
}

func (e *ArityError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "arity mismatch"),
		slog.String("clause", e.Clause),
		slog.Int("want", e.Want),
		slog.Int("got", e.Got),
	)
}

// GuardRejectedError reports a precondition failure: a block-if guard that
// held, or a must guard that did not. Rollback has already restored the
// instance when it is returned.
type GuardRejectedError struct {
	Clause  string
	Message string // the otherwise-message, or a description of the guard
}

func (e *GuardRejectedError) Error() string {
	return fmt.Sprintf("clause %s rejected: %s", e.Clause, e.Message)
}

func (e *GuardRejectedError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "guard rejected"),
		slog.String("clause", e.Clause),
		slog.String("message", e.Message),
	)
}

// LawViolatedError reports that a law held after mutation. The instance has
// been rolled back to its pre-clause snapshot when it is returned.
type LawViolatedError struct {
	Clause string
	Law    string
}

func (e *LawViolatedError) Error() string {
	return fmt.Sprintf("clause %s violates law %s", e.Clause, e.Law)
}

func (e *LawViolatedError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "law violated"),
		slog.String("clause", e.Clause),
		slog.String("law", e.Law),
	)
}

// TypeMismatchError reports an operation over incompatible operand kinds,
// such as adding Money to Mass or a string to a number.
type TypeMismatchError struct {
	Op    string
	Left  string
	Right string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot apply %s to %s and %s", e.Op, e.Left, e.Right)
}

func (e *TypeMismatchError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "type mismatch"),
		slog.String("op", e.Op),
		slog.String("left", e.Left),
		slog.String("right", e.Right),
	)
}

// RatioUndefinedError reports a division whose denominator is within
// [Epsilon] of zero.
type RatioUndefinedError struct {
	Numerator   Value
	Denominator Value
}

func (e *RatioUndefinedError) Error() string {
	return fmt.Sprintf("ratio %s / %s is undefined",
		e.Numerator, e.Denominator)
}

func (e *RatioUndefinedError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "ratio undefined"),
		slog.String("numerator", e.Numerator.String()),
		slog.String("denominator", e.Denominator.String()),
	)
}

// RatioExceededError reports a ratio strictly above its threshold.
type RatioExceededError struct {
	Ratio     float64
	Threshold float64
}

func (e *RatioExceededError) Error() string {
	return fmt.Sprintf("ratio %g exceeds threshold %g", e.Ratio, e.Threshold)
}

func (e *RatioExceededError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "ratio exceeded"),
		slog.Float64("ratio", e.Ratio),
		slog.Float64("threshold", e.Threshold),
	)
}
