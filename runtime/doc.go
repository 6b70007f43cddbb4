// Package runtime executes compiled creed blueprints under transactional
// guarantees. A [Store] owns the instance table for one program; a clause
// runs as snapshot, guards, actions, laws, commit — and any failure along
// the way restores the snapshot, so a caller observing an error observes an
// unchanged instance.
//
// The two terminals of a clause are kept apart from its failures. fin and
// finfr reached after all guards and laws pass both commit the mutation and
// return a [Result], distinguished by [Outcome]; rejections and violations
// roll back and return typed errors ([GuardRejectedError],
// [LawViolatedError], [TypeMismatchError], [RatioUndefinedError], ...).
// Nothing in this package panics on malformed programs or operands.
//
// Values are a tagged union over numbers, strings, booleans, arrays,
// symbols, and typed units (Money, Mass, ...). Unit arithmetic is
// dimension-checked: Money plus Mass is a type error, never a number.
package runtime
