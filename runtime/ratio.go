package runtime

import "math"

// Epsilon is the magnitude below which a divisor is treated as zero. A
// ratio with a near-zero denominator is undefined, not infinite.
const Epsilon = 1e-9

// Ratio computes f/g, the language's canonical "attempted over allowed"
// constraint primitive. Both operands must be numbers or units; two units
// must share a kind. When |g| < [Epsilon] the result is a
// [RatioUndefinedError] because the comparison the caller intended cannot
// be evaluated.
func Ratio(f, g Value) (Value, error) {
	if err := ratioOperand(f, g); err != nil {
		return Null(), err
	}

	if math.Abs(g.Num) < Epsilon {
		return Null(), &RatioUndefinedError{Numerator: f, Denominator: g}
	}

	return Number(f.Num / g.Num), nil
}

// RatioWithin computes f/g and additionally checks it against an inclusive
// threshold: a ratio strictly above the threshold is a
// [RatioExceededError]. ratio(100, 100, 1.0) passes at exactly the
// boundary; ratio(101, 100, 1.0) fails.
func RatioWithin(f, g, threshold Value) (Value, error) {
	r, err := Ratio(f, g)
	if err != nil {
		return Null(), err
	}

	if threshold.Kind != KindNumber {
		return Null(), mismatch("ratio", r, threshold)
	}

	if r.Num > threshold.Num {
		return Null(), &RatioExceededError{
			Ratio:     r.Num,
			Threshold: threshold.Num,
		}
	}

	return r, nil
}

func ratioOperand(f, g Value) error {
	fNumeric := f.Kind == KindNumber || f.Kind == KindUnit
	gNumeric := g.Kind == KindNumber || g.Kind == KindUnit

	if !fNumeric || !gNumeric {
		return mismatch("ratio", f, g)
	}

	if f.Kind == KindUnit && g.Kind == KindUnit && f.Unit != g.Unit {
		return mismatch("ratio", f, g)
	}

	return nil
}
