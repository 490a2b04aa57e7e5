package universe

import (
	"math"
	"time"
)

// curveTable maps each concrete curve to its progress function.
//
// A progress function maps normalised elapsed time t in [0, 1] to fade
// progress in [0, 1]. Every entry must be monotonically non-decreasing with
// f(0) == 0 and f(1) == 1, otherwise the no-overshoot and no-backward-motion
// guarantees of interpolate do not hold.
var curveTable = [...]func(t float64) float64{
	CurveLinear:    func(t float64) float64 { return t },
	CurveEaseIn:    func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	CurveEaseOut:   func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	CurveEaseInOut: func(t float64) float64 { return (1 - math.Cos(t*math.Pi)) / 2 },
}

// progress returns the fade progress for normalised time t.
// CurveDefault is resolved before this point; treat it as linear defensively.
func (c Curve) progress(t float64) float64 {
	if int(c) < len(curveTable) && curveTable[c] != nil {
		return curveTable[c](t)
	}
	return t
}

// interpolate computes a channel's value at the given point of a fade.
//
// It is a pure function: the result depends only on the fade parameters and
// the elapsed time, never on the previously emitted value. Rounding is to
// the nearest integer with ties broken toward the target, so consecutive
// samples of a monotonic curve never move backward.
//
// When duration is zero, or elapsed has reached the duration, the result is
// the target value exactly.
func interpolate(start, target uint8, curve Curve, elapsed, duration time.Duration) uint8 {
	if duration <= 0 || elapsed >= duration {
		return target
	}
	if elapsed <= 0 || start == target {
		return start
	}

	t := float64(elapsed) / float64(duration)
	p := curve.progress(t)

	delta := float64(target) - float64(start)
	raw := float64(start) + delta*p

	// Round half toward the target so mid-fade motion is monotonic.
	var v float64
	if delta >= 0 {
		v = math.Floor(raw + 0.5)
	} else {
		v = math.Ceil(raw - 0.5)
	}

	// The curve table guarantees p in [0, 1], but clamp against the fade
	// endpoints so a misbehaving curve can never push a value out of range.
	lo, hi := float64(start), float64(target)
	if lo > hi {
		lo, hi = hi, lo
	}
	v = math.Min(math.Max(v, lo), hi)

	return uint8(v)
}
