package universe

import (
	"fmt"
	"strings"
	"time"
)

// MaxSize is the largest universe supported by the DMX wire format.
const MaxSize = 512

// MaxValue is the largest channel intensity value.
const MaxValue = 255

// Curve identifies a fade interpolation curve.
//
// The set of curves is a closed enumeration dispatched through a pure
// function table. CurveDefault resolves to the store's configured default
// at Apply time.
type Curve uint8

const (
	// CurveDefault defers to the universe's configured default curve.
	CurveDefault Curve = iota

	// CurveLinear interpolates at constant speed.
	CurveLinear

	// CurveEaseIn starts slow and accelerates.
	CurveEaseIn

	// CurveEaseOut starts fast and decelerates.
	CurveEaseOut

	// CurveEaseInOut accelerates then decelerates.
	CurveEaseInOut
)

// ParseCurve converts a curve name to a Curve.
// An empty string parses to CurveDefault.
func ParseCurve(name string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return CurveDefault, nil
	case "linear":
		return CurveLinear, nil
	case "ease-in", "ease_in":
		return CurveEaseIn, nil
	case "ease-out", "ease_out":
		return CurveEaseOut, nil
	case "ease-in-out", "ease_in_out":
		return CurveEaseInOut, nil
	default:
		return CurveDefault, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
}

// String returns the canonical curve name.
func (c Curve) String() string {
	switch c {
	case CurveDefault:
		return "default"
	case CurveLinear:
		return "linear"
	case CurveEaseIn:
		return "ease-in"
	case CurveEaseOut:
		return "ease-out"
	case CurveEaseInOut:
		return "ease-in-out"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// channel is one addressable output slot inside a Store.
//
// Invariants maintained by the Store:
//   - current is always within [0, 255]
//   - while fading is false, current == target == fadeStart
//   - elapsed only ever grows until the fade completes
type channel struct {
	current   uint8
	target    uint8
	fadeStart uint8
	elapsed   time.Duration
	duration  time.Duration
	curve     Curve
	fading    bool
}

// ChannelState is a read-only snapshot of one channel, used for
// introspection and diagnostics.
type ChannelState struct {
	// Address is the channel's position within the universe.
	Address int

	// Current is the value transmitted in the next frame.
	Current uint8

	// Target is the value the channel is moving toward.
	Target uint8

	// FadeStart is the value the in-flight fade departed from.
	FadeStart uint8

	// Elapsed is the time for which the in-flight fade has been running.
	Elapsed time.Duration

	// Duration is the total span of the in-flight fade.
	Duration time.Duration

	// Curve is the fade curve in effect.
	Curve Curve

	// Fading reports whether a fade is in flight.
	Fading bool
}
