package universe

import "time"

// Command is a decoded instruction for the universe store.
//
// Concrete commands are SetImmediate, FadeTo, SceneRecall and Blackout.
// Commands reference channel addresses directly; an out-of-range address is
// rejected by Apply, never clamped.
type Command interface {
	// Kind returns a short command name for logging and event reporting.
	Kind() string
}

// SetImmediate sets a channel to a value with no transition.
// The new value is visible in the frame emitted by the next tick.
type SetImmediate struct {
	// Address is the target channel address.
	Address int

	// Value is the new intensity.
	Value uint8
}

// Kind returns "set".
func (SetImmediate) Kind() string { return "set" }

// FadeTo transitions a channel to a value over a duration.
//
// The fade always departs from the channel's current value at the moment the
// command is applied, so retargeting an in-flight fade is continuous.
type FadeTo struct {
	// Address is the target channel address.
	Address int

	// Value is the fade target intensity.
	Value uint8

	// Duration is the fade length. Zero means snap on the next tick.
	Duration time.Duration

	// Curve selects the interpolation curve. CurveDefault uses the
	// universe's configured default.
	Curve Curve
}

// Kind returns "fade".
func (FadeTo) Kind() string { return "fade" }

// SceneTarget is one channel's destination within a scene recall.
type SceneTarget struct {
	// Value is the fade target intensity.
	Value uint8

	// Duration is the fade length for this channel.
	Duration time.Duration

	// Curve selects the interpolation curve for this channel.
	Curve Curve
}

// SceneRecall applies a set of simultaneous per-channel fades.
//
// Each channel is treated as an independent FadeTo: valid channels are
// applied even when other channels in the same scene are rejected.
type SceneRecall struct {
	// Channels maps channel addresses to their scene targets.
	Channels map[int]SceneTarget
}

// Kind returns "scene".
func (SceneRecall) Kind() string { return "scene" }

// Blackout fades every channel in the universe to zero.
type Blackout struct {
	// Duration is the fade length. Zero means snap on the next tick.
	Duration time.Duration

	// Curve selects the interpolation curve. CurveDefault uses the
	// universe's configured default.
	Curve Curve
}

// Kind returns "blackout".
func (Blackout) Kind() string { return "blackout" }
