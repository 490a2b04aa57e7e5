// Package universe owns the authoritative in-memory state of a DMX universe:
// a fixed-size array of channel slots, each with a current value, a target
// value and an optional in-flight fade.
//
// The package has two writers with disjoint responsibilities:
//   - the command dispatcher calls Apply to set new targets and fade
//     parameters
//   - the frame scheduler calls Advance once per tick to progress fades and
//     Snapshot to capture the outgoing frame
//
// All state transitions happen under short, bounded critical sections. No
// I/O and no unbounded work is ever performed while the store lock is held,
// so neither writer can stall the other beyond a sub-tick-period window.
//
// Fade interpolation is a pure function of the fade parameters and the
// wall-clock time elapsed since the fade started. Values are recomputed from
// the fade start value on every tick rather than incremented, so repeated
// ticks accumulate no rounding drift and a fade always lands exactly on its
// target.
package universe
