package universe

import "time"

// Frame is an immutable snapshot of every channel value in the universe,
// taken at a single instant. It is produced once per scheduler tick and has
// no identity beyond its emission sequence number and timestamp.
type Frame struct {
	// Seq is the emission order number, assigned by the scheduler.
	Seq uint64

	// At is the instant the snapshot was taken.
	At time.Time

	// Values holds one intensity byte per channel, indexed by address.
	// The slice is owned by the frame; it never aliases store state.
	Values []uint8
}

// Equal reports whether two frames carry identical channel values.
// Sequence numbers and timestamps are ignored.
func (f Frame) Equal(other Frame) bool {
	if len(f.Values) != len(other.Values) {
		return false
	}
	for i, v := range f.Values {
		if v != other.Values[i] {
			return false
		}
	}
	return true
}
