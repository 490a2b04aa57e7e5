package universe

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store is the authoritative collection of channel slots for one universe.
//
// It is created once at startup with every channel at zero and no fade in
// flight, and lives until process shutdown.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Apply calls on the same address are serialised by the store lock;
//     the most recently applied command wins. Fades are never queued.
//   - Advance and Snapshot hold the lock only long enough to walk the
//     fixed-size channel array.
type Store struct {
	mu           sync.RWMutex
	channels     []channel
	defaultCurve Curve
}

// New creates a store with the given number of channels.
//
// Parameters:
//   - size: Number of channels, in (0, MaxSize]
//   - defaultCurve: Curve used when a command leaves its curve unset;
//     CurveDefault here means linear
//
// Returns:
//   - *Store: Store with all channels at zero, no fades in flight
//   - error: ErrInvalidSize if size is out of range
func New(size int, defaultCurve Curve) (*Store, error) {
	if size <= 0 || size > MaxSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if defaultCurve == CurveDefault {
		defaultCurve = CurveLinear
	}
	return &Store{
		channels:     make([]channel, size),
		defaultCurve: defaultCurve,
	}, nil
}

// Size returns the number of channels in the universe.
func (s *Store) Size() int {
	return len(s.channels)
}

// Apply validates a command and installs its targets and fade parameters.
//
// On success every affected channel has its fade restarted from its current
// value: fadeStart = current, elapsed = 0. A rejected command leaves all
// channel state unchanged, except for SceneRecall which applies its valid
// subset and reports the invalid one via *SceneError.
func (s *Store) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case SetImmediate:
		return s.applyFade(c.Address, c.Value, 0, CurveDefault)
	case FadeTo:
		return s.applyFade(c.Address, c.Value, c.Duration, c.Curve)
	case Blackout:
		return s.applyBlackout(c.Duration, c.Curve)
	case SceneRecall:
		return s.applyScene(c)
	default:
		return fmt.Errorf("universe: unsupported command %T", cmd)
	}
}

// applyFade installs a single-channel fade. A zero duration snaps the
// channel to the target on the next tick.
func (s *Store) applyFade(address int, value uint8, duration time.Duration, curve Curve) error {
	if err := s.validate(address, duration); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startFade(address, value, duration, curve)
	return nil
}

// applyBlackout fades every channel to zero over the given duration.
func (s *Store) applyBlackout(duration time.Duration, curve Curve) error {
	if duration < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidDuration, duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for address := range s.channels {
		s.startFade(address, 0, duration, curve)
	}
	return nil
}

// applyScene applies each channel of a scene as an independent fade.
// Valid channels are applied; invalid ones are collected into a *SceneError.
// There is no rollback.
func (s *Store) applyScene(c SceneRecall) error {
	if len(c.Channels) == 0 {
		return ErrEmptyScene
	}

	// Walk addresses in ascending order so error reports are deterministic.
	addresses := make([]int, 0, len(c.Channels))
	for address := range c.Channels {
		addresses = append(addresses, address)
	}
	sort.Ints(addresses)

	var invalid []AddressError

	s.mu.Lock()
	for _, address := range addresses {
		target := c.Channels[address]
		if err := s.validate(address, target.Duration); err != nil {
			invalid = append(invalid, AddressError{Address: address, Err: err})
			continue
		}
		s.startFade(address, target.Value, target.Duration, target.Curve)
	}
	s.mu.Unlock()

	if len(invalid) > 0 {
		return &SceneError{Invalid: invalid}
	}
	return nil
}

// validate checks an address and duration without touching channel state.
func (s *Store) validate(address int, duration time.Duration) error {
	if address < 0 || address >= len(s.channels) {
		return fmt.Errorf("%w: %d (universe size %d)", ErrInvalidAddress, address, len(s.channels))
	}
	if duration < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidDuration, duration)
	}
	return nil
}

// startFade installs fade parameters on one channel. Caller holds s.mu.
//
// The fade departs from the channel's current value at this instant, which
// makes retargeting an in-flight fade continuous (last write wins).
func (s *Store) startFade(address int, value uint8, duration time.Duration, curve Curve) {
	if curve == CurveDefault {
		curve = s.defaultCurve
	}
	ch := &s.channels[address]
	ch.fadeStart = ch.current
	ch.target = value
	ch.elapsed = 0
	ch.duration = duration
	ch.curve = curve
	ch.fading = true
}

// Advance progresses every in-flight fade by the given wall-clock elapsed
// time and returns the addresses whose fades completed on this call, in
// ascending order.
//
// Completion collapses the fade state (fadeStart = target, fading = false)
// so subsequent calls are no-ops for that channel. Time always advances by
// measured elapsed time, never by a nominal tick period, so fades remain
// correct under scheduler jitter and overrun.
func (s *Store) Advance(elapsed time.Duration) []int {
	var completed []int

	s.mu.Lock()
	for address := range s.channels {
		ch := &s.channels[address]
		if !ch.fading {
			continue
		}

		ch.elapsed += elapsed
		if ch.duration <= 0 || ch.elapsed >= ch.duration {
			ch.current = ch.target
			ch.fadeStart = ch.target
			ch.fading = false
			completed = append(completed, address)
			continue
		}

		ch.current = interpolate(ch.fadeStart, ch.target, ch.curve, ch.elapsed, ch.duration)
	}
	s.mu.Unlock()

	return completed
}

// Snapshot captures every channel's current value into a new Frame.
//
// The scheduler assigns the frame's sequence number after the call. The
// returned value slice is a copy; the caller may retain or mutate it freely.
func (s *Store) Snapshot() Frame {
	values := make([]uint8, len(s.channels))

	s.mu.RLock()
	for i := range s.channels {
		values[i] = s.channels[i].current
	}
	s.mu.RUnlock()

	return Frame{
		At:     time.Now(),
		Values: values,
	}
}

// Channel returns a read-only snapshot of one channel.
//
// Returns ErrInvalidAddress if the address is out of range.
func (s *Store) Channel(address int) (ChannelState, error) {
	if address < 0 || address >= len(s.channels) {
		return ChannelState{}, fmt.Errorf("%w: %d (universe size %d)", ErrInvalidAddress, address, len(s.channels))
	}

	s.mu.RLock()
	ch := s.channels[address]
	s.mu.RUnlock()

	return ChannelState{
		Address:   address,
		Current:   ch.current,
		Target:    ch.target,
		FadeStart: ch.fadeStart,
		Elapsed:   ch.elapsed,
		Duration:  ch.duration,
		Curve:     ch.curve,
		Fading:    ch.fading,
	}, nil
}
