package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// State represents the scheduler lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FrameSink receives the frame produced on each tick.
//
// SendFrame must not block: implementations return false when they cannot
// accept the frame, and the scheduler drops it. Only the latest output
// matters, so a dropped frame is recoverable by the very next tick.
type FrameSink interface {
	SendFrame(frame universe.Frame) bool
}

// scheduler is the real-time heart of the engine: a fixed-period loop that
// advances fades, snapshots the universe and emits frames.
//
// The loop never performs I/O and never contends on the command queue; its
// only suspension point is the tick timer. Elapsed time is measured per
// tick rather than assumed, so scheduling jitter and overruns distort
// neither fade timing nor completion.
type scheduler struct {
	store  *universe.Store
	sink   FrameSink
	period time.Duration

	state atomic.Int32
	seq   uint64

	emit  func(Event)
	stats *counters

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

func newScheduler(store *universe.Store, sink FrameSink, period time.Duration, emit func(Event), stats *counters, logger Logger) *scheduler {
	return &scheduler{
		store:  store,
		sink:   sink,
		period: period,
		emit:   emit,
		stats:  stats,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// start launches the tick loop. The scheduler must be idle.
func (s *scheduler) start(ctx context.Context) {
	s.state.Store(int32(StateRunning))
	s.wg.Add(1)
	go s.run(ctx)
}

// stop requests shutdown and blocks until the in-flight tick (if any) has
// completed and the loop has exited. Safe to call multiple times.
func (s *scheduler) stop() {
	s.stopOnce.Do(func() {
		if State(s.state.Load()) == StateRunning {
			s.state.Store(int32(StateStopping))
		}
		close(s.done)
		s.wg.Wait()
		s.state.Store(int32(StateStopped))
	})
}

// currentState returns the scheduler's lifecycle state.
func (s *scheduler) currentState() State {
	return State(s.state.Load())
}

// run is the tick loop. One tick: measure elapsed, advance fades, snapshot,
// emit the frame, report completions. Command processing happens elsewhere;
// nothing here waits on the command queue.
func (s *scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.state.Store(int32(StateStopping))
			return
		case <-s.done:
			return
		case now := <-ticker.C:
			// Measured, not nominal: tolerate scheduling jitter.
			elapsed := now.Sub(last)
			last = now
			s.tick(now, elapsed)
		}
	}
}

// tick performs one advance-and-emit cycle.
func (s *scheduler) tick(start time.Time, elapsed time.Duration) {
	completed := s.store.Advance(elapsed)

	frame := s.store.Snapshot()
	frame.Seq = s.seq
	s.seq++

	if s.sink.SendFrame(frame) {
		s.stats.framesEmitted.Add(1)
	} else {
		// Only the latest output matters; fade state has already
		// advanced, so the next frame supersedes this one.
		s.stats.framesDropped.Add(1)
		s.logger.Debug("frame dropped, sink saturated", "seq", frame.Seq)
	}

	for _, address := range completed {
		s.stats.fadesCompleted.Add(1)
		s.emit(newFadeCompletedEvent(address, frame.Values[address]))
	}

	if work := time.Since(start); work > s.period {
		s.stats.overruns.Add(1)
		s.emit(newOverrunEvent())
		s.logger.Warn("tick overran period",
			"work", work,
			"period", s.period,
		)
	}
}
