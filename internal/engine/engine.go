package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// Defaults for optional engine settings.
const (
	// DefaultTickPeriod gives a 40Hz refresh.
	DefaultTickPeriod = 25 * time.Millisecond

	// defaultQueueSize bounds the inbound command queue. Commands are
	// infrequent relative to the frame rate, so this is effectively
	// unbounded in practice.
	defaultQueueSize = 256

	// defaultEventBuffer bounds the outbound status event channel.
	defaultEventBuffer = 64
)

// ErrStopped is returned when a command is submitted after shutdown.
var ErrStopped = errors.New("engine: stopped")

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures an Engine. UniverseSize and Sink are required; the
// remaining fields have sensible defaults.
type Options struct {
	// UniverseSize is the number of channels, in (0, 512].
	UniverseSize int

	// TickPeriod is the frame emission period. Default 25ms (40Hz).
	TickPeriod time.Duration

	// DefaultCurve is used by commands that leave their curve unset.
	DefaultCurve universe.Curve

	// Sink receives one frame per tick.
	Sink FrameSink

	// QueueSize bounds the inbound command queue. Default 256.
	QueueSize int

	// EventBuffer bounds the status event channel. Default 64.
	EventBuffer int

	// Recorder optionally persists a command audit trail.
	Recorder CommandRecorder

	// Logger is an optional structured logger.
	Logger Logger
}

// Engine owns the universe store and runs the two engine actors.
//
// Construction wires everything; Start launches the scheduler and the
// dispatcher, and Stop shuts both down through a single cancellation path,
// letting the scheduler complete its in-flight tick so the sink is left in
// a consistent last-known state.
type Engine struct {
	store      *universe.Store
	scheduler  *scheduler
	dispatcher *dispatcher

	events chan Event
	stats  counters

	cancel   context.CancelFunc
	stopOnce sync.Once
	logger   Logger
}

// New creates an engine from the given options.
func New(opts Options) (*Engine, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("engine: sink is required")
	}
	if opts.TickPeriod < 0 {
		return nil, fmt.Errorf("engine: tick period must not be negative")
	}
	if opts.TickPeriod == 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	store, err := universe.New(opts.UniverseSize, opts.DefaultCurve)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:  store,
		events: make(chan Event, opts.EventBuffer),
		logger: opts.Logger,
	}

	e.scheduler = newScheduler(store, opts.Sink, opts.TickPeriod, e.emit, &e.stats, opts.Logger)
	e.dispatcher = newDispatcher(store, opts.QueueSize, e.emit, &e.stats, opts.Recorder, opts.Logger)

	return e, nil
}

// Start launches the scheduler and dispatcher. The engine stops when ctx is
// cancelled or Stop is called, whichever comes first.
func (e *Engine) Start(ctx context.Context) error {
	if e.scheduler.currentState() != StateIdle {
		return fmt.Errorf("engine: already started (state %s)", e.scheduler.currentState())
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.scheduler.start(runCtx)
	e.dispatcher.start(runCtx)

	e.logger.Info("engine started",
		"channels", e.store.Size(),
		"tick_period", e.scheduler.period,
	)
	return nil
}

// Stop shuts down both actors and closes the event channel. The scheduler
// finishes its in-flight tick; the dispatcher drains no further commands.
// Safe to call multiple times.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.dispatcher.stop()
		e.scheduler.stop()
		if e.cancel != nil {
			e.cancel()
		}
		close(e.events)
		e.logger.Info("engine stopped", "stats", e.stats.snapshot())
	})
}

// Submit queues a command for the dispatcher.
//
// The id correlates later error events with this submission; callers that
// do not track acknowledgements may pass an empty string.
func (e *Engine) Submit(id string, cmd universe.Command) error {
	return e.dispatcher.submit(id, cmd)
}

// Events returns the best-effort status event channel. The channel is
// closed by Stop.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Stats returns a point-in-time copy of the engine counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// State returns the scheduler's lifecycle state.
func (e *Engine) State() State {
	return e.scheduler.currentState()
}

// Channel returns a read-only snapshot of one channel.
func (e *Engine) Channel(address int) (universe.ChannelState, error) {
	return e.store.Channel(address)
}

// Size returns the universe size.
func (e *Engine) Size() int {
	return e.store.Size()
}

// Values returns a copy of every channel's current value, indexed by
// address. Used for diagnostics; frames on the tick path come from the
// scheduler, not from here.
func (e *Engine) Values() []uint8 {
	return e.store.Snapshot().Values
}

// emit delivers an event without ever blocking an engine actor.
// When the channel is full the event is dropped and counted.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.stats.eventsDropped.Add(1)
	}
}
