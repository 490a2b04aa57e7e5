package effects

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// Submitter queues commands for the engine. Satisfied by *engine.Engine.
type Submitter interface {
	Submit(id string, cmd universe.Command) error
}

// Logger is the interface for structured logging within the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Runner.
type Options struct {
	// Engine receives the fade commands effects produce. Required.
	Engine Submitter

	// TickPeriod is the effect tick period, normally the engine's frame
	// period so effect steps line up with frames. Required.
	TickPeriod time.Duration

	// Logger is optional.
	Logger Logger
}

// Runner ticks active effects and retires the finished ones.
//
// Thread safety: all methods are safe for concurrent use. Effects tick on
// a single goroutine, so within one effect the node order guarantees hold.
type Runner struct {
	engine Submitter
	period time.Duration

	mu      sync.Mutex
	active  map[string]*execution
	stopped bool

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewRunner creates a runner. Call Start to begin ticking.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("effects: engine is required")
	}
	if opts.TickPeriod <= 0 {
		return nil, fmt.Errorf("effects: tick period must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Runner{
		engine: opts.Engine,
		period: opts.TickPeriod,
		active: make(map[string]*execution),
		done:   make(chan struct{}),
		logger: opts.Logger,
	}, nil
}

// Start launches the tick loop.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop shuts the tick loop down and discards active effects. Channels hold
// whatever value their last submitted fade left them with. Safe to call
// multiple times.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.active = make(map[string]*execution)
		r.mu.Unlock()

		close(r.done)
		r.wg.Wait()
		r.logger.Info("effects runner stopped")
	})
}

// StartEffect begins running a definition under the given ID. The ID names
// the running instance; starting a second effect with the same ID fails
// until the first finishes or is stopped.
func (r *Runner) StartEffect(id string, def Node) error {
	if id == "" {
		return fmt.Errorf("%w: effect id is required", ErrInvalidNode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	if _, exists := r.active[id]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRunning, id)
	}

	r.active[id] = &execution{
		id:     id,
		root:   def.compile(r.period),
		submit: r.engine.Submit,
	}
	r.logger.Info("effect started", "effect_id", id)
	return nil
}

// StopEffect cancels a running effect. Channels keep the values their
// in-flight fades are heading toward; the effect just issues no further
// steps.
func (r *Runner) StopEffect(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	if _, exists := r.active[id]; !exists {
		return fmt.Errorf("%w: %q", ErrNotRunning, id)
	}

	delete(r.active, id)
	r.logger.Info("effect stopped", "effect_id", id)
	return nil
}

// Running returns the number of active effects.
func (r *Runner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.tickAll()
		}
	}
}

// tickAll advances every active effect by one period and retires the
// finished ones.
func (r *Runner) tickAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ex := range r.active {
		ex.tick()
		if !ex.finished() {
			continue
		}
		delete(r.active, id)
		if ex.err != nil {
			r.logger.Warn("effect aborted", "effect_id", id, "error", ex.err)
		} else {
			r.logger.Debug("effect finished", "effect_id", id)
		}
	}
}
