package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/openlux/dmxbridge/internal/universe"
)

// submission pairs a command with the caller's correlation ID.
type submission struct {
	id  string
	cmd universe.Command
}

// CommandRecorder persists an audit trail of processed commands.
//
// Recording happens on the dispatcher goroutine, off the tick path, after
// the command has already been applied; a slow or failing recorder delays
// later commands but never the frame schedule. Implementations must be safe
// for use from a single goroutine at a time.
type CommandRecorder interface {
	// RecordCommand records the outcome of one command.
	// status is "applied" or "rejected"; detail carries the error text
	// for rejections.
	RecordCommand(ctx context.Context, id, kind, status, detail string) error
}

// FanoutRecorder combines recorders into one that forwards each outcome to
// every recorder in order. One recorder failing does not stop the others;
// the failures are joined into the returned error.
func FanoutRecorder(recorders ...CommandRecorder) CommandRecorder {
	return fanoutRecorder(recorders)
}

type fanoutRecorder []CommandRecorder

func (f fanoutRecorder) RecordCommand(ctx context.Context, id, kind, status, detail string) error {
	var errs []error
	for _, r := range f {
		if err := r.RecordCommand(ctx, id, kind, status, detail); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatcher consumes decoded commands from the inbound queue and applies
// them to the universe store.
//
// Arrival order is preserved: there is exactly one consumer goroutine.
// Every apply failure becomes a status event, never a stop condition.
type dispatcher struct {
	store    *universe.Store
	commands chan submission

	emit     func(Event)
	stats    *counters
	recorder CommandRecorder

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

func newDispatcher(store *universe.Store, queueSize int, emit func(Event), stats *counters, recorder CommandRecorder, logger Logger) *dispatcher {
	return &dispatcher{
		store:    store,
		commands: make(chan submission, queueSize),
		emit:     emit,
		stats:    stats,
		recorder: recorder,
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// start launches the consumer goroutine.
func (d *dispatcher) start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

// stop requests shutdown and waits for the consumer to exit. Commands still
// queued when cancellation is observed are not drained.
func (d *dispatcher) stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

// submit places a command on the inbound queue. It blocks while the queue
// is full and fails once the dispatcher has been stopped.
func (d *dispatcher) submit(id string, cmd universe.Command) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}

	select {
	case d.commands <- submission{id: id, cmd: cmd}:
		return nil
	case <-d.done:
		return ErrStopped
	}
}

// run consumes commands until cancellation.
func (d *dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case sub := <-d.commands:
			d.process(ctx, sub)
		}
	}
}

// process applies one command and reports the outcome.
func (d *dispatcher) process(ctx context.Context, sub submission) {
	err := d.store.Apply(sub.cmd)
	if err == nil {
		d.stats.commandsApplied.Add(1)
		d.record(ctx, sub, "applied", "")
		return
	}

	d.stats.commandsRejected.Add(1)
	d.record(ctx, sub, "rejected", err.Error())

	// A partially applied scene reports one event per invalid channel.
	var sceneErr *universe.SceneError
	if errors.As(err, &sceneErr) {
		for _, ae := range sceneErr.Invalid {
			d.emit(newCommandErrorEvent(sub.id, sub.cmd, ae.Address, ae.Err))
		}
	} else {
		d.emit(newCommandErrorEvent(sub.id, sub.cmd, commandAddress(sub.cmd), err))
	}

	d.logger.Warn("command rejected",
		"command_id", sub.id,
		"kind", sub.cmd.Kind(),
		"error", err,
	)
}

// record writes the audit entry if a recorder is configured.
func (d *dispatcher) record(ctx context.Context, sub submission, status, detail string) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordCommand(ctx, sub.id, sub.cmd.Kind(), status, detail); err != nil {
		d.logger.Error("failed to record command",
			"command_id", sub.id,
			"error", err,
		)
	}
}

// commandAddress extracts the affected address from a single-channel
// command, or -1 for universe-wide commands.
func commandAddress(cmd universe.Command) int {
	switch c := cmd.(type) {
	case universe.SetImmediate:
		return c.Address
	case universe.FadeTo:
		return c.Address
	default:
		return -1
	}
}
