// Package telemetry periodically samples engine counters and forwards them
// to a time-series backend.
//
// The reporter writes per-interval deltas, not absolute counters, so the
// backend sees rates directly. Sampling runs on its own goroutine and never
// touches the engine's tick path.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openlux/dmxbridge/internal/engine"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 10 * time.Second

// Writer receives sampled metrics. Satisfied by *influxdb.Client.
type Writer interface {
	// WriteEngineStat records one counter delta.
	WriteEngineStat(metric string, value float64)
}

// StatsSource provides engine counter snapshots.
type StatsSource interface {
	Stats() engine.Stats
}

// Logger is the interface for structured logging within the reporter.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Reporter.
type Options struct {
	// Writer receives the sampled metrics. Required.
	Writer Writer

	// Source provides engine counters. Required.
	Source StatsSource

	// Interval is the sampling period. Default 10s.
	Interval time.Duration

	// Logger is optional.
	Logger Logger
}

// Reporter samples engine counters on a fixed interval and writes the
// deltas since the previous sample.
type Reporter struct {
	writer   Writer
	source   StatsSource
	interval time.Duration

	last engine.Stats

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// New creates a reporter. Call Start to begin sampling.
func New(opts Options) (*Reporter, error) {
	if opts.Writer == nil {
		return nil, fmt.Errorf("telemetry: writer is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("telemetry: stats source is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Reporter{
		writer:   opts.Writer,
		source:   opts.Source,
		interval: opts.Interval,
		done:     make(chan struct{}),
		logger:   opts.Logger,
	}, nil
}

// Start launches the sampling loop.
func (r *Reporter) Start(ctx context.Context) {
	r.last = r.source.Stats()
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop shuts the sampling loop down after writing a final sample.
// Safe to call multiple times.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Reporter) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			r.sample()
			return
		case <-ticker.C:
			r.sample()
		}
	}
}

// sample writes the counter deltas since the previous sample.
func (r *Reporter) sample() {
	cur := r.source.Stats()

	r.writeDelta("frames_emitted", cur.FramesEmitted, r.last.FramesEmitted)
	r.writeDelta("frames_dropped", cur.FramesDropped, r.last.FramesDropped)
	r.writeDelta("overruns", cur.Overruns, r.last.Overruns)
	r.writeDelta("commands_applied", cur.CommandsApplied, r.last.CommandsApplied)
	r.writeDelta("commands_rejected", cur.CommandsRejected, r.last.CommandsRejected)
	r.writeDelta("fades_completed", cur.FadesCompleted, r.last.FadesCompleted)
	r.writeDelta("events_dropped", cur.EventsDropped, r.last.EventsDropped)

	r.last = cur
	r.logger.Debug("telemetry sample written")
}

// writeDelta writes cur-prev, skipping zero deltas to keep the series
// sparse.
func (r *Reporter) writeDelta(metric string, cur, prev uint64) {
	if cur <= prev {
		return
	}
	r.writer.WriteEngineStat(metric, float64(cur-prev))
}
