package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openlux/dmxbridge/internal/engine"
)

// =============================================================================
// Test Mocks
// =============================================================================

type recordedMetric struct {
	metric string
	value  float64
}

// captureWriter records every metric it receives.
type captureWriter struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (w *captureWriter) WriteEngineStat(metric string, value float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = append(w.metrics, recordedMetric{metric: metric, value: value})
}

func (w *captureWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.metrics)
}

func (w *captureWriter) find(metric string) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.metrics {
		if m.metric == metric {
			return m.value, true
		}
	}
	return 0, false
}

// scriptedSource returns a fixed stats snapshot, swappable under lock.
type scriptedSource struct {
	mu    sync.Mutex
	stats engine.Stats
}

func (s *scriptedSource) Stats() engine.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *scriptedSource) set(stats engine.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// =============================================================================
// Tests
// =============================================================================

func TestNewValidation(t *testing.T) {
	writer := &captureWriter{}
	source := &scriptedSource{}

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid options", opts: Options{Writer: writer, Source: source}},
		{name: "missing writer", opts: Options{Source: source}, wantErr: true},
		{name: "missing source", opts: Options{Writer: writer}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReporterWritesDeltas(t *testing.T) {
	writer := &captureWriter{}
	source := &scriptedSource{}
	source.set(engine.Stats{FramesEmitted: 100, CommandsApplied: 5})

	r, err := New(Options{Writer: writer, Source: source, Interval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r.Start(context.Background())

	// Advance the counters; the next sample should see the delta
	source.set(engine.Stats{FramesEmitted: 140, CommandsApplied: 7, CommandsRejected: 1})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if writer.count() >= 3 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	r.Stop()

	if v, ok := writer.find("frames_emitted"); !ok || v != 40 {
		t.Errorf("frames_emitted delta = %v (found %v), want 40", v, ok)
	}
	if v, ok := writer.find("commands_applied"); !ok || v != 2 {
		t.Errorf("commands_applied delta = %v (found %v), want 2", v, ok)
	}
	if v, ok := writer.find("commands_rejected"); !ok || v != 1 {
		t.Errorf("commands_rejected delta = %v (found %v), want 1", v, ok)
	}
}

func TestReporterSkipsZeroDeltas(t *testing.T) {
	writer := &captureWriter{}
	source := &scriptedSource{}
	source.set(engine.Stats{FramesEmitted: 100})

	r, err := New(Options{Writer: writer, Source: source, Interval: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r.Start(context.Background())
	// Counters unchanged; the final sample on Stop must write nothing
	r.Stop()

	if writer.count() != 0 {
		t.Errorf("metrics written = %d, want 0", writer.count())
	}
}

func TestReporterFinalSampleOnStop(t *testing.T) {
	writer := &captureWriter{}
	source := &scriptedSource{}

	r, err := New(Options{Writer: writer, Source: source, Interval: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r.Start(context.Background())
	source.set(engine.Stats{FadesCompleted: 3})
	r.Stop()
	r.Stop() // idempotent

	if v, ok := writer.find("fades_completed"); !ok || v != 3 {
		t.Errorf("fades_completed delta = %v (found %v), want 3", v, ok)
	}
}
