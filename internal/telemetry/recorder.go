package telemetry

import (
	"context"
	"fmt"
)

// OutcomeWriter receives command outcomes. Satisfied by *influxdb.Client.
type OutcomeWriter interface {
	// WriteCommandOutcome records one processed command by kind and status.
	WriteCommandOutcome(kind, status string)
}

// CommandRecorder forwards each command outcome to the time-series
// backend, one count per processed command.
//
// It runs on the engine's dispatcher goroutine; the underlying write is
// batched and asynchronous, so recording never waits on the network.
type CommandRecorder struct {
	writer OutcomeWriter
}

// NewCommandRecorder creates a recorder writing to the given backend.
func NewCommandRecorder(writer OutcomeWriter) (*CommandRecorder, error) {
	if writer == nil {
		return nil, fmt.Errorf("telemetry: outcome writer is required")
	}
	return &CommandRecorder{writer: writer}, nil
}

// RecordCommand records one outcome. It never fails; the backend reports
// write errors through its own error callback.
func (r *CommandRecorder) RecordCommand(_ context.Context, _, kind, status, _ string) error {
	r.writer.WriteCommandOutcome(kind, status)
	return nil
}
