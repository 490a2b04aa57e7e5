package engine

import (
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// EventKind classifies an engine event.
type EventKind string

const (
	// EventCommandError reports a rejected command. Never fatal; the
	// dispatcher keeps consuming after emitting one.
	EventCommandError EventKind = "command_error"

	// EventFadeCompleted reports a channel whose fade finished this tick.
	EventFadeCompleted EventKind = "fade_completed"

	// EventSchedulerOverrun warns that a tick's work exceeded the tick
	// period. Skipped time is never caught up; fades advance by measured
	// elapsed time so they stay correct regardless.
	EventSchedulerOverrun EventKind = "scheduler_overrun"
)

// Event is one entry on the engine's best-effort status channel.
//
// Events are delivered to a decoupled reporting layer; when the channel is
// full the event is dropped rather than ever blocking an engine actor.
type Event struct {
	// Kind classifies the event.
	Kind EventKind

	// At is when the event occurred.
	At time.Time

	// CommandID correlates a command error with the submission that
	// caused it. Empty for scheduler events.
	CommandID string

	// Scope names what the event refers to: a command kind for errors,
	// "tick" for overruns, "channel" for fade completions.
	Scope string

	// Address is the affected channel, or -1 when the event is not
	// specific to one channel.
	Address int

	// Value is the channel value at completion (fade events only).
	Value uint8

	// Err is the underlying error for EventCommandError.
	Err error
}

// newCommandErrorEvent builds an event for a rejected command.
func newCommandErrorEvent(commandID string, cmd universe.Command, address int, err error) Event {
	return Event{
		Kind:      EventCommandError,
		At:        time.Now(),
		CommandID: commandID,
		Scope:     cmd.Kind(),
		Address:   address,
		Err:       err,
	}
}

// newFadeCompletedEvent builds an event for a finished fade.
func newFadeCompletedEvent(address int, value uint8) Event {
	return Event{
		Kind:    EventFadeCompleted,
		At:      time.Now(),
		Scope:   "channel",
		Address: address,
		Value:   value,
	}
}

// newOverrunEvent builds a warning event for a tick that ran long.
func newOverrunEvent() Event {
	return Event{
		Kind:    EventSchedulerOverrun,
		At:      time.Now(),
		Scope:   "tick",
		Address: -1,
	}
}
