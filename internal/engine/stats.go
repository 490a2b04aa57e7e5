package engine

import "sync/atomic"

// Stats is a point-in-time copy of the engine's operational counters.
type Stats struct {
	// FramesEmitted is the number of frames accepted by the sink.
	FramesEmitted uint64 `json:"frames_emitted"`

	// FramesDropped is the number of frames the sink refused because it
	// was saturated. Fade state still advanced for those ticks.
	FramesDropped uint64 `json:"frames_dropped"`

	// Overruns is the number of ticks whose work exceeded the tick period.
	Overruns uint64 `json:"overruns"`

	// CommandsApplied is the number of commands applied without error.
	CommandsApplied uint64 `json:"commands_applied"`

	// CommandsRejected is the number of commands rejected by validation.
	// A partially applied scene counts as rejected.
	CommandsRejected uint64 `json:"commands_rejected"`

	// FadesCompleted is the number of per-channel fade completions.
	FadesCompleted uint64 `json:"fades_completed"`

	// EventsDropped is the number of status events dropped because the
	// event channel was full.
	EventsDropped uint64 `json:"events_dropped"`
}

// counters holds the live atomic counters behind Stats.
type counters struct {
	framesEmitted    atomic.Uint64
	framesDropped    atomic.Uint64
	overruns         atomic.Uint64
	commandsApplied  atomic.Uint64
	commandsRejected atomic.Uint64
	fadesCompleted   atomic.Uint64
	eventsDropped    atomic.Uint64
}

// snapshot copies the live counters into a Stats value.
func (c *counters) snapshot() Stats {
	return Stats{
		FramesEmitted:    c.framesEmitted.Load(),
		FramesDropped:    c.framesDropped.Load(),
		Overruns:         c.overruns.Load(),
		CommandsApplied:  c.commandsApplied.Load(),
		CommandsRejected: c.commandsRejected.Load(),
		FadesCompleted:   c.fadesCompleted.Load(),
		EventsDropped:    c.eventsDropped.Load(),
	}
}
