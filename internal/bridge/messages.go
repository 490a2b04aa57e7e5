package bridge

import (
	"time"

	"github.com/openlux/dmxbridge/internal/effects"
	"github.com/openlux/dmxbridge/internal/engine"
	"github.com/openlux/dmxbridge/internal/history"
	"github.com/openlux/dmxbridge/internal/scene"
)

// MQTT message types exchanged between controllers and the bridge.
// Command payloads are inbound; everything else is outbound.

// SetPayload sets a single channel with no transition.
// Topic: dmxbridge/command/set
type SetPayload struct {
	// ID optionally identifies the command for acknowledgement
	// correlation. Generated by the bridge when empty.
	ID string `json:"id,omitempty"`

	// Channel is the target channel address.
	Channel int `json:"channel"`

	// Value is the new intensity, 0-255.
	Value int `json:"value"`
}

// FadePayload transitions a single channel over a duration.
// Topic: dmxbridge/command/fade
type FadePayload struct {
	// ID optionally identifies the command for acknowledgement correlation.
	ID string `json:"id,omitempty"`

	// Channel is the target channel address.
	Channel int `json:"channel"`

	// Value is the target intensity, 0-255.
	Value int `json:"value"`

	// FadeMS is the fade duration in milliseconds. Zero snaps on the
	// next tick.
	FadeMS int `json:"fade_ms"`

	// Curve names the easing curve. Empty uses the engine default.
	Curve string `json:"curve,omitempty"`
}

// ScenePayload recalls a scene, either a named scene from the registry or
// an inline set of channel targets. Exactly one of Name and Channels must
// be set.
// Topic: dmxbridge/command/scene
type ScenePayload struct {
	// ID optionally identifies the command for acknowledgement correlation.
	ID string `json:"id,omitempty"`

	// Name is a scene name registered in the scene library.
	Name string `json:"name,omitempty"`

	// Channels is an inline scene, bypassing the library.
	Channels map[int]scene.Target `json:"channels,omitempty"`
}

// BlackoutPayload fades every channel to zero.
// Topic: dmxbridge/command/blackout
type BlackoutPayload struct {
	// ID optionally identifies the command for acknowledgement correlation.
	ID string `json:"id,omitempty"`

	// FadeMS is the fade duration in milliseconds. Zero snaps on the
	// next tick.
	FadeMS int `json:"fade_ms"`

	// Curve names the easing curve. Empty uses the engine default.
	Curve string `json:"curve,omitempty"`
}

// EffectStartPayload starts a composite effect.
// Topic: dmxbridge/command/effect_start
type EffectStartPayload struct {
	// ID optionally identifies the command for acknowledgement correlation.
	ID string `json:"id,omitempty"`

	// EffectID names the running effect instance, used to stop it later.
	EffectID string `json:"effect_id"`

	// Effect is the effect definition tree.
	Effect effects.Node `json:"effect"`
}

// EffectStopPayload cancels a running effect.
// Topic: dmxbridge/command/effect_stop
type EffectStopPayload struct {
	// ID optionally identifies the command for acknowledgement correlation.
	ID string `json:"id,omitempty"`

	// EffectID names the running effect instance to cancel.
	EffectID string `json:"effect_id"`
}

// HistoryRequestPayload asks for recent command history. An empty payload
// uses the repository's default limit.
// Topic: dmxbridge/history/request
type HistoryRequestPayload struct {
	// Limit caps the number of entries returned.
	Limit int `json:"limit,omitempty"`
}

// HistoryMessage answers a history request.
// Topic: dmxbridge/history/recent
type HistoryMessage struct {
	// Timestamp is when the query ran (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Count is the number of entries returned.
	Count int `json:"count"`

	// Entries holds the recorded outcomes, newest first.
	Entries []history.Entry `json:"entries"`
}

// AckStatus represents the acknowledgement status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was decoded and queued to the engine.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command was rejected, either at decode time
	// or later by the engine.
	AckFailed AckStatus = "failed"
)

// AckMessage acknowledges a command.
// Topic: dmxbridge/ack/{command_id}
type AckMessage struct {
	// CommandID is the ID of the acknowledged command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgement was sent (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the acknowledgement status.
	Status AckStatus `json:"status"`

	// Error contains details when Status is "failed".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is the machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidPayload    = "INVALID_PAYLOAD"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeUnknownScene      = "UNKNOWN_SCENE"
	ErrCodeEngineStopped     = "ENGINE_STOPPED"
	ErrCodeCommandRejected   = "COMMAND_REJECTED"
)

// ErrorEventMessage reports a failure on the error stream.
// Topics: dmxbridge/event/error and dmxbridge/event/last_error (retained)
type ErrorEventMessage struct {
	// CommandID correlates the error with a command, when one caused it.
	CommandID string `json:"command_id,omitempty"`

	// Timestamp is when the error occurred (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Command is the command kind that failed (set, fade, scene, blackout).
	Command string `json:"command,omitempty"`

	// Channel is the affected channel, or -1 when not channel-specific.
	Channel int `json:"channel"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// FadeCompletedMessage reports a channel whose fade finished.
// Topic: dmxbridge/event/fade_completed
type FadeCompletedMessage struct {
	// Timestamp is when the fade landed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Channel is the channel whose fade completed.
	Channel int `json:"channel"`

	// Value is the landed intensity.
	Value int `json:"value"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's operational status.
// Topic: dmxbridge/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Service is the service identifier ("dmxbridge").
	Service string `json:"service"`

	// Timestamp is when the report was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the bridge software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// UniverseSize is the number of channels the engine manages.
	UniverseSize int `json:"universe_size"`

	// Scenes is the number of scenes in the library.
	Scenes int `json:"scenes"`

	// Statistics contains engine counters.
	Statistics *engine.Stats `json:"statistics,omitempty"`

	// Reason explains the status (especially for degraded).
	Reason string `json:"reason,omitempty"`
}

// FrameMessage is a diagnostics snapshot of the universe.
// Topic: dmxbridge/frame
// QoS: 0, Retained: No
type FrameMessage struct {
	// Timestamp is when the snapshot was taken (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Channels is the universe size.
	Channels int `json:"channels"`

	// Values holds one intensity per channel, indexed by address.
	Values []int `json:"values"`
}

// NewAckMessage creates an accepted acknowledgement for a command.
func NewAckMessage(commandID string) AckMessage {
	return AckMessage{
		CommandID: commandID,
		Timestamp: time.Now().UTC(),
		Status:    AckAccepted,
	}
}

// NewAckError creates a failed acknowledgement with error details.
func NewAckError(commandID, code, message string) AckMessage {
	return AckMessage{
		CommandID: commandID,
		Timestamp: time.Now().UTC(),
		Status:    AckFailed,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorEventMessage creates an error stream entry.
func NewErrorEventMessage(commandID, command string, channel int, message string) ErrorEventMessage {
	return ErrorEventMessage{
		CommandID: commandID,
		Timestamp: time.Now().UTC(),
		Command:   command,
		Channel:   channel,
		Message:   message,
	}
}

// NewFadeCompletedMessage creates a fade completion event.
func NewFadeCompletedMessage(channel int, value uint8) FadeCompletedMessage {
	return FadeCompletedMessage{
		Timestamp: time.Now().UTC(),
		Channel:   channel,
		Value:     int(value),
	}
}

// NewHealthMessage creates a health report.
func NewHealthMessage(version string, status HealthStatus, stats engine.Stats, universeSize, sceneCount int, startTime time.Time) HealthMessage {
	return HealthMessage{
		Service:       "dmxbridge",
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		UniverseSize:  universeSize,
		Scenes:        sceneCount,
		Statistics:    &stats,
	}
}

// NewHistoryMessage creates a history reply.
func NewHistoryMessage(entries []history.Entry) HistoryMessage {
	return HistoryMessage{
		Timestamp: time.Now().UTC(),
		Count:     len(entries),
		Entries:   entries,
	}
}

// NewFrameMessage creates a diagnostics frame snapshot.
func NewFrameMessage(values []uint8) FrameMessage {
	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(v)
	}
	return FrameMessage{
		Timestamp: time.Now().UTC(),
		Channels:  len(values),
		Values:    ints,
	}
}
