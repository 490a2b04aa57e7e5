package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openlux/dmxbridge/internal/effects"
	"github.com/openlux/dmxbridge/internal/engine"
	"github.com/openlux/dmxbridge/internal/history"
	"github.com/openlux/dmxbridge/internal/infrastructure/mqtt"
	"github.com/openlux/dmxbridge/internal/scene"
	"github.com/openlux/dmxbridge/internal/universe"
)

// Command kinds accepted on the command topics.
const (
	kindSet         = "set"
	kindFade        = "fade"
	kindScene       = "scene"
	kindBlackout    = "blackout"
	kindEffectStart = "effect_start"
	kindEffectStop  = "effect_stop"
)

// historyQueryTimeout bounds one history lookup so a stalled database
// cannot pin an MQTT router goroutine.
const historyQueryTimeout = 5 * time.Second

// maxChannelValue mirrors the engine's intensity range for decode-time
// validation, so a value that cannot fit a channel byte is rejected with a
// useful acknowledgement instead of silently truncating.
const maxChannelValue = int(universe.MaxValue)

// Logger is the interface for structured logging within the bridge.
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

// Engine is the command surface the bridge drives.
// Satisfied by *engine.Engine; mocked in tests.
type Engine interface {
	// Submit queues a command for the dispatcher.
	Submit(id string, cmd universe.Command) error

	// Events returns the engine's status event channel.
	Events() <-chan engine.Event

	// Stats returns a snapshot of the engine counters.
	Stats() engine.Stats

	// Size returns the universe size.
	Size() int

	// Values returns every channel's current value.
	Values() []uint8
}

// EffectRunner drives composite effects.
// Satisfied by *effects.Runner; mocked in tests.
type EffectRunner interface {
	// StartEffect begins running a definition under the given effect ID.
	StartEffect(id string, def effects.Node) error

	// StopEffect cancels a running effect.
	StopEffect(id string) error
}

// HistoryStore answers command history queries.
// Satisfied by *history.SQLiteRepository.
type HistoryStore interface {
	// GetRecent returns recent entries, newest first.
	GetRecent(ctx context.Context, limit int) ([]history.Entry, error)
}

// ChannelSampler receives landed channel values for telemetry.
// Satisfied by *influxdb.Client.
type ChannelSampler interface {
	// WriteChannelValue records one channel's landed intensity.
	WriteChannelValue(channel int, value uint8)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Engine executes decoded commands. Required.
	Engine Engine

	// MQTT is the broker client. Required.
	MQTT MQTTClient

	// Scenes is the scene library. Required.
	Scenes *scene.Registry

	// Effects runs composite effects. Required.
	Effects EffectRunner

	// History optionally answers command history queries. When nil the
	// history request topic is not subscribed.
	History HistoryStore

	// Sampler optionally receives landed channel values on fade
	// completion.
	Sampler ChannelSampler

	// Version is the bridge software version reported in health messages.
	Version string

	// HealthInterval is how often to publish health reports.
	// Default: 30 seconds.
	HealthInterval time.Duration

	// FrameInterval enables the diagnostics frame echo when positive.
	// Zero disables it.
	FrameInterval time.Duration

	// Logger is an optional structured logger.
	Logger Logger
}

// Bridge translates between MQTT and the engine.
//
// Thread safety: all methods are safe for concurrent use. Message handlers
// run on the MQTT client's router goroutines; outcomes flow back through
// the engine's event channel, consumed by a single pump goroutine.
type Bridge struct {
	engine  Engine
	mqtt    MQTTClient
	scenes  *scene.Registry
	effects EffectRunner
	history HistoryStore
	sampler ChannelSampler
	health  *HealthReporter
	topics  mqtt.Topics

	frameInterval time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// New creates a bridge. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("bridge: engine is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("bridge: MQTT client is required")
	}
	if opts.Scenes == nil {
		return nil, fmt.Errorf("bridge: scene registry is required")
	}
	if opts.Effects == nil {
		return nil, fmt.Errorf("bridge: effect runner is required")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	b := &Bridge{
		engine:        opts.Engine,
		mqtt:          opts.MQTT,
		scenes:        opts.Scenes,
		effects:       opts.Effects,
		history:       opts.History,
		sampler:       opts.Sampler,
		frameInterval: opts.FrameInterval,
		done:          make(chan struct{}),
		logger:        opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTT,
		Engine:    opts.Engine,
		Scenes:    opts.Scenes,
		Logger:    opts.Logger,
	})

	return b, nil
}

// Start subscribes to the command and scene topics and launches the event
// pump, health reporting, and the optional frame echo.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logger.Error("failed to publish starting status", "error", err)
	}

	commandTopic := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", commandTopic)

	sceneTopic := b.topics.AllSceneDefines()
	if err := b.mqtt.Subscribe(sceneTopic, 1, b.handleSceneDefine); err != nil {
		return fmt.Errorf("subscribe to scene definitions: %w", err)
	}
	b.logger.Info("subscribed to scene definitions", "topic", sceneTopic)

	if b.history != nil {
		historyTopic := b.topics.HistoryRequest()
		if err := b.mqtt.Subscribe(historyTopic, 1, b.handleHistoryRequest); err != nil {
			return fmt.Errorf("subscribe to history requests: %w", err)
		}
		b.logger.Info("subscribed to history requests", "topic", historyTopic)
	}

	b.wg.Add(1)
	go b.pumpEvents(ctx)

	if b.frameInterval > 0 {
		b.wg.Add(1)
		go b.frameLoop(ctx)
	}

	b.health.Start(ctx)

	if err := b.health.PublishNow(); err != nil {
		b.logger.Error("failed to publish health", "error", err)
	}

	b.logger.Info("bridge started",
		"universe_size", b.engine.Size(),
		"scenes", b.scenes.Count())

	return nil
}

// Stop gracefully shuts down the bridge. The engine is stopped separately
// by the caller; events already queued are flushed first.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.health.Stop()
		b.wg.Wait()
		b.logger.Info("bridge stopped")
	})
}

// handleCommand decodes a command payload and submits it to the engine.
// Effect commands take the synchronous path through the runner instead.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	kind := lastTopicSegment(topic)
	if kind == kindEffectStart || kind == kindEffectStop {
		return b.handleEffectCommand(kind, payload)
	}

	id, cmd, err := b.decodeCommand(kind, payload)
	if err != nil {
		b.logger.Warn("rejected command",
			"topic", topic,
			"command_id", id,
			"error", err)
		b.publishAck(NewAckError(id, errCodeFor(err), err.Error()))
		b.publishErrorEvent(NewErrorEventMessage(id, kind, -1, err.Error()))
		return err
	}

	if err := b.engine.Submit(id, cmd); err != nil {
		code := ErrCodeCommandRejected
		if errors.Is(err, engine.ErrStopped) {
			code = ErrCodeEngineStopped
		}
		b.logger.Warn("submit failed", "command_id", id, "error", err)
		b.publishAck(NewAckError(id, code, err.Error()))
		return err
	}

	b.logger.Debug("command queued", "command_id", id, "kind", kind)
	b.publishAck(NewAckMessage(id))
	return nil
}

// handleEffectCommand starts or stops a composite effect. Unlike engine
// commands the runner answers synchronously, so the acknowledgement here
// is final.
func (b *Bridge) handleEffectCommand(kind string, payload []byte) error {
	id, runErr := b.runEffectCommand(kind, payload)
	if runErr != nil {
		b.logger.Warn("rejected effect command",
			"kind", kind,
			"command_id", id,
			"error", runErr)
		b.publishAck(NewAckError(id, errCodeFor(runErr), runErr.Error()))
		b.publishErrorEvent(NewErrorEventMessage(id, kind, -1, runErr.Error()))
		return runErr
	}

	b.logger.Debug("effect command applied", "command_id", id, "kind", kind)
	b.publishAck(NewAckMessage(id))
	return nil
}

// runEffectCommand decodes one effect payload and drives the runner.
// The returned ID is always usable for acknowledgement.
func (b *Bridge) runEffectCommand(kind string, payload []byte) (string, error) {
	switch kind {
	case kindEffectStart:
		var p EffectStartPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		if p.EffectID == "" {
			return id, fmt.Errorf("%w: effect_id is required", ErrInvalidPayload)
		}
		if err := p.Effect.Validate(b.engine.Size()); err != nil {
			return id, err
		}
		return id, b.effects.StartEffect(p.EffectID, p.Effect)

	default: // kindEffectStop
		var p EffectStopPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		if p.EffectID == "" {
			return id, fmt.Errorf("%w: effect_id is required", ErrInvalidPayload)
		}
		return id, b.effects.StopEffect(p.EffectID)
	}
}

// handleHistoryRequest answers a command history query on the recent
// history topic.
func (b *Bridge) handleHistoryRequest(topic string, payload []byte) error {
	var p HistoryRequestPayload
	if len(strings.TrimSpace(string(payload))) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			b.logger.Warn("rejected history request", "error", err)
			b.publishErrorEvent(NewErrorEventMessage("", "history", -1, err.Error()))
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyQueryTimeout)
	defer cancel()

	entries, err := b.history.GetRecent(ctx, p.Limit)
	if err != nil {
		b.logger.Error("history query failed", "error", err)
		b.publishErrorEvent(NewErrorEventMessage("", "history", -1, err.Error()))
		return err
	}

	b.publishJSON(b.topics.HistoryRecent(), NewHistoryMessage(entries), 0, false)
	return nil
}

// decodeCommand turns a raw payload into an engine command.
// The returned ID is always usable for acknowledgement, generated when the
// payload does not carry one.
func (b *Bridge) decodeCommand(kind string, payload []byte) (string, universe.Command, error) {
	switch kind {
	case kindSet:
		var p SetPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		if p.Value < 0 || p.Value > maxChannelValue {
			return id, nil, fmt.Errorf("%w: value %d out of range 0-%d", ErrInvalidParameters, p.Value, maxChannelValue)
		}
		return id, universe.SetImmediate{Address: p.Channel, Value: uint8(p.Value)}, nil

	case kindFade:
		var p FadePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		if p.Value < 0 || p.Value > maxChannelValue {
			return id, nil, fmt.Errorf("%w: value %d out of range 0-%d", ErrInvalidParameters, p.Value, maxChannelValue)
		}
		if p.FadeMS < 0 {
			return id, nil, fmt.Errorf("%w: fade_ms must not be negative", ErrInvalidParameters)
		}
		curve, err := universe.ParseCurve(p.Curve)
		if err != nil {
			return id, nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		return id, universe.FadeTo{
			Address:  p.Channel,
			Value:    uint8(p.Value),
			Duration: time.Duration(p.FadeMS) * time.Millisecond,
			Curve:    curve,
		}, nil

	case kindScene:
		var p ScenePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		cmd, err := b.decodeSceneRecall(p)
		if err != nil {
			return id, nil, err
		}
		return id, cmd, nil

	case kindBlackout:
		var p BlackoutPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.NewString(), nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id := commandID(p.ID)
		if p.FadeMS < 0 {
			return id, nil, fmt.Errorf("%w: fade_ms must not be negative", ErrInvalidParameters)
		}
		curve, err := universe.ParseCurve(p.Curve)
		if err != nil {
			return id, nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		return id, universe.Blackout{
			Duration: time.Duration(p.FadeMS) * time.Millisecond,
			Curve:    curve,
		}, nil

	default:
		return uuid.NewString(), nil, fmt.Errorf("%w: %q", ErrUnknownCommand, kind)
	}
}

// decodeSceneRecall resolves a scene payload into a recall command.
// A named recall reads the registry; an inline recall is validated against
// the universe size first so its rejection carries the right error code.
func (b *Bridge) decodeSceneRecall(p ScenePayload) (universe.Command, error) {
	switch {
	case p.Name != "" && len(p.Channels) > 0:
		return nil, fmt.Errorf("%w: name and channels are mutually exclusive", ErrInvalidPayload)

	case p.Name != "":
		s, err := b.scenes.Get(p.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", scene.ErrNotFound, p.Name)
		}
		return s.Command(), nil

	case len(p.Channels) > 0:
		s := scene.Scene{Channels: p.Channels}
		if err := s.Validate(b.engine.Size()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		return s.Command(), nil

	default:
		return nil, fmt.Errorf("%w: scene needs a name or channels", ErrInvalidPayload)
	}
}

// handleSceneDefine adds or removes a named scene.
// An empty payload removes the scene; anything else is a JSON definition.
func (b *Bridge) handleSceneDefine(topic string, payload []byte) error {
	name := lastTopicSegment(topic)

	if len(strings.TrimSpace(string(payload))) == 0 {
		if err := b.scenes.Remove(name); err != nil {
			if errors.Is(err, scene.ErrNotFound) {
				b.logger.Debug("scene removal ignored, not found", "scene", name)
				return nil
			}
			return err
		}
		b.logger.Info("scene removed", "scene", name)
		return nil
	}

	var s scene.Scene
	if err := json.Unmarshal(payload, &s); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		b.logger.Warn("rejected scene definition", "scene", name, "error", err)
		b.publishErrorEvent(NewErrorEventMessage("", kindScene, -1, fmt.Sprintf("scene %q: %v", name, err)))
		return err
	}

	if err := b.scenes.Add(name, s); err != nil {
		b.logger.Warn("rejected scene definition", "scene", name, "error", err)
		b.publishErrorEvent(NewErrorEventMessage("", kindScene, -1, fmt.Sprintf("scene %q: %v", name, err)))
		return err
	}

	b.logger.Info("scene defined", "scene", name, "channels", len(s.Channels))
	return nil
}

// pumpEvents consumes the engine's event channel and publishes outcomes.
// Exits when the channel closes (engine stopped) or the bridge stops.
func (b *Bridge) pumpEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case ev, ok := <-b.engine.Events():
			if !ok {
				return
			}
			b.publishEngineEvent(ev)
		}
	}
}

// publishEngineEvent translates one engine event to its MQTT topics.
func (b *Bridge) publishEngineEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventCommandError:
		message := ""
		if ev.Err != nil {
			message = ev.Err.Error()
		}
		b.publishErrorEvent(NewErrorEventMessage(ev.CommandID, ev.Scope, ev.Address, message))
		if ev.CommandID != "" {
			b.publishAck(NewAckError(ev.CommandID, ErrCodeCommandRejected, message))
		}

	case engine.EventFadeCompleted:
		b.publishJSON(b.topics.EventFadeCompleted(), NewFadeCompletedMessage(ev.Address, ev.Value), 0, false)
		if b.sampler != nil {
			b.sampler.WriteChannelValue(ev.Address, ev.Value)
		}

	case engine.EventSchedulerOverrun:
		b.logger.Warn("scheduler overrun")
	}
}

// frameLoop periodically publishes a universe snapshot for diagnostics.
func (b *Bridge) frameLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.publishJSON(b.topics.FrameEcho(), NewFrameMessage(b.engine.Values()), 0, false)
		}
	}
}

// publishAck publishes an acknowledgement on the per-command topic.
func (b *Bridge) publishAck(ack AckMessage) {
	b.publishJSON(b.topics.Ack(ack.CommandID), ack, 1, false)
}

// publishErrorEvent publishes to the error stream and the retained
// last-error topic.
func (b *Bridge) publishErrorEvent(msg ErrorEventMessage) {
	b.publishJSON(b.topics.EventError(), msg, 1, false)
	b.publishJSON(b.topics.EventLastError(), msg, 1, true)
}

// publishJSON marshals and publishes a message, logging failures.
func (b *Bridge) publishJSON(topic string, msg any, qos byte, retained bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal message", "topic", topic, "error", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, qos, retained); err != nil {
		b.logger.Error("failed to publish", "topic", topic, "error", err)
	}
}

// commandID returns the supplied ID or generates one.
func commandID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// errCodeFor maps a rejection to an acknowledgement error code.
func errCodeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, scene.ErrNotFound):
		return ErrCodeUnknownScene
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, effects.ErrInvalidNode):
		return ErrCodeInvalidParameters
	case errors.Is(err, effects.ErrAlreadyRunning), errors.Is(err, effects.ErrNotRunning):
		return ErrCodeCommandRejected
	case errors.Is(err, effects.ErrStopped):
		return ErrCodeEngineStopped
	default:
		return ErrCodeInvalidPayload
	}
}

// lastTopicSegment returns the text after the final slash.
func lastTopicSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
