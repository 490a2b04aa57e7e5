package effects

import (
	"fmt"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// Node types accepted in effect definitions.
const (
	TypeSequence = "sequence"
	TypeParallel = "parallel"
	TypeDelay    = "delay"
	TypeFade     = "fade"
)

// Node is one node of an effect definition tree.
//
// The Type field selects which of the remaining fields apply: sequence and
// parallel nodes carry child Nodes, delay nodes carry DelayMS, and fade
// nodes carry Channels, Value, FadeMS and an optional Curve.
type Node struct {
	// Type is one of sequence, parallel, delay, fade.
	Type string `json:"type" yaml:"type"`

	// Nodes holds the children of a sequence or parallel node.
	Nodes []Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	// DelayMS pauses a sequence for the given milliseconds.
	DelayMS int `json:"delay_ms,omitempty" yaml:"delay_ms,omitempty"`

	// Channels lists the channels a fade node drives.
	Channels []int `json:"channels,omitempty" yaml:"channels,omitempty"`

	// Value is the fade target intensity, 0-255.
	Value int `json:"value,omitempty" yaml:"value,omitempty"`

	// FadeMS is the fade duration in milliseconds. Zero snaps.
	FadeMS int `json:"fade_ms,omitempty" yaml:"fade_ms,omitempty"`

	// Curve names the easing curve. Empty uses the engine default.
	Curve string `json:"curve,omitempty" yaml:"curve,omitempty"`
}

// Validate checks the node tree against the universe size.
func (n Node) Validate(universeSize int) error {
	switch n.Type {
	case TypeSequence, TypeParallel:
		if len(n.Nodes) == 0 {
			return fmt.Errorf("%w: %s node needs at least one child", ErrInvalidNode, n.Type)
		}
		for i, child := range n.Nodes {
			if err := child.Validate(universeSize); err != nil {
				return fmt.Errorf("%s node %d: %w", n.Type, i, err)
			}
		}
		return nil

	case TypeDelay:
		if n.DelayMS < 0 {
			return fmt.Errorf("%w: delay_ms must not be negative", ErrInvalidNode)
		}
		return nil

	case TypeFade:
		if len(n.Channels) == 0 {
			return fmt.Errorf("%w: fade node needs at least one channel", ErrInvalidNode)
		}
		for _, ch := range n.Channels {
			if ch < 0 || ch >= universeSize {
				return fmt.Errorf("%w: channel %d out of range 0-%d", ErrInvalidNode, ch, universeSize-1)
			}
		}
		if n.Value < 0 || n.Value > int(universe.MaxValue) {
			return fmt.Errorf("%w: value %d out of range 0-%d", ErrInvalidNode, n.Value, universe.MaxValue)
		}
		if n.FadeMS < 0 {
			return fmt.Errorf("%w: fade_ms must not be negative", ErrInvalidNode)
		}
		if _, err := universe.ParseCurve(n.Curve); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidNode, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, n.Type)
	}
}

// compile turns a validated definition into its runtime form, converting
// millisecond durations into whole tick counts at the given period.
func (n Node) compile(period time.Duration) nodeRuntime {
	switch n.Type {
	case TypeSequence:
		children := make([]nodeRuntime, len(n.Nodes))
		for i, child := range n.Nodes {
			children[i] = child.compile(period)
		}
		return &sequenceNode{nodes: children}

	case TypeParallel:
		children := make([]nodeRuntime, len(n.Nodes))
		for i, child := range n.Nodes {
			children[i] = child.compile(period)
		}
		return &parallelNode{nodes: children}

	case TypeDelay:
		return &delayNode{ticks: ticksFor(time.Duration(n.DelayMS)*time.Millisecond, period)}

	default: // TypeFade, the only remaining validated type
		curve, _ := universe.ParseCurve(n.Curve)
		duration := time.Duration(n.FadeMS) * time.Millisecond
		return &fadeNode{
			channels: n.Channels,
			value:    uint8(n.Value),
			duration: duration,
			curve:    curve,
			ticks:    ticksFor(duration, period),
		}
	}
}

// ticksFor rounds a duration up to whole ticks. A zero duration takes no
// ticks; the command it guards snaps on the engine's next tick anyway.
func ticksFor(d, period time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + period - 1) / period)
}
