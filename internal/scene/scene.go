// Package scene manages named lighting presets.
//
// A scene is a set of per-channel targets with optional fade parameters.
// Scenes are loaded from a YAML file at startup and may be added or removed
// at runtime over the message bus; the registry is the single source of
// truth either way.
package scene

import (
	"fmt"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// Target describes what one channel should do when the scene is recalled.
type Target struct {
	// Value is the target intensity, 0-255.
	Value int `yaml:"value" json:"value"`

	// FadeMS is the fade duration in milliseconds. Zero means immediate.
	FadeMS int `yaml:"fade_ms,omitempty" json:"fade_ms,omitempty"`

	// Curve names the easing curve. Empty uses the engine default.
	Curve string `yaml:"curve,omitempty" json:"curve,omitempty"`
}

// Scene is a named preset covering any subset of the universe.
type Scene struct {
	// Description is free-form operator text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Channels maps channel address to its target.
	Channels map[int]Target `yaml:"channels" json:"channels"`
}

// Validate checks the scene against the given universe size.
//
// Validation here is structural: values and durations in range, at least
// one channel, addresses inside the universe. It runs at load and add time
// so a broken scene is rejected before it can ever be recalled.
func (s Scene) Validate(universeSize int) error {
	if len(s.Channels) == 0 {
		return fmt.Errorf("scene: %w", universe.ErrEmptyScene)
	}
	for address, target := range s.Channels {
		if address < 0 || address >= universeSize {
			return fmt.Errorf("scene channel %d: %w (universe size %d)", address, universe.ErrInvalidAddress, universeSize)
		}
		if target.Value < 0 || target.Value > int(universe.MaxValue) {
			return fmt.Errorf("scene channel %d: %w: got %d", address, universe.ErrInvalidValue, target.Value)
		}
		if target.FadeMS < 0 {
			return fmt.Errorf("scene channel %d: %w: got %dms", address, universe.ErrInvalidDuration, target.FadeMS)
		}
		if _, err := universe.ParseCurve(target.Curve); err != nil {
			return fmt.Errorf("scene channel %d: %w", address, err)
		}
	}
	return nil
}

// Command converts the scene into a recall command.
// The scene must have been validated; unknown curves fall back to the
// engine default rather than failing mid-recall.
func (s Scene) Command() universe.SceneRecall {
	channels := make(map[int]universe.SceneTarget, len(s.Channels))
	for address, target := range s.Channels {
		curve, _ := universe.ParseCurve(target.Curve)
		channels[address] = universe.SceneTarget{
			Value:    uint8(target.Value),
			Duration: time.Duration(target.FadeMS) * time.Millisecond,
			Curve:    curve,
		}
	}
	return universe.SceneRecall{Channels: channels}
}
