package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// sceneFile is the on-disk document shape.
type sceneFile struct {
	Scenes map[string]Scene `yaml:"scenes"`
}

// LoadFile reads a YAML scene file and returns its scenes by name.
//
// The file format:
//
//	scenes:
//	  evening:
//	    description: "Warm living room"
//	    channels:
//	      0: { value: 180, fade_ms: 2000, curve: ease_in_out }
//	      1: { value: 90, fade_ms: 2000 }
//
// Scenes are not validated here; validation happens against the universe
// size when they are added to a registry.
func LoadFile(path string) (map[string]Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var doc sceneFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", path, err)
	}
	return doc.Scenes, nil
}

// LoadInto loads a scene file and registers every scene, failing on the
// first invalid one so a bad file is caught at startup rather than at
// recall time.
func LoadInto(registry *Registry, path string) (int, error) {
	scenes, err := LoadFile(path)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for name, s := range scenes {
		if err := registry.Add(name, s); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
