package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

func TestSceneValidate(t *testing.T) {
	tests := []struct {
		name    string
		scene   Scene
		size    int
		wantErr error
	}{
		{
			name: "valid",
			scene: Scene{Channels: map[int]Target{
				0: {Value: 255, FadeMS: 1000, Curve: "ease_in"},
				7: {Value: 0},
			}},
			size: 8,
		},
		{
			name:    "empty",
			scene:   Scene{},
			size:    8,
			wantErr: universe.ErrEmptyScene,
		},
		{
			name:    "address out of range",
			scene:   Scene{Channels: map[int]Target{8: {Value: 10}}},
			size:    8,
			wantErr: universe.ErrInvalidAddress,
		},
		{
			name:    "negative address",
			scene:   Scene{Channels: map[int]Target{-1: {Value: 10}}},
			size:    8,
			wantErr: universe.ErrInvalidAddress,
		},
		{
			name:    "value too large",
			scene:   Scene{Channels: map[int]Target{0: {Value: 256}}},
			size:    8,
			wantErr: universe.ErrInvalidValue,
		},
		{
			name:    "negative fade",
			scene:   Scene{Channels: map[int]Target{0: {Value: 1, FadeMS: -5}}},
			size:    8,
			wantErr: universe.ErrInvalidDuration,
		},
		{
			name:    "unknown curve",
			scene:   Scene{Channels: map[int]Target{0: {Value: 1, Curve: "bounce"}}},
			size:    8,
			wantErr: universe.ErrUnknownCurve,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate(tt.size)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSceneCommand(t *testing.T) {
	s := Scene{Channels: map[int]Target{
		2: {Value: 128, FadeMS: 1500, Curve: "ease_out"},
		5: {Value: 0},
	}}

	cmd := s.Command()
	if len(cmd.Channels) != 2 {
		t.Fatalf("command has %d channels, want 2", len(cmd.Channels))
	}

	ch2 := cmd.Channels[2]
	if ch2.Value != 128 {
		t.Errorf("channel 2 value = %d, want 128", ch2.Value)
	}
	if ch2.Duration != 1500*time.Millisecond {
		t.Errorf("channel 2 duration = %v, want 1.5s", ch2.Duration)
	}
	if ch2.Curve != universe.CurveEaseOut {
		t.Errorf("channel 2 curve = %v, want ease_out", ch2.Curve)
	}

	ch5 := cmd.Channels[5]
	if ch5.Duration != 0 || ch5.Curve != universe.CurveDefault {
		t.Errorf("channel 5 = %+v, want immediate with default curve", ch5)
	}
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry(8)

	s := Scene{Description: "test", Channels: map[int]Target{0: {Value: 100}}}
	if err := r.Add("evening", s); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := r.Get("evening")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Description != "test" {
		t.Errorf("description = %q, want %q", got.Description, "test")
	}

	if err := r.Remove("evening"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := r.Get("evening"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after remove = %v, want ErrNotFound", err)
	}
	if err := r.Remove("evening"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove twice = %v, want ErrNotFound", err)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	r := NewRegistry(8)

	if err := r.Add("", Scene{Channels: map[int]Target{0: {Value: 1}}}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Add with empty name = %v, want ErrEmptyName", err)
	}
	if err := r.Add("bad", Scene{Channels: map[int]Target{99: {Value: 1}}}); !errors.Is(err, universe.ErrInvalidAddress) {
		t.Errorf("Add with bad address = %v, want ErrInvalidAddress", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d after rejected adds, want 0", r.Count())
	}
}

func TestRegistryReplaceAndList(t *testing.T) {
	r := NewRegistry(8)

	mustAdd := func(name string, s Scene) {
		t.Helper()
		if err := r.Add(name, s); err != nil {
			t.Fatalf("Add(%q) failed: %v", name, err)
		}
	}

	mustAdd("b", Scene{Channels: map[int]Target{0: {Value: 1}}})
	mustAdd("a", Scene{Channels: map[int]Target{0: {Value: 2}}})
	mustAdd("b", Scene{Channels: map[int]Target{0: {Value: 3}}})

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List = %v, want [a b]", names)
	}

	got, err := r.Get("b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Channels[0].Value != 3 {
		t.Errorf("replaced scene value = %d, want 3", got.Channels[0].Value)
	}
}

func TestLoadInto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.yaml")

	content := `scenes:
  evening:
    description: "Warm living room"
    channels:
      0: { value: 180, fade_ms: 2000, curve: ease_in_out }
      1: { value: 90, fade_ms: 2000 }
  off:
    channels:
      0: { value: 0 }
      1: { value: 0 }
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	r := NewRegistry(8)
	loaded, err := LoadInto(r, path)
	if err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2", loaded)
	}

	evening, err := r.Get("evening")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if evening.Channels[0].Value != 180 || evening.Channels[0].FadeMS != 2000 {
		t.Errorf("evening channel 0 = %+v", evening.Channels[0])
	}
	if evening.Channels[0].Curve != "ease_in_out" {
		t.Errorf("evening channel 0 curve = %q", evening.Channels[0].Curve)
	}
}

func TestLoadIntoRejectsInvalidScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.yaml")

	content := `scenes:
  broken:
    channels:
      999: { value: 10 }
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	r := NewRegistry(8)
	if _, err := LoadInto(r, path); !errors.Is(err, universe.ErrInvalidAddress) {
		t.Errorf("LoadInto = %v, want ErrInvalidAddress", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/scenes.yaml"); err == nil {
		t.Error("LoadFile on missing path succeeded, want error")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.yaml")
	if err := os.WriteFile(path, []byte("scenes: [not a map"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile on malformed YAML succeeded, want error")
	}
}
