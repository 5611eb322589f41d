package scene_test

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/bloeys/deferred/scene"
)

func TestDeferredGrid(t *testing.T) {

	cfg := scene.DefaultDeferred()
	positions := scene.GridPositions(&cfg.Grid)
	if len(positions) != 343 {
		t.Fatalf("Expected 7x7x7 cubes, got %d", len(positions))
	}

	first, last := positions[0], positions[len(positions)-1]
	if first.Data != [3]float32{-4.5, -4.5, -4.5} || last.Data != [3]float32{4.5, 4.5, 4.5} {
		t.Fatalf("Expected grid from -4.5 to 4.5, got %v to %v", first.Data, last.Data)
	}

	min, max := scene.LightBounds(&cfg.Grid)
	if min.Data != [3]float32{-6, -6, -6} || max.Data != [3]float32{6, 6, 6} {
		t.Fatalf("Expected light bounds of one step around the grid, got %v to %v", min.Data, max.Data)
	}
}

func TestImmediateGrid(t *testing.T) {

	cfg := scene.DefaultImmediate()
	if n := len(scene.GridPositions(&cfg.Grid)); n != 512 {
		t.Fatalf("Expected 8x8x8 cubes, got %d", n)
	}

	min, max := scene.LightBounds(&cfg.Grid)
	if min.Data != [3]float32{-1.5, -1.5, -1.5} || max.Data != [3]float32{12, 12, 12} {
		t.Fatalf("Unexpected light bounds %v to %v", min.Data, max.Data)
	}
}

func TestNewScene(t *testing.T) {

	cfg := scene.DefaultDeferred()
	cfg.Lights.Count = 20
	cfg.Lights.Fixed = []scene.LightConfig{{Pos: [3]float32{1, 2, 3}, Intensity: [3]float32{1, 1, 1}}}

	s := scene.New(cfg, rand.New(rand.NewSource(1)))
	if len(s.Lights) != 21 {
		t.Fatalf("Expected 21 lights, got %d", len(s.Lights))
	}

	if s.Lights[0].Pos.Data != [3]float32{1, 2, 3} {
		t.Fatalf("Expected fixed light first, got %s", s.Lights[0])
	}

	min, max := scene.LightBounds(&cfg.Grid)
	for i, l := range s.Lights[1:] {
		for c := 0; c < 3; c++ {

			if p := l.Pos.Data[c]; p < min.Data[c] || p > max.Data[c] {
				t.Fatalf("Light %d position %v outside bounds", i, l.Pos.Data)
			}

			if v := l.Intensity.Data[c]; v < 0 || v > 1 {
				t.Fatalf("Light %d intensity %v outside [0,1]", i, l.Intensity.Data)
			}
		}
	}

	for i, o := range s.Objects {
		a := o.Axis
		if l := math.Sqrt(float64(a.X()*a.X() + a.Y()*a.Y() + a.Z()*a.Z())); math.Abs(l-1) > 1e-5 {
			t.Fatalf("Expected unit rotation axis for object %d, got %v", i, a.Data)
		}

		// Rotation keeps the translation column
		if o.Model.Data[3][0] != o.Pos.X() || o.Model.Data[3][1] != o.Pos.Y() || o.Model.Data[3][2] != o.Pos.Z() {
			t.Fatalf("Expected object %d model matrix to translate to %v, got %v", i, o.Pos.Data, o.Model.Data[3])
		}
	}

	before := s.Objects[0].Model
	s.Update(10)
	if s.Objects[0].Model == before {
		t.Fatalf("Expected Update to spin the objects")
	}
}

func TestSameSeedSameScene(t *testing.T) {

	a := scene.New(scene.DefaultDeferred(), rand.New(rand.NewSource(42)))
	b := scene.New(scene.DefaultDeferred(), rand.New(rand.NewSource(42)))

	for i := range a.Lights {
		if a.Lights[i] != b.Lights[i] {
			t.Fatalf("Expected same lights for the same seed, light %d differs: %s vs %s", i, a.Lights[i], b.Lights[i])
		}
	}
}

func TestLoadConfig(t *testing.T) {

	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := []byte(`
grid:
  start: [0, 0, 0]
  end: [1, 1, 1]
lights:
  count: 3
  fixed:
    - pos: [0, 5, 0]
      intensity: [1, 0.5, 0.25]
camera:
  orbit_radius: 10
`)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := scene.LoadConfig(path, scene.DefaultDeferred())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Grid.End != [3]int{1, 1, 1} || cfg.Grid.Step != [3]float32{1.5, 1.5, 1.5} {
		t.Fatalf("Expected grid end from the file and step from the defaults, got %+v", cfg.Grid)
	}

	if cfg.Lights.Count != 3 || len(cfg.Lights.Fixed) != 1 || cfg.Lights.Fixed[0].Intensity != [3]float32{1, 0.5, 0.25} {
		t.Fatalf("Unexpected lights config %+v", cfg.Lights)
	}

	if cfg.Camera.OrbitRadius != 10 || cfg.Camera.Fov != 45 {
		t.Fatalf("Unexpected camera config %+v", cfg.Camera)
	}
}

func TestInvalidConfig(t *testing.T) {

	tests := []struct {
		name string
		yaml string
	}{
		{"end before start", "grid: {start: [0, 0, 0], end: [-1, 0, 0]}"},
		{"zero step", "grid: {step: [1, 0, 1]}"},
		{"negative lights", "lights: {count: -1}"},
		{"far before near", "camera: {near_clip: 10, far_clip: 1}"},
		{"bad yaml", "grid: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := scene.ParseConfig([]byte(tt.yaml), scene.DefaultDeferred()); !errors.Is(err, scene.ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
