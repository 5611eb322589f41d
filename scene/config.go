package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes the demo scene. Files only need the fields they change, everything else
// keeps the value of the config they are loaded over.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	Lights   LightsConfig   `yaml:"lights"`
	Camera   CameraConfig   `yaml:"camera"`
	Textures TexturesConfig `yaml:"textures"`

	// Spin is the rotation speed of each cube around its axis, in radians per second
	Spin float32 `yaml:"spin"`
}

// GridConfig places one cube at every Start + i*Step, for i from 0 to End-Start inclusive on each axis
type GridConfig struct {
	Start [3]int     `yaml:"start"`
	End   [3]int     `yaml:"end"`
	Step  [3]float32 `yaml:"step"`
}

type LightsConfig struct {
	// Count of random lights. Overridden by the --lights flag when set.
	Count        int        `yaml:"count"`
	IntensityMin [3]float32 `yaml:"intensity_min"`
	IntensityMax [3]float32 `yaml:"intensity_max"`

	// Fixed lights placed before the random ones
	Fixed []LightConfig `yaml:"fixed"`
}

type LightConfig struct {
	Pos       [3]float32 `yaml:"pos"`
	Intensity [3]float32 `yaml:"intensity"`
}

type CameraConfig struct {
	Pos [3]float32 `yaml:"pos"`
	// OrbitRadius and OrbitSpeed (radians per second) are used by the deferred demo
	OrbitRadius float32 `yaml:"orbit_radius"`
	OrbitSpeed  float32 `yaml:"orbit_speed"`
	Fov         float32 `yaml:"fov"`
	NearClip    float32 `yaml:"near_clip"`
	FarClip     float32 `yaml:"far_clip"`
}

type TexturesConfig struct {
	Color     string `yaml:"color"`
	Normal    string `yaml:"normal"`
	Roughness string `yaml:"roughness"`
}

var ErrInvalidConfig = errors.New("invalid scene config")

func defaultTextures() TexturesConfig {
	return TexturesConfig{
		Color:     "./res/textures/brownrock/colour.png",
		Normal:    "./res/textures/brownrock/normal.png",
		Roughness: "./res/textures/brownrock/roughness.png",
	}
}

// DefaultDeferred is a 7x7x7 grid of cubes around the origin, watched by an orbiting camera
func DefaultDeferred() Config {
	return Config{
		Grid: GridConfig{
			Start: [3]int{-3, -3, -3},
			End:   [3]int{3, 3, 3},
			Step:  [3]float32{1.5, 1.5, 1.5},
		},
		Lights: LightsConfig{
			Count:        64,
			IntensityMin: [3]float32{0, 0, 0},
			IntensityMax: [3]float32{1, 1, 1},
		},
		Camera: CameraConfig{
			OrbitRadius: 18,
			OrbitSpeed:  1.0 / 6,
			Fov:         45,
			NearClip:    0.1,
			FarClip:     100,
		},
		Textures: defaultTextures(),
		Spin:     1.0 / 3,
	}
}

// DefaultImmediate is an 8x8x8 grid of cubes starting at the origin, explored with a fly camera
func DefaultImmediate() Config {
	return Config{
		Grid: GridConfig{
			Start: [3]int{0, 0, 0},
			End:   [3]int{7, 7, 7},
			Step:  [3]float32{1.5, 1.5, 1.5},
		},
		Lights: LightsConfig{
			Count:        64,
			IntensityMin: [3]float32{0, 0, 0},
			IntensityMax: [3]float32{1, 1, 1},
		},
		Camera: CameraConfig{
			Pos:      [3]float32{0, 0, -2},
			Fov:      45,
			NearClip: 0.1,
			FarClip:  100,
		},
		Textures: defaultTextures(),
		Spin:     1.0 / 3,
	}
}

func (c *Config) Validate() error {

	for i := 0; i < 3; i++ {

		if c.Grid.End[i] < c.Grid.Start[i] {
			return fmt.Errorf("%w: grid end %v is before start %v", ErrInvalidConfig, c.Grid.End, c.Grid.Start)
		}

		if c.Grid.Step[i] <= 0 {
			return fmt.Errorf("%w: grid step %v must be positive", ErrInvalidConfig, c.Grid.Step)
		}

		if c.Lights.IntensityMax[i] < c.Lights.IntensityMin[i] {
			return fmt.Errorf("%w: light intensity max %v is below min %v", ErrInvalidConfig, c.Lights.IntensityMax, c.Lights.IntensityMin)
		}
	}

	if c.Lights.Count < 0 {
		return fmt.Errorf("%w: negative light count %d", ErrInvalidConfig, c.Lights.Count)
	}

	if c.Camera.NearClip <= 0 || c.Camera.FarClip <= c.Camera.NearClip {
		return fmt.Errorf("%w: camera clip planes near=%f far=%f", ErrInvalidConfig, c.Camera.NearClip, c.Camera.FarClip)
	}

	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("%w: camera fov %f must be in (0,180) degrees", ErrInvalidConfig, c.Camera.Fov)
	}

	return nil
}

// ParseConfig parses yaml over base and validates the result
func ParseConfig(data []byte, base Config) (Config, error) {

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads the scene file at path over base
func LoadConfig(path string, base Config) (Config, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig(data, base)
}
