// Package scene builds the demo scene: a grid of spinning cubes lit by randomly placed point lights
package scene

import (
	"math/rand"

	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/gglm/gglm"
)

type Object struct {
	Pos gglm.Vec3
	// Axis is the normalized rotation axis
	Axis  gglm.Vec3
	Model gglm.TrMat
}

// Update sets the model matrix to the object position, rotated by angle radians around its axis
func (o *Object) Update(angle float32) {
	o.Model = gglm.NewTrMatId()
	o.Model.TranslateVec(&o.Pos).Rotate(angle, o.Axis.X(), o.Axis.Y(), o.Axis.Z())
}

type Scene struct {
	Config  Config
	Objects []Object
	Lights  []lights.Light
}

// Update spins every object for time t in seconds
func (s *Scene) Update(t float32) {
	for i := 0; i < len(s.Objects); i++ {
		s.Objects[i].Update(t * s.Config.Spin)
	}
}

// GridPositions returns the cube positions of the grid in x, y, z loop order
func GridPositions(g *GridConfig) []gglm.Vec3 {

	n := (g.End[0] - g.Start[0] + 1) * (g.End[1] - g.Start[1] + 1) * (g.End[2] - g.Start[2] + 1)
	positions := make([]gglm.Vec3, 0, max(n, 0))

	for i := g.Start[0]; i <= g.End[0]; i++ {
		for j := g.Start[1]; j <= g.End[1]; j++ {
			for k := g.Start[2]; k <= g.End[2]; k++ {
				positions = append(positions, gglm.NewVec3(
					float32(i)*g.Step[0],
					float32(j)*g.Step[1],
					float32(k)*g.Step[2],
				))
			}
		}
	}

	return positions
}

// LightBounds is the grid extended by one step on every side
func LightBounds(g *GridConfig) (min, max gglm.Vec3) {
	min = gglm.NewVec3(
		float32(g.Start[0]-1)*g.Step[0],
		float32(g.Start[1]-1)*g.Step[1],
		float32(g.Start[2]-1)*g.Step[2],
	)
	max = gglm.NewVec3(
		float32(g.End[0]+1)*g.Step[0],
		float32(g.End[1]+1)*g.Step[1],
		float32(g.End[2]+1)*g.Step[2],
	)
	return min, max
}

// RandomAxis returns a random unit vector
func RandomAxis(rng *rand.Rand) gglm.Vec3 {

	lo := gglm.NewVec3(-1, -1, -1)
	hi := gglm.NewVec3(1, 1, 1)

	for {
		v := lights.RandVec3(&lo, &hi, rng)
		if v.X() == 0 && v.Y() == 0 && v.Z() == 0 {
			continue
		}

		v.Normalize()
		return v
	}
}

// New builds the scene of cfg. The fixed lights of the config come first, followed by
// cfg.Lights.Count random lights inside LightBounds.
func New(cfg Config, rng *rand.Rand) *Scene {

	s := &Scene{Config: cfg}

	positions := GridPositions(&cfg.Grid)
	s.Objects = make([]Object, len(positions))
	for i := 0; i < len(positions); i++ {
		s.Objects[i] = Object{
			Pos:  positions[i],
			Axis: RandomAxis(rng),
		}
		s.Objects[i].Update(0)
	}

	s.Lights = make([]lights.Light, 0, len(cfg.Lights.Fixed)+cfg.Lights.Count)
	for _, l := range cfg.Lights.Fixed {
		s.Lights = append(s.Lights, lights.Light{
			Pos:       gglm.NewVec3(l.Pos[0], l.Pos[1], l.Pos[2]),
			Intensity: gglm.NewVec3(l.Intensity[0], l.Intensity[1], l.Intensity[2]),
		})
	}

	posMin, posMax := LightBounds(&cfg.Grid)
	iMin := gglm.NewVec3(cfg.Lights.IntensityMin[0], cfg.Lights.IntensityMin[1], cfg.Lights.IntensityMin[2])
	iMax := gglm.NewVec3(cfg.Lights.IntensityMax[0], cfg.Lights.IntensityMax[1], cfg.Lights.IntensityMax[2])
	s.Lights = append(s.Lights, lights.Random(cfg.Lights.Count, posMin, posMax, iMin, iMax, rng)...)

	return s
}
