// Package lights holds the point lights shared by the renderers and their GPU packing.
//
// A light is uploaded as a GLSL mat2x3: column 0 is the world position and column 1 the
// intensity, six floats per light with no padding.
package lights

import (
	"fmt"
	"math/rand"

	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

// MaxLights is the size of the light array in the lighting shaders
const MaxLights = 100

// Stride is the number of floats of one packed light
const Stride = 6

const (
	ArrayUniform = "lights[0]"
	CountUniform = "lightCount"
)

type Light struct {
	Pos       gglm.Vec3
	Intensity gglm.Vec3
}

func (l Light) String() string {
	return fmt.Sprintf("Light{Pos: %v, Intensity: %v}", l.Pos.Data, l.Intensity.Data)
}

// Pack lays out lights as consecutive column major mat2x3 values
func Pack(lights []Light) []float32 {

	data := make([]float32, 0, len(lights)*Stride)
	for i := 0; i < len(lights); i++ {
		data = append(data, lights[i].Pos.Data[:]...)
		data = append(data, lights[i].Intensity.Data[:]...)
	}

	return data
}

// Unpack is the inverse of Pack
func Unpack(data []float32) ([]Light, error) {

	if len(data)%Stride != 0 {
		return nil, fmt.Errorf("packed light data has %d floats, which is not a multiple of %d", len(data), Stride)
	}

	lights := make([]Light, len(data)/Stride)
	for i := 0; i < len(lights); i++ {
		d := data[i*Stride:]
		lights[i].Pos = gglm.NewVec3(d[0], d[1], d[2])
		lights[i].Intensity = gglm.NewVec3(d[3], d[4], d[5])
	}

	return lights, nil
}

// Upload sets the light array and count uniforms of the program. Lights past MaxLights are dropped
// with a warning. Returns the number of lights uploaded.
func Upload(prog shaders.Program, lights []Light) int {

	if len(lights) > MaxLights {
		logging.WarnLog.Printf("got %d lights but shaders only support %d, extra lights will be ignored\n", len(lights), MaxLights)
		lights = lights[:MaxLights]
	}

	prog.SetUnifMat2x3Array(ArrayUniform, Pack(lights))
	prog.SetUnifInt32(CountUniform, int32(len(lights)))
	return len(lights)
}

// Random returns n lights with positions and intensities uniformly distributed within the given bounds
func Random(n int, posMin, posMax, intensityMin, intensityMax gglm.Vec3, rng *rand.Rand) []Light {

	lights := make([]Light, n)
	for i := 0; i < n; i++ {
		lights[i] = Light{
			Intensity: RandVec3(&intensityMin, &intensityMax, rng),
			Pos:       RandVec3(&posMin, &posMax, rng),
		}
	}

	return lights
}

// RandVec3 returns a vector with each component uniformly distributed in [min, max]
func RandVec3(min, max *gglm.Vec3, rng *rand.Rand) gglm.Vec3 {
	return gglm.NewVec3(
		min.X()+rng.Float32()*(max.X()-min.X()),
		min.Y()+rng.Float32()*(max.Y()-min.Y()),
		min.Z()+rng.Float32()*(max.Z()-min.Z()),
	)
}
