package lights_test

import (
	"math/rand"
	"testing"

	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/deferred/softgl"
	"github.com/bloeys/gglm/gglm"
)

func TestPackUnpack(t *testing.T) {

	in := []lights.Light{
		{Pos: gglm.NewVec3(1, 2, 3), Intensity: gglm.NewVec3(0.1, 0.2, 0.3)},
		{Pos: gglm.NewVec3(-4, 5, -6), Intensity: gglm.NewVec3(1, 0, 0.5)},
	}

	data := lights.Pack(in)
	want := []float32{1, 2, 3, 0.1, 0.2, 0.3, -4, 5, -6, 1, 0, 0.5}
	if len(data) != len(want) {
		t.Fatalf("Expected %d floats, got %d", len(want), len(data))
	}

	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("Expected packed data %v, got %v", want, data)
		}
	}

	out, err := lights.Unpack(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for i := range in {
		if out[i].Pos.Data != in[i].Pos.Data || out[i].Intensity.Data != in[i].Intensity.Data {
			t.Fatalf("Light %d changed after unpacking: %s vs %s", i, in[i], out[i])
		}
	}

	if _, err := lights.Unpack(data[:7]); err == nil {
		t.Fatalf("Expected error unpacking data that isn't a multiple of %d", lights.Stride)
	}
}

func TestUploadRoundTrip(t *testing.T) {

	const k = 17

	rng := rand.New(rand.NewSource(1))
	in := lights.Random(k, gglm.NewVec3(-1, -1, -1), gglm.NewVec3(1, 1, 1), gglm.NewVec3(0, 0, 0), gglm.NewVec3(1, 1, 1), rng)

	prog := softgl.New(1, 1).NewProgram("lighting", nil, nil)
	if n := lights.Upload(prog, in); n != k {
		t.Fatalf("Expected %d lights uploaded, got %d", k, n)
	}

	if count, _ := prog.Int32(lights.CountUniform); count != k {
		t.Fatalf("Expected lightCount %d, got %d", k, count)
	}

	out, err := lights.Unpack(prog.Floats(lights.ArrayUniform))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out) != k {
		t.Fatalf("Expected %d lights read back, got %d", k, len(out))
	}

	for i := range in {
		if out[i].Pos.Data != in[i].Pos.Data || out[i].Intensity.Data != in[i].Intensity.Data {
			t.Fatalf("Light %d changed on upload: %s vs %s", i, in[i], out[i])
		}
	}
}

func TestUploadTruncates(t *testing.T) {

	in := make([]lights.Light, lights.MaxLights+5)
	prog := softgl.New(1, 1).NewProgram("lighting", nil, nil)

	if n := lights.Upload(prog, in); n != lights.MaxLights {
		t.Fatalf("Expected upload to stop at %d lights, got %d", lights.MaxLights, n)
	}

	if got := len(prog.Floats(lights.ArrayUniform)); got != lights.MaxLights*lights.Stride {
		t.Fatalf("Expected %d floats uploaded, got %d", lights.MaxLights*lights.Stride, got)
	}
}

func TestRandomBounds(t *testing.T) {

	rng := rand.New(rand.NewSource(42))
	posMin, posMax := gglm.NewVec3(-6, -6, -6), gglm.NewVec3(6, 6, 6)

	for _, l := range lights.Random(200, posMin, posMax, gglm.NewVec3(0, 0, 0), gglm.NewVec3(1, 1, 1), rng) {
		for c := 0; c < 3; c++ {
			if l.Pos.Data[c] < -6 || l.Pos.Data[c] > 6 || l.Intensity.Data[c] < 0 || l.Intensity.Data[c] > 1 {
				t.Fatalf("Light out of bounds: %s", l)
			}
		}
	}
}
