package immediate_test

import (
	"errors"
	"testing"

	"github.com/bloeys/deferred/assets"
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer/immediate"
	"github.com/bloeys/deferred/renderer/rend3dgl"
	"github.com/bloeys/deferred/softgl"
	"github.com/bloeys/gglm/gglm"
)

func TestForwardMatchesAmbient(t *testing.T) {

	backend := softgl.New(16, 16)
	ctx := gpu.NewContext(backend, 16, 16)
	prog := softgl.NewForwardProgram(backend)
	rend := rend3dgl.NewRend3DGL(ctx)
	r := immediate.New(ctx, rend, prog)

	tex, err := assets.NewSolidTexture(ctx, 255, 0, 0, 255, &assets.TextureLoadOptions{NoSrgba: true})
	if err != nil {
		t.Fatal(err)
	}

	quad, err := meshes.GenFullscreenQuad(ctx, tex.Ref)
	if err != nil {
		t.Fatal(err)
	}

	id := gglm.NewTrMatId()
	cam := &camera.Camera{ProjMat: id.Mat4, ViewMat: id.Mat4}

	if err := r.DrawMesh(&quad, &id); !errors.Is(err, immediate.ErrFrameNotStarted) {
		t.Fatalf("Expected drawing before BeginFrame to fail, got %v", err)
	}

	if n := r.SetLights(nil); n != 0 {
		t.Fatalf("Expected no lights, got %d", n)
	}

	if err := r.RenderFrame(cam, []immediate.Draw{{Mesh: &quad, Model: &id}, {Mesh: &quad, Model: &id}}); err != nil {
		t.Fatal(err)
	}

	draws := backend.Draws()
	if len(draws) != 2 || draws[0].Framebuffer != 0 || draws[0].Textures[0] != tex.TexID() {
		t.Fatalf("Expected two draws to the screen with the mesh texture bound, got %+v", draws)
	}

	if rend.LastStats.DrawCalls != 2 || rend.LastStats.Triangles != 4 {
		t.Fatalf("Expected 2 draw calls of 4 triangles, got %+v", rend.LastStats)
	}

	pixels := backend.ReadPixels(0, 0, 16, 16)
	for i := 0; i < len(pixels); i += 4 {
		if r := pixels[i]; r < 25 || r > 26 || pixels[i+1] != 0 || pixels[i+2] != 0 {
			t.Fatalf("Expected ambient only red at pixel %d, got %v", i/4, pixels[i:i+4])
		}
	}
}

func TestForwardLightUpload(t *testing.T) {

	backend := softgl.New(4, 4)
	ctx := gpu.NewContext(backend, 4, 4)
	prog := softgl.NewForwardProgram(backend)
	r := immediate.New(ctx, rend3dgl.NewRend3DGL(ctx), prog)

	ls := make([]lights.Light, lights.MaxLights+5)
	if n := r.SetLights(ls); n != lights.MaxLights || r.LightCount() != lights.MaxLights {
		t.Fatalf("Expected lights truncated to %d, got %d", lights.MaxLights, n)
	}

	if got := len(prog.Floats(lights.ArrayUniform)); got != lights.MaxLights*lights.Stride {
		t.Fatalf("Expected %d floats uploaded, got %d", lights.MaxLights*lights.Stride, got)
	}
}
