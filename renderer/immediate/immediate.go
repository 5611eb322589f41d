// Package immediate draws every mesh straight to the screen with per-fragment lighting over the
// whole light array. It is the reference the deferred renderer is compared against.
package immediate

import (
	"errors"

	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

const ViewPosUniform = "viewPos"

var ErrFrameNotStarted = errors.New("immediate renderer: draw outside of BeginFrame/EndFrame")

type Draw struct {
	Mesh  *meshes.Mesh
	Model *gglm.TrMat
}

type Renderer struct {
	Prog shaders.Program
	Rend renderer.Render

	ClearColor gglm.Vec4

	ctx        *gpu.Context
	cam        *camera.Camera
	lightCount int
}

func (r *Renderer) LightCount() int {
	return r.lightCount
}

// BeginFrame binds and clears the default framebuffer and uploads the camera position
func (r *Renderer) BeginFrame(cam *camera.Camera) {

	w, h := r.ctx.DefaultSize()
	r.ctx.BindFramebuffer(0)
	r.ctx.Gl.Viewport(0, 0, w, h)

	c := &r.ClearColor
	r.ctx.Gl.ClearColor(c.Data[0], c.Data[1], c.Data[2], c.Data[3])
	r.ctx.Gl.Clear(gpu.ClearBit_Color | gpu.ClearBit_Depth)

	r.Prog.SetUnifVec3(ViewPosUniform, &cam.Pos)
	r.cam = cam
}

func (r *Renderer) DrawMesh(mesh *meshes.Mesh, modelMat *gglm.TrMat) error {

	if r.cam == nil {
		return ErrFrameNotStarted
	}

	r.Rend.DrawMesh(mesh, modelMat, r.cam, r.Prog)
	return nil
}

func (r *Renderer) EndFrame() {
	r.Rend.FrameEnd()
	r.cam = nil
}

func (r *Renderer) RenderFrame(cam *camera.Camera, draws []Draw) error {

	r.BeginFrame(cam)
	for i := 0; i < len(draws); i++ {
		if err := r.DrawMesh(draws[i].Mesh, draws[i].Model); err != nil {
			return err
		}
	}

	r.EndFrame()
	return nil
}

// SetLights uploads the lights to the forward program and returns how many were uploaded
func (r *Renderer) SetLights(ls []lights.Light) int {
	r.lightCount = lights.Upload(r.Prog, ls)
	return r.lightCount
}

func New(ctx *gpu.Context, rend renderer.Render, prog shaders.Program) *Renderer {
	return &Renderer{
		Prog:       prog,
		Rend:       rend,
		ClearColor: gglm.Vec4{Data: [4]float32{0, 0, 0, 1}},
		ctx:        ctx,
	}
}
