package deferred

import (
	"errors"
	"fmt"

	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

const ViewPosUniform = "viewPos"

var (
	ErrGeometryPassIncomplete = errors.New("lighting pass requires a completed geometry pass in the current frame")
	ErrInvalidPhase           = errors.New("operation not allowed in the current frame phase")
)

// Phase is where the pipeline is within a frame.
// A frame goes Idle -> Geometry -> GeometryDone -> Lit -> Idle.
type Phase int32

const (
	Phase_Idle Phase = iota
	Phase_Geometry
	Phase_GeometryDone
	Phase_Lit
)

func (p Phase) String() string {

	switch p {
	case Phase_Idle:
		return "Idle"
	case Phase_Geometry:
		return "Geometry"
	case Phase_GeometryDone:
		return "GeometryDone"
	case Phase_Lit:
		return "Lit"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Draw is one mesh drawn in the geometry pass
type Draw struct {
	Mesh  *meshes.Mesh
	Model *gglm.TrMat
}

type Pipeline struct {
	GBuffer *GBuffer
	Quad    *ScreenQuad

	// GeometryProg writes to the G-buffer, LightingProg reads it through texture0..texture2
	GeometryProg shaders.Program
	LightingProg shaders.Program

	Rend renderer.Render

	// ClearColor of the default framebuffer before the lighting pass
	ClearColor gglm.Vec4

	ctx        *gpu.Context
	phase      Phase
	frame      uint64
	lightCount int
}

func (p *Pipeline) Phase() Phase {
	return p.phase
}

// Frame returns the number of frames ended so far
func (p *Pipeline) Frame() uint64 {
	return p.frame
}

func (p *Pipeline) LightCount() int {
	return p.lightCount
}

func (p *Pipeline) expect(want Phase, op string) error {

	if p.phase != want {
		return fmt.Errorf("%w: %s needs phase %s but pipeline is in %s", ErrInvalidPhase, op, want, p.phase)
	}

	return nil
}

// BeginGeometryPass binds and clears the G-buffer and sets the viewport to its size
func (p *Pipeline) BeginGeometryPass() error {

	if err := p.expect(Phase_Idle, "BeginGeometryPass"); err != nil {
		return err
	}

	p.GBuffer.Clear()
	p.GBuffer.Fbo.BindWithViewport()

	p.phase = Phase_Geometry
	return nil
}

func (p *Pipeline) DrawMesh(mesh *meshes.Mesh, modelMat *gglm.TrMat, cam *camera.Camera) error {

	if err := p.expect(Phase_Geometry, "DrawMesh"); err != nil {
		return err
	}

	p.Rend.DrawMesh(mesh, modelMat, cam, p.GeometryProg)
	return nil
}

func (p *Pipeline) EndGeometryPass() error {

	if err := p.expect(Phase_Geometry, "EndGeometryPass"); err != nil {
		return err
	}

	p.GBuffer.Unbind()
	p.phase = Phase_GeometryDone
	return nil
}

// LightingPass draws the lit scene to the default framebuffer from the G-buffer filled this frame
func (p *Pipeline) LightingPass(cam *camera.Camera) error {

	switch p.phase {
	case Phase_GeometryDone:
	case Phase_Idle, Phase_Geometry:
		return fmt.Errorf("%w: pipeline is in %s", ErrGeometryPassIncomplete, p.phase)
	default:
		return p.expect(Phase_GeometryDone, "LightingPass")
	}

	w, h := p.ctx.DefaultSize()
	p.ctx.BindFramebuffer(0)
	p.ctx.Gl.Viewport(0, 0, w, h)

	c := &p.ClearColor
	p.ctx.Gl.ClearColor(c.Data[0], c.Data[1], c.Data[2], c.Data[3])
	p.ctx.Gl.Clear(gpu.ClearBit_Color | gpu.ClearBit_Depth)

	p.LightingProg.SetUnifVec3(ViewPosUniform, &cam.Pos)
	p.Quad.Draw(p.LightingProg)

	p.phase = Phase_Lit
	return nil
}

// EndFrame finishes the frame. The window is presented after this.
func (p *Pipeline) EndFrame() error {

	if err := p.expect(Phase_Lit, "EndFrame"); err != nil {
		return err
	}

	p.Rend.FrameEnd()
	p.frame++
	p.phase = Phase_Idle
	return nil
}

// RenderFrame runs a whole frame: geometry pass over draws, lighting pass, end of frame
func (p *Pipeline) RenderFrame(cam *camera.Camera, draws []Draw) error {

	if err := p.BeginGeometryPass(); err != nil {
		return err
	}

	for i := 0; i < len(draws); i++ {
		if err := p.DrawMesh(draws[i].Mesh, draws[i].Model, cam); err != nil {
			return err
		}
	}

	if err := p.EndGeometryPass(); err != nil {
		return err
	}

	if err := p.LightingPass(cam); err != nil {
		return err
	}

	return p.EndFrame()
}

// SetLights uploads the lights to the lighting program and returns how many were uploaded
func (p *Pipeline) SetLights(ls []lights.Light) int {
	p.lightCount = lights.Upload(p.LightingProg, ls)
	return p.lightCount
}

func (p *Pipeline) Delete() {
	p.Quad.Delete()
	p.GBuffer.Delete()
}

// NewPipeline creates a G-buffer of the given size and a screen quad sampling its attachments
func NewPipeline(ctx *gpu.Context, rend renderer.Render, width, height int32, geometryProg, lightingProg shaders.Program) (*Pipeline, error) {

	gbuf, err := NewGBuffer(ctx, width, height)
	if err != nil {
		return nil, err
	}

	quad, err := NewScreenQuad(ctx, rend, gbuf.TextureRefs())
	if err != nil {
		gbuf.Delete()
		return nil, err
	}

	return &Pipeline{
		GBuffer:      gbuf,
		Quad:         quad,
		GeometryProg: geometryProg,
		LightingProg: lightingProg,
		Rend:         rend,
		ClearColor:   gglm.Vec4{Data: [4]float32{0, 0, 0, 1}},
		ctx:          ctx,
	}, nil
}
