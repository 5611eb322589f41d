package rend3dgl

import (
	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

var _ renderer.Render = &Rend3DGL{}

type FrameStats struct {
	DrawCalls int
	Triangles int
}

// Rend3DGL draws through the context, which skips binds of what is already bound
type Rend3DGL struct {
	// Stats of the frame being drawn, and of the last finished one
	Stats     FrameStats
	LastStats FrameStats

	ctx *gpu.Context
}

func (r *Rend3DGL) DrawMesh(mesh *meshes.Mesh, modelMat *gglm.TrMat, cam *camera.Camera, prog shaders.Program) {

	prog.SetUnifMat4(renderer.ModelMatUniform, &modelMat.Mat4)

	mvp := cam.ProjMat.Clone().Mul(&cam.ViewMat).Mul(&modelMat.Mat4)
	prog.SetUnifMat4(renderer.MvpMatUniform, mvp)

	r.DrawVertexArray(prog, &mesh.Vao, mesh.Textures)
}

func (r *Rend3DGL) DrawVertexArray(prog shaders.Program, vao *buffers.VertexArray, textures []gpu.Ref) {

	vao.Bind()
	r.ctx.UseProgram(prog.Id())

	for i := 0; i < len(textures); i++ {
		unit := uint32(i)
		shaders.SetTexture(r.ctx, prog, unit, shaders.SamplerName(unit), textures[i].Id)
	}

	indexCount := vao.IndexBuffer.IndexBufCount
	r.ctx.Gl.DrawElements(indexCount)
	r.ctx.ActiveTexture(0)

	r.Stats.DrawCalls++
	r.Stats.Triangles += int(indexCount / 3)
}

func (r *Rend3DGL) FrameEnd() {
	r.LastStats = r.Stats
	r.Stats = FrameStats{}
}

func NewRend3DGL(ctx *gpu.Context) *Rend3DGL {
	return &Rend3DGL{ctx: ctx}
}
