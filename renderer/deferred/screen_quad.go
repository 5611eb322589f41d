package deferred

import (
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

// ScreenQuad draws a quad covering the whole viewport with a list of textures bound to
// texture units 0..n-1 in the order they were given.
type ScreenQuad struct {
	mesh meshes.Mesh
	rend renderer.Render
}

// Textures returns the textures in texture unit order
func (q *ScreenQuad) Textures() []gpu.Ref {
	return append([]gpu.Ref(nil), q.mesh.Textures...)
}

func (q *ScreenQuad) Draw(prog shaders.Program) {
	q.rend.DrawVertexArray(prog, &q.mesh.Vao, q.mesh.Textures)
}

// DrawWithCamera draws the same as Draw. The quad is in normalized device coordinates,
// so the camera and model matrix are not used.
func (q *ScreenQuad) DrawWithCamera(cam *camera.Camera, prog shaders.Program, modelMat *gglm.TrMat) {
	q.Draw(prog)
}

// Delete releases the quad's buffers and its references to the textures
func (q *ScreenQuad) Delete() {
	q.mesh.Delete()
}

// NewScreenQuad creates the quad and retains each texture
func NewScreenQuad(ctx *gpu.Context, rend renderer.Render, textures []gpu.Ref) (*ScreenQuad, error) {

	mesh, err := meshes.GenFullscreenQuad(ctx, textures...)
	if err != nil {
		return nil, err
	}

	return &ScreenQuad{
		mesh: mesh,
		rend: rend,
	}, nil
}
