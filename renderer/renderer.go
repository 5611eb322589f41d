package renderer

import (
	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
)

// Uniforms set on every mesh draw
const (
	ModelMatUniform = "mMx"
	MvpMatUniform   = "mvpMx"
)

type Render interface {
	DrawMesh(mesh *meshes.Mesh, modelMat *gglm.TrMat, cam *camera.Camera, prog shaders.Program)
	// DrawVertexArray binds textures[i] to texture unit i, sets sampler "texture<i>" to i and draws
	DrawVertexArray(prog shaders.Program, vao *buffers.VertexArray, textures []gpu.Ref)
	FrameEnd()
}
