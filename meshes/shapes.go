package meshes

import (
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/gglm/gglm"
)

// Position and UV of each cube vertex, four per face
var cubeData = [24][5]float32{
	// Back
	{-0.5, -0.5, -0.5, 0, 0},
	{-0.5, 0.5, -0.5, 0, 1},
	{0.5, 0.5, -0.5, 1, 1},
	{0.5, -0.5, -0.5, 1, 0},

	// Front
	{-0.5, -0.5, 0.5, 0, 0},
	{0.5, -0.5, 0.5, 1, 0},
	{0.5, 0.5, 0.5, 1, 1},
	{-0.5, 0.5, 0.5, 0, 1},

	// Left
	{-0.5, 0.5, 0.5, 1, 0},
	{-0.5, 0.5, -0.5, 1, 1},
	{-0.5, -0.5, -0.5, 0, 1},
	{-0.5, -0.5, 0.5, 0, 0},

	// Right
	{0.5, 0.5, 0.5, 1, 0},
	{0.5, -0.5, 0.5, 0, 0},
	{0.5, -0.5, -0.5, 0, 1},
	{0.5, 0.5, -0.5, 1, 1},

	// Bottom
	{-0.5, -0.5, -0.5, 0, 1},
	{0.5, -0.5, -0.5, 1, 1},
	{0.5, -0.5, 0.5, 1, 0},
	{-0.5, -0.5, 0.5, 0, 0},

	// Top
	{-0.5, 0.5, -0.5, 0, 1},
	{-0.5, 0.5, 0.5, 0, 0},
	{0.5, 0.5, 0.5, 1, 0},
	{0.5, 0.5, -0.5, 1, 1},
}

// FullscreenQuadIndices are the indices of the two counter clockwise triangles of GenFullscreenQuad
var FullscreenQuadIndices = []uint32{1, 0, 2, 3, 2, 0}

// CubeVertices returns the 24 vertices of a unit cube centered on the origin, with outward normals
func CubeVertices() ([]Vertex, []uint32) {

	vertices := make([]Vertex, len(cubeData))
	for i := 0; i < len(cubeData); i++ {
		d := &cubeData[i]
		vertices[i] = Vertex{
			Pos: gglm.NewVec3(d[0], d[1], d[2]),
			UV:  gglm.Vec2{Data: [2]float32{d[3], d[4]}},
		}
	}

	indices := make([]uint32, 0, 36)
	for i := uint32(0); i < uint32(len(vertices)); i += 4 {
		indices = append(indices, i, i+1, i+2, i+2, i+3, i)
	}

	AutoGenerateNormals(vertices, indices)
	return vertices, indices
}

func GenCubeMesh(ctx *gpu.Context, textures ...gpu.Ref) (Mesh, error) {
	vertices, indices := CubeVertices()
	return NewMeshFromVertices(ctx, "Cube", vertices, indices, textures...)
}

// FullscreenQuadVertices returns a quad covering normalized device coordinates [-1,1]²
// with UVs covering [0,1]² and normals facing +Z
func FullscreenQuadVertices() []Vertex {

	normal := gglm.NewVec3(0, 0, 1)
	return []Vertex{
		{Pos: gglm.NewVec3(-1, -1, 0), Normal: normal, UV: gglm.Vec2{Data: [2]float32{0, 0}}},
		{Pos: gglm.NewVec3(-1, 1, 0), Normal: normal, UV: gglm.Vec2{Data: [2]float32{0, 1}}},
		{Pos: gglm.NewVec3(1, 1, 0), Normal: normal, UV: gglm.Vec2{Data: [2]float32{1, 1}}},
		{Pos: gglm.NewVec3(1, -1, 0), Normal: normal, UV: gglm.Vec2{Data: [2]float32{1, 0}}},
	}
}

func GenFullscreenQuad(ctx *gpu.Context, textures ...gpu.Ref) (Mesh, error) {
	return NewMeshFromVertices(ctx, "FullscreenQuad", FullscreenQuadVertices(), FullscreenQuadIndices, textures...)
}
