package meshes

import (
	"errors"
	"fmt"

	"github.com/bloeys/assimp-go/asig"
	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/gglm/gglm"
)

type Vertex struct {
	Pos    gglm.Vec3
	Normal gglm.Vec3
	UV     gglm.Vec2
}

type Mesh struct {
	Name string
	/*
		Vao has the following shader attribute layout:
			- Loc0: Pos
			- Loc1: Normal
			- Loc2: UV0
	*/
	Vao buffers.VertexArray

	// Textures are bound to texture units 0..n-1 when the mesh is drawn.
	// The mesh holds a reference to each of them.
	Textures []gpu.Ref

	ctx *gpu.Context
}

func (m *Mesh) IndexCount() int32 {
	return m.Vao.IndexBuffer.IndexBufCount
}

// Delete releases the mesh buffers and its references to its textures
func (m *Mesh) Delete() {

	m.Vao.Delete()

	for i := 0; i < len(m.Textures); i++ {
		m.ctx.Res.Release(m.Textures[i])
	}
	m.Textures = nil
}

var (
	// DefaultMeshLoadFlags are the flags always applied when loading a new mesh regardless
	// of what post process flags are used when loading a mesh.
	DefaultMeshLoadFlags asig.PostProcess = asig.PostProcessTriangulate

	ErrInvalidMesh = errors.New("invalid mesh data")
)

// VertexLayout is the layout of every mesh vertex buffer
func VertexLayout() []buffers.Element {
	return []buffers.Element{
		{ElementType: buffers.DataTypeVec3}, // Position
		{ElementType: buffers.DataTypeVec3}, // Normal
		{ElementType: buffers.DataTypeVec2}, // UV0
	}
}

// NewMeshFromVertices uploads the vertices and triangle indices into a new vertex array.
// The mesh retains each texture.
func NewMeshFromVertices(ctx *gpu.Context, name string, vertices []Vertex, indices []uint32, textures ...gpu.Ref) (Mesh, error) {

	if len(vertices) == 0 || len(indices) == 0 {
		return Mesh{}, fmt.Errorf("%w: mesh '%s' has %d vertices and %d indices", ErrInvalidMesh, name, len(vertices), len(indices))
	}

	if len(indices)%3 != 0 {
		return Mesh{}, fmt.Errorf("%w: mesh '%s' index count %d is not a multiple of 3", ErrInvalidMesh, name, len(indices))
	}

	for i := 0; i < len(indices); i++ {
		if int(indices[i]) >= len(vertices) {
			return Mesh{}, fmt.Errorf("%w: mesh '%s' index %d at position %d is out of range of %d vertices", ErrInvalidMesh, name, indices[i], i, len(vertices))
		}
	}

	mesh := Mesh{
		Name:     name,
		Vao:      buffers.NewVertexArray(ctx),
		Textures: make([]gpu.Ref, 0, len(textures)),
		ctx:      ctx,
	}

	vbo := buffers.NewVertexBuffer(ctx, VertexLayout()...)
	vbo.SetData(interleave(vertices), gpu.BufUsage_Static_Draw)

	mesh.Vao.AddVertexBuffer(vbo)
	mesh.Vao.SetIndexBuffer(buffers.NewIndexBuffer(ctx), indices)

	for i := 0; i < len(textures); i++ {
		mesh.Textures = append(mesh.Textures, ctx.Res.Retain(textures[i]))
	}

	return mesh, nil
}

// LoadMesh imports a model file. All sub-meshes are merged into one vertex array, and
// normals are generated for sub-meshes that don't have them.
func LoadMesh(ctx *gpu.Context, name, modelPath string, postProcessFlags asig.PostProcess, textures ...gpu.Ref) (Mesh, error) {

	finalPostProcessFlags := DefaultMeshLoadFlags | postProcessFlags

	scene, release, err := asig.ImportFile(modelPath, finalPostProcessFlags)
	if err != nil {
		return Mesh{}, errors.New("Failed to load model. Err: " + err.Error())
	}
	defer release()

	if len(scene.Meshes) == 0 {
		return Mesh{}, errors.New("No meshes found in file: " + modelPath)
	}

	vertices := make([]Vertex, 0, len(scene.Meshes[0].Vertices))
	indices := make([]uint32, 0, len(scene.Meshes[0].Faces)*3)

	for i := 0; i < len(scene.Meshes); i++ {

		sceneMesh := scene.Meshes[i]
		baseVertex := uint32(len(vertices))
		hasNormals := len(sceneMesh.Normals) == len(sceneMesh.Vertices)
		hasUv0 := len(sceneMesh.TexCoords[0]) == len(sceneMesh.Vertices)

		subVerts := make([]Vertex, len(sceneMesh.Vertices))
		for j := 0; j < len(sceneMesh.Vertices); j++ {

			subVerts[j].Pos = sceneMesh.Vertices[j]

			if hasNormals {
				subVerts[j].Normal = sceneMesh.Normals[j]
			}

			if hasUv0 {
				uv := &sceneMesh.TexCoords[0][j]
				subVerts[j].UV = gglm.Vec2{Data: [2]float32{uv.X(), uv.Y()}}
			}
		}

		subIndices, err := flattenFaces(sceneMesh.Faces)
		if err != nil {
			return Mesh{}, fmt.Errorf("sub-mesh %d of '%s': %w", i, modelPath, err)
		}

		if !hasNormals {
			logging.WarnLog.Printf("Sub-mesh %d of '%s' has no normals, generating them\n", i, modelPath)
			AutoGenerateNormals(subVerts, subIndices)
		}

		for j := 0; j < len(subIndices); j++ {
			subIndices[j] += baseVertex
		}

		vertices = append(vertices, subVerts...)
		indices = append(indices, subIndices...)
	}

	return NewMeshFromVertices(ctx, name, vertices, indices, textures...)
}

// AutoGenerateNormals sets the normal of every vertex to the normalized sum of the normals
// of the triangles using it. Larger triangles weigh more.
func AutoGenerateNormals(vertices []Vertex, indices []uint32) {

	for i := 0; i < len(vertices); i++ {
		vertices[i].Normal = gglm.Vec3{}
	}

	for i := 0; i+2 < len(indices); i += 3 {

		v0 := &vertices[indices[i]]
		v1 := &vertices[indices[i+1]]
		v2 := &vertices[indices[i+2]]

		e1 := v1.Pos.Clone().Add(v0.Pos.Clone().Scale(-1))
		e2 := v2.Pos.Clone().Add(v0.Pos.Clone().Scale(-1))
		faceNormal := gglm.Cross(e1, e2)

		v0.Normal.Add(faceNormal.Clone())
		v1.Normal.Add(faceNormal.Clone())
		v2.Normal.Add(faceNormal.Clone())
	}

	for i := 0; i < len(vertices); i++ {

		n := &vertices[i].Normal
		if n.X() == 0 && n.Y() == 0 && n.Z() == 0 {
			continue
		}

		n.Normalize()
	}
}

func interleave(vertices []Vertex) []float32 {

	out := make([]float32, 0, len(vertices)*8)
	for i := 0; i < len(vertices); i++ {
		v := &vertices[i]
		out = append(out, v.Pos.Data[:]...)
		out = append(out, v.Normal.Data[:]...)
		out = append(out, v.UV.Data[:]...)
	}

	return out
}

func flattenFaces(faces []asig.Face) ([]uint32, error) {

	uints := make([]uint32, len(faces)*3)
	for i := 0; i < len(faces); i++ {

		if len(faces[i].Indices) != 3 {
			return nil, fmt.Errorf("%w: face %d has %d indices instead of 3", ErrInvalidMesh, i, len(faces[i].Indices))
		}

		uints[i*3+0] = uint32(faces[i].Indices[0])
		uints[i*3+1] = uint32(faces[i].Indices[1])
		uints[i*3+2] = uint32(faces[i].Indices[2])
	}

	return uints, nil
}
