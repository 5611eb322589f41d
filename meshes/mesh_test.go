package meshes_test

import (
	"errors"
	"math"
	"testing"

	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/softgl"
)

func TestCubeNormalsPointOutwards(t *testing.T) {

	vertices, indices := meshes.CubeVertices()
	if len(vertices) != 24 || len(indices) != 36 {
		t.Fatalf("Expected 24 vertices and 36 indices, got %d and %d", len(vertices), len(indices))
	}

	for i, v := range vertices {

		n := v.Normal
		if l := math.Sqrt(float64(n.X()*n.X() + n.Y()*n.Y() + n.Z()*n.Z())); math.Abs(l-1) > 1e-5 {
			t.Fatalf("Expected unit normal at vertex %d, got %v", i, n.Data)
		}

		// Each face normal is axis aligned and points the same way as the vertex position on that axis
		if d := n.X()*v.Pos.X() + n.Y()*v.Pos.Y() + n.Z()*v.Pos.Z(); math.Abs(float64(d)-0.5) > 1e-5 {
			t.Fatalf("Expected normal of vertex %d to face outwards, got normal %v at %v", i, n.Data, v.Pos.Data)
		}
	}
}

func TestFullscreenQuad(t *testing.T) {

	backend := softgl.New(4, 4)
	ctx := gpu.NewContext(backend, 4, 4)

	quad, err := meshes.GenFullscreenQuad(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if quad.IndexCount() != 6 {
		t.Fatalf("Expected 6 indices, got %d", quad.IndexCount())
	}

	want := []uint32{1, 0, 2, 3, 2, 0}
	for i := range want {
		if meshes.FullscreenQuadIndices[i] != want[i] {
			t.Fatalf("Expected indices %v, got %v", want, meshes.FullscreenQuadIndices)
		}
	}

	for _, v := range meshes.FullscreenQuadVertices() {
		x, y := v.Pos.X(), v.Pos.Y()
		if (x != -1 && x != 1) || (y != -1 && y != 1) {
			t.Fatalf("Expected quad corners on the NDC border, got %v", v.Pos.Data)
		}

		if v.UV.Data[0] != (x+1)/2 || v.UV.Data[1] != (y+1)/2 {
			t.Fatalf("Expected UV to map [-1,1] to [0,1], got %v at %v", v.UV.Data, v.Pos.Data)
		}
	}

	if vbo := quad.Vao.Vbos[0]; vbo.Stride != 32 {
		t.Fatalf("Expected interleaved stride of 32 bytes, got %d", vbo.Stride)
	}

	quad.Delete()
	if backend.Live() != 0 {
		t.Fatalf("Expected quad buffers deleted, %d objects left", backend.Live())
	}
}

func TestMeshRetainsTextures(t *testing.T) {

	ctx := gpu.NewContext(softgl.New(1, 1), 1, 1)
	tex := ctx.NewTexture()

	cube, err := meshes.GenCubeMesh(ctx, tex)
	if err != nil {
		t.Fatal(err)
	}

	if ctx.Res.RefCount(tex) != 2 {
		t.Fatalf("Expected mesh to retain its texture, ref count is %d", ctx.Res.RefCount(tex))
	}

	cube.Delete()
	if ctx.Res.RefCount(tex) != 1 {
		t.Fatalf("Expected mesh delete to release its texture, ref count is %d", ctx.Res.RefCount(tex))
	}

	ctx.Res.Release(tex)
	if ctx.Res.Live() != 0 {
		t.Fatalf("Expected nothing alive, got %d", ctx.Res.Live())
	}
}

func TestInvalidMeshData(t *testing.T) {

	ctx := gpu.NewContext(softgl.New(1, 1), 1, 1)
	verts := meshes.FullscreenQuadVertices()

	tests := []struct {
		name    string
		verts   []meshes.Vertex
		indices []uint32
	}{
		{"no vertices", nil, []uint32{0, 1, 2}},
		{"no indices", verts, nil},
		{"partial triangle", verts, []uint32{0, 1}},
		{"index out of range", verts, []uint32{0, 1, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := meshes.NewMeshFromVertices(ctx, tt.name, tt.verts, tt.indices)
			if !errors.Is(err, meshes.ErrInvalidMesh) {
				t.Fatalf("Expected ErrInvalidMesh, got %v", err)
			}
		})
	}

	if ctx.Res.Live() != 0 {
		t.Fatalf("Expected rejected meshes to allocate nothing, got %d objects", ctx.Res.Live())
	}
}

func TestVertexLayoutStride(t *testing.T) {

	backend := softgl.New(1, 1)
	ctx := gpu.NewContext(backend, 1, 1)

	vbo := buffers.NewVertexBuffer(ctx, meshes.VertexLayout()...)
	defer vbo.Delete()

	if vbo.Stride != 32 {
		t.Fatalf("Expected position, normal and uv to take 32 bytes, got %d", vbo.Stride)
	}

	offsets := []int{0, 12, 24}
	for i, e := range vbo.GetLayout() {
		if e.Offset != offsets[i] {
			t.Fatalf("Expected element %d at offset %d, got %d", i, offsets[i], e.Offset)
		}
	}
}
