package buffers

import (
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
)

type VertexArray struct {
	Ref         gpu.Ref
	Vbos        []VertexBuffer
	IndexBuffer IndexBuffer
	ctx         *gpu.Context
}

// Bind binds the vertex array and returns the previously bound one
func (va *VertexArray) Bind() (prev uint32) {
	return va.ctx.BindVertexArray(va.Ref.Id)
}

func (va *VertexArray) UnBind() {
	va.ctx.BindVertexArray(0)
}

func (va *VertexArray) AddVertexBuffer(vbo VertexBuffer) {

	// NOTE: VBOs are only bound at 'VertexAttribPointer' (and related) calls
	prev := va.Bind()
	vbo.Bind()

	// Attribute locations continue after the ones of previously added buffers
	firstIndex := 0
	for i := 0; i < len(va.Vbos); i++ {
		firstIndex += len(va.Vbos[i].layout)
	}

	for i := 0; i < len(vbo.layout); i++ {
		l := &vbo.layout[i]
		va.ctx.Gl.VertexAttribPointer(uint32(firstIndex+i), l.ElementType.CompCount(), vbo.Stride, l.Offset)
	}

	vbo.UnBind()
	va.ctx.BindVertexArray(prev)
	va.Vbos = append(va.Vbos, vbo)
}

// SetIndexBuffer makes ib the element buffer of the vertex array and uploads indices to it
func (va *VertexArray) SetIndexBuffer(ib IndexBuffer, indices []uint32) {

	prev := va.Bind()
	ib.SetData(indices)
	va.ctx.BindVertexArray(prev)

	va.IndexBuffer = ib
}

// Delete releases the vertex array and the buffers it owns
func (va *VertexArray) Delete() {

	for i := 0; i < len(va.Vbos); i++ {
		va.Vbos[i].Delete()
	}
	va.Vbos = nil

	va.IndexBuffer.Delete()

	if !va.Ref.IsZero() {
		va.ctx.Res.Release(va.Ref)
		va.Ref = gpu.Ref{}
	}
}

func NewVertexArray(ctx *gpu.Context) VertexArray {

	vao := VertexArray{
		Ref: ctx.NewVertexArray(),
		ctx: ctx,
	}

	if vao.Ref.IsZero() {
		logging.ErrLog.Println("Failed to create vertex array object")
	}

	return vao
}
