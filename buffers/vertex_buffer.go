package buffers

import (
	"unsafe"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
)

type VertexBuffer struct {
	Ref    gpu.Ref
	Stride int32
	layout []Element
	ctx    *gpu.Context
}

func (vb *VertexBuffer) Bind() {
	vb.ctx.Gl.BindBuffer(gpu.BufferTarget_Array, vb.Ref.Id)
}

func (vb *VertexBuffer) UnBind() {
	vb.ctx.Gl.BindBuffer(gpu.BufferTarget_Array, 0)
}

func (vb *VertexBuffer) SetData(values []float32, usage gpu.BufUsage) {
	vb.Bind()
	vb.ctx.Gl.BufferData(gpu.BufferTarget_Array, float32Bytes(values), usage)
	vb.UnBind()
}

func (vb *VertexBuffer) GetLayout() []Element {
	e := make([]Element, len(vb.layout))
	copy(e, vb.layout)
	return e
}

func (vb *VertexBuffer) SetLayout(layout ...Element) {

	vb.Stride = 0
	vb.layout = layout

	for i := 0; i < len(vb.layout); i++ {

		vb.layout[i].Offset = int(vb.Stride)
		vb.Stride += vb.layout[i].Size()
	}
}

func (vb *VertexBuffer) Delete() {

	if vb.Ref.IsZero() {
		return
	}

	vb.ctx.Res.Release(vb.Ref)
	vb.Ref = gpu.Ref{}
}

func NewVertexBuffer(ctx *gpu.Context, layout ...Element) VertexBuffer {

	vb := VertexBuffer{
		Ref: ctx.NewBuffer(),
		ctx: ctx,
	}

	if vb.Ref.IsZero() {
		logging.ErrLog.Panicln("Failed to create vertex buffer")
	}

	vb.SetLayout(layout...)
	return vb
}

// float32Bytes views the floats as raw bytes without copying
func float32Bytes(values []float32) []byte {

	if len(values) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
}
