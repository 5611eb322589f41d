package buffers

import (
	"unsafe"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
)

// IndexBuffer holds uint32 triangle indices. It is owned by the VertexArray it is set on,
// as the element buffer binding is vertex array state.
type IndexBuffer struct {
	Ref gpu.Ref
	// IndexBufCount is the number of elements in the index buffer. Updated in IndexBuffer.SetData
	IndexBufCount int32
	ctx           *gpu.Context
}

func (ib *IndexBuffer) Bind() {
	ib.ctx.Gl.BindBuffer(gpu.BufferTarget_ElementArray, ib.Ref.Id)
}

// SetData uploads the indices. The vertex array owning the buffer must be bound.
func (ib *IndexBuffer) SetData(values []uint32) {

	ib.Bind()
	ib.IndexBufCount = int32(len(values))

	var data []byte
	if len(values) > 0 {
		data = unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
	}

	ib.ctx.Gl.BufferData(gpu.BufferTarget_ElementArray, data, gpu.BufUsage_Static_Draw)
}

func (ib *IndexBuffer) Delete() {

	if ib.Ref.IsZero() {
		return
	}

	ib.ctx.Res.Release(ib.Ref)
	ib.Ref = gpu.Ref{}
}

func NewIndexBuffer(ctx *gpu.Context) IndexBuffer {

	ib := IndexBuffer{
		Ref: ctx.NewBuffer(),
		ctx: ctx,
	}

	if ib.Ref.IsZero() {
		logging.ErrLog.Println("Failed to create index buffer")
	}

	return ib
}
