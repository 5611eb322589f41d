package buffers_test

import (
	"testing"

	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/softgl"
)

func TestFramebufferAttachments(t *testing.T) {

	backend := softgl.New(16, 16)
	ctx := gpu.NewContext(backend, 16, 16)

	fbo := buffers.NewFramebuffer(ctx, 16, 8)
	fbo.NewColorAttachment(buffers.FramebufferAttachmentType_Texture, gpu.Format_RGB16F, gpu.Filter_Nearest)
	fbo.NewColorAttachment(buffers.FramebufferAttachmentType_Texture, gpu.Format_RGBA8, gpu.Filter_Linear)
	fbo.NewDepthAttachment(buffers.FramebufferAttachmentType_Renderbuffer, gpu.Format_Depth24)
	fbo.SetDrawBuffers(gpu.ColorAttachment(0), gpu.ColorAttachment(1))

	if !fbo.IsComplete() {
		t.Fatalf("Expected complete framebuffer, got status %s", fbo.Status())
	}

	if ctx.State().Framebuffer != 0 {
		t.Fatalf("Expected framebuffer setup to restore the default framebuffer binding, got %d", ctx.State().Framebuffer)
	}

	colors := fbo.ColorAttachments()
	if len(colors) != 2 || colors[0].Point != gpu.ColorAttachment(0) || colors[1].Point != gpu.ColorAttachment(1) {
		t.Fatalf("Unexpected color attachments %+v", colors)
	}

	if min, mag := backend.TextureFilter(colors[0].Id()); min != gpu.Filter_Nearest || mag != gpu.Filter_Nearest {
		t.Fatalf("Expected nearest filtering, got min=%s mag=%s", min, mag)
	}

	if f := backend.TextureFormat(colors[1].Id()); f != gpu.Format_RGBA8 {
		t.Fatalf("Expected RGBA8 texture, got %s", f)
	}

	if !fbo.HasDepthAttachment() || fbo.Attachments[2].Point != gpu.Attachment_Depth {
		t.Fatalf("Expected depth attachment at the depth point, got %+v", fbo.Attachments)
	}

	fbo.Delete()
	if backend.Live() != 0 || ctx.Res.Live() != 0 {
		t.Fatalf("Expected everything deleted, backend has %d and registry has %d objects", backend.Live(), ctx.Res.Live())
	}
}

func TestVertexArrayDelete(t *testing.T) {

	backend := softgl.New(1, 1)
	ctx := gpu.NewContext(backend, 1, 1)

	vbo := buffers.NewVertexBuffer(ctx, buffers.Element{ElementType: buffers.DataTypeVec3}, buffers.Element{ElementType: buffers.DataTypeVec2})
	if vbo.Stride != 20 {
		t.Fatalf("Expected stride 20, got %d", vbo.Stride)
	}

	if l := vbo.GetLayout(); l[1].Offset != 12 {
		t.Fatalf("Expected second element at offset 12, got %d", l[1].Offset)
	}

	vbo.SetData([]float32{0, 0, 0, 0, 0}, gpu.BufUsage_Static_Draw)

	vao := buffers.NewVertexArray(ctx)
	vao.AddVertexBuffer(vbo)
	vao.SetIndexBuffer(buffers.NewIndexBuffer(ctx), []uint32{0, 0, 0})

	if vao.IndexBuffer.IndexBufCount != 3 {
		t.Fatalf("Expected 3 indices, got %d", vao.IndexBuffer.IndexBufCount)
	}

	if err := backend.GetError(); err != softgl.NoError {
		t.Fatalf("Expected no driver error, got 0x%x", err)
	}

	vao.Delete()
	if backend.Live() != 0 {
		t.Fatalf("Expected vertex array and its buffers deleted, %d objects left", backend.Live())
	}
}
