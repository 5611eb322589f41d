// Package glbackend implements gpu.Backend on top of OpenGL 4.1 core.
//
// A GL context must be current on the calling thread before New is called, and every call
// must happen on that same (locked) OS thread.
package glbackend

import (
	"github.com/bloeys/deferred/assert"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var _ gpu.Backend = &Backend{}

type Backend struct {
	boundFbo uint32
}

func (b *Backend) GenFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (b *Backend) DeleteFramebuffer(id uint32) {
	gl.DeleteFramebuffers(1, &id)
	if b.boundFbo == id {
		b.boundFbo = 0
	}
}

func (b *Backend) BindFramebuffer(id uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, id)
	b.boundFbo = id
}

func (b *Backend) FramebufferTexture2D(attachment gpu.Attachment, texId uint32) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachmentToGl(attachment), gl.TEXTURE_2D, texId, 0)
}

func (b *Backend) FramebufferRenderbuffer(attachment gpu.Attachment, rboId uint32) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachmentToGl(attachment), gl.RENDERBUFFER, rboId)
}

func (b *Backend) DrawBuffers(attachments []gpu.Attachment) {

	if len(attachments) == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
		return
	}

	bufs := make([]uint32, len(attachments))
	for i := 0; i < len(attachments); i++ {
		bufs[i] = attachmentToGl(attachments[i])
	}

	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (b *Backend) CheckFramebufferStatus() gpu.FramebufferStatus {

	switch gl.CheckFramebufferStatus(gl.FRAMEBUFFER) {
	case gl.FRAMEBUFFER_COMPLETE:
		return gpu.FramebufferStatus_Complete
	case gl.FRAMEBUFFER_UNDEFINED:
		return gpu.FramebufferStatus_Undefined
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return gpu.FramebufferStatus_IncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return gpu.FramebufferStatus_MissingAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return gpu.FramebufferStatus_IncompleteDrawBuffer
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return gpu.FramebufferStatus_Unsupported
	default:
		return gpu.FramebufferStatus_Unknown
	}
}

func (b *Backend) GenTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (b *Backend) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (b *Backend) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (b *Backend) BindTexture(id uint32) {
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (b *Backend) TexImage2D(format gpu.Format, width, height int32, pixels []byte) {

	internalFormat, glFormat, glType := formatToGl(format)

	if len(pixels) == 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, width, height, 0, glFormat, glType, nil)
		return
	}

	assert.T(glType == gl.UNSIGNED_BYTE, "TexImage2D with pixel data is only supported for 8-bit formats, got format=%s", format)
	assert.T(len(pixels) >= int(width*height*4), "TexImage2D got %d bytes of pixel data but needs %d", len(pixels), width*height*4)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
}

func (b *Backend) TexFilter(min, mag gpu.Filter) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterToGl(min))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterToGl(mag))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

func (b *Backend) GetTexImage(texId uint32) (rgba []float32, width, height int32) {

	// Don't disturb the binding the gpu.Context thinks is there
	var prevTex int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prevTex)

	gl.BindTexture(gl.TEXTURE_2D, texId)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &width)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_HEIGHT, &height)

	rgba = make([]float32, width*height*4)
	if len(rgba) > 0 {
		gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
		gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.FLOAT, gl.Ptr(&rgba[0]))
	}

	gl.BindTexture(gl.TEXTURE_2D, uint32(prevTex))
	return rgba, width, height
}

func (b *Backend) GenRenderbuffer() uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return id
}

func (b *Backend) DeleteRenderbuffer(id uint32) {
	gl.DeleteRenderbuffers(1, &id)
}

func (b *Backend) BindRenderbuffer(id uint32) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, id)
}

func (b *Backend) RenderbufferStorage(format gpu.Format, width, height int32) {
	internalFormat, _, _ := formatToGl(format)
	gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(internalFormat), width, height)
}

func (b *Backend) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (b *Backend) DeleteBuffer(id uint32) {
	gl.DeleteBuffers(1, &id)
}

func (b *Backend) BindBuffer(target gpu.BufferTarget, id uint32) {
	gl.BindBuffer(bufferTargetToGl(target), id)
}

func (b *Backend) BufferData(target gpu.BufferTarget, data []byte, usage gpu.BufUsage) {

	if len(data) == 0 {
		gl.BufferData(bufferTargetToGl(target), 0, nil, bufUsageToGl(usage))
		return
	}

	gl.BufferData(bufferTargetToGl(target), len(data), gl.Ptr(&data[0]), bufUsageToGl(usage))
}

func (b *Backend) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (b *Backend) DeleteVertexArray(id uint32) {
	gl.DeleteVertexArrays(1, &id)
}

func (b *Backend) BindVertexArray(id uint32) {
	gl.BindVertexArray(id)
}

func (b *Backend) VertexAttribPointer(index uint32, compCount int32, stride int32, offset int) {
	gl.EnableVertexAttribArray(index)
	gl.VertexAttribPointerWithOffset(index, compCount, gl.FLOAT, false, stride, uintptr(offset))
}

func (b *Backend) UseProgram(id uint32) {
	gl.UseProgram(id)
}

func (b *Backend) DrawElements(indexCount int32) {
	gl.DrawElements(gl.TRIANGLES, indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
}

func (b *Backend) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (b *Backend) ClearColor(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
}

func (b *Backend) Clear(mask gpu.ClearMask) {

	var glMask uint32
	if mask&gpu.ClearBit_Color != 0 {
		glMask |= gl.COLOR_BUFFER_BIT
	}

	if mask&gpu.ClearBit_Depth != 0 {
		glMask |= gl.DEPTH_BUFFER_BIT
	}

	if mask&gpu.ClearBit_Stencil != 0 {
		glMask |= gl.STENCIL_BUFFER_BIT
	}

	gl.Clear(glMask)
}

func (b *Backend) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (b *Backend) ReadPixels(x, y, width, height int32) []byte {

	if b.boundFbo == 0 {
		gl.ReadBuffer(gl.BACK)
	} else {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	}

	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}

	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels
}

func (b *Backend) GetError() uint32 {
	return gl.GetError()
}

func attachmentToGl(a gpu.Attachment) uint32 {

	switch {
	case a.IsColor():
		return gl.COLOR_ATTACHMENT0 + uint32(a)
	case a == gpu.Attachment_Depth:
		return gl.DEPTH_ATTACHMENT
	case a == gpu.Attachment_DepthStencil:
		return gl.DEPTH_STENCIL_ATTACHMENT
	default:
		logging.ErrLog.Fatalf("unknown framebuffer attachment point. Attachment=%d\n", a)
		return 0
	}
}

// formatToGl returns the internal format, pixel format and pixel type of a gpu format
func formatToGl(f gpu.Format) (internalFormat int32, format uint32, xtype uint32) {

	switch f {
	case gpu.Format_R32Int:
		return gl.R32I, gl.RED_INTEGER, gl.INT
	case gpu.Format_RGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	case gpu.Format_SRGBA:
		return gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE
	case gpu.Format_RGB16F:
		return gl.RGB16F, gl.RGB, gl.FLOAT
	case gpu.Format_RGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.FLOAT
	case gpu.Format_Depth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT
	case gpu.Format_Depth24Stencil8:
		return gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	case gpu.Format_DepthF32:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT
	default:
		logging.ErrLog.Fatalf("unknown texture data format. Format=%d\n", f)
		return 0, 0, 0
	}
}

func filterToGl(f gpu.Filter) int32 {
	if f == gpu.Filter_Linear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func bufferTargetToGl(t gpu.BufferTarget) uint32 {
	if t == gpu.BufferTarget_ElementArray {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func bufUsageToGl(b gpu.BufUsage) uint32 {

	switch b {
	case gpu.BufUsage_Static_Draw:
		return gl.STATIC_DRAW
	case gpu.BufUsage_Dynamic_Draw:
		return gl.DYNAMIC_DRAW
	case gpu.BufUsage_Stream_Draw:
		return gl.STREAM_DRAW

	case gpu.BufUsage_Static_Read:
		return gl.STATIC_READ
	case gpu.BufUsage_Dynamic_Read:
		return gl.DYNAMIC_READ
	case gpu.BufUsage_Stream_Read:
		return gl.STREAM_READ

	case gpu.BufUsage_Static_Copy:
		return gl.STATIC_COPY
	case gpu.BufUsage_Dynamic_Copy:
		return gl.DYNAMIC_COPY
	case gpu.BufUsage_Stream_Copy:
		return gl.STREAM_COPY
	}

	assert.T(false, "Unexpected BufUsage value '%v'", b)
	return 0
}

// New loads the OpenGL function pointers of the current context and sets the
// default pipeline state used by the renderers
func New() (*Backend, error) {

	if err := gl.Init(); err != nil {
		return nil, err
	}

	logging.InfoLog.Println("OpenGL version:", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	gl.ClearColor(0, 0, 0, 1)

	return &Backend{}, nil
}
