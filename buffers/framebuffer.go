package buffers

import (
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
)

type FramebufferAttachmentType int32

const (
	FramebufferAttachmentType_Unknown FramebufferAttachmentType = iota
	FramebufferAttachmentType_Texture
	FramebufferAttachmentType_Renderbuffer
)

func (f FramebufferAttachmentType) IsValid() bool {

	switch f {
	case FramebufferAttachmentType_Texture:
		fallthrough
	case FramebufferAttachmentType_Renderbuffer:
		return true

	default:
		return false
	}
}

func (f FramebufferAttachmentType) String() string {

	switch f {
	case FramebufferAttachmentType_Texture:
		return "Texture"
	case FramebufferAttachmentType_Renderbuffer:
		return "Renderbuffer"
	default:
		return "Unknown"
	}
}

// FramebufferAttachment is one image of a framebuffer. It is immutable once created,
// the GPU object is shared through Ref and freed when its last owner releases it.
type FramebufferAttachment struct {
	Ref    gpu.Ref
	Type   FramebufferAttachmentType
	Format gpu.Format
	Filter gpu.Filter
	Point  gpu.Attachment
	Width  int32
	Height int32
}

func (a *FramebufferAttachment) Id() uint32 {
	return a.Ref.Id
}

type Framebuffer struct {
	Ref                   gpu.Ref
	Attachments           []FramebufferAttachment
	ColorAttachmentsCount uint32
	Width                 int32
	Height                int32

	drawBuffers []gpu.Attachment
	ctx         *gpu.Context
}

// Bind binds the framebuffer and returns the previously bound one
func (fbo *Framebuffer) Bind() (prev uint32) {
	return fbo.ctx.BindFramebuffer(fbo.Ref.Id)
}

func (fbo *Framebuffer) BindWithViewport() (prev uint32) {
	prev = fbo.ctx.BindFramebuffer(fbo.Ref.Id)
	fbo.ctx.Gl.Viewport(0, 0, fbo.Width, fbo.Height)
	return prev
}

// UnBind binds the default framebuffer and returns the previously bound one
func (fbo *Framebuffer) UnBind() (prev uint32) {
	return fbo.ctx.BindFramebuffer(0)
}

func (fbo *Framebuffer) UnBindWithViewport(width, height int32) (prev uint32) {
	prev = fbo.ctx.BindFramebuffer(0)
	fbo.ctx.Gl.Viewport(0, 0, width, height)
	return prev
}

// Status returns the completeness status reported by the driver.
// The framebuffer is bound while checking and the previous binding restored after.
func (fbo *Framebuffer) Status() gpu.FramebufferStatus {
	prev := fbo.Bind()
	status := fbo.ctx.Gl.CheckFramebufferStatus()
	fbo.ctx.BindFramebuffer(prev)
	return status
}

// IsComplete returns true if the driver reports that the fbo is complete/usable
func (fbo *Framebuffer) IsComplete() bool {
	return fbo.Status() == gpu.FramebufferStatus_Complete
}

func (fbo *Framebuffer) HasColorAttachment() bool {
	return fbo.ColorAttachmentsCount > 0
}

func (fbo *Framebuffer) HasDepthAttachment() bool {

	for i := 0; i < len(fbo.Attachments); i++ {

		a := &fbo.Attachments[i]
		if a.Format.IsDepth() {
			return true
		}
	}

	return false
}

// ColorAttachments returns the color attachments in creation order
func (fbo *Framebuffer) ColorAttachments() []FramebufferAttachment {

	out := make([]FramebufferAttachment, 0, fbo.ColorAttachmentsCount)
	for i := 0; i < len(fbo.Attachments); i++ {
		if fbo.Attachments[i].Point.IsColor() {
			out = append(out, fbo.Attachments[i])
		}
	}

	return out
}

// SetDrawBuffers sets which color attachments fragment outputs 0..n-1 write to
func (fbo *Framebuffer) SetDrawBuffers(attachments ...gpu.Attachment) {

	prev := fbo.Bind()
	fbo.ctx.Gl.DrawBuffers(attachments)
	fbo.ctx.BindFramebuffer(prev)

	fbo.drawBuffers = append(fbo.drawBuffers[:0], attachments...)
}

// DrawBuffers returns the draw buffer list last set with SetDrawBuffers
func (fbo *Framebuffer) DrawBuffers() []gpu.Attachment {
	return append([]gpu.Attachment(nil), fbo.drawBuffers...)
}

// Clear binds the framebuffer and clears it. The framebuffer stays bound.
func (fbo *Framebuffer) Clear(r, g, b, a float32, mask gpu.ClearMask) {
	fbo.Bind()
	fbo.ctx.Gl.ClearColor(r, g, b, a)
	fbo.ctx.Gl.Clear(mask)
}

func (fbo *Framebuffer) NewColorAttachment(
	attachType FramebufferAttachmentType,
	attachFormat gpu.Format,
	filter gpu.Filter,
) {

	if fbo.ColorAttachmentsCount == gpu.MaxColorAttachments {
		logging.ErrLog.Fatalf("failed creating color attachment for framebuffer due it already having %d attached\n", fbo.ColorAttachmentsCount)
	}

	if !attachType.IsValid() {
		logging.ErrLog.Fatalf("failed creating color attachment for framebuffer due to unknown attachment type. Type=%d\n", attachType)
	}

	if !attachFormat.IsColor() {
		logging.ErrLog.Fatalf("failed creating color attachment for framebuffer due to attachment data format not being a valid color type. Data format=%s\n", attachFormat)
	}

	a := fbo.newAttachment(attachType, attachFormat, filter, gpu.ColorAttachment(fbo.ColorAttachmentsCount))
	fbo.ColorAttachmentsCount++
	fbo.Attachments = append(fbo.Attachments, a)
}

// NewDepthAttachment attaches a depth (or depth-stencil, depending on the format) image.
// Depth attachments always use nearest filtering.
func (fbo *Framebuffer) NewDepthAttachment(
	attachType FramebufferAttachmentType,
	attachFormat gpu.Format,
) {

	if fbo.HasDepthAttachment() {
		logging.ErrLog.Fatalf("failed creating depth attachment for framebuffer because a depth attachment already exists\n")
	}

	if !attachType.IsValid() {
		logging.ErrLog.Fatalf("failed creating depth attachment for framebuffer due to unknown attachment type. Type=%d\n", attachType)
	}

	if !attachFormat.IsDepth() {
		logging.ErrLog.Fatalf("failed creating depth attachment for framebuffer due to attachment data format not being a valid depth type. Data format=%s\n", attachFormat)
	}

	point := gpu.Attachment_Depth
	if attachFormat.HasStencil() {
		point = gpu.Attachment_DepthStencil
	}

	a := fbo.newAttachment(attachType, attachFormat, gpu.Filter_Nearest, point)
	fbo.Attachments = append(fbo.Attachments, a)
}

func (fbo *Framebuffer) newAttachment(attachType FramebufferAttachmentType, format gpu.Format, filter gpu.Filter, point gpu.Attachment) FramebufferAttachment {

	ctx := fbo.ctx
	a := FramebufferAttachment{
		Type:   attachType,
		Format: format,
		Filter: filter,
		Point:  point,
		Width:  fbo.Width,
		Height: fbo.Height,
	}

	prevFbo := fbo.Bind()

	if attachType == FramebufferAttachmentType_Texture {

		a.Ref = ctx.NewTexture()
		if a.Ref.IsZero() {
			logging.ErrLog.Fatalf("failed to generate texture for framebuffer. GlError=%d\n", ctx.Gl.GetError())
		}

		prevTex := ctx.BindTexture(a.Ref.Id)
		ctx.Gl.TexImage2D(format, fbo.Width, fbo.Height, nil)
		ctx.Gl.TexFilter(filter, filter)
		ctx.BindTexture(prevTex)

		ctx.Gl.FramebufferTexture2D(point, a.Ref.Id)

	} else {

		a.Ref = ctx.NewRenderbuffer()
		if a.Ref.IsZero() {
			logging.ErrLog.Fatalf("failed to generate render buffer for framebuffer. GlError=%d\n", ctx.Gl.GetError())
		}

		ctx.Gl.BindRenderbuffer(a.Ref.Id)
		ctx.Gl.RenderbufferStorage(format, fbo.Width, fbo.Height)
		ctx.Gl.BindRenderbuffer(0)

		ctx.Gl.FramebufferRenderbuffer(point, a.Ref.Id)
	}

	ctx.BindFramebuffer(prevFbo)
	return a
}

// Delete releases the framebuffer's reference to itself and to each attachment.
// Attachments also owned by others stay alive until they are released there too.
func (fbo *Framebuffer) Delete() {

	if fbo.Ref.IsZero() {
		return
	}

	for i := 0; i < len(fbo.Attachments); i++ {
		fbo.ctx.Res.Release(fbo.Attachments[i].Ref)
	}

	fbo.ctx.Res.Release(fbo.Ref)
	fbo.Attachments = nil
	fbo.ColorAttachmentsCount = 0
	fbo.Ref = gpu.Ref{}
}

func NewFramebuffer(ctx *gpu.Context, width, height int32) Framebuffer {

	// It is allowed to have attachments of differnt sizes in one FBO,
	// but that complicates things (e.g. which size to use for gl.viewport) and I don't see much use
	// for it now, so we will have all attachments share size
	fbo := Framebuffer{
		Width:  width,
		Height: height,
		ctx:    ctx,
	}

	fbo.Ref = ctx.NewFramebuffer()
	if fbo.Ref.IsZero() {
		logging.ErrLog.Fatalf("failed to generate framebuffer. GlError=%d\n", ctx.Gl.GetError())
	}

	return fbo
}
