// Package deferred renders in two passes: a geometry pass writing surface data of every mesh into
// a G-buffer, then a lighting pass shading each screen pixel once from that data.
package deferred

import (
	"errors"
	"fmt"

	"github.com/bloeys/deferred/buffers"
	"github.com/bloeys/deferred/gpu"
)

var ErrIncompleteFramebuffer = errors.New("incomplete framebuffer")

// IncompleteFramebufferError is returned when the driver refuses the G-buffer.
// It matches ErrIncompleteFramebuffer with errors.Is.
type IncompleteFramebufferError struct {
	Status gpu.FramebufferStatus
	Width  int32
	Height int32
}

func (e *IncompleteFramebufferError) Error() string {
	return fmt.Sprintf("%s: G-buffer of size %dx%d has status %s", ErrIncompleteFramebuffer, e.Width, e.Height, e.Status)
}

func (e *IncompleteFramebufferError) Is(target error) bool {
	return target == ErrIncompleteFramebuffer
}

// G-buffer color attachment indices, which are also the fragment output locations of the geometry pass
const (
	GBufferPosition = iota
	GBufferNormal
	GBufferAlbedoSpec
	GBufferColorCount
)

// GBuffer is an off-screen framebuffer holding world position, normal and albedo+specular per pixel,
// plus a depth renderbuffer used only for depth testing.
type GBuffer struct {
	Fbo buffers.Framebuffer
}

func (g *GBuffer) Width() int32 {
	return g.Fbo.Width
}

func (g *GBuffer) Height() int32 {
	return g.Fbo.Height
}

// Bind makes the G-buffer the draw target and returns the previously bound framebuffer
func (g *GBuffer) Bind() (prev uint32) {
	return g.Fbo.Bind()
}

// Unbind makes the default framebuffer the draw target and returns the previously bound framebuffer
func (g *GBuffer) Unbind() (prev uint32) {
	return g.Fbo.UnBind()
}

// Clear binds the G-buffer and clears all its color attachments to zero and depth to one
func (g *GBuffer) Clear() {
	g.Fbo.Clear(0, 0, 0, 0, gpu.ClearBit_Color|gpu.ClearBit_Depth)
}

// GetAttachments returns the color attachments in the order position, normal, albedo+specular.
// Holders that keep them beyond the G-buffer must retain their refs.
func (g *GBuffer) GetAttachments() []buffers.FramebufferAttachment {
	return g.Fbo.ColorAttachments()
}

// TextureRefs returns the refs of GetAttachments, in the same order
func (g *GBuffer) TextureRefs() []gpu.Ref {

	attachments := g.GetAttachments()
	refs := make([]gpu.Ref, len(attachments))
	for i := 0; i < len(attachments); i++ {
		refs[i] = attachments[i].Ref
	}

	return refs
}

func (g *GBuffer) DrawBuffers() []gpu.Attachment {
	return g.Fbo.DrawBuffers()
}

func (g *GBuffer) Status() gpu.FramebufferStatus {
	return g.Fbo.Status()
}

// Delete releases the G-buffer's references. Attachments shared with others stay alive until released there.
func (g *GBuffer) Delete() {
	g.Fbo.Delete()
}

// NewGBuffer allocates the G-buffer. The framebuffer binding is unchanged after the call.
// An incomplete framebuffer is returned as an *IncompleteFramebufferError and nothing is leaked.
func NewGBuffer(ctx *gpu.Context, width, height int32) (*GBuffer, error) {

	if width <= 0 || height <= 0 {
		return nil, &IncompleteFramebufferError{
			Status: gpu.FramebufferStatus_IncompleteAttachment,
			Width:  width,
			Height: height,
		}
	}

	g := &GBuffer{
		Fbo: buffers.NewFramebuffer(ctx, width, height),
	}

	// Order must match the GBuffer* constants
	g.Fbo.NewColorAttachment(buffers.FramebufferAttachmentType_Texture, gpu.Format_RGB16F, gpu.Filter_Nearest)
	g.Fbo.NewColorAttachment(buffers.FramebufferAttachmentType_Texture, gpu.Format_RGB16F, gpu.Filter_Nearest)
	g.Fbo.NewColorAttachment(buffers.FramebufferAttachmentType_Texture, gpu.Format_RGBA8, gpu.Filter_Nearest)
	g.Fbo.NewDepthAttachment(buffers.FramebufferAttachmentType_Renderbuffer, gpu.Format_Depth24)

	g.Fbo.SetDrawBuffers(
		gpu.ColorAttachment(GBufferPosition),
		gpu.ColorAttachment(GBufferNormal),
		gpu.ColorAttachment(GBufferAlbedoSpec),
	)

	if status := g.Fbo.Status(); status != gpu.FramebufferStatus_Complete {
		g.Delete()
		return nil, &IncompleteFramebufferError{
			Status: status,
			Width:  width,
			Height: height,
		}
	}

	return g, nil
}
