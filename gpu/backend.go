// Package gpu holds the rendering context used by everything that talks to the graphics driver.
//
// All driver state that OpenGL keeps implicitly (bound framebuffer, active texture unit, bound program
// and vertex array) is mirrored in a Context, so every bind returns what was bound before it and
// callers can restore it. The driver itself is hidden behind Backend, which has an OpenGL implementation
// (glbackend) and a software implementation (softgl) used for tests and headless runs.
package gpu

import (
	"fmt"

	"github.com/bloeys/deferred/assert"
)

type Format int32

const (
	Format_Unknown Format = iota
	Format_R32Int
	Format_RGBA8
	Format_SRGBA
	Format_RGB16F
	Format_RGBA16F
	Format_Depth24
	Format_Depth24Stencil8
	Format_DepthF32
)

func (f Format) IsColor() bool {

	switch f {
	case Format_R32Int, Format_RGBA8, Format_SRGBA, Format_RGB16F, Format_RGBA16F:
		return true
	default:
		return false
	}
}

func (f Format) IsDepth() bool {
	return f == Format_Depth24 || f == Format_Depth24Stencil8 || f == Format_DepthF32
}

func (f Format) HasStencil() bool {
	return f == Format_Depth24Stencil8
}

// IsFloat returns true for formats whose channels are stored unclamped
func (f Format) IsFloat() bool {
	return f == Format_RGB16F || f == Format_RGBA16F || f == Format_DepthF32
}

// IsNormalized returns true for unsigned normalized formats, which clamp to [0,1] on write
func (f Format) IsNormalized() bool {
	return f == Format_RGBA8 || f == Format_SRGBA
}

// Channels returns the number of color channels of the format. Depth formats have one.
func (f Format) Channels() int {

	switch f {
	case Format_R32Int, Format_Depth24, Format_Depth24Stencil8, Format_DepthF32:
		return 1
	case Format_RGB16F:
		return 3
	case Format_RGBA8, Format_SRGBA, Format_RGBA16F:
		return 4
	default:
		return 0
	}
}

func (f Format) String() string {

	switch f {
	case Format_R32Int:
		return "R32I"
	case Format_RGBA8:
		return "RGBA8"
	case Format_SRGBA:
		return "SRGBA"
	case Format_RGB16F:
		return "RGB16F"
	case Format_RGBA16F:
		return "RGBA16F"
	case Format_Depth24:
		return "Depth24"
	case Format_Depth24Stencil8:
		return "Depth24Stencil8"
	case Format_DepthF32:
		return "DepthF32"
	default:
		return fmt.Sprintf("Format(%d)", int32(f))
	}
}

type Filter int32

const (
	Filter_Nearest Filter = iota
	Filter_Linear
)

func (f Filter) String() string {
	if f == Filter_Linear {
		return "Linear"
	}
	return "Nearest"
}

// Attachment is a framebuffer attachment point. Values below MaxColorAttachments are color attachments.
type Attachment uint32

const MaxColorAttachments = 8

const (
	Attachment_Depth Attachment = 1000 + iota
	Attachment_DepthStencil
)

func ColorAttachment(index uint32) Attachment {
	assert.T(index < MaxColorAttachments, "color attachment index %d is out of range, max is %d", index, MaxColorAttachments-1)
	return Attachment(index)
}

func (a Attachment) IsColor() bool {
	return a < MaxColorAttachments
}

func (a Attachment) String() string {

	switch {
	case a.IsColor():
		return fmt.Sprintf("Color%d", uint32(a))
	case a == Attachment_Depth:
		return "Depth"
	case a == Attachment_DepthStencil:
		return "DepthStencil"
	default:
		return fmt.Sprintf("Attachment(%d)", uint32(a))
	}
}

type FramebufferStatus int32

const (
	FramebufferStatus_Complete FramebufferStatus = iota
	FramebufferStatus_Undefined
	FramebufferStatus_IncompleteAttachment
	FramebufferStatus_MissingAttachment
	FramebufferStatus_IncompleteDrawBuffer
	FramebufferStatus_Unsupported
	FramebufferStatus_Unknown
)

func (s FramebufferStatus) String() string {

	switch s {
	case FramebufferStatus_Complete:
		return "Complete"
	case FramebufferStatus_Undefined:
		return "Undefined"
	case FramebufferStatus_IncompleteAttachment:
		return "IncompleteAttachment"
	case FramebufferStatus_MissingAttachment:
		return "MissingAttachment"
	case FramebufferStatus_IncompleteDrawBuffer:
		return "IncompleteDrawBuffer"
	case FramebufferStatus_Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

type ClearMask uint32

const (
	ClearBit_Color ClearMask = 1 << iota
	ClearBit_Depth
	ClearBit_Stencil
)

type BufferTarget int32

const (
	BufferTarget_Array BufferTarget = iota
	BufferTarget_ElementArray
)

// MaxTextureUnits is the number of texture units tracked by the Context
const MaxTextureUnits = 16

// Backend is the set of driver operations the renderers use. Semantics follow the OpenGL
// functions of the same names; binding functions change state of the backend only and are
// expected to be called through a Context, which tracks them.
type Backend interface {

	// Framebuffers
	GenFramebuffer() uint32
	DeleteFramebuffer(id uint32)
	BindFramebuffer(id uint32)
	FramebufferTexture2D(attachment Attachment, texId uint32)
	FramebufferRenderbuffer(attachment Attachment, rboId uint32)
	DrawBuffers(attachments []Attachment)
	CheckFramebufferStatus() FramebufferStatus

	// Textures
	GenTexture() uint32
	DeleteTexture(id uint32)
	ActiveTexture(unit uint32)
	BindTexture(id uint32)
	// TexImage2D allocates storage for the texture bound to the active unit.
	// Pixels are tightly packed RGBA8 and may be nil.
	TexImage2D(format Format, width, height int32, pixels []byte)
	TexFilter(min, mag Filter)
	// GetTexImage returns the texture contents as RGBA float32 values, row by row from the bottom
	GetTexImage(texId uint32) (rgba []float32, width, height int32)

	// Renderbuffers
	GenRenderbuffer() uint32
	DeleteRenderbuffer(id uint32)
	BindRenderbuffer(id uint32)
	RenderbufferStorage(format Format, width, height int32)

	// Buffers and vertex arrays
	GenBuffer() uint32
	DeleteBuffer(id uint32)
	BindBuffer(target BufferTarget, id uint32)
	BufferData(target BufferTarget, data []byte, usage BufUsage)
	GenVertexArray() uint32
	DeleteVertexArray(id uint32)
	BindVertexArray(id uint32)
	// VertexAttribPointer describes a float attribute of the buffer bound to BufferTarget_Array
	VertexAttribPointer(index uint32, compCount int32, stride int32, offset int)

	// Drawing
	UseProgram(id uint32)
	DrawElements(indexCount int32)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	// ReadPixels reads color attachment 0 of the bound framebuffer as RGBA8, rows from the bottom
	ReadPixels(x, y, width, height int32) []byte
	GetError() uint32
}
