// Package softgl is a software implementation of gpu.Backend.
//
// It follows OpenGL semantics closely enough to run the renderers without a GPU: framebuffer
// completeness, draw buffer lists, texture units, depth testing and multiple render targets all
// behave like the driver. Shaders are Go functions, see Program.
package softgl

import (
	"math"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
)

// Error codes returned by GetError, same values as OpenGL
const (
	NoError          uint32 = 0
	InvalidEnum      uint32 = 0x0500
	InvalidValue     uint32 = 0x0501
	InvalidOperation uint32 = 0x0502
	InvalidFbOp      uint32 = 0x0506
)

const MaxAttribs = 8

var _ gpu.Backend = &Backend{}

type texture struct {
	format    gpu.Format
	width     int32
	height    int32
	minFilter gpu.Filter
	magFilter gpu.Filter
	// RGBA per texel, rows from the bottom
	data []float32
}

type renderbuffer struct {
	format gpu.Format
	width  int32
	height int32
	data   []float32
}

type attachment struct {
	texId uint32
	rboId uint32
}

type framebuffer struct {
	attachments map[gpu.Attachment]attachment
	drawBuffers []gpu.Attachment
}

type attrib struct {
	enabled   bool
	buffer    uint32
	compCount int32
	stride    int32
	offset    int
}

type vertexArray struct {
	attribs       [MaxAttribs]attrib
	elementBuffer uint32
}

// DrawCall is one DrawElements call as seen by the backend
type DrawCall struct {
	Program     uint32
	Framebuffer uint32
	VertexArray uint32
	IndexCount  int32
	ActiveUnit  uint32
	Textures    [gpu.MaxTextureUnits]uint32
	// Viewport as x, y, width, height
	Viewport [4]int32
}

type Backend struct {

	// CullBackFaces discards clockwise triangles, matching the culling state the GL backend sets up
	CullBackFaces bool

	// UnsupportedFormats lists formats that make a framebuffer report FramebufferStatus_Unsupported
	// when attached, the same way a driver can refuse a format combination.
	UnsupportedFormats map[gpu.Format]bool

	lastId uint32

	textures      map[uint32]*texture
	renderbuffers map[uint32]*renderbuffer
	framebuffers  map[uint32]*framebuffer
	buffers       map[uint32][]byte
	vertexArrays  map[uint32]*vertexArray
	programs      map[uint32]*Program

	// Bindings
	boundFbo     uint32
	boundRbo     uint32
	activeUnit   uint32
	units        [gpu.MaxTextureUnits]uint32
	arrayBuffer  uint32
	boundVao     uint32
	boundProgram uint32

	viewport   [4]int32
	clearColor [4]float32
	depthTest  bool

	// Default framebuffer
	width        int32
	height       int32
	defaultColor []float32
	defaultDepth []float32

	draws []DrawCall
	err   uint32
}

func (b *Backend) genId() uint32 {
	b.lastId++
	return b.lastId
}

func (b *Backend) setErr(code uint32, format string, args ...any) {

	logging.WarnLog.Printf("softgl: "+format+"\n", args...)

	// Like OpenGL, only the first error is kept until GetError is called
	if b.err == NoError {
		b.err = code
	}
}

func (b *Backend) GetError() uint32 {
	err := b.err
	b.err = NoError
	return err
}

func (b *Backend) GenFramebuffer() uint32 {
	id := b.genId()
	b.framebuffers[id] = &framebuffer{
		attachments: map[gpu.Attachment]attachment{},
		// Like OpenGL, new framebuffers draw to color attachment 0
		drawBuffers: []gpu.Attachment{gpu.ColorAttachment(0)},
	}
	return id
}

func (b *Backend) DeleteFramebuffer(id uint32) {

	if id == 0 {
		return
	}

	delete(b.framebuffers, id)
	if b.boundFbo == id {
		b.boundFbo = 0
	}
}

func (b *Backend) BindFramebuffer(id uint32) {

	if _, ok := b.framebuffers[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "bind of unknown framebuffer %d", id)
		return
	}

	b.boundFbo = id
}

func (b *Backend) FramebufferTexture2D(att gpu.Attachment, texId uint32) {

	fbo := b.framebuffers[b.boundFbo]
	if fbo == nil {
		b.setErr(InvalidOperation, "attaching texture %d to the default framebuffer", texId)
		return
	}

	if texId == 0 {
		delete(fbo.attachments, att)
		return
	}

	if _, ok := b.textures[texId]; !ok {
		b.setErr(InvalidOperation, "attaching unknown texture %d", texId)
		return
	}

	fbo.attachments[att] = attachment{texId: texId}
}

func (b *Backend) FramebufferRenderbuffer(att gpu.Attachment, rboId uint32) {

	fbo := b.framebuffers[b.boundFbo]
	if fbo == nil {
		b.setErr(InvalidOperation, "attaching renderbuffer %d to the default framebuffer", rboId)
		return
	}

	if rboId == 0 {
		delete(fbo.attachments, att)
		return
	}

	if _, ok := b.renderbuffers[rboId]; !ok {
		b.setErr(InvalidOperation, "attaching unknown renderbuffer %d", rboId)
		return
	}

	fbo.attachments[att] = attachment{rboId: rboId}
}

func (b *Backend) DrawBuffers(attachments []gpu.Attachment) {

	fbo := b.framebuffers[b.boundFbo]
	if fbo == nil {
		b.setErr(InvalidOperation, "DrawBuffers on the default framebuffer is not supported")
		return
	}

	for i := 0; i < len(attachments); i++ {
		if !attachments[i].IsColor() {
			b.setErr(InvalidEnum, "draw buffer %d is not a color attachment: %s", i, attachments[i])
			return
		}
	}

	fbo.drawBuffers = append([]gpu.Attachment(nil), attachments...)
}

// FramebufferDrawBuffers returns the draw buffer list of a framebuffer
func (b *Backend) FramebufferDrawBuffers(fboId uint32) []gpu.Attachment {

	fbo := b.framebuffers[fboId]
	if fbo == nil {
		return nil
	}

	return append([]gpu.Attachment(nil), fbo.drawBuffers...)
}

// attachmentFormat returns the format and size of whatever is attached at att, ok is false
// if the attachment point is empty or the attached object no longer exists.
func (b *Backend) attachmentFormat(a attachment) (format gpu.Format, width, height int32, ok bool) {

	if a.texId != 0 {
		tex := b.textures[a.texId]
		if tex == nil {
			return gpu.Format_Unknown, 0, 0, false
		}
		return tex.format, tex.width, tex.height, true
	}

	rbo := b.renderbuffers[a.rboId]
	if rbo == nil {
		return gpu.Format_Unknown, 0, 0, false
	}
	return rbo.format, rbo.width, rbo.height, true
}

func (b *Backend) CheckFramebufferStatus() gpu.FramebufferStatus {

	if b.boundFbo == 0 {
		return gpu.FramebufferStatus_Complete
	}

	fbo := b.framebuffers[b.boundFbo]
	if len(fbo.attachments) == 0 {
		return gpu.FramebufferStatus_MissingAttachment
	}

	for att, a := range fbo.attachments {

		format, w, h, ok := b.attachmentFormat(a)
		if !ok || w == 0 || h == 0 {
			return gpu.FramebufferStatus_IncompleteAttachment
		}

		if att.IsColor() && !format.IsColor() {
			return gpu.FramebufferStatus_IncompleteAttachment
		}

		if att == gpu.Attachment_Depth && !format.IsDepth() {
			return gpu.FramebufferStatus_IncompleteAttachment
		}

		if att == gpu.Attachment_DepthStencil && !format.HasStencil() {
			return gpu.FramebufferStatus_IncompleteAttachment
		}

		if b.UnsupportedFormats[format] {
			return gpu.FramebufferStatus_Unsupported
		}
	}

	for i := 0; i < len(fbo.drawBuffers); i++ {
		if _, ok := fbo.attachments[fbo.drawBuffers[i]]; !ok {
			return gpu.FramebufferStatus_IncompleteDrawBuffer
		}
	}

	return gpu.FramebufferStatus_Complete
}

func (b *Backend) GenTexture() uint32 {
	id := b.genId()
	b.textures[id] = &texture{
		minFilter: gpu.Filter_Linear,
		magFilter: gpu.Filter_Linear,
	}
	return id
}

func (b *Backend) DeleteTexture(id uint32) {

	if id == 0 {
		return
	}

	delete(b.textures, id)
	for i := 0; i < len(b.units); i++ {
		if b.units[i] == id {
			b.units[i] = 0
		}
	}
}

func (b *Backend) ActiveTexture(unit uint32) {

	if unit >= gpu.MaxTextureUnits {
		b.setErr(InvalidEnum, "texture unit %d out of range", unit)
		return
	}

	b.activeUnit = unit
}

func (b *Backend) BindTexture(id uint32) {

	if _, ok := b.textures[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "bind of unknown texture %d", id)
		return
	}

	b.units[b.activeUnit] = id
}

// BoundTexture returns the texture bound to the given unit
func (b *Backend) BoundTexture(unit uint32) uint32 {
	return b.units[unit]
}

func (b *Backend) ActiveUnit() uint32 {
	return b.activeUnit
}

func (b *Backend) TexImage2D(format gpu.Format, width, height int32, pixels []byte) {

	tex := b.textures[b.units[b.activeUnit]]
	if tex == nil {
		b.setErr(InvalidOperation, "TexImage2D with no texture bound to unit %d", b.activeUnit)
		return
	}

	if width < 0 || height < 0 {
		b.setErr(InvalidValue, "TexImage2D with negative size %dx%d", width, height)
		return
	}

	tex.format = format
	tex.width = width
	tex.height = height
	tex.data = make([]float32, width*height*4)

	if len(pixels) == 0 {
		return
	}

	if len(pixels) < len(tex.data) {
		b.setErr(InvalidValue, "TexImage2D got %d bytes but needs %d", len(pixels), len(tex.data))
		return
	}

	for i := 0; i < len(tex.data); i++ {
		tex.data[i] = float32(pixels[i]) / 255
	}
}

func (b *Backend) TexFilter(min, mag gpu.Filter) {

	tex := b.textures[b.units[b.activeUnit]]
	if tex == nil {
		b.setErr(InvalidOperation, "TexFilter with no texture bound to unit %d", b.activeUnit)
		return
	}

	tex.minFilter = min
	tex.magFilter = mag
}

// TextureFilter returns the min and mag filters of a texture
func (b *Backend) TextureFilter(texId uint32) (min, mag gpu.Filter) {

	tex := b.textures[texId]
	if tex == nil {
		return gpu.Filter_Nearest, gpu.Filter_Nearest
	}

	return tex.minFilter, tex.magFilter
}

// TextureFormat returns the format a texture was allocated with
func (b *Backend) TextureFormat(texId uint32) gpu.Format {

	tex := b.textures[texId]
	if tex == nil {
		return gpu.Format_Unknown
	}

	return tex.format
}

func (b *Backend) GetTexImage(texId uint32) (rgba []float32, width, height int32) {

	tex := b.textures[texId]
	if tex == nil {
		b.setErr(InvalidValue, "GetTexImage of unknown texture %d", texId)
		return nil, 0, 0
	}

	return append([]float32(nil), tex.data...), tex.width, tex.height
}

func (b *Backend) GenRenderbuffer() uint32 {
	id := b.genId()
	b.renderbuffers[id] = &renderbuffer{}
	return id
}

func (b *Backend) DeleteRenderbuffer(id uint32) {

	if id == 0 {
		return
	}

	delete(b.renderbuffers, id)
	if b.boundRbo == id {
		b.boundRbo = 0
	}
}

func (b *Backend) BindRenderbuffer(id uint32) {

	if _, ok := b.renderbuffers[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "bind of unknown renderbuffer %d", id)
		return
	}

	b.boundRbo = id
}

func (b *Backend) RenderbufferStorage(format gpu.Format, width, height int32) {

	rbo := b.renderbuffers[b.boundRbo]
	if rbo == nil {
		b.setErr(InvalidOperation, "RenderbufferStorage with no renderbuffer bound")
		return
	}

	rbo.format = format
	rbo.width = width
	rbo.height = height
	rbo.data = make([]float32, width*height)
}

func (b *Backend) GenBuffer() uint32 {
	id := b.genId()
	b.buffers[id] = nil
	return id
}

func (b *Backend) DeleteBuffer(id uint32) {

	if id == 0 {
		return
	}

	delete(b.buffers, id)
	if b.arrayBuffer == id {
		b.arrayBuffer = 0
	}
}

func (b *Backend) BindBuffer(target gpu.BufferTarget, id uint32) {

	if _, ok := b.buffers[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "bind of unknown buffer %d", id)
		return
	}

	if target == gpu.BufferTarget_Array {
		b.arrayBuffer = id
		return
	}

	// The element buffer binding is part of the vertex array
	vao := b.vertexArrays[b.boundVao]
	if vao == nil {
		b.setErr(InvalidOperation, "element buffer bound with no vertex array bound")
		return
	}

	vao.elementBuffer = id
}

func (b *Backend) BufferData(target gpu.BufferTarget, data []byte, usage gpu.BufUsage) {

	if !usage.IsValid() {
		b.setErr(InvalidEnum, "invalid buffer usage %s", usage)
		return
	}

	var id uint32
	if target == gpu.BufferTarget_Array {
		id = b.arrayBuffer
	} else if vao := b.vertexArrays[b.boundVao]; vao != nil {
		id = vao.elementBuffer
	}

	if id == 0 {
		b.setErr(InvalidOperation, "BufferData with no buffer bound")
		return
	}

	b.buffers[id] = append([]byte(nil), data...)
}

func (b *Backend) GenVertexArray() uint32 {
	id := b.genId()
	b.vertexArrays[id] = &vertexArray{}
	return id
}

func (b *Backend) DeleteVertexArray(id uint32) {

	if id == 0 {
		return
	}

	delete(b.vertexArrays, id)
	if b.boundVao == id {
		b.boundVao = 0
	}
}

func (b *Backend) BindVertexArray(id uint32) {

	if _, ok := b.vertexArrays[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "bind of unknown vertex array %d", id)
		return
	}

	b.boundVao = id
}

func (b *Backend) VertexAttribPointer(index uint32, compCount int32, stride int32, offset int) {

	vao := b.vertexArrays[b.boundVao]
	if vao == nil {
		b.setErr(InvalidOperation, "VertexAttribPointer with no vertex array bound")
		return
	}

	if index >= MaxAttribs || compCount < 1 || compCount > 4 {
		b.setErr(InvalidValue, "invalid vertex attribute index=%d compCount=%d", index, compCount)
		return
	}

	if b.arrayBuffer == 0 {
		b.setErr(InvalidOperation, "VertexAttribPointer with no array buffer bound")
		return
	}

	vao.attribs[index] = attrib{
		enabled:   true,
		buffer:    b.arrayBuffer,
		compCount: compCount,
		stride:    stride,
		offset:    offset,
	}
}

func (b *Backend) UseProgram(id uint32) {

	if _, ok := b.programs[id]; !ok && id != 0 {
		b.setErr(InvalidOperation, "use of unknown program %d", id)
		return
	}

	b.boundProgram = id
}

func (b *Backend) Viewport(x, y, width, height int32) {
	b.viewport = [4]int32{x, y, width, height}
}

func (b *Backend) ClearColor(r, g, bl, a float32) {
	b.clearColor = [4]float32{r, g, bl, a}
}

func (b *Backend) Clear(mask gpu.ClearMask) {

	if b.boundFbo == 0 {

		if mask&gpu.ClearBit_Color != 0 {
			c := quantizeUnorm(b.clearColor)
			for i := 0; i < len(b.defaultColor); i += 4 {
				copy(b.defaultColor[i:i+4], c[:])
			}
		}

		if mask&gpu.ClearBit_Depth != 0 {
			fill(b.defaultDepth, 1)
		}

		return
	}

	fbo := b.framebuffers[b.boundFbo]

	// Color clears apply to every draw buffer
	if mask&gpu.ClearBit_Color != 0 {
		for i := 0; i < len(fbo.drawBuffers); i++ {

			tex := b.textures[fbo.attachments[fbo.drawBuffers[i]].texId]
			if tex == nil {
				continue
			}

			c := storeTexel(tex.format, b.clearColor)
			for j := 0; j < len(tex.data); j += 4 {
				copy(tex.data[j:j+4], c[:])
			}
		}
	}

	if mask&gpu.ClearBit_Depth != 0 {
		if depth, _, step := b.depthTarget(fbo); depth != nil {
			for i := 0; i < len(depth); i += int(step) {
				depth[i] = 1
			}
		}
	}
}

func (b *Backend) SetDepthTest(enabled bool) {
	b.depthTest = enabled
}

func (b *Backend) ReadPixels(x, y, width, height int32) []byte {

	color, stride, rows, channels := b.colorTarget0()
	out := make([]byte, width*height*4)
	if color == nil {
		b.setErr(InvalidFbOp, "ReadPixels with no color attachment 0")
		return out
	}

	for row := int32(0); row < height; row++ {
		for col := int32(0); col < width; col++ {

			sx, sy := x+col, y+row
			if sx < 0 || sy < 0 || sx >= stride || sy >= rows {
				continue
			}

			src := (sy*stride + sx) * channels
			dst := (row*width + col) * 4
			for c := int32(0); c < 4; c++ {
				out[dst+c] = toUnorm8(color[src+c])
			}
		}
	}

	return out
}

// colorTarget0 returns the storage of color attachment 0 of the bound framebuffer
func (b *Backend) colorTarget0() (data []float32, width, height, channels int32) {

	if b.boundFbo == 0 {
		return b.defaultColor, b.width, b.height, 4
	}

	tex := b.textures[b.framebuffers[b.boundFbo].attachments[gpu.ColorAttachment(0)].texId]
	if tex == nil {
		return nil, 0, 0, 0
	}

	return tex.data, tex.width, tex.height, 4
}

// depthTarget returns the depth storage of the framebuffer, nil if it has none.
// Step is the distance between two depth values, as depth textures keep depth in the red channel.
func (b *Backend) depthTarget(fbo *framebuffer) (data []float32, width, step int32) {

	for _, att := range []gpu.Attachment{gpu.Attachment_Depth, gpu.Attachment_DepthStencil} {

		a, ok := fbo.attachments[att]
		if !ok {
			continue
		}

		if a.rboId != 0 {
			if rbo := b.renderbuffers[a.rboId]; rbo != nil {
				return rbo.data, rbo.width, 1
			}
			continue
		}

		if tex := b.textures[a.texId]; tex != nil {
			return tex.data, tex.width, 4
		}
	}

	return nil, 0, 0
}

// Draws returns the draw calls issued since the last ResetDraws
func (b *Backend) Draws() []DrawCall {
	return append([]DrawCall(nil), b.draws...)
}

func (b *Backend) ResetDraws() {
	b.draws = b.draws[:0]
}

// Live returns the number of driver objects that currently exist, programs excluded
func (b *Backend) Live() int {
	return len(b.textures) + len(b.renderbuffers) + len(b.framebuffers) + len(b.buffers) + len(b.vertexArrays)
}

// Size returns the size of the default framebuffer
func (b *Backend) Size() (width, height int32) {
	return b.width, b.height
}

// storeTexel converts a shader output to what a texture of the given format stores
func storeTexel(format gpu.Format, c [4]float32) [4]float32 {

	switch {
	case format.IsNormalized():
		return quantizeUnorm(c)
	case format == gpu.Format_RGB16F:
		return [4]float32{c[0], c[1], c[2], 1}
	case format == gpu.Format_R32Int:
		return [4]float32{float32(math.Trunc(float64(c[0]))), 0, 0, 1}
	default:
		return c
	}
}

func quantizeUnorm(c [4]float32) [4]float32 {
	for i := 0; i < 4; i++ {
		c[i] = float32(toUnorm8(c[i])) / 255
	}
	return c
}

func toUnorm8(v float32) byte {

	if v != v || v <= 0 {
		return 0
	}

	if v >= 1 {
		return 255
	}

	return byte(math.Round(float64(v) * 255))
}

func fill(s []float32, v float32) {
	for i := 0; i < len(s); i++ {
		s[i] = v
	}
}

// New creates a backend whose default framebuffer has the given size
func New(width, height int32) *Backend {

	b := &Backend{
		CullBackFaces:      true,
		UnsupportedFormats: map[gpu.Format]bool{},

		textures:      map[uint32]*texture{},
		renderbuffers: map[uint32]*renderbuffer{},
		framebuffers:  map[uint32]*framebuffer{},
		buffers:       map[uint32][]byte{},
		vertexArrays:  map[uint32]*vertexArray{},
		programs:      map[uint32]*Program{},

		viewport:  [4]int32{0, 0, width, height},
		depthTest: true,

		width:        width,
		height:       height,
		defaultColor: make([]float32, width*height*4),
		defaultDepth: make([]float32, width*height),
	}

	fill(b.defaultDepth, 1)
	return b
}
