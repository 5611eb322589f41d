package gpu

import "github.com/bloeys/deferred/assert"

// State is the binding state of a Context. Zero values mean "nothing bound", with framebuffer zero
// being the default (on-screen) framebuffer.
type State struct {
	Framebuffer uint32
	TextureUnit uint32
	Program     uint32
	VertexArray uint32
	Textures    [MaxTextureUnits]uint32
}

// Context is the single owner of driver binding state. All binds must go through it so that
// State() always reflects what the driver has bound.
//
// A Context is not safe for concurrent use, the same as the driver context it wraps.
type Context struct {
	Gl  Backend
	Res *Resources

	state State

	// Size of the default framebuffer
	width  int32
	height int32
}

func (c *Context) State() State {
	return c.state
}

func (c *Context) DefaultSize() (width, height int32) {
	return c.width, c.height
}

func (c *Context) SetDefaultSize(width, height int32) {
	c.width = width
	c.height = height
}

// BindFramebuffer binds the framebuffer and returns the previously bound one
func (c *Context) BindFramebuffer(id uint32) (prev uint32) {

	prev = c.state.Framebuffer
	if prev == id {
		return prev
	}

	c.Gl.BindFramebuffer(id)
	c.state.Framebuffer = id
	return prev
}

// ActiveTexture sets the active texture unit and returns the previously active one
func (c *Context) ActiveTexture(unit uint32) (prev uint32) {

	assert.T(unit < MaxTextureUnits, "texture unit %d is out of range, max is %d", unit, MaxTextureUnits-1)

	prev = c.state.TextureUnit
	if prev == unit {
		return prev
	}

	c.Gl.ActiveTexture(unit)
	c.state.TextureUnit = unit
	return prev
}

// BindTexture binds the texture to the active texture unit and returns the texture previously bound there
func (c *Context) BindTexture(id uint32) (prev uint32) {

	prev = c.state.Textures[c.state.TextureUnit]
	if prev == id {
		return prev
	}

	c.Gl.BindTexture(id)
	c.state.Textures[c.state.TextureUnit] = id
	return prev
}

// UseProgram binds the shader program and returns the previously bound one
func (c *Context) UseProgram(id uint32) (prev uint32) {

	prev = c.state.Program
	if prev == id {
		return prev
	}

	c.Gl.UseProgram(id)
	c.state.Program = id
	return prev
}

// BindVertexArray binds the vertex array and returns the previously bound one
func (c *Context) BindVertexArray(id uint32) (prev uint32) {

	prev = c.state.VertexArray
	if prev == id {
		return prev
	}

	c.Gl.BindVertexArray(id)
	c.state.VertexArray = id
	return prev
}

// Restore rebinds everything in s
func (c *Context) Restore(s State) {

	c.BindFramebuffer(s.Framebuffer)
	c.UseProgram(s.Program)
	c.BindVertexArray(s.VertexArray)

	for unit := uint32(0); unit < MaxTextureUnits; unit++ {

		if c.state.Textures[unit] == s.Textures[unit] {
			continue
		}

		c.ActiveTexture(unit)
		c.BindTexture(s.Textures[unit])
	}

	c.ActiveTexture(s.TextureUnit)
}

// Reset unbinds everything on the driver, regardless of what the context thinks is bound
func (c *Context) Reset() {

	for unit := uint32(0); unit < MaxTextureUnits; unit++ {
		c.Gl.ActiveTexture(unit)
		c.Gl.BindTexture(0)
	}

	c.Gl.ActiveTexture(0)
	c.Gl.BindFramebuffer(0)
	c.Gl.UseProgram(0)
	c.Gl.BindVertexArray(0)
	c.state = State{}
}

func (c *Context) NewTexture() Ref {
	return c.track(Kind_Texture, c.Gl.GenTexture())
}

func (c *Context) NewRenderbuffer() Ref {
	return c.track(Kind_Renderbuffer, c.Gl.GenRenderbuffer())
}

func (c *Context) NewFramebuffer() Ref {
	return c.track(Kind_Framebuffer, c.Gl.GenFramebuffer())
}

func (c *Context) NewBuffer() Ref {
	return c.track(Kind_Buffer, c.Gl.GenBuffer())
}

func (c *Context) NewVertexArray() Ref {
	return c.track(Kind_VertexArray, c.Gl.GenVertexArray())
}

func (c *Context) track(kind Kind, id uint32) Ref {

	ref := Ref{Kind: kind, Id: id}
	if id == 0 {
		return ref
	}

	return c.Res.Track(ref)
}

// deleteObject is called by Resources once the last owner of an object released it.
// Deleting a bound object unbinds it, same as the driver does.
func (c *Context) deleteObject(ref Ref) {

	switch ref.Kind {

	case Kind_Texture:
		for unit := 0; unit < MaxTextureUnits; unit++ {
			if c.state.Textures[unit] == ref.Id {
				c.state.Textures[unit] = 0
			}
		}
		c.Gl.DeleteTexture(ref.Id)

	case Kind_Renderbuffer:
		c.Gl.DeleteRenderbuffer(ref.Id)

	case Kind_Framebuffer:
		if c.state.Framebuffer == ref.Id {
			c.state.Framebuffer = 0
		}
		c.Gl.DeleteFramebuffer(ref.Id)

	case Kind_Buffer:
		c.Gl.DeleteBuffer(ref.Id)

	case Kind_VertexArray:
		if c.state.VertexArray == ref.Id {
			c.state.VertexArray = 0
		}
		c.Gl.DeleteVertexArray(ref.Id)

	default:
		assert.T(false, "can not delete ref of unknown kind. Ref=%s", ref)
	}
}

// NewContext wraps the backend. Width and height are the size of the default framebuffer.
func NewContext(backend Backend, width, height int32) *Context {

	c := &Context{
		Gl:     backend,
		width:  width,
		height: height,
	}

	c.Res = NewResources(c.deleteObject)
	return c
}
