package softgl

import (
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/gglm/gglm"
)

const MaxVaryings = 16

// Attribs are the vertex attributes of one vertex. Components not provided by the
// vertex array default to (0,0,0,1).
type Attribs [MaxAttribs][4]float32

// Varyings are interpolated from the vertex shader outputs to the fragment shader inputs
type Varyings [MaxVaryings]float32

// VertexShader returns the clip space position of the vertex and writes its varyings to out
type VertexShader func(p *Program, in *Attribs, out *Varyings) [4]float32

// FragmentShader writes its color outputs to f.Out, where f.Out[i] is output location i
type FragmentShader func(f *Fragment)

type Fragment struct {
	In Varyings
	// Window space x, y and depth
	Coord [3]float32

	Out     [gpu.MaxColorAttachments][4]float32
	Discard bool

	prog *Program
}

func (f *Fragment) Program() *Program {
	return f.prog
}

// Texture samples the texture bound to the unit stored in the named sampler uniform.
// Unbound units sample as (0,0,0,1).
func (f *Fragment) Texture(sampler string, u, v float32) [4]float32 {

	unit, ok := f.prog.ints[sampler]
	if !ok || unit < 0 || int(unit) >= len(f.prog.b.units) {
		return [4]float32{0, 0, 0, 1}
	}

	return f.prog.b.textures[f.prog.b.units[unit]].sample(u, v)
}

// Program is a shader program made of Go functions. Uniforms are kept by name
// and can be read back, which is what tests use to check uploads.
type Program struct {
	Name string

	b        *Backend
	id       uint32
	vertex   VertexShader
	fragment FragmentShader

	ints   map[string]int32
	floats map[string][]float32
}

func (p *Program) Id() uint32 {
	return p.id
}

func (p *Program) SetUnifInt32(uniformName string, val int32) {
	p.ints[uniformName] = val
}

func (p *Program) SetUnifFloat32(uniformName string, val float32) {
	p.floats[uniformName] = []float32{val}
}

func (p *Program) SetUnifVec3(uniformName string, vec3 *gglm.Vec3) {
	p.floats[uniformName] = []float32{vec3.Data[0], vec3.Data[1], vec3.Data[2]}
}

func (p *Program) SetUnifMat4(uniformName string, mat4 *gglm.Mat4) {

	data := make([]float32, 16)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			data[c*4+r] = mat4.Data[c][r]
		}
	}

	p.floats[uniformName] = data
}

// SetUnifMat2x3Array sets an array of column major mat2x3 starting at the named element
func (p *Program) SetUnifMat2x3Array(uniformName string, data []float32) {

	if len(data)%6 != 0 {
		logging.WarnLog.Printf("mat2x3 array '%s' of program '%s' has %d floats, which isn't a multiple of 6\n", uniformName, p.Name, len(data))
	}

	p.floats[uniformName] = append([]float32(nil), data...)
}

func (p *Program) Delete() {
	delete(p.b.programs, p.id)
	if p.b.boundProgram == p.id {
		p.b.boundProgram = 0
	}
}

func (p *Program) Int32(uniformName string) (int32, bool) {
	v, ok := p.ints[uniformName]
	return v, ok
}

// Floats returns the raw values of a float uniform, nil if it was never set
func (p *Program) Floats(uniformName string) []float32 {
	return p.floats[uniformName]
}

func (p *Program) Float32(uniformName string) float32 {

	v := p.floats[uniformName]
	if len(v) == 0 {
		return 0
	}

	return v[0]
}

func (p *Program) Vec3(uniformName string) gglm.Vec3 {

	var out gglm.Vec3
	copy(out.Data[:], p.floats[uniformName])
	return out
}

// Mat4 returns identity if the uniform was never set
func (p *Program) Mat4(uniformName string) gglm.Mat4 {

	v := p.floats[uniformName]
	if len(v) != 16 {
		return gglm.NewMat4Id()
	}

	var out gglm.Mat4
	for c := 0; c < 4; c++ {
		copy(out.Data[c][:], v[c*4:c*4+4])
	}

	return out
}

// NewProgram registers a program made of the given shader functions
func (b *Backend) NewProgram(name string, vertex VertexShader, fragment FragmentShader) *Program {

	p := &Program{
		Name:     name,
		b:        b,
		id:       b.genId(),
		vertex:   vertex,
		fragment: fragment,
		ints:     map[string]int32{},
		floats:   map[string][]float32{},
	}

	b.programs[p.id] = p
	return p
}
