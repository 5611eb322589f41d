package glbackend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bloeys/deferred/assert"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/gglm/gglm"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var _ shaders.Program = &Program{}

// Program is a linked GL shader program with a cache of uniform locations.
// Uniforms are set with glProgramUniform*, so the program doesn't need to be bound.
type Program struct {
	Name     string
	id       uint32
	unifLocs map[string]int32
}

func (p *Program) Id() uint32 {
	return p.id
}

func (p *Program) GetUnifLoc(uniformName string) int32 {

	loc, ok := p.unifLocs[uniformName]
	if ok {
		return loc
	}

	name := gl.Str(uniformName + "\x00")
	loc = gl.GetUniformLocation(p.id, name)

	// Unused uniforms get optimized out by the driver. GL ignores sets on location -1.
	if loc == -1 {
		logging.WarnLog.Printf("Uniform '%s' doesn't exist or is unused on program '%s'\n", uniformName, p.Name)
	}

	p.unifLocs[uniformName] = loc
	return loc
}

func (p *Program) SetUnifInt32(uniformName string, val int32) {
	gl.ProgramUniform1i(p.id, p.GetUnifLoc(uniformName), val)
}

func (p *Program) SetUnifFloat32(uniformName string, val float32) {
	gl.ProgramUniform1f(p.id, p.GetUnifLoc(uniformName), val)
}

func (p *Program) SetUnifVec3(uniformName string, vec3 *gglm.Vec3) {
	gl.ProgramUniform3fv(p.id, p.GetUnifLoc(uniformName), 1, &vec3.Data[0])
}

func (p *Program) SetUnifMat4(uniformName string, mat4 *gglm.Mat4) {
	gl.ProgramUniformMatrix4fv(p.id, p.GetUnifLoc(uniformName), 1, false, &mat4.Data[0][0])
}

func (p *Program) SetUnifMat2x3Array(uniformName string, data []float32) {

	assert.T(len(data)%6 == 0, "mat2x3 array '%s' of program '%s' has %d floats, which isn't a multiple of 6", uniformName, p.Name, len(data))
	if len(data) == 0 {
		return
	}

	gl.ProgramUniformMatrix2x3fv(p.id, p.GetUnifLoc(uniformName), int32(len(data)/6), false, &data[0])
}

func (p *Program) Delete() {
	gl.DeleteProgram(p.id)
	p.id = 0
}

func LoadAndCompileCombinedShader(name, shaderPath string) (*Program, error) {

	combinedSource, err := os.ReadFile(shaderPath)
	if err != nil {
		logging.ErrLog.Println("Failed to read shader. Err: ", err)
		return nil, err
	}

	return LoadAndCompileCombinedShaderSrc(name, combinedSource)
}

func LoadAndCompileCombinedShaderSrc(name string, shaderSrc []byte) (*Program, error) {

	stages, err := shaders.SplitCombinedShader(shaderSrc)
	if err != nil {
		return nil, err
	}

	id := gl.CreateProgram()
	if id == 0 {
		return nil, errors.New("failed to create shader program")
	}

	shaderIds := make([]uint32, 0, len(stages))
	for i := 0; i < len(stages); i++ {

		shdrId, err := compileShaderOfType(stages[i].Src, stages[i].Type)
		if err != nil {

			for _, s := range shaderIds {
				gl.DeleteShader(s)
			}
			gl.DeleteProgram(id)

			return nil, fmt.Errorf("failed to compile %s shader of program '%s'. Err: %w", stages[i].Type, name, err)
		}

		gl.AttachShader(id, shdrId)
		shaderIds = append(shaderIds, shdrId)
	}

	gl.LinkProgram(id)
	for _, s := range shaderIds {
		gl.DeleteShader(s)
	}

	if err := getProgramLinkErrors(id); err != nil {
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("failed to link program '%s'. Err: %w", name, err)
	}

	return &Program{
		Name:     name,
		id:       id,
		unifLocs: make(map[string]int32),
	}, nil
}

func shaderTypeToGl(s shaders.ShaderType) uint32 {

	switch s {
	case shaders.ShaderType_Vertex:
		return gl.VERTEX_SHADER
	case shaders.ShaderType_Fragment:
		return gl.FRAGMENT_SHADER
	case shaders.ShaderType_Geometry:
		return gl.GEOMETRY_SHADER

	default:
		logging.ErrLog.Fatalf("Unknown shader type '%d'\n", s)
		return 0
	}
}

func compileShaderOfType(shaderSource []byte, shaderType shaders.ShaderType) (uint32, error) {

	shaderId := gl.CreateShader(shaderTypeToGl(shaderType))
	if shaderId == 0 {
		return 0, fmt.Errorf("failed to create OpenGl shader. OpenGl Error=%d", gl.GetError())
	}

	//Load shader source and compile
	shaderCStr, shaderFree := gl.Strs(string(shaderSource) + "\x00")
	defer shaderFree()
	gl.ShaderSource(shaderId, 1, shaderCStr, nil)

	gl.CompileShader(shaderId)
	if err := getShaderCompileErrors(shaderId); err != nil {
		gl.DeleteShader(shaderId)
		return 0, err
	}

	return shaderId, nil
}

func getShaderCompileErrors(shaderId uint32) error {

	var compiledSuccessfully int32
	gl.GetShaderiv(shaderId, gl.COMPILE_STATUS, &compiledSuccessfully)
	if compiledSuccessfully == gl.TRUE {
		return nil
	}

	var logLength int32
	gl.GetShaderiv(shaderId, gl.INFO_LOG_LENGTH, &logLength)

	log := gl.Str(strings.Repeat("\x00", int(logLength)))
	gl.GetShaderInfoLog(shaderId, logLength, nil, log)

	errMsg := gl.GoStr(log)
	logging.ErrLog.Println("Compilation of shader with id ", shaderId, " failed. Err: ", errMsg)
	return errors.New(errMsg)
}

func getProgramLinkErrors(programId uint32) error {

	var linkedSuccessfully int32
	gl.GetProgramiv(programId, gl.LINK_STATUS, &linkedSuccessfully)
	if linkedSuccessfully == gl.TRUE {
		return nil
	}

	var logLength int32
	gl.GetProgramiv(programId, gl.INFO_LOG_LENGTH, &logLength)

	log := gl.Str(strings.Repeat("\x00", int(logLength)))
	gl.GetProgramInfoLog(programId, logLength, nil, log)

	return errors.New(gl.GoStr(log))
}
