package shaders

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/gglm/gglm"
)

// Program is a linked shader program. Uniform setters take the uniform name as written in the shader,
// array uniforms are set through their first element (e.g. "lights[0]").
type Program interface {
	Id() uint32

	SetUnifInt32(uniformName string, val int32)
	SetUnifFloat32(uniformName string, val float32)
	SetUnifVec3(uniformName string, vec3 *gglm.Vec3)
	SetUnifMat4(uniformName string, mat4 *gglm.Mat4)
	// SetUnifMat2x3Array sets len(data)/6 column major mat2x3 values
	SetUnifMat2x3Array(uniformName string, data []float32)

	Delete()
}

// Source is the source of one shader stage
type Source struct {
	Type ShaderType
	Src  []byte
}

// SplitCombinedShader splits a combined shader file into its stages. Each stage starts
// with a '//shader:vertex', '//shader:fragment' or '//shader:geometry' line.
// A vertex and a fragment stage are required.
func SplitCombinedShader(shaderSrc []byte) ([]Source, error) {

	shaderSources := bytes.Split(shaderSrc, []byte("//shader:"))
	if len(shaderSources) < 2 {
		return nil, errors.New("failed to read combined shader. The minimum shader types to have are '//shader:vertex' and '//shader:fragment'")
	}

	out := make([]Source, 0, len(shaderSources))
	seen := map[ShaderType]bool{}
	for i := 0; i < len(shaderSources); i++ {

		src := shaderSources[i]

		//This can happen when the shader type is at the start of the file
		if len(bytes.TrimSpace(src)) == 0 {
			continue
		}

		var shdrType ShaderType
		if bytes.HasPrefix(src, []byte("vertex")) {
			src = src[6:]
			shdrType = ShaderType_Vertex
		} else if bytes.HasPrefix(src, []byte("fragment")) {
			src = src[8:]
			shdrType = ShaderType_Fragment
		} else if bytes.HasPrefix(src, []byte("geometry")) {
			src = src[8:]
			shdrType = ShaderType_Geometry
		} else {
			return nil, errors.New("unknown shader type. Must be '//shader:vertex' or '//shader:fragment' or '//shader:geometry'")
		}

		if seen[shdrType] {
			return nil, fmt.Errorf("combined shader has more than one %s shader", shdrType)
		}

		seen[shdrType] = true
		out = append(out, Source{Type: shdrType, Src: src})
	}

	if !seen[ShaderType_Vertex] {
		return nil, errors.New("no valid vertex shader found. Please put '//shader:vertex' before your vertex shader")
	}

	if !seen[ShaderType_Fragment] {
		return nil, errors.New("no valid fragment shader found. Please put '//shader:fragment' before your fragment shader")
	}

	return out, nil
}

// SamplerName returns the name of the sampler uniform for texture unit i (e.g. "texture2")
func SamplerName(unit uint32) string {
	return fmt.Sprintf("texture%d", unit)
}

// SetTexture binds the texture to the texture unit and points the named sampler of the program at it.
// The unit stays active after the call.
func SetTexture(ctx *gpu.Context, prog Program, unit uint32, samplerName string, texId uint32) {
	ctx.ActiveTexture(unit)
	ctx.BindTexture(texId)
	prog.SetUnifInt32(samplerName, int32(unit))
}
