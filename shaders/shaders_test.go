package shaders_test

import (
	"strings"
	"testing"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/deferred/softgl"
)

func TestSplitCombinedShader(t *testing.T) {

	src := `//shader:vertex
#version 410
void main() {}

//shader:fragment
#version 410
void main() {}
`

	stages, err := shaders.SplitCombinedShader([]byte(src))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(stages) != 2 || stages[0].Type != shaders.ShaderType_Vertex || stages[1].Type != shaders.ShaderType_Fragment {
		t.Fatalf("Expected vertex then fragment stage, got %+v", stages)
	}

	if !strings.HasPrefix(strings.TrimSpace(string(stages[1].Src)), "#version 410") {
		t.Fatalf("Expected stage source without the marker, got %q", stages[1].Src)
	}
}

func TestSplitCombinedShaderErrors(t *testing.T) {

	tests := []struct {
		name string
		src  string
	}{
		{"no markers", "void main() {}"},
		{"no fragment", "//shader:vertex\nvoid main() {}"},
		{"no vertex", "//shader:fragment\nvoid main() {}"},
		{"unknown stage", "//shader:vertex\nx\n//shader:compute\ny"},
		{"duplicate stage", "//shader:vertex\nx\n//shader:vertex\ny\n//shader:fragment\nz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := shaders.SplitCombinedShader([]byte(tt.src)); err == nil {
				t.Fatalf("Expected an error for %q", tt.src)
			}
		})
	}
}

func TestSetTexture(t *testing.T) {

	backend := softgl.New(1, 1)
	ctx := gpu.NewContext(backend, 1, 1)
	prog := backend.NewProgram("p", nil, nil)

	tex := ctx.NewTexture()
	shaders.SetTexture(ctx, prog, 2, shaders.SamplerName(2), tex.Id)

	if unit, ok := prog.Int32("texture2"); !ok || unit != 2 {
		t.Fatalf("Expected sampler texture2 to be set to unit 2, got %d (set=%v)", unit, ok)
	}

	if backend.BoundTexture(2) != tex.Id || ctx.State().TextureUnit != 2 {
		t.Fatalf("Expected texture %d on active unit 2, got %d on unit %d", tex.Id, backend.BoundTexture(2), ctx.State().TextureUnit)
	}
}
