package softgl

import (
	"math"

	"github.com/bloeys/gglm/gglm"
)

// Go versions of the programs under res/shaders. They use the same attribute locations,
// uniform names and outputs so the renderers can't tell them apart.

// Varying slots
const (
	varyFragPos = 0
	varyNormal  = 3
	varyUv      = 6
)

// Lighting constants, keep in sync with lighting.glsl and forward.glsl
const (
	AmbientFactor  = 0.1
	SpecularPower  = 16
	AttenLinear    = 0.35
	AttenQuadratic = 0.44
)

// NewGBufferProgram writes world position, normal and albedo+specular to output locations 0, 1 and 2
func NewGBufferProgram(b *Backend) *Program {
	return b.NewProgram("gbuffer", meshVertex, gbufferFragment)
}

// NewLightingProgram resolves the G-buffer bound to texture0..texture2 against the uploaded lights
func NewLightingProgram(b *Backend) *Program {
	return b.NewProgram("lighting", screenQuadVertex, lightingFragment)
}

// NewForwardProgram lights meshes directly, used by the immediate renderer
func NewForwardProgram(b *Backend) *Program {
	return b.NewProgram("forward", meshVertex, forwardFragment)
}

func meshVertex(p *Program, in *Attribs, out *Varyings) [4]float32 {

	pos := gglm.Vec4{Data: [4]float32{in[0][0], in[0][1], in[0][2], 1}}
	normal := gglm.NewVec3(in[1][0], in[1][1], in[1][2])

	m := p.Mat4("mMx")
	world := gglm.MulMat4Vec4(&m, &pos)

	m3 := m.ToMat3()
	worldNormal := gglm.MulMat3Vec3(&m3, &normal)

	copy(out[varyFragPos:], world.Data[:3])
	copy(out[varyNormal:], worldNormal.Data[:])
	out[varyUv] = in[2][0]
	out[varyUv+1] = in[2][1]

	mvp := p.Mat4("mvpMx")
	return gglm.MulMat4Vec4(&mvp, &pos).Data
}

func gbufferFragment(f *Fragment) {

	fragPos, normal, uv := surfaceInputs(f)
	albedo, spec := surfaceColor(f, uv)

	f.Out[0] = [4]float32{fragPos.X(), fragPos.Y(), fragPos.Z(), 1}
	f.Out[1] = [4]float32{normal.X(), normal.Y(), normal.Z(), 1}
	f.Out[2] = [4]float32{albedo.R(), albedo.G(), albedo.B(), spec}
}

func forwardFragment(f *Fragment) {

	fragPos, normal, uv := surfaceInputs(f)
	albedo, spec := surfaceColor(f, uv)

	c := shade(f.Program(), &fragPos, &normal, &albedo, spec)
	f.Out[0] = [4]float32{c.R(), c.G(), c.B(), 1}
}

func screenQuadVertex(p *Program, in *Attribs, out *Varyings) [4]float32 {
	out[varyUv] = in[2][0]
	out[varyUv+1] = in[2][1]
	return [4]float32{in[0][0], in[0][1], in[0][2], 1}
}

func lightingFragment(f *Fragment) {

	u, v := f.In[varyUv], f.In[varyUv+1]

	pos := f.Texture("texture0", u, v)
	normal := f.Texture("texture1", u, v)
	albedoSpec := f.Texture("texture2", u, v)

	fragPos := gglm.NewVec3(pos[0], pos[1], pos[2])
	n := gglm.NewVec3(normal[0], normal[1], normal[2])
	albedo := gglm.NewVec3(albedoSpec[0], albedoSpec[1], albedoSpec[2])

	c := shade(f.Program(), &fragPos, &n, &albedo, albedoSpec[3])
	f.Out[0] = [4]float32{c.R(), c.G(), c.B(), 1}
}

func surfaceInputs(f *Fragment) (fragPos, normal gglm.Vec3, uv gglm.Vec2) {
	fragPos = gglm.NewVec3(f.In[varyFragPos], f.In[varyFragPos+1], f.In[varyFragPos+2])
	normal = gglm.NewVec3(f.In[varyNormal], f.In[varyNormal+1], f.In[varyNormal+2])
	uv = gglm.NewVec2(f.In[varyUv], f.In[varyUv+1])
	normalize(&normal)
	return fragPos, normal, uv
}

// surfaceColor reads albedo from texture0 and specular from the roughness in texture2
func surfaceColor(f *Fragment, uv gglm.Vec2) (albedo gglm.Vec3, spec float32) {
	a := f.Texture("texture0", uv.X(), uv.Y())
	rough := f.Texture("texture2", uv.X(), uv.Y())
	return gglm.NewVec3(a[0], a[1], a[2]), 1 - rough[0]
}

// shade is Blinn-Phong over every uploaded light plus an ambient term
func shade(p *Program, fragPos, normal, albedo *gglm.Vec3, spec float32) gglm.Vec3 {

	out := *albedo
	out.Scale(AmbientFactor)

	lights := p.Floats("lights[0]")
	count, _ := p.Int32("lightCount")
	count = min(count, int32(len(lights)/6))

	viewPos := p.Vec3("viewPos")
	viewDir := gglm.SubVec3(&viewPos, fragPos)
	normalize(&viewDir)

	for i := int32(0); i < count; i++ {

		l := lights[i*6 : i*6+6]
		lightPos := gglm.NewVec3(l[0], l[1], l[2])
		intensity := gglm.NewVec3(l[3], l[4], l[5])

		dist := gglm.DistVec3(&lightPos, fragPos)
		lightDir := gglm.SubVec3(&lightPos, fragPos)
		normalize(&lightDir)

		diffuse := *albedo
		diffuse.ScaleVec(&intensity).Scale(max(gglm.DotVec3(normal, &lightDir), 0))

		halfway := gglm.AddVec3(&lightDir, &viewDir)
		normalize(&halfway)

		specAmount := float32(math.Pow(float64(max(gglm.DotVec3(normal, &halfway), 0)), SpecularPower))
		specular := intensity
		specular.Scale(specAmount * spec)

		atten := 1 / (1 + AttenLinear*dist + AttenQuadratic*dist*dist)
		out.Add(diffuse.Add(&specular).Scale(atten))
	}

	return out
}

// normalize leaves zero length vectors as they are so they don't turn into NaNs
func normalize(v *gglm.Vec3) {
	if v.SqrMag() == 0 {
		return
	}
	v.Normalize()
}
