package deferred_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/bloeys/deferred/assets"
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/lights"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer/deferred"
	"github.com/bloeys/deferred/renderer/rend3dgl"
	"github.com/bloeys/deferred/softgl"
	"github.com/bloeys/gglm/gglm"
)

var gbufferDrawBuffers = []gpu.Attachment{gpu.ColorAttachment(0), gpu.ColorAttachment(1), gpu.ColorAttachment(2)}

type testPipeline struct {
	backend  *softgl.Backend
	ctx      *gpu.Context
	p        *deferred.Pipeline
	geomProg *softgl.Program
	litProg  *softgl.Program
}

func newTestPipeline(t *testing.T, width, height int32) *testPipeline {

	t.Helper()

	backend := softgl.New(64, 64)
	ctx := gpu.NewContext(backend, 64, 64)

	tp := &testPipeline{
		backend:  backend,
		ctx:      ctx,
		geomProg: softgl.NewGBufferProgram(backend),
		litProg:  softgl.NewLightingProgram(backend),
	}

	p, err := deferred.NewPipeline(ctx, rend3dgl.NewRend3DGL(ctx), width, height, tp.geomProg, tp.litProg)
	if err != nil {
		t.Fatal(err)
	}

	tp.p = p
	return tp
}

// identityCamera makes the model matrix the whole model-view-projection transform
func identityCamera() *camera.Camera {
	id := gglm.NewTrMatId()
	return &camera.Camera{ProjMat: id.Mat4, ViewMat: id.Mat4}
}

// solidQuad is a full screen quad textured with a single color in texture0
func solidQuad(t *testing.T, ctx *gpu.Context, r, g, b uint8) meshes.Mesh {

	t.Helper()

	tex, err := assets.NewSolidTexture(ctx, r, g, b, 255, &assets.TextureLoadOptions{NoSrgba: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Delete()

	quad, err := meshes.GenFullscreenQuad(ctx, tex.Ref)
	if err != nil {
		t.Fatal(err)
	}

	return quad
}

func checkAllTexels(t *testing.T, backend *softgl.Backend, tex uint32, want [4]float32) {

	t.Helper()

	data, w, h := backend.GetTexImage(tex)
	if len(data) != int(w*h*4) || len(data) == 0 {
		t.Fatalf("Unexpected texture data of %d floats for %dx%d", len(data), w, h)
	}

	for i := 0; i < len(data); i += 4 {
		got := [4]float32{data[i], data[i+1], data[i+2], data[i+3]}
		if got != want {
			t.Fatalf("Expected every texel to be %v, texel %d is %v", want, i/4, got)
		}
	}
}

func TestGBufferLayout(t *testing.T) {

	sizes := [][2]int32{{1, 1}, {64, 64}, {1024, 768}, {3, 500}}
	for _, size := range sizes {

		backend := softgl.New(8, 8)
		ctx := gpu.NewContext(backend, 8, 8)

		g, err := deferred.NewGBuffer(ctx, size[0], size[1])
		if err != nil {
			t.Fatalf("Size %v: %s", size, err)
		}

		if s := g.Status(); s != gpu.FramebufferStatus_Complete {
			t.Fatalf("Size %v: expected complete framebuffer, got %s", size, s)
		}

		attachments := g.GetAttachments()
		wantFormats := []gpu.Format{gpu.Format_RGB16F, gpu.Format_RGB16F, gpu.Format_RGBA8}
		if len(attachments) != len(wantFormats) {
			t.Fatalf("Size %v: expected %d color attachments, got %d", size, len(wantFormats), len(attachments))
		}

		for i, a := range attachments {

			if a.Format != wantFormats[i] || backend.TextureFormat(a.Id()) != wantFormats[i] {
				t.Fatalf("Size %v: expected attachment %d to be %s, got %s", size, i, wantFormats[i], a.Format)
			}

			if min, mag := backend.TextureFilter(a.Id()); min != gpu.Filter_Nearest || mag != gpu.Filter_Nearest {
				t.Fatalf("Size %v: expected attachment %d to use nearest filtering, got min=%s mag=%s", size, i, min, mag)
			}

			if a.Width != size[0] || a.Height != size[1] {
				t.Fatalf("Size %v: attachment %d has size %dx%d", size, i, a.Width, a.Height)
			}
		}

		depthCount := 0
		for _, a := range g.Fbo.Attachments {
			if a.Format.IsDepth() {
				depthCount++
				if a.Format != gpu.Format_Depth24 || a.Point != gpu.Attachment_Depth {
					t.Fatalf("Size %v: expected Depth24 depth attachment, got %+v", size, a)
				}
			}
		}

		if depthCount != 1 {
			t.Fatalf("Size %v: expected one depth attachment, got %d", size, depthCount)
		}

		if ctx.State().Framebuffer != 0 {
			t.Fatalf("Size %v: expected creation to leave the default framebuffer bound", size)
		}

		g.Delete()
		if backend.Live() != 0 {
			t.Fatalf("Size %v: expected G-buffer delete to free everything, %d objects left", size, backend.Live())
		}
	}
}

func TestGBufferDrawBuffersStable(t *testing.T) {

	backend := softgl.New(8, 8)
	ctx := gpu.NewContext(backend, 8, 8)

	g, err := deferred.NewGBuffer(ctx, 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {

		if prev := g.Bind(); prev != 0 {
			t.Fatalf("Expected default framebuffer bound before Bind, got %d", prev)
		}

		if prev := g.Unbind(); prev != g.Fbo.Ref.Id {
			t.Fatalf("Expected Unbind to return the G-buffer %d, got %d", g.Fbo.Ref.Id, prev)
		}

		if got := g.DrawBuffers(); !slices.Equal(got, gbufferDrawBuffers) {
			t.Fatalf("Expected draw buffers %v, got %v", gbufferDrawBuffers, got)
		}

		if got := backend.FramebufferDrawBuffers(g.Fbo.Ref.Id); !slices.Equal(got, gbufferDrawBuffers) {
			t.Fatalf("Expected driver draw buffers %v, got %v", gbufferDrawBuffers, got)
		}
	}
}

func TestIncompleteGBuffer(t *testing.T) {

	backend := softgl.New(8, 8)
	backend.UnsupportedFormats = map[gpu.Format]bool{gpu.Format_RGB16F: true}
	ctx := gpu.NewContext(backend, 8, 8)

	g, err := deferred.NewGBuffer(ctx, 16, 16)
	if g != nil || !errors.Is(err, deferred.ErrIncompleteFramebuffer) {
		t.Fatalf("Expected ErrIncompleteFramebuffer, got %v", err)
	}

	var fbErr *deferred.IncompleteFramebufferError
	if !errors.As(err, &fbErr) || fbErr.Status != gpu.FramebufferStatus_Unsupported {
		t.Fatalf("Expected status Unsupported in the error, got %v", err)
	}

	if backend.Live() != 0 {
		t.Fatalf("Expected failed G-buffer to free everything, %d objects left", backend.Live())
	}

	for _, size := range [][2]int32{{0, 16}, {16, 0}, {-1, -1}} {
		if _, err := deferred.NewGBuffer(gpu.NewContext(softgl.New(1, 1), 1, 1), size[0], size[1]); !errors.Is(err, deferred.ErrIncompleteFramebuffer) {
			t.Fatalf("Expected size %v to be rejected, got %v", size, err)
		}
	}
}

func TestScreenQuadBindsUnitsInOrder(t *testing.T) {

	backend := softgl.New(8, 8)
	ctx := gpu.NewContext(backend, 8, 8)

	refs := []gpu.Ref{ctx.NewTexture(), ctx.NewTexture(), ctx.NewTexture(), ctx.NewTexture()}
	prog := softgl.NewLightingProgram(backend)

	q, err := deferred.NewScreenQuad(ctx, rend3dgl.NewRend3DGL(ctx), refs)
	if err != nil {
		t.Fatal(err)
	}

	q.Draw(prog)
	q.DrawWithCamera(identityCamera(), prog, nil)
	q.Draw(prog)

	draws := backend.Draws()
	if len(draws) != 3 {
		t.Fatalf("Expected 3 draws, got %d", len(draws))
	}

	for d, draw := range draws {

		if draw.IndexCount != 6 || draw.Program != prog.Id() {
			t.Fatalf("Draw %d: unexpected draw %+v", d, draw)
		}

		for i, ref := range refs {

			if draw.Textures[i] != ref.Id {
				t.Fatalf("Draw %d: expected texture %d on unit %d, got %d", d, ref.Id, i, draw.Textures[i])
			}

			if unit, _ := prog.Int32("texture" + string(rune('0'+i))); unit != int32(i) {
				t.Fatalf("Draw %d: expected sampler texture%d to use unit %d, got %d", d, i, i, unit)
			}
		}
	}

	if ctx.State().TextureUnit != 0 {
		t.Fatalf("Expected active texture unit reset to 0, got %d", ctx.State().TextureUnit)
	}

	for _, ref := range refs {
		ctx.Res.Release(ref)
	}

	q.Delete()
	if backend.Live() != 0 {
		t.Fatalf("Expected everything deleted, %d objects left", backend.Live())
	}
}

func TestSharedAttachmentsOutliveGBuffer(t *testing.T) {

	backend := softgl.New(8, 8)
	ctx := gpu.NewContext(backend, 8, 8)

	g, err := deferred.NewGBuffer(ctx, 8, 8)
	if err != nil {
		t.Fatal(err)
	}

	q, err := deferred.NewScreenQuad(ctx, rend3dgl.NewRend3DGL(ctx), g.TextureRefs())
	if err != nil {
		t.Fatal(err)
	}

	refs := q.Textures()
	g.Delete()

	for _, ref := range refs {

		if ctx.Res.RefCount(ref) != 1 {
			t.Fatalf("Expected the quad to be the last owner of %s, ref count is %d", ref, ctx.Res.RefCount(ref))
		}

		if backend.TextureFormat(ref.Id) == gpu.Format_Unknown {
			t.Fatalf("Expected %s to still exist on the backend", ref)
		}
	}

	q.Delete()
	if backend.Live() != 0 {
		t.Fatalf("Expected everything deleted once, %d objects left", backend.Live())
	}

	if e := backend.GetError(); e != softgl.NoError {
		t.Fatalf("Expected no double delete errors, got 0x%x", e)
	}
}

func TestConstantAlbedoFillsGBuffer(t *testing.T) {

	tp := newTestPipeline(t, 64, 64)
	cam := identityCamera()

	quad := solidQuad(t, tp.ctx, 255, 0, 0)
	model := gglm.NewTrMatId()

	if err := tp.p.RenderFrame(cam, []deferred.Draw{{Mesh: &quad, Model: &model}}); err != nil {
		t.Fatal(err)
	}

	albedo := tp.p.GBuffer.GetAttachments()[deferred.GBufferAlbedoSpec]
	checkAllTexels(t, tp.backend, albedo.Id(), [4]float32{1, 0, 0, 1})

	normal := tp.p.GBuffer.GetAttachments()[deferred.GBufferNormal]
	checkAllTexels(t, tp.backend, normal.Id(), [4]float32{0, 0, 1, 1})
}

func TestZeroLightsIsAmbientOnly(t *testing.T) {

	tp := newTestPipeline(t, 64, 64)
	cam := identityCamera()

	if n := tp.p.SetLights(nil); n != 0 {
		t.Fatalf("Expected 0 lights uploaded, got %d", n)
	}

	quad := solidQuad(t, tp.ctx, 255, 0, 0)
	model := gglm.NewTrMatId()

	if err := tp.p.RenderFrame(cam, []deferred.Draw{{Mesh: &quad, Model: &model}}); err != nil {
		t.Fatal(err)
	}

	pixels := tp.backend.ReadPixels(0, 0, 64, 64)
	for i := 0; i < len(pixels); i += 4 {
		r, g, b := pixels[i], pixels[i+1], pixels[i+2]
		if r < 25 || r > 26 || g != 0 || b != 0 {
			t.Fatalf("Expected ambient red of about %.1f at pixel %d, got (%d,%d,%d)", softgl.AmbientFactor*255, i/4, r, g, b)
		}
	}
}

func TestLightAddsToAmbient(t *testing.T) {

	tp := newTestPipeline(t, 64, 64)
	cam := identityCamera()
	cam.Pos = gglm.NewVec3(0, 0, 5)

	n := tp.p.SetLights([]lights.Light{
		{Pos: gglm.NewVec3(0, 0, 1), Intensity: gglm.NewVec3(0.2, 0.2, 0.2)},
	})

	if n != 1 || tp.p.LightCount() != 1 {
		t.Fatalf("Expected 1 light uploaded, got %d", n)
	}

	if count, _ := tp.litProg.Int32(lights.CountUniform); count != 1 {
		t.Fatalf("Expected lightCount uniform of 1, got %d", count)
	}

	quad := solidQuad(t, tp.ctx, 255, 0, 0)
	model := gglm.NewTrMatId()

	if err := tp.p.RenderFrame(cam, []deferred.Draw{{Mesh: &quad, Model: &model}}); err != nil {
		t.Fatal(err)
	}

	if got := tp.litProg.Vec3(deferred.ViewPosUniform); got.Data != [3]float32{0, 0, 5} {
		t.Fatalf("Expected viewPos uniform to be the camera position, got %v", got)
	}

	// Center pixel faces the light, corners are further away
	pixels := tp.backend.ReadPixels(0, 0, 64, 64)
	center := pixels[(32*64+32)*4]
	corner := pixels[0]

	if center <= 26 || corner >= center {
		t.Fatalf("Expected lit center brighter than ambient and corner, center=%d corner=%d", center, corner)
	}
}

func TestClearRemovesStaleData(t *testing.T) {

	tp := newTestPipeline(t, 16, 16)
	cam := identityCamera()

	red := solidQuad(t, tp.ctx, 255, 0, 0)
	green := solidQuad(t, tp.ctx, 0, 255, 0)

	near := gglm.NewTrMatId()
	far := gglm.NewTrMatId()
	far.Translate(0, 0, 0.5)

	if err := tp.p.RenderFrame(cam, []deferred.Draw{{Mesh: &red, Model: &near}}); err != nil {
		t.Fatal(err)
	}

	// Without clearing the depth of the red quad would hide the further green quad
	if err := tp.p.RenderFrame(cam, []deferred.Draw{{Mesh: &green, Model: &far}}); err != nil {
		t.Fatal(err)
	}

	albedo := tp.p.GBuffer.GetAttachments()[deferred.GBufferAlbedoSpec]
	checkAllTexels(t, tp.backend, albedo.Id(), [4]float32{0, 1, 0, 1})

	// RGB16F has no alpha channel and reads back alpha as one
	tp.p.GBuffer.Clear()
	for _, a := range tp.p.GBuffer.GetAttachments() {

		want := [4]float32{0, 0, 0, 0}
		if a.Format == gpu.Format_RGB16F {
			want[3] = 1
		}

		checkAllTexels(t, tp.backend, a.Id(), want)
	}
}

func TestPassOrdering(t *testing.T) {

	tp := newTestPipeline(t, 32, 16)
	cam := identityCamera()
	quad := solidQuad(t, tp.ctx, 255, 255, 255)
	model := gglm.NewTrMatId()

	if err := tp.p.LightingPass(cam); !errors.Is(err, deferred.ErrGeometryPassIncomplete) {
		t.Fatalf("Expected lighting before geometry to fail with ErrGeometryPassIncomplete, got %v", err)
	}

	if err := tp.p.DrawMesh(&quad, &model, cam); !errors.Is(err, deferred.ErrInvalidPhase) {
		t.Fatalf("Expected DrawMesh outside the geometry pass to fail, got %v", err)
	}

	if err := tp.p.BeginGeometryPass(); err != nil {
		t.Fatal(err)
	}

	if err := tp.p.LightingPass(cam); !errors.Is(err, deferred.ErrGeometryPassIncomplete) {
		t.Fatalf("Expected lighting during the geometry pass to fail with ErrGeometryPassIncomplete, got %v", err)
	}

	if err := tp.p.DrawMesh(&quad, &model, cam); err != nil {
		t.Fatal(err)
	}

	if err := tp.p.EndGeometryPass(); err != nil {
		t.Fatal(err)
	}

	if err := tp.p.EndFrame(); !errors.Is(err, deferred.ErrInvalidPhase) {
		t.Fatalf("Expected EndFrame before lighting to fail, got %v", err)
	}

	if err := tp.p.LightingPass(cam); err != nil {
		t.Fatal(err)
	}

	if err := tp.p.LightingPass(cam); !errors.Is(err, deferred.ErrInvalidPhase) {
		t.Fatalf("Expected a second lighting pass in one frame to fail, got %v", err)
	}

	if err := tp.p.EndFrame(); err != nil {
		t.Fatal(err)
	}

	if tp.p.Phase() != deferred.Phase_Idle || tp.p.Frame() != 1 {
		t.Fatalf("Expected idle pipeline after one frame, got phase %s and frame %d", tp.p.Phase(), tp.p.Frame())
	}

	// The G-buffer of the previous frame doesn't count for this one
	if err := tp.p.LightingPass(cam); !errors.Is(err, deferred.ErrGeometryPassIncomplete) {
		t.Fatalf("Expected lighting without a geometry pass this frame to fail, got %v", err)
	}

	draws := tp.backend.Draws()
	if len(draws) != 2 {
		t.Fatalf("Expected a geometry and a lighting draw, got %d draws", len(draws))
	}

	geom, lit := draws[0], draws[1]
	if geom.Framebuffer != tp.p.GBuffer.Fbo.Ref.Id || geom.Program != tp.geomProg.Id() || geom.Viewport != [4]int32{0, 0, 32, 16} {
		t.Fatalf("Unexpected geometry draw %+v", geom)
	}

	if lit.Framebuffer != 0 || lit.Program != tp.litProg.Id() || lit.Viewport != [4]int32{0, 0, 64, 64} {
		t.Fatalf("Unexpected lighting draw %+v", lit)
	}

	for i, ref := range tp.p.GBuffer.TextureRefs() {
		if lit.Textures[i] != ref.Id {
			t.Fatalf("Expected G-buffer attachment %d on unit %d, got texture %d", ref.Id, i, lit.Textures[i])
		}
	}
}
