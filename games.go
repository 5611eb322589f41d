package main

import (
	"fmt"

	"github.com/bloeys/deferred/assets"
	"github.com/bloeys/deferred/camera"
	"github.com/bloeys/deferred/engine"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/input"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/meshes"
	"github.com/bloeys/deferred/renderer/deferred"
	"github.com/bloeys/deferred/renderer/immediate"
	"github.com/bloeys/deferred/renderer/rend3dgl"
	"github.com/bloeys/deferred/scene"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/deferred/timing"
	"github.com/bloeys/gglm/gglm"
)

const (
	camMoveSpeed        float32 = 5
	camRollSpeed        float32 = 1
	camMouseSensitivity float32 = 0.003
)

// loadSceneMesh loads the color, normal and roughness textures of the scene into units 0, 1 and 2
// and creates the mesh drawn at every grid position
func loadSceneMesh(ctx *gpu.Context, cfg *scene.TexturesConfig, modelPath string) (meshes.Mesh, error) {

	color, err := assets.LoadTexturePNGOr(ctx, cfg.Color, &assets.TextureLoadOptions{}, [4]uint8{200, 200, 200, 255})
	if err != nil {
		return meshes.Mesh{}, err
	}
	defer color.Delete()

	normal, err := assets.LoadTexturePNGOr(ctx, cfg.Normal, &assets.TextureLoadOptions{NoSrgba: true}, [4]uint8{128, 128, 255, 255})
	if err != nil {
		return meshes.Mesh{}, err
	}
	defer normal.Delete()

	roughness, err := assets.LoadTexturePNGOr(ctx, cfg.Roughness, &assets.TextureLoadOptions{NoSrgba: true}, [4]uint8{128, 128, 128, 255})
	if err != nil {
		return meshes.Mesh{}, err
	}
	defer roughness.Delete()

	// The mesh keeps its own references to the textures
	if modelPath != "" {
		return meshes.LoadMesh(ctx, modelPath, modelPath, meshes.DefaultMeshLoadFlags, color.Ref, normal.Ref, roughness.Ref)
	}

	return meshes.GenCubeMesh(ctx, color.Ref, normal.Ref, roughness.Ref)
}

func newCamera(cfg *scene.CameraConfig, width, height int32) *camera.Camera {

	pos := gglm.NewVec3(cfg.Pos[0], cfg.Pos[1], cfg.Pos[2])
	forward := gglm.NewVec3(0, 0, 1)
	worldUp := gglm.NewVec3(0, 1, 0)

	return camera.NewPerspective(&pos, &forward, &worldUp, cfg.NearClip, cfg.FarClip, cfg.Fov*gglm.Deg2Rad, float32(width)/float32(height))
}

// handleResize follows the drawable size of the window, which the lighting and forward passes draw at
func handleResize(win engine.Window, ctx *gpu.Context, cam *camera.Camera) {

	w, h := win.DrawableSize()
	if w <= 0 || h <= 0 {
		return
	}

	if cw, ch := ctx.DefaultSize(); cw == w && ch == h {
		return
	}

	ctx.SetDefaultSize(w, h)
	cam.AspectRatio = float32(w) / float32(h)
	cam.Update()
}

func logLightCount(uploaded, requested int) {

	if uploaded < requested {
		logging.WarnLog.Printf("Only %d of %d lights were uploaded, the shaders support a limited number\n", uploaded, requested)
		return
	}

	logging.InfoLog.Printf("Lights: %d\n", uploaded)
}

// deferredGame draws a grid of spinning cubes into the G-buffer then lights it in one screen pass,
// with the camera orbiting the origin
type deferredGame struct {
	opts  *options
	win   engine.Window
	ctx   *gpu.Context
	progs programSource
	scene *scene.Scene

	cam      *camera.Camera
	mesh     meshes.Mesh
	pipeline *deferred.Pipeline
	draws    []deferred.Draw

	geomProg shaders.Program
	litProg  shaders.Program
}

func (g *deferredGame) Init() error {

	var err error
	cfg := &g.scene.Config

	g.geomProg, err = g.progs.GBuffer()
	if err != nil {
		return fmt.Errorf("failed to create gbuffer program: %w", err)
	}

	g.litProg, err = g.progs.Lighting()
	if err != nil {
		return fmt.Errorf("failed to create lighting program: %w", err)
	}

	// The G-buffer keeps the size asked for on the command line, the screen quad stretches it over the window
	g.pipeline, err = deferred.NewPipeline(g.ctx, rend3dgl.NewRend3DGL(g.ctx), int32(g.opts.DisplayX), int32(g.opts.DisplayY), g.geomProg, g.litProg)
	if err != nil {
		logging.ErrLog.Fatalf("Failed to create G-buffer of size %dx%d. Err: %v\n", g.opts.DisplayX, g.opts.DisplayY, err)
	}

	g.mesh, err = loadSceneMesh(g.ctx, &cfg.Textures, g.opts.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to create scene mesh: %w", err)
	}

	logLightCount(g.pipeline.SetLights(g.scene.Lights), len(g.scene.Lights))

	g.draws = make([]deferred.Draw, len(g.scene.Objects))
	for i := 0; i < len(g.scene.Objects); i++ {
		g.draws[i] = deferred.Draw{Mesh: &g.mesh, Model: &g.scene.Objects[i].Model}
	}

	w, h := g.ctx.DefaultSize()
	g.cam = newCamera(&cfg.Camera, w, h)
	g.cam.Orbit(cfg.Camera.OrbitRadius, 0)

	return nil
}

func (g *deferredGame) Update() {

	if input.KeyClicked(input.KeyEscape) {
		input.HandleQuit()
	}

	handleResize(g.win, g.ctx, g.cam)

	t := float32(timing.ElapsedTime())
	g.cam.Orbit(g.scene.Config.Camera.OrbitRadius, t*g.scene.Config.Camera.OrbitSpeed)
	g.scene.Update(t)
}

func (g *deferredGame) Render() error {
	return g.pipeline.RenderFrame(g.cam, g.draws)
}

func (g *deferredGame) FrameEnd() {
}

func (g *deferredGame) DeInit() {
	g.mesh.Delete()
	g.pipeline.Delete()
	g.geomProg.Delete()
	g.litProg.Delete()
}

// immediateGame forward renders the grid with a fly camera.
// W/S, A/D, Space/C and E/Q move, strafe, rise and roll. M captures the cursor for mouse look and Escape frees it.
type immediateGame struct {
	opts  *options
	win   engine.Window
	ctx   *gpu.Context
	progs programSource
	scene *scene.Scene

	cam      *camera.Camera
	mesh     meshes.Mesh
	rend     *immediate.Renderer
	draws    []immediate.Draw
	prog     shaders.Program
	captured bool
}

func (g *immediateGame) Init() error {

	var err error
	cfg := &g.scene.Config

	g.prog, err = g.progs.Forward()
	if err != nil {
		return fmt.Errorf("failed to create forward program: %w", err)
	}

	g.mesh, err = loadSceneMesh(g.ctx, &cfg.Textures, g.opts.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to create scene mesh: %w", err)
	}

	g.rend = immediate.New(g.ctx, rend3dgl.NewRend3DGL(g.ctx), g.prog)
	logLightCount(g.rend.SetLights(g.scene.Lights), len(g.scene.Lights))

	g.draws = make([]immediate.Draw, len(g.scene.Objects))
	for i := 0; i < len(g.scene.Objects); i++ {
		g.draws[i] = immediate.Draw{Mesh: &g.mesh, Model: &g.scene.Objects[i].Model}
	}

	w, h := g.ctx.DefaultSize()
	g.cam = newCamera(&cfg.Camera, w, h)

	return nil
}

func (g *immediateGame) Update() {

	if input.KeyClicked(input.KeyEscape) {
		g.captured = false
		g.win.SetCursorCaptured(false)
	}

	if input.KeyClicked(input.KeyM) {
		g.captured = true
		g.win.SetCursorCaptured(true)
	}

	handleResize(g.win, g.ctx, g.cam)
	g.updateCamera()

	g.scene.Update(float32(timing.ElapsedTime()))
}

func (g *immediateGame) updateCamera() {

	dt := timing.DT()

	var speedScale float32 = 1
	if input.KeyDown(input.KeyLeftShift) {
		speedScale = 2
	}

	move := camMoveSpeed * speedScale * dt
	forward := input.KeyAxis(input.KeyW, input.KeyS) * move
	right := input.KeyAxis(input.KeyD, input.KeyA) * move
	up := input.KeyAxis(input.KeySpace, input.KeyC) * move

	if forward != 0 || right != 0 || up != 0 {
		g.cam.Move(right, up, forward)
	}

	roll := input.KeyAxis(input.KeyE, input.KeyQ) * camRollSpeed * dt

	var dYaw, dPitch float32
	if g.captured {
		mouseX, mouseY := input.GetMouseMotion()
		dYaw = mouseX * camMouseSensitivity
		dPitch = -mouseY * camMouseSensitivity
	}

	if dYaw != 0 || dPitch != 0 || roll != 0 {
		g.cam.MoveLook(dYaw, dPitch, roll)
	}
}

func (g *immediateGame) Render() error {
	return g.rend.RenderFrame(g.cam, g.draws)
}

func (g *immediateGame) FrameEnd() {
}

func (g *immediateGame) DeInit() {
	g.mesh.Delete()
	g.prog.Delete()
}
