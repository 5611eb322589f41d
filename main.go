package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bloeys/deferred/engine"
	"github.com/bloeys/deferred/glbackend"
	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/res"
	"github.com/bloeys/deferred/scene"
	"github.com/bloeys/deferred/shaders"
	"github.com/bloeys/deferred/softgl"
)

const (
	Renderer_Deferred  = "deferred"
	Renderer_Immediate = "immediate"

	Window_SDL  = "sdl"
	Window_GLFW = "glfw"
)

type options struct {
	DisplayX   int
	DisplayY   int
	Lights     int
	Fullscreen bool

	Renderer string
	Window   string

	Headless bool
	Frames   int
	Out      string

	ScenePath string
	ModelPath string
	LogFPS    bool
	Seed      int64

	// lightsSet is true when the lights flag was passed, so it overrides the scene file
	lightsSet bool
}

var errInvalidOptions = errors.New("invalid options")

func parseOptions(args []string) (options, error) {

	opts := options{}
	fs := flag.NewFlagSet("deferred", flag.ContinueOnError)

	fs.IntVar(&opts.DisplayX, "x", 1024, "Set width of the render area")
	fs.IntVar(&opts.DisplayX, "displayx", 1024, "Set width of the render area")
	fs.IntVar(&opts.DisplayY, "y", 768, "Set height of the render area")
	fs.IntVar(&opts.DisplayY, "displayy", 768, "Set height of the render area")
	fs.IntVar(&opts.Lights, "l", 64, "Set number of lights")
	fs.IntVar(&opts.Lights, "lights", 64, "Set number of lights")
	fs.BoolVar(&opts.Fullscreen, "f", false, "Run in fullscreen")
	fs.BoolVar(&opts.Fullscreen, "fullscreen", false, "Run in fullscreen")

	fs.StringVar(&opts.Renderer, "renderer", Renderer_Deferred, "Renderer to use: deferred or immediate")
	fs.StringVar(&opts.Window, "window", Window_SDL, "Window backend to use: sdl or glfw")
	fs.BoolVar(&opts.Headless, "headless", false, "Render with the software backend without opening a window")
	fs.IntVar(&opts.Frames, "frames", 60, "Number of frames to render in headless mode")
	fs.StringVar(&opts.Out, "out", "frame.png", "Where headless mode writes the last frame")
	fs.StringVar(&opts.ScenePath, "scene", "", "Yaml scene file overriding the default scene")
	fs.StringVar(&opts.ModelPath, "model", "", "Model file drawn instead of the cube")
	fs.BoolVar(&opts.LogFPS, "fps", false, "Log the frame rate once per second")
	fs.Int64Var(&opts.Seed, "seed", 0, "Seed of the scene randomness. Zero uses the current time.")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "l" || f.Name == "lights" {
			opts.lightsSet = true
		}
	})

	if opts.DisplayX <= 0 || opts.DisplayY <= 0 {
		return opts, fmt.Errorf("%w: display size must be positive, got %dx%d", errInvalidOptions, opts.DisplayX, opts.DisplayY)
	}

	if opts.Lights < 0 {
		return opts, fmt.Errorf("%w: lights can not be negative, got %d", errInvalidOptions, opts.Lights)
	}

	if opts.Renderer != Renderer_Deferred && opts.Renderer != Renderer_Immediate {
		return opts, fmt.Errorf("%w: unknown renderer '%s'", errInvalidOptions, opts.Renderer)
	}

	if opts.Window != Window_SDL && opts.Window != Window_GLFW {
		return opts, fmt.Errorf("%w: unknown window '%s'", errInvalidOptions, opts.Window)
	}

	if opts.Headless && opts.Frames <= 0 {
		return opts, fmt.Errorf("%w: headless mode needs a positive frame count, got %d", errInvalidOptions, opts.Frames)
	}

	return opts, nil
}

// loadSceneConfig returns the default config of the renderer with the scene file and flags applied over it
func loadSceneConfig(opts *options) (scene.Config, error) {

	base := scene.DefaultDeferred()
	if opts.Renderer == Renderer_Immediate {
		base = scene.DefaultImmediate()
	}

	cfg := base
	if opts.ScenePath != "" {

		var err error
		cfg, err = scene.LoadConfig(opts.ScenePath, base)
		if err != nil {
			return cfg, err
		}
	}

	if opts.lightsSet || opts.ScenePath == "" {
		cfg.Lights.Count = opts.Lights
	}

	return cfg, cfg.Validate()
}

// programSource creates the shader programs of the chosen backend
type programSource interface {
	GBuffer() (shaders.Program, error)
	Lighting() (shaders.Program, error)
	Forward() (shaders.Program, error)
}

type glPrograms struct{}

func (glPrograms) GBuffer() (shaders.Program, error) {
	return compileGlProgram("gbuffer", res.GBufferShader)
}

func (glPrograms) Lighting() (shaders.Program, error) {
	return compileGlProgram("lighting", res.LightingShader)
}

func (glPrograms) Forward() (shaders.Program, error) {
	return compileGlProgram("forward", res.ForwardShader)
}

func compileGlProgram(name string, src []byte) (shaders.Program, error) {

	prog, err := glbackend.LoadAndCompileCombinedShaderSrc(name, src)
	if err != nil {
		return nil, err
	}

	return prog, nil
}

type softPrograms struct {
	b *softgl.Backend
}

func (p softPrograms) GBuffer() (shaders.Program, error) {
	return softgl.NewGBufferProgram(p.b), nil
}

func (p softPrograms) Lighting() (shaders.Program, error) {
	return softgl.NewLightingProgram(p.b), nil
}

func (p softPrograms) Forward() (shaders.Program, error) {
	return softgl.NewForwardProgram(p.b), nil
}

// createWindow opens the window and a gpu context for it
func createWindow(opts *options) (engine.Window, *gpu.Context, programSource, error) {

	if opts.Headless {

		hw := engine.NewHeadlessWindow(engine.HeadlessOptions{
			Width:   int32(opts.DisplayX),
			Height:  int32(opts.DisplayY),
			Frames:  opts.Frames,
			OutPath: opts.Out,
		})

		return hw, hw.Ctx, softPrograms{b: hw.Backend}, nil
	}

	winOpts := engine.WindowOptions{
		Title:      "deferred - " + opts.Renderer,
		Width:      int32(opts.DisplayX),
		Height:     int32(opts.DisplayY),
		Fullscreen: opts.Fullscreen,
	}

	var win engine.Window
	var err error
	if opts.Window == Window_GLFW {
		win, err = engine.NewGLFWWindow(winOpts)
	} else {
		win, err = engine.NewSDLWindow(winOpts)
	}

	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create %s window: %w", opts.Window, err)
	}

	backend, err := glbackend.New()
	if err != nil {
		win.Destroy()
		return nil, nil, nil, fmt.Errorf("failed to init OpenGL: %w", err)
	}

	w, h := win.DrawableSize()
	return win, gpu.NewContext(backend, w, h), glPrograms{}, nil
}

func main() {

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logging.ErrLog.Fatalln("Failed to parse options. Err:", err)
	}

	cfg, err := loadSceneConfig(&opts)
	if err != nil {
		logging.ErrLog.Fatalln("Failed to load scene. Err:", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logging.InfoLog.Printf("Scene seed: %d\n", seed)
	rng := rand.New(rand.NewSource(seed))

	win, ctx, progs, err := createWindow(&opts)
	if err != nil {
		logging.ErrLog.Fatalln(err)
	}
	defer win.Destroy()

	engine.LogFPS = opts.LogFPS

	var game engine.Game
	if opts.Renderer == Renderer_Immediate {
		game = &immediateGame{opts: &opts, win: win, ctx: ctx, progs: progs, scene: scene.New(cfg, rng)}
	} else {
		game = &deferredGame{opts: &opts, win: win, ctx: ctx, progs: progs, scene: scene.New(cfg, rng)}
	}

	if err := engine.Run(game, win); err != nil {
		logging.ErrLog.Fatalf("Failed to run the %s renderer. Err: %v\n", opts.Renderer, err)
	}
}
