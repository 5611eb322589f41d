package engine

import (
	"runtime"

	"github.com/bloeys/deferred/input"
	"github.com/veandco/go-sdl2/sdl"
)

type SDLWindow struct {
	SDLWin *sdl.Window
	GlCtx  sdl.GLContext

	// EventCallbacks get every event before it is handled by the input package
	EventCallbacks []func(sdl.Event)
}

func (w *SDLWindow) ShouldClose() bool {
	return input.IsQuitClicked()
}

func (w *SDLWindow) PollEvents() {

	input.EventLoopStart()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {

		//Fire callbacks
		for i := 0; i < len(w.EventCallbacks); i++ {
			w.EventCallbacks[i](event)
		}

		//Internal processing
		switch e := event.(type) {

		case *sdl.MouseWheelEvent:
			input.HandleMouseWheel(float32(e.X), float32(e.Y))

		case *sdl.KeyboardEvent:
			input.HandleKey(sdlKeyToKey(e.Keysym.Sym), e.Type == sdl.KEYDOWN, e.Repeat != 0)

		case *sdl.MouseButtonEvent:
			if btn, ok := sdlButtonToMouseButton(e.Button); ok {
				input.HandleMouseBtn(btn, e.State == sdl.PRESSED, int(e.Clicks))
			}

		case *sdl.MouseMotionEvent:
			input.HandleMouseMotion(float32(e.X), float32(e.Y), float32(e.XRel), float32(e.YRel))

		case *sdl.QuitEvent:
			input.HandleQuit()
		}
	}
}

func (w *SDLWindow) SwapBuffers() {
	w.SDLWin.GLSwap()
}

func (w *SDLWindow) DrawableSize() (width, height int32) {
	return w.SDLWin.GLGetDrawableSize()
}

func (w *SDLWindow) Time() float64 {
	return float64(sdl.GetPerformanceCounter()) / float64(sdl.GetPerformanceFrequency())
}

func (w *SDLWindow) SetCursorCaptured(captured bool) {
	sdl.SetRelativeMouseMode(captured)
}

func (w *SDLWindow) Destroy() error {

	sdl.GLDeleteContext(w.GlCtx)
	err := w.SDLWin.Destroy()
	sdl.Quit()

	return err
}

func initSDL() error {

	err := sdl.Init(sdl.INIT_TIMER | sdl.INIT_VIDEO)
	if err != nil {
		return err
	}

	sdl.ShowCursor(1)

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)

	sdl.GLSetAttribute(sdl.GL_RED_SIZE, 8)
	sdl.GLSetAttribute(sdl.GL_GREEN_SIZE, 8)
	sdl.GLSetAttribute(sdl.GL_BLUE_SIZE, 8)
	sdl.GLSetAttribute(sdl.GL_ALPHA_SIZE, 8)

	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	return nil
}

// NewSDLWindow creates a centered window with a current OpenGL 4.1 core context.
// The OpenGL functions still have to be loaded, which glbackend.New does.
func NewSDLWindow(opts WindowOptions) (*SDLWindow, error) {

	runtime.LockOSThread()

	if err := initSDL(); err != nil {
		return nil, err
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE)
	if opts.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	sdlWin, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, opts.Width, opts.Height, flags)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	win := &SDLWindow{
		SDLWin:         sdlWin,
		EventCallbacks: make([]func(sdl.Event), 0),
	}

	win.GlCtx, err = sdlWin.GLCreateContext()
	if err != nil {
		sdlWin.Destroy()
		sdl.Quit()
		return nil, err
	}

	if opts.VSync {
		sdl.GLSetSwapInterval(1)
	} else {
		sdl.GLSetSwapInterval(0)
	}

	input.ResetQuit()
	return win, nil
}

func sdlKeyToKey(k sdl.Keycode) input.Key {

	switch k {
	case sdl.K_w:
		return input.KeyW
	case sdl.K_a:
		return input.KeyA
	case sdl.K_s:
		return input.KeyS
	case sdl.K_d:
		return input.KeyD
	case sdl.K_q:
		return input.KeyQ
	case sdl.K_e:
		return input.KeyE
	case sdl.K_c:
		return input.KeyC
	case sdl.K_m:
		return input.KeyM
	case sdl.K_SPACE:
		return input.KeySpace
	case sdl.K_ESCAPE:
		return input.KeyEscape
	case sdl.K_LSHIFT:
		return input.KeyLeftShift
	default:
		return input.KeyUnknown
	}
}

func sdlButtonToMouseButton(b uint8) (input.MouseButton, bool) {

	switch b {
	case sdl.BUTTON_LEFT:
		return input.MouseButtonLeft, true
	case sdl.BUTTON_MIDDLE:
		return input.MouseButtonMiddle, true
	case sdl.BUTTON_RIGHT:
		return input.MouseButtonRight, true
	default:
		return 0, false
	}
}
