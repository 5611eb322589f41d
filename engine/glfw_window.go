package engine

import (
	"fmt"
	"runtime"

	"github.com/bloeys/deferred/input"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type GLFWWindow struct {
	GlfwWin *glfw.Window

	lastX, lastY float64
	hasCursorPos bool
}

func (w *GLFWWindow) ShouldClose() bool {
	return w.GlfwWin.ShouldClose() || input.IsQuitClicked()
}

// PollEvents processes pending events without blocking. Input is fed from the callbacks.
func (w *GLFWWindow) PollEvents() {
	input.EventLoopStart()
	glfw.PollEvents()
}

func (w *GLFWWindow) SwapBuffers() {
	w.GlfwWin.SwapBuffers()
}

// DrawableSize uses the framebuffer size, which on high DPI displays differs from the window size
func (w *GLFWWindow) DrawableSize() (width, height int32) {
	fbWidth, fbHeight := w.GlfwWin.GetFramebufferSize()
	return int32(fbWidth), int32(fbHeight)
}

func (w *GLFWWindow) Time() float64 {
	return glfw.GetTime()
}

func (w *GLFWWindow) SetCursorCaptured(captured bool) {

	if captured {
		w.GlfwWin.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		w.GlfwWin.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}

	w.hasCursorPos = false
}

func (w *GLFWWindow) Destroy() error {
	w.GlfwWin.Destroy()
	glfw.Terminate()
	return nil
}

func (w *GLFWWindow) registerCallbacks() {

	win := w.GlfwWin

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			input.HandleKey(glfwKeyToKey(key), true, false)
		case glfw.Repeat:
			input.HandleKey(glfwKeyToKey(key), true, true)
		case glfw.Release:
			input.HandleKey(glfwKeyToKey(key), false, false)
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		input.HandleMouseWheel(float32(xoff), float32(yoff))
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {

		btn, ok := glfwButtonToMouseButton(button)
		if !ok {
			return
		}

		// GLFW doesn't count clicks so double clicks are never reported
		input.HandleMouseBtn(btn, action == glfw.Press, 1)
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {

		// The first position after creation or a cursor mode change has no previous one to move from
		if !w.hasCursorPos {
			w.lastX, w.lastY = xpos, ypos
			w.hasCursorPos = true
		}

		input.HandleMouseMotion(float32(xpos), float32(ypos), float32(xpos-w.lastX), float32(ypos-w.lastY))
		w.lastX, w.lastY = xpos, ypos
	})

	win.SetCloseCallback(func(_ *glfw.Window) {
		input.HandleQuit()
	})
}

// NewGLFWWindow creates a window with a current OpenGL 4.1 core context.
// The OpenGL functions still have to be loaded, which glbackend.New does.
func NewGLFWWindow(opts WindowOptions) (*GLFWWindow, error) {

	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	var monitor *glfw.Monitor
	if opts.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	win, err := glfw.CreateWindow(int(opts.Width), int(opts.Height), opts.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}

	win.MakeContextCurrent()
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &GLFWWindow{GlfwWin: win}
	w.registerCallbacks()

	input.ResetQuit()
	return w, nil
}

func glfwKeyToKey(k glfw.Key) input.Key {

	switch k {
	case glfw.KeyW:
		return input.KeyW
	case glfw.KeyA:
		return input.KeyA
	case glfw.KeyS:
		return input.KeyS
	case glfw.KeyD:
		return input.KeyD
	case glfw.KeyQ:
		return input.KeyQ
	case glfw.KeyE:
		return input.KeyE
	case glfw.KeyC:
		return input.KeyC
	case glfw.KeyM:
		return input.KeyM
	case glfw.KeySpace:
		return input.KeySpace
	case glfw.KeyEscape:
		return input.KeyEscape
	case glfw.KeyLeftShift:
		return input.KeyLeftShift
	default:
		return input.KeyUnknown
	}
}

func glfwButtonToMouseButton(b glfw.MouseButton) (input.MouseButton, bool) {

	switch b {
	case glfw.MouseButtonLeft:
		return input.MouseButtonLeft, true
	case glfw.MouseButtonMiddle:
		return input.MouseButtonMiddle, true
	case glfw.MouseButtonRight:
		return input.MouseButtonRight, true
	default:
		return 0, false
	}
}
