package engine

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/timing"
)

// LogFPS logs the averaged frame rate once per second while Run is going
var LogFPS = false

// Window is a surface the renderers draw into along with its event source and clock.
// Events are fed to the input package by PollEvents.
type Window interface {
	ShouldClose() bool
	PollEvents()
	SwapBuffers()

	// DrawableSize is the size of the default framebuffer in pixels
	DrawableSize() (width, height int32)

	// Time is the window clock in seconds
	Time() float64

	SetCursorCaptured(captured bool)
	Destroy() error
}

type Game interface {
	Init() error
	Update()
	Render() error
	FrameEnd()
	DeInit()
}

type WindowOptions struct {
	Title      string
	Width      int32
	Height     int32
	Fullscreen bool
	VSync      bool
}

// Run initializes the game then runs frames until the window should close or Render fails.
// ShouldClose is checked once per frame, before its events are polled.
func Run(g Game, w Window) error {

	if err := g.Init(); err != nil {
		return fmt.Errorf("failed to init game: %w", err)
	}
	defer g.DeInit()

	timing.Init(w.Time())
	for !w.ShouldClose() {

		timing.FrameStarted(w.Time())

		w.PollEvents()
		g.Update()

		if err := g.Render(); err != nil {
			return err
		}

		w.SwapBuffers()
		g.FrameEnd()

		if timing.FrameEnded(w.Time()) && LogFPS {
			logging.InfoLog.Printf("FPS: %.1f, DT: %.2fms\n", timing.GetAvgFPS(), timing.DT()*1000)
		}
	}

	return nil
}

// Screenshot reads the default framebuffer into an image with the top row first
func Screenshot(ctx *gpu.Context) *image.NRGBA {

	width, height := ctx.DefaultSize()

	prev := ctx.BindFramebuffer(0)
	pixels := ctx.Gl.ReadPixels(0, 0, width, height)
	ctx.BindFramebuffer(prev)

	return imageFromBottomRows(pixels, int(width), int(height))
}

// imageFromBottomRows converts RGBA8 pixels stored bottom row first, the way framebuffers are read
func imageFromBottomRows(pixels []byte, width, height int) *image.NRGBA {

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowLen := width * 4
	for y := 0; y < height; y++ {
		srcRow := height - 1 - y
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], pixels[srcRow*rowLen:])
	}

	return img
}

func WritePNG(path string, img image.Image) error {

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode png '%s': %w", path, err)
	}

	return f.Close()
}
