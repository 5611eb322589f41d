package engine

import (
	"io"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/input"
	"github.com/bloeys/deferred/logging"
	"github.com/bloeys/deferred/softgl"
	"github.com/schollz/progressbar/v3"
)

type HeadlessOptions struct {
	Width  int32
	Height int32

	// Frames is how many frames run before the window asks to close
	Frames int

	// TimeStep is the clock advance per frame in seconds. Defaults to 1/60.
	TimeStep float64

	// OutPath is where the last frame is written as a png. Empty means no output.
	OutPath string

	// ProgressWriter receives the progress bar. Nil means the default bar on stdout.
	ProgressWriter io.Writer
}

// HeadlessWindow renders with the software backend and runs a fixed number of frames on a fixed clock
type HeadlessWindow struct {
	Backend *softgl.Backend
	Ctx     *gpu.Context

	// LastErr is the error from writing the output image, if any
	LastErr error

	opts  HeadlessOptions
	frame int
	bar   *progressbar.ProgressBar
}

func (w *HeadlessWindow) ShouldClose() bool {
	return w.frame >= w.opts.Frames || input.IsQuitClicked()
}

// PollEvents only starts a new input frame, as there is no event source
func (w *HeadlessWindow) PollEvents() {
	input.EventLoopStart()
}

// SwapBuffers counts the frame and writes the image after the last one
func (w *HeadlessWindow) SwapBuffers() {

	w.frame++
	w.bar.Add(1)

	if w.frame != w.opts.Frames {
		return
	}

	w.bar.Finish()
	if w.opts.OutPath == "" {
		return
	}

	w.LastErr = WritePNG(w.opts.OutPath, Screenshot(w.Ctx))
	if w.LastErr != nil {
		logging.ErrLog.Printf("Failed to write frame to '%s'. Err: %v\n", w.opts.OutPath, w.LastErr)
		return
	}

	logging.InfoLog.Printf("Wrote frame %d to '%s'\n", w.frame, w.opts.OutPath)
}

func (w *HeadlessWindow) DrawableSize() (width, height int32) {
	return w.opts.Width, w.opts.Height
}

func (w *HeadlessWindow) Time() float64 {
	return float64(w.frame) * w.opts.TimeStep
}

func (w *HeadlessWindow) SetCursorCaptured(captured bool) {
}

// Frame returns the number of frames presented so far
func (w *HeadlessWindow) Frame() int {
	return w.frame
}

func (w *HeadlessWindow) Destroy() error {
	return w.bar.Close()
}

func NewHeadlessWindow(opts HeadlessOptions) *HeadlessWindow {

	if opts.TimeStep <= 0 {
		opts.TimeStep = 1.0 / 60
	}

	var bar *progressbar.ProgressBar
	if opts.ProgressWriter == nil {
		bar = progressbar.Default(int64(opts.Frames), "rendering")
	} else {
		bar = progressbar.NewOptions64(
			int64(opts.Frames),
			progressbar.OptionSetWriter(opts.ProgressWriter),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
		)
	}

	backend := softgl.New(opts.Width, opts.Height)

	input.ResetQuit()
	return &HeadlessWindow{
		Backend: backend,
		Ctx:     gpu.NewContext(backend, opts.Width, opts.Height),
		opts:    opts,
		bar:     bar,
	}
}
