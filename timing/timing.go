// Package timing tracks frame times. Time comes from the window clock in seconds, so headless
// runs can use a fixed step.
package timing

var (
	startTime      float64
	frameStartTime float64
	dt             float32

	// FPS is averaged over windows of fpsWindow seconds
	fpsWindowStart  float64
	fpsWindowFrames int
	avgFps          float32
)

const fpsWindow = 1.0

func Init(now float64) {
	startTime = now
	frameStartTime = now
	dt = 0.01
	fpsWindowStart = now
	fpsWindowFrames = 0
	avgFps = 0
}

// FrameStarted sets DT to the time since the previous frame started
func FrameStarted(now float64) {

	if now > frameStartTime {
		dt = float32(now - frameStartTime)
	}

	frameStartTime = now
}

// FrameEnded counts the frame and returns true when a new FPS average is available
func FrameEnded(now float64) bool {

	fpsWindowFrames++

	elapsed := now - fpsWindowStart
	if elapsed < fpsWindow {
		return false
	}

	avgFps = float32(float64(fpsWindowFrames) / elapsed)
	fpsWindowStart = now
	fpsWindowFrames = 0
	return true
}

// DT is the frame time of the current frame in seconds
func DT() float32 {
	return dt
}

// ElapsedTime is the time since Init in seconds, as of the start of the current frame
func ElapsedTime() float64 {
	return frameStartTime - startTime
}

// GetAvgFPS returns the frame rate averaged over the last full second
func GetAvgFPS() float32 {
	return avgFps
}
