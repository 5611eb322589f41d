package timing_test

import (
	"testing"

	"github.com/bloeys/deferred/timing"
)

func TestFrameTimes(t *testing.T) {

	timing.Init(10)

	now := 10.0
	newAvg := false
	for i := 0; i < 41; i++ {

		now += 0.025
		timing.FrameStarted(now)

		if dt := timing.DT(); dt < 0.0249 || dt > 0.0251 {
			t.Fatalf("Expected DT of 25ms, got %f", dt)
		}

		if timing.FrameEnded(now) {
			newAvg = true
		}
	}

	if !newAvg {
		t.Fatalf("Expected an FPS average after one second of frames")
	}

	if fps := timing.GetAvgFPS(); fps < 39.9 || fps > 40.1 {
		t.Fatalf("Expected 40 FPS, got %f", fps)
	}

	if e := timing.ElapsedTime(); e < 1.024 || e > 1.026 {
		t.Fatalf("Expected 1.025 seconds elapsed, got %f", e)
	}
}
