package process

import (
	"image/color"
	"time"
)

// DefaultWindow is the number of frames per FPS sample.
const DefaultWindow = 30

// FPS computes frames per second over fixed, non-overlapping windows of
// frames. Each window produces exactly one sample.
type FPS struct {
	Window int

	count int
	start time.Time
	last  float64
}

// NewFPS starts the first window at start.
func NewFPS(window int, start time.Time) *FPS {
	if window <= 0 {
		window = DefaultWindow
	}
	return &FPS{
		Window: window,
		start:  start,
	}
}

// Tick counts one processed frame. When the window fills it returns the
// window's frame rate and starts a new window at now.
func (f *FPS) Tick(now time.Time) (float64, bool) {
	f.count++
	if f.count < f.Window {
		return 0, false
	}
	elapsed := now.Sub(f.start).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}
	f.last = float64(f.Window) * 1000 / float64(elapsed)
	f.count = 0
	f.start = now
	return f.last, true
}

// Count returns the frames counted in the current window.
func (f *FPS) Count() int {
	return f.count
}

// Last returns the most recent sample, or zero before the first window ends.
func (f *FPS) Last() float64 {
	return f.last
}

// Tier is a coarse frame rate rating used to color the FPS badge.
type Tier int

const (
	TierPoor Tier = iota
	TierModerate
	TierGood
)

func TierOf(fps float64) Tier {
	switch {
	case fps >= 15:
		return TierGood
	case fps >= 10:
		return TierModerate
	}
	return TierPoor
}

func (t Tier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierModerate:
		return "moderate"
	}
	return "poor"
}

// Color returns the badge color for the tier.
func (t Tier) Color() color.RGBA {
	switch t {
	case TierGood:
		return color.RGBA{R: 0, G: 255, B: 0, A: 255}
	case TierModerate:
		return color.RGBA{R: 255, G: 255, B: 0, A: 255}
	}
	return color.RGBA{R: 255, G: 0, B: 0, A: 255}
}
