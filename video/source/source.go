package source

import (
	"context"
	"errors"
	"time"
)

// ErrNoFrame is returned by Acquire when no completed frame is available. It is
// never fatal; callers skip the iteration and try again.
var ErrNoFrame = errors.New("no frame available")

// Profile is a named set of sensor capture parameters.
type Profile struct {
	Name string

	// Frame resolution requested from the sensor.
	Width, Height int

	// JPEG quality, 1-100 with higher meaning better. Zero leaves the sensor
	// default in place.
	Quality int
}

// Frame is one compressed image borrowed from a Source's buffer pool. The
// bytes are only valid until Release, which must be called exactly once.
type Frame struct {
	Data []byte
	Time time.Time

	release  func()
	released bool
}

func NewFrame(data []byte, t time.Time, release func()) *Frame {
	return &Frame{
		Data:    data,
		Time:    t,
		release: release,
	}
}

// Release returns the frame's buffer to its pool.
func (f *Frame) Release() {
	if f.released {
		panic("frame already released")
	}
	f.released = true
	f.Data = nil
	if f.release != nil {
		f.release()
	}
}

func (f *Frame) Released() bool {
	return f.released
}

// Source defines a stream of compressed frames, such as a camera sensor.
type Source interface {
	// Acquire returns the most recently completed frame, dropping older
	// undelivered ones. It returns ErrNoFrame when nothing is ready. The
	// caller must Release the frame before acquiring the next one.
	Acquire(ctx context.Context) (*Frame, error)

	// SetProfile reconfigures the sensor. Frames acquired afterwards use the
	// new profile.
	SetProfile(p Profile) error

	// Profile returns the active profile.
	Profile() Profile

	// Close disconnects from the sensor and frees up all resources.
	Close() error
}
