package sink

import (
	"errors"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"

	"livecam/video/decode"
)

// ErrNoMemory is returned when the frame buffer does not fit the memory budget.
var ErrNoMemory = errors.New("frame buffer does not fit memory budget")

// TileSink receives the decoded tiles of one frame at a time.
type TileSink interface {
	// Begin starts a frame of the given size.
	Begin(size image.Point)

	// Put consumes one tile, returning false if it was dropped.
	Put(t decode.Tile) bool

	// Flush completes the frame.
	Flush() error
}

// NewTileSink returns an Accumulator for frames up to size when one fits in
// maxBytes (zero means unlimited), otherwise a Direct sink. The choice is made
// once and holds for the life of the pipeline.
func NewTileSink(c *Compositor, size image.Point, maxBytes int) TileSink {
	a, err := NewAccumulator(c, size, maxBytes)
	if err != nil {
		log.Warnf("Falling back to per-tile rendering: %v", err)
		return NewDirect(c)
	}
	log.Infof("Allocated %dx%d frame buffer", size.X, size.Y)
	return a
}

// Accumulator assembles tiles into one frame buffer and presents it with a
// single push. Tiles that would take the running pixel count past the buffer
// capacity are dropped whole.
type Accumulator struct {
	c   *Compositor
	buf []uint16

	size    image.Point
	written int
	dropped int
}

func NewAccumulator(c *Compositor, size image.Point, maxBytes int) (*Accumulator, error) {
	n := size.X * size.Y
	if n <= 0 {
		return nil, fmt.Errorf("invalid frame buffer size %v", size)
	}
	if maxBytes > 0 && n*2 > maxBytes {
		return nil, fmt.Errorf("%w: need %d bytes, budget %d", ErrNoMemory, n*2, maxBytes)
	}
	return &Accumulator{
		c:   c,
		buf: make([]uint16, n),
	}, nil
}

// Capacity returns the buffer size in pixels.
func (a *Accumulator) Capacity() int {
	return len(a.buf)
}

// Written returns the pixels written for the current frame.
func (a *Accumulator) Written() int {
	return a.written
}

// Dropped returns the tiles dropped for the current frame.
func (a *Accumulator) Dropped() int {
	return a.dropped
}

func (a *Accumulator) Begin(size image.Point) {
	a.size = size
	a.written = 0
	a.dropped = 0
}

func (a *Accumulator) Put(t decode.Tile) bool {
	n := t.Pixels()
	if a.written+n > len(a.buf) {
		a.dropped++
		return false
	}
	stride := a.size.X
	min := t.Min()
	if min.X < 0 || min.Y < 0 || min.X+t.Width > stride ||
		(min.Y+t.Height-1)*stride+min.X+t.Width > len(a.buf) || len(t.Pix) < n {
		a.dropped++
		return false
	}
	for y := 0; y < t.Height; y++ {
		o := (min.Y+y)*stride + min.X
		copy(a.buf[o:o+t.Width], t.Pix[y*t.Width:(y+1)*t.Width])
	}
	a.written += n
	return true
}

func (a *Accumulator) Flush() error {
	stride := a.size.X
	if stride <= 0 {
		return nil
	}
	rows := a.size.Y
	if rows*stride > len(a.buf) {
		rows = len(a.buf) / stride
	}
	if rows == 0 {
		return nil
	}
	o := a.c.Origin(a.size)
	return a.c.Present(a.buf[:rows*stride], image.Rect(o.X, o.Y, o.X+stride, o.Y+rows))
}

// Direct pushes every tile straight to the display. It needs no frame buffer
// but costs one display transfer per tile.
type Direct struct {
	c      *Compositor
	origin image.Point
}

func NewDirect(c *Compositor) *Direct {
	return &Direct{c: c}
}

func (d *Direct) Begin(size image.Point) {
	d.origin = d.c.Origin(size)
}

func (d *Direct) Put(t decode.Tile) bool {
	if err := d.c.Present(t.Pix, t.Bounds().Add(d.origin)); err != nil {
		log.Debugf("Dropped tile (%d, %d): %v", t.Col, t.Row, err)
		return false
	}
	return true
}

func (d *Direct) Flush() error {
	return nil
}

// AssembleStats summarizes one assembled frame.
type AssembleStats struct {
	Size    image.Point
	Tiles   int
	Dropped int
}

// Assemble drains every tile of s into ts and flushes it.
func Assemble(s decode.Session, ts TileSink) (AssembleStats, error) {
	st := AssembleStats{Size: s.Size()}
	ts.Begin(st.Size)
	for t, ok := s.Next(); ok; t, ok = s.Next() {
		st.Tiles++
		if !ts.Put(t) {
			st.Dropped++
		}
	}
	return st, ts.Flush()
}
