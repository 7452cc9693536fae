package sink

import (
	"image"
)

// Compositor places frames and overlays on a Display. Frames are centered.
type Compositor struct {
	Display Display

	presents int
}

func NewCompositor(d Display) *Compositor {
	return &Compositor{Display: d}
}

// Origin returns the top-left corner that centers a frame of the given size,
// floored when the difference is odd or negative.
func (c *Compositor) Origin(frame image.Point) image.Point {
	ds := c.Display.Size()
	return image.Pt((ds.X-frame.X)>>1, (ds.Y-frame.Y)>>1)
}

// Present pushes pixels covering r, in display coordinates.
func (c *Compositor) Present(pix []uint16, r image.Rectangle) error {
	c.presents++
	return c.Display.Push(pix, r)
}

// Overlay draws o after the frame has been presented.
func (c *Compositor) Overlay(o Overlay) error {
	if o.Bounds.Empty() {
		return nil
	}
	return c.Display.Push(o.Pix, o.Bounds)
}

// Presents returns the number of Present calls so far.
func (c *Compositor) Presents() int {
	return c.presents
}
