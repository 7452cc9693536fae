package sink

import (
	"image"
	"sync"

	"livecam/video/pixel"
)

// Framebuffer is an in-memory Display. It backs headless runs, where the
// picture is only visible through the MJPEG mirror.
type Framebuffer struct {
	img    *image.RGBA
	pushes int

	l sync.Mutex
}

func NewFramebuffer(size image.Point) *Framebuffer {
	return &Framebuffer{
		img: image.NewRGBA(image.Rectangle{Max: size}),
	}
}

func (f *Framebuffer) Size() image.Point {
	return f.img.Rect.Size()
}

func (f *Framebuffer) Push(pix []uint16, r image.Rectangle) error {
	f.l.Lock()
	defer f.l.Unlock()
	f.pushes++
	pixel.Draw(f.img, r.Min, pix[:min(len(pix), r.Dx()*r.Dy())], r.Dx())
	return nil
}

// Snapshot returns a copy of the current picture.
func (f *Framebuffer) Snapshot() image.Image {
	f.l.Lock()
	defer f.l.Unlock()
	c := image.NewRGBA(f.img.Rect)
	copy(c.Pix, f.img.Pix)
	return c
}

// Pushes returns the number of Push calls so far.
func (f *Framebuffer) Pushes() int {
	f.l.Lock()
	defer f.l.Unlock()
	return f.pushes
}

func (f *Framebuffer) Close() error {
	return nil
}
