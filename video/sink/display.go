package sink

import (
	"image"
)

// Display defines a destination for RGB565 pixels, such as an LCD panel.
type Display interface {
	// Size returns the panel resolution.
	Size() image.Point

	// Push writes a row-major block of pixels covering r. Pixels outside the
	// panel are clipped. The caller keeps ownership of pix.
	Push(pix []uint16, r image.Rectangle) error

	// Close should be called to release the panel.
	Close() error
}

// Snapshotter is implemented by displays that can read back what they show.
type Snapshotter interface {
	Snapshot() image.Image
}

// Overlay is a pre-rendered block drawn on top of a presented frame, in
// display coordinates.
type Overlay struct {
	Pix    []uint16
	Bounds image.Rectangle
}
