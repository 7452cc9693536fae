// Package decode turns compressed frames into a pull-based sequence of
// fixed-size pixel tiles.
package decode

import (
	"errors"
	"image"
)

// ErrDecode is returned by Begin for frames that cannot be decoded. It is
// never fatal; the frame is discarded.
var ErrDecode = errors.New("decode failed")

// Tile is one decoded block of RGB565 pixels. Pix is only valid until the next
// call to Session.Next.
type Tile struct {
	// Col and Row locate the tile on the frame's block grid.
	Col, Row int

	// Block is the nominal block size. Tiles on the right and bottom edges
	// may be smaller.
	Block image.Point

	Width, Height int

	// Pix holds Width*Height pixels, row-major.
	Pix []uint16
}

// Min returns the tile's top-left corner in frame coordinates.
func (t Tile) Min() image.Point {
	return image.Pt(t.Col*t.Block.X, t.Row*t.Block.Y)
}

// Bounds returns the tile's rectangle in frame coordinates.
func (t Tile) Bounds() image.Rectangle {
	min := t.Min()
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(t.Width, t.Height))}
}

// Pixels returns the tile's pixel count.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}

// Session is one frame being decoded.
type Session interface {
	// Size returns the frame's pixel dimensions.
	Size() image.Point

	// Next returns the next tile, or false once the frame is fully covered.
	// Every pixel of the frame is covered by exactly one tile.
	Next() (Tile, bool)
}

// Decoder starts decode sessions for compressed frames.
type Decoder interface {
	Begin(data []byte) (Session, error)
}
