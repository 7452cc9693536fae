package decode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"livecam/video/pixel"
)

// JPEG decodes baseline and progressive JPEG frames and yields tiles the size
// of the stream's minimum coded unit, in raster order.
type JPEG struct{}

func (JPEG) Begin(data []byte) (Session, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	block := mcuSize(img)
	return &jpegSession{
		img:   img,
		block: block,
		cols:  (b.Dx() + block.X - 1) / block.X,
		rows:  (b.Dy() + block.Y - 1) / block.Y,
		pix:   make([]uint16, block.X*block.Y),
	}, nil
}

// mcuSize derives the minimum coded unit from the chroma subsampling.
func mcuSize(img image.Image) image.Point {
	yc, ok := img.(*image.YCbCr)
	if !ok {
		return image.Pt(8, 8)
	}
	switch yc.SubsampleRatio {
	case image.YCbCrSubsampleRatio420:
		return image.Pt(16, 16)
	case image.YCbCrSubsampleRatio422:
		return image.Pt(16, 8)
	case image.YCbCrSubsampleRatio440:
		return image.Pt(8, 16)
	case image.YCbCrSubsampleRatio411:
		return image.Pt(32, 8)
	case image.YCbCrSubsampleRatio410:
		return image.Pt(32, 16)
	}
	return image.Pt(8, 8)
}

type jpegSession struct {
	img        image.Image
	block      image.Point
	cols, rows int
	next       int
	pix        []uint16
}

func (s *jpegSession) Size() image.Point {
	return s.img.Bounds().Size()
}

func (s *jpegSession) Next() (Tile, bool) {
	if s.next >= s.cols*s.rows {
		return Tile{}, false
	}
	col, row := s.next%s.cols, s.next/s.cols
	s.next++

	b := s.img.Bounds()
	r := image.Rect(col*s.block.X, row*s.block.Y, (col+1)*s.block.X, (row+1)*s.block.Y).
		Add(b.Min).Intersect(b)

	t := Tile{
		Col:    col,
		Row:    row,
		Block:  s.block,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
	t.Pix = s.fill(r)
	return t, true
}

func (s *jpegSession) fill(r image.Rectangle) []uint16 {
	pix := s.pix[:r.Dx()*r.Dy()]
	i := 0
	switch img := s.img.(type) {
	case *image.YCbCr:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				yi, ci := img.YOffset(x, y), img.COffset(x, y)
				cr, cg, cb := color.YCbCrToRGB(img.Y[yi], img.Cb[ci], img.Cr[ci])
				pix[i] = pixel.FromRGB(cr, cg, cb)
				i++
			}
		}
	case *image.Gray:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			o := img.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				v := img.Pix[o]
				pix[i] = pixel.FromRGB(v, v, v)
				o++
				i++
			}
		}
	default:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				pix[i] = pixel.FromColor(img.At(x, y))
				i++
			}
		}
	}
	return pix
}
