// Package pixel converts between RGB565, the native format of the display
// panels, and the standard library's image types.
package pixel

import (
	"image"
	"image/color"
)

// FromRGB packs 8-bit channels into RGB565.
func FromRGB(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// FromColor packs any color into RGB565.
func FromColor(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// RGBA expands an RGB565 pixel, replicating high bits into the low ones so
// full white maps back to 0xff.
func RGBA(p uint16) color.RGBA {
	r := uint8(p>>11) & 0x1f
	g := uint8(p>>5) & 0x3f
	b := uint8(p) & 0x1f
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xff,
	}
}

// FromImage converts the given region of img into a row-major RGB565 slice.
// dst is reused when large enough.
func FromImage(dst []uint16, img image.Image, r image.Rectangle) []uint16 {
	n := r.Dx() * r.Dy()
	if cap(dst) < n {
		dst = make([]uint16, n)
	}
	dst = dst[:n]
	i := 0
	if rgba, ok := img.(*image.RGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			o := rgba.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				dst[i] = FromRGB(rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2])
				o += 4
				i++
			}
		}
		return dst
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst[i] = FromColor(img.At(x, y))
			i++
		}
	}
	return dst
}

// Draw copies a row-major RGB565 block of the given width into dst at pt.
// Pixels falling outside dst are clipped.
func Draw(dst *image.RGBA, pt image.Point, pix []uint16, width int) {
	if width <= 0 {
		return
	}
	height := len(pix) / width
	for y := 0; y < height; y++ {
		dy := pt.Y + y
		if dy < dst.Rect.Min.Y || dy >= dst.Rect.Max.Y {
			continue
		}
		for x := 0; x < width; x++ {
			dx := pt.X + x
			if dx < dst.Rect.Min.X || dx >= dst.Rect.Max.X {
				continue
			}
			dst.SetRGBA(dx, dy, RGBA(pix[y*width+x]))
		}
	}
}
