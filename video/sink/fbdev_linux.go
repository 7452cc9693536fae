package sink

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"

	"golang.org/x/sys/unix"

	"livecam/video/pixel"
)

// FBDev drives a 16bpp Linux framebuffer device such as an SPI TFT panel
// exposed by fbtft.
type FBDev struct {
	Path string

	f    *os.File
	mem  []byte
	size image.Point
}

// OpenFBDev maps the framebuffer at path. The panel must be configured for
// RGB565 at the given size.
func OpenFBDev(path string, size image.Point) (*FBDev, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, size.X*size.Y*2, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %v: %w", path, err)
	}
	return &FBDev{
		Path: path,
		f:    f,
		mem:  mem,
		size: size,
	}, nil
}

func (d *FBDev) Size() image.Point {
	return d.size
}

func (d *FBDev) Push(pix []uint16, r image.Rectangle) error {
	w := r.Dx()
	if w <= 0 || len(pix) < w*r.Dy() {
		return fmt.Errorf("push %v: have %d pixels", r, len(pix))
	}
	clip := r.Intersect(image.Rectangle{Max: d.size})
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		src := pix[(y-r.Min.Y)*w:]
		o := (y*d.size.X + clip.Min.X) * 2
		for x := clip.Min.X; x < clip.Max.X; x++ {
			binary.LittleEndian.PutUint16(d.mem[o:], src[x-r.Min.X])
			o += 2
		}
	}
	return nil
}

// Snapshot reads the panel contents back.
func (d *FBDev) Snapshot() image.Image {
	img := image.NewRGBA(image.Rectangle{Max: d.size})
	for i := 0; i < d.size.X*d.size.Y; i++ {
		c := pixel.RGBA(binary.LittleEndian.Uint16(d.mem[i*2:]))
		img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func (d *FBDev) Close() error {
	if err := unix.Munmap(d.mem); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
