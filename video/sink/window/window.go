// Package window is a desktop preview Display backed by an OpenCV window. It
// lives apart from package sink so that only binaries using it need cgo.
package window

import (
	"image"

	"gocv.io/x/gocv"
)

type Window struct {
	// OnKey is called with every key pressed while the window has focus.
	OnKey func(key int)

	window  *gocv.Window
	mat     gocv.Mat
	size    image.Point
	sizeSet bool
}

func New(name string, size image.Point) *Window {
	return &Window{
		window: gocv.NewWindow(name),
		mat:    gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3),
		size:   size,
	}
}

func (w *Window) Size() image.Point {
	return w.size
}

func (w *Window) Push(pix []uint16, r image.Rectangle) error {
	if !w.sizeSet {
		w.window.ResizeWindow(w.size.X, w.size.Y)
		w.sizeSet = true
	}
	data, err := w.mat.DataPtrUint8()
	if err != nil {
		return err
	}
	width := r.Dx()
	clip := r.Intersect(image.Rectangle{Max: w.size})
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			p := pix[(y-r.Min.Y)*width+x-r.Min.X]
			o := (y*w.size.X + x) * 3
			// OpenCV wants BGR.
			data[o] = uint8(p<<3) | uint8(p>>2)&0x07
			data[o+1] = uint8(p>>3)&0xfc | uint8(p>>9)&0x03
			data[o+2] = uint8(p>>8)&0xf8 | uint8(p>>13)
		}
	}
	w.window.IMShow(w.mat)
	if key := w.window.WaitKey(1); key >= 0 && w.OnKey != nil {
		w.OnKey(key)
	}
	return nil
}

func (w *Window) Close() error {
	w.mat.Close()
	return w.window.Close()
}
