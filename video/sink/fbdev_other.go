//go:build !linux

package sink

import (
	"errors"
	"image"
)

// FBDev is only available on Linux.
type FBDev struct{ Display }

func OpenFBDev(path string, size image.Point) (*FBDev, error) {
	return nil, errors.New("framebuffer devices require linux")
}
