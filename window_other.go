//go:build !gocv

package main

import (
	"errors"
	"image"

	"livecam/trigger"
	"livecam/video/sink"
)

var errNoWindow = errors.New("window display needs a build with -tags gocv")

func openWindow(size image.Point, req *trigger.Request) (sink.Display, error) {
	return nil, errNoWindow
}
