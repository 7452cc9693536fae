//go:build gocv

package main

import (
	"image"

	"livecam/trigger"
	"livecam/video/sink"
	"livecam/video/sink/window"
)

func openWindow(size image.Point, req *trigger.Request) (sink.Display, error) {
	w := window.New("livecam", size)
	w.OnKey = func(key int) {
		// Space or 'c' stands in for the capture button.
		if key == ' ' || key == 'c' {
			req.Signal()
		}
	}
	return w, nil
}
