package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecam/config"
	"livecam/trigger"
	"livecam/video/sink"
)

func TestOpenDisplay(t *testing.T) {
	req := trigger.NewRequest(trigger.DefaultDebounce)
	c := config.Default()
	c.Display.Backend = "memory"
	c.Display.Width, c.Display.Height = 160, 120

	d, err := openDisplay(c, req)
	require.NoError(t, err)
	defer d.Close()
	assert.IsType(t, &sink.Framebuffer{}, d)
	assert.Equal(t, image.Pt(160, 120), d.Size())
}

func TestOpenDisplayWindowNeedsGocv(t *testing.T) {
	c := config.Default()
	c.Display.Backend = "window"
	_, err := openDisplay(c, trigger.NewRequest(trigger.DefaultDebounce))
	assert.ErrorIs(t, err, errNoWindow)
}
