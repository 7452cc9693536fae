package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecam/video/pixel"
)

func encode(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// drain collects every tile, checking each frame pixel is covered once.
func drain(t *testing.T, s Session) []Tile {
	size := s.Size()
	covered := make([]int, size.X*size.Y)
	var tiles []Tile
	for tile, ok := s.Next(); ok; tile, ok = s.Next() {
		require.Len(t, tile.Pix, tile.Pixels())
		b := tile.Bounds()
		require.True(t, b.In(image.Rect(0, 0, size.X, size.Y)), "tile %v outside frame", b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				covered[y*size.X+x]++
			}
		}
		tiles = append(tiles, Tile{Col: tile.Col, Row: tile.Row, Block: tile.Block, Width: tile.Width, Height: tile.Height})
	}
	for i, n := range covered {
		require.Equal(t, 1, n, "pixel %d covered %d times", i, n)
	}
	return tiles
}

func TestJPEGTilesCoverFrame(t *testing.T) {
	s, err := JPEG{}.Begin(encode(t, solid(50, 30, color.RGBA{0x20, 0x80, 0xe0, 0xff})))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(50, 30), s.Size())

	tiles := drain(t, s)
	// The standard library encoder subsamples chroma 4:2:0.
	require.Len(t, tiles, 4*2)
	assert.Equal(t, image.Pt(16, 16), tiles[0].Block)
	assert.Equal(t, 2, tiles[3].Width, "right edge is clipped")
	assert.Equal(t, 14, tiles[7].Height, "bottom edge is clipped")

	_, ok := s.Next()
	assert.False(t, ok, "session stays done")
}

func TestJPEGRasterOrder(t *testing.T) {
	s, err := JPEG{}.Begin(encode(t, solid(40, 40, color.RGBA{A: 0xff})))
	require.NoError(t, err)

	tiles := drain(t, s)
	for i, tile := range tiles {
		assert.Equal(t, i%3, tile.Col)
		assert.Equal(t, i/3, tile.Row)
	}
}

func TestJPEGColors(t *testing.T) {
	s, err := JPEG{}.Begin(encode(t, solid(32, 32, color.RGBA{0xff, 0, 0, 0xff})))
	require.NoError(t, err)

	tile, ok := s.Next()
	require.True(t, ok)
	c := pixel.RGBA(tile.Pix[8*16+8])
	assert.InDelta(t, 0xff, int(c.R), 16)
	assert.InDelta(t, 0, int(c.G), 16)
	assert.InDelta(t, 0, int(c.B), 16)
}

func TestJPEGGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 9))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	s, err := JPEG{}.Begin(encode(t, img))
	require.NoError(t, err)

	tiles := drain(t, s)
	assert.Len(t, tiles, 3*2)
	assert.Equal(t, image.Pt(8, 8), tiles[0].Block)
}

func TestJPEGInvalid(t *testing.T) {
	_, err := JPEG{}.Begin([]byte{0xff, 0xd8, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = JPEG{}.Begin(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestMCUSize(t *testing.T) {
	for ratio, want := range map[image.YCbCrSubsampleRatio]image.Point{
		image.YCbCrSubsampleRatio444: {8, 8},
		image.YCbCrSubsampleRatio420: {16, 16},
		image.YCbCrSubsampleRatio422: {16, 8},
		image.YCbCrSubsampleRatio440: {8, 16},
	} {
		img := image.NewYCbCr(image.Rect(0, 0, 32, 32), ratio)
		assert.Equal(t, want, mcuSize(img), ratio.String())
	}
	assert.Equal(t, image.Pt(8, 8), mcuSize(image.NewGray(image.Rect(0, 0, 1, 1))))
}
