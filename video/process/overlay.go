package process

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"livecam/video/pixel"
	"livecam/video/sink"
)

var (
	colorText = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorBG   = color.RGBA{R: 0, G: 0, B: 0, A: 255}

	bannerBG = map[BannerKind]color.RGBA{
		BannerInfo:    {R: 48, G: 48, B: 48, A: 255},
		BannerSuccess: {R: 0, G: 128, B: 0, A: 255},
		BannerError:   {R: 160, G: 0, B: 0, A: 255},
	}
)

const pad = 2

// label renders text on a solid background, padded on every side.
func label(text string, fg, bg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	m := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := m.Height.Ceil()

	img := image.NewRGBA(image.Rect(0, 0, w+pad*2, h+pad*2))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(pad, pad+m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}

func toOverlay(img *image.RGBA, at image.Point) sink.Overlay {
	b := img.Bounds()
	return sink.Overlay{
		Pix:    pixel.FromImage(nil, img, b),
		Bounds: b.Add(at),
	}
}

// Badge draws the frame rate in the top-left corner, colored by tier. The
// rendered overlay is cached until the displayed value changes.
type Badge struct {
	Pos image.Point

	text    string
	overlay sink.Overlay
}

func NewBadge() *Badge {
	return &Badge{Pos: image.Pt(pad, pad)}
}

func (b *Badge) Render(fps float64) sink.Overlay {
	text := fmt.Sprintf("%.1f FPS", fps)
	if text != b.text {
		b.text = text
		b.overlay = toOverlay(label(text, TierOf(fps).Color(), colorBG), b.Pos)
	}
	return b.overlay
}

// RenderBanner draws a banner centered along the bottom edge of a display of
// the given size.
func RenderBanner(bn Banner, display image.Point) sink.Overlay {
	img := label(bn.Text, colorText, bannerBG[bn.Kind])
	sz := img.Bounds().Size()
	at := image.Pt((display.X-sz.X)/2, display.Y-sz.Y-pad*2)
	return toOverlay(img, at)
}

// BannerView caches the rendered banner until the banner or the display
// size changes.
type BannerView struct {
	banner  Banner
	display image.Point
	overlay sink.Overlay
}

func (v *BannerView) Render(bn Banner, display image.Point) sink.Overlay {
	if v.overlay.Pix == nil || bn != v.banner || display != v.display {
		v.banner = bn
		v.display = display
		v.overlay = RenderBanner(bn, display)
	}
	return v.overlay
}
