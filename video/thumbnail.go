package video

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	ExtThumb = ".thumb.jpg"

	thumbWidth   = 240
	thumbHeight  = 135
	thumbQuality = 80
)

// ThumbPath returns the thumbnail path for a photo path.
func ThumbPath(photo string) string {
	return strings.TrimSuffix(photo, ExtPhoto) + ExtThumb
}

// thumbSize fits src inside bound keeping its aspect ratio.
func thumbSize(src, bound image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}
	}
	w, h := bound.X, src.Y*bound.X/src.X
	if h > bound.Y {
		w, h = src.X*bound.Y/src.Y, bound.Y
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Pt(w, h)
}

// WriteThumb writes a scaled down copy of the JPEG photo at src to dst.
func WriteThumb(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	sz := thumbSize(img.Bounds().Size(), image.Pt(thumbWidth, thumbHeight))
	thumb := image.NewRGBA(image.Rectangle{Max: sz})
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return err
	}
	if err := writeSync(dst+ExtTemp, buf.Bytes()); err != nil {
		os.Remove(dst + ExtTemp)
		return err
	}
	return os.Rename(dst+ExtTemp, dst)
}

// ThumbnailProducer writes thumbnails of saved photos from its own goroutine,
// keeping the scaling work off the main loop.
type ThumbnailProducer struct {
	c     chan string
	close chan chan bool

	// Done, if set, is called from the worker after each thumbnail.
	Done func(path string, err error)
}

func NewThumbnailProducer() *ThumbnailProducer {
	f := &ThumbnailProducer{
		c:     make(chan string, 100),
		close: make(chan chan bool, 1),
	}
	go func() {
		for {
			var src string
			select {
			case cc := <-f.close:
				cc <- true
				return
			case src = <-f.c:
			}
			dst := ThumbPath(src)
			err := WriteThumb(src, dst)
			if err != nil {
				log.Errorf("Thumbnail failed for %v: %v", src, err)
			} else {
				log.Debugf("Thumbnail written to %v", dst)
			}
			if f.Done != nil {
				f.Done(dst, err)
			}
		}
	}()
	return f
}

// Process queues a thumbnail for the photo at src.
func (f *ThumbnailProducer) Process(src string) {
	select {
	case f.c <- src:
	default:
		log.Warnf("Thumbnail for %v dropped due to backlog", src)
	}
}

func (f *ThumbnailProducer) CaptureDone(r CaptureResult) {
	if r.Outcome == OutcomeSaved {
		f.Process(r.Path)
	}
}

func (f *ThumbnailProducer) Close() {
	c := make(chan bool)
	f.close <- c
	<-c
}
