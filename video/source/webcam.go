package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blackjack/webcam"
	log "github.com/sirupsen/logrus"
)

const (
	// bufferCount is the depth of the kernel buffer pool. Two buffers let the
	// driver fill one while the pipeline decodes the other.
	bufferCount = 2

	// jpegQuality is V4L2_CID_JPEG_COMPRESSION_QUALITY.
	jpegQuality webcam.ControlID = 0x009d0903
)

// fourCC converts a four character code to a V4L2 pixel format.
func fourCC(s string) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
}

var formatMJPEG = fourCC("MJPG")

// Webcam is a V4L2 sensor delivering MJPEG frames from a two-deep kernel
// buffer pool. Acquire uses latest-frame semantics. Profile reports the
// resolution the driver settled on, which may differ from the one requested.
type Webcam struct {
	Device string

	// Timeout bounds how long Acquire waits for the driver.
	Timeout time.Duration

	cam *webcam.Webcam

	l       sync.Mutex
	profile Profile
}

// OpenWebcam opens and starts the sensor with the given profile. Failure here
// is the one unrecoverable condition for the pipeline.
func OpenWebcam(device string, p Profile) (*Webcam, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", device, err)
	}
	if _, ok := cam.GetSupportedFormats()[formatMJPEG]; !ok {
		cam.Close()
		return nil, fmt.Errorf("%v does not support MJPEG", device)
	}
	w := &Webcam{
		Device:  device,
		Timeout: time.Second,
		cam:     cam,
	}
	if err := w.apply(p); err != nil {
		cam.Close()
		return nil, err
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start streaming: %w", err)
	}
	return w, nil
}

func (w *Webcam) apply(p Profile) error {
	_, width, height, err := w.cam.SetImageFormat(formatMJPEG, uint32(p.Width), uint32(p.Height))
	if err != nil {
		return fmt.Errorf("set format for profile %v: %w", p.Name, err)
	}
	p = adjusted(p, width, height)
	if err := w.cam.SetBufferCount(bufferCount); err != nil {
		return fmt.Errorf("set buffer count: %w", err)
	}
	if p.Quality > 0 {
		if err := w.cam.SetControl(jpegQuality, int32(p.Quality)); err != nil {
			log.Debugf("JPEG quality control unavailable on %v: %v", w.Device, err)
		}
	}
	w.l.Lock()
	w.profile = p
	w.l.Unlock()
	return nil
}

// adjusted returns p with the resolution the driver actually selected.
func adjusted(p Profile, width, height uint32) Profile {
	if int(width) != p.Width || int(height) != p.Height {
		log.Warnf("Sensor adjusted profile %v from %dx%d to %dx%d", p.Name, p.Width, p.Height, width, height)
		p.Width, p.Height = int(width), int(height)
	}
	return p
}

func (w *Webcam) Acquire(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := w.wait(uint32(w.Timeout / time.Second)); err != nil {
		return nil, err
	}
	data, index, err := w.cam.GetFrame()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}

	// Drop to the newest frame if the driver has already queued another.
	for w.wait(0) == nil {
		newer, ni, err := w.cam.GetFrame()
		if err != nil {
			break
		}
		if len(newer) == 0 {
			w.releaseIndex(ni)
			break
		}
		w.releaseIndex(index)
		data, index = newer, ni
	}

	if len(data) == 0 {
		w.releaseIndex(index)
		return nil, ErrNoFrame
	}
	return NewFrame(data, time.Now(), func() { w.releaseIndex(index) }), nil
}

func (w *Webcam) wait(seconds uint32) error {
	err := w.cam.WaitForFrame(seconds)
	switch err.(type) {
	case nil:
		return nil
	case *webcam.Timeout:
		return ErrNoFrame
	default:
		return fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
}

func (w *Webcam) releaseIndex(index uint32) {
	if err := w.cam.ReleaseFrame(index); err != nil {
		log.Errorf("Failed to release frame buffer %d: %v", index, err)
	}
}

// SetProfile restarts streaming with the new format. Outstanding frames must
// be released first.
func (w *Webcam) SetProfile(p Profile) error {
	start := time.Now()
	if err := w.cam.StopStreaming(); err != nil {
		return fmt.Errorf("stop streaming: %w", err)
	}
	applyErr := w.apply(p)
	if err := w.cam.StartStreaming(); err != nil {
		return fmt.Errorf("restart streaming: %w", err)
	}
	if applyErr != nil {
		return applyErr
	}
	p = w.Profile()
	log.Infof("Sensor switched to profile %v (%dx%d q%d) in %v", p.Name, p.Width, p.Height, p.Quality, time.Since(start))
	return nil
}

func (w *Webcam) Profile() Profile {
	w.l.Lock()
	defer w.l.Unlock()
	return w.profile
}

func (w *Webcam) Close() error {
	return w.cam.Close()
}
