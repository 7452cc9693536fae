package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"livecam/video/source"
)

var (
	liveView = source.Profile{Name: "live", Width: 32, Height: 16, Quality: 60}
	stillPro = source.Profile{Name: "still", Width: 64, Height: 32, Quality: 95}
)

// fakeSource hands out scripted frames and records everything done to it.
type fakeSource struct {
	mu sync.Mutex

	// frames are returned in order; a nil entry means ErrNoFrame. Once
	// exhausted, next is used for every acquire.
	frames [][]byte
	next   []byte

	profile     source.Profile
	setProfiles []string
	failSet     map[string]int

	acquires    int
	outstanding int
	// violations counts acquires made while a frame was still held.
	violations int
	releases   int
}

func newFakeSource(frames ...[]byte) *fakeSource {
	return &fakeSource{frames: frames, profile: liveView, failSet: map[string]int{}}
}

func (s *fakeSource) Acquire(ctx context.Context) (*source.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.acquires++
	if s.outstanding > 0 {
		s.violations++
	}
	data := s.next
	if len(s.frames) > 0 {
		data, s.frames = s.frames[0], s.frames[1:]
	}
	if data == nil {
		return nil, source.ErrNoFrame
	}
	s.outstanding++
	return source.NewFrame(data, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), func() {
		s.mu.Lock()
		s.outstanding--
		s.releases++
		s.mu.Unlock()
	}), nil
}

func (s *fakeSource) SetProfile(p source.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProfiles = append(s.setProfiles, p.Name)
	if s.failSet[p.Name] > 0 {
		s.failSet[p.Name]--
		return errors.New("sensor busy")
	}
	s.profile = p
	return nil
}

func (s *fakeSource) Profile() source.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *fakeSource) Close() error {
	return nil
}

type fakeStore struct {
	available bool
	failWrite int
	names     []string
	data      [][]byte
}

func (s *fakeStore) Available() bool {
	return s.available
}

func (s *fakeStore) Write(name string, data []byte) (string, error) {
	s.names = append(s.names, name)
	if s.failWrite > 0 {
		s.failWrite--
		return "", ErrWrite
	}
	s.data = append(s.data, append([]byte(nil), data...))
	return "/photos/" + name, nil
}

type captureRecorder struct {
	results []CaptureResult
}

func (c *captureRecorder) CaptureDone(r CaptureResult) {
	c.results = append(c.results, r)
}

func encodeJPEG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}
