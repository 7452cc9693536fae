package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

// MJPEG multi-streaming, based on implementation by saljam:
// https://github.com/saljam/mjpeg/blob/master/stream.go

const boundaryWord = "MJPEGBOUNDARY"
const headerf = "\r\n" +
	"--" + boundaryWord + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"Content-Length: %d\r\n" +
	"X-Timestamp: 0.000000\r\n" +
	"\r\n"

type MJPEGID struct {
	Name string
}

type MJPEGServer struct {
	m map[MJPEGID]*MJPEGStream

	lock sync.Mutex
}

func NewMJPEGServer() *MJPEGServer {
	return &MJPEGServer{
		m: make(map[MJPEGID]*MJPEGStream),
	}
}

func (s *MJPEGServer) NewStream(id MJPEGID) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.m[id]; ok {
		log.Panicf("A stream for %v already exists", id)
	}

	ms := &MJPEGStream{
		id:      id,
		Quality: 75,
		m:       make(map[chan []byte]bool),
		parent:  s,
	}

	s.m[id] = ms
	return ms
}

func (s *MJPEGServer) getStream(id MJPEGID) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()
	if ms, ok := s.m[id]; ok {
		return ms
	}
	return nil
}

// ServeHTTP implements http.Handler interface, serving MJPEG.
func (s *MJPEGServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := MJPEGID{
		Name: r.Form.Get("name"),
	}

	if id.Name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	stream := s.getStream(id)
	if stream == nil {
		http.Error(w, "unknown stream ID", http.StatusNotFound)
		return
	}

	log.WithField("addr", r.RemoteAddr).Infof("MJPEG stream connected to %v", id)
	w.Header().Add("Content-Type", "multipart/x-mixed-replace;boundary="+boundaryWord)

	c := make(chan []byte)
	stream.lock.Lock()
	stream.m[c] = true
	stream.lock.Unlock()
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
		case b := <-c:
			if _, err := w.Write(b); err == nil {
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
				continue
			}
		}
		break
	}

	stream.lock.Lock()
	delete(stream.m, c)
	stream.lock.Unlock()
	log.WithField("addr", r.RemoteAddr).Infof("MJPEG stream disconnected from %v", id)
}

// MJPEGStream mirrors a picture to every connected client.
type MJPEGStream struct {
	// Quality is the JPEG quality used for the mirror.
	Quality int

	id  MJPEGID
	m   map[chan []byte]bool
	enc bytes.Buffer

	parent *MJPEGServer
	lock   sync.Mutex
}

// Idle reports whether nobody is listening, in which case Put is a no-op and
// callers can skip producing the picture.
func (s *MJPEGStream) Idle() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.m) == 0
}

func (s *MJPEGStream) Put(input image.Image) {
	if s.Idle() {
		// Nobody is listening; don't bother encoding.
		return
	}

	s.enc.Reset()
	if err := jpeg.Encode(&s.enc, input, &jpeg.Options{Quality: s.Quality}); err != nil {
		log.Errorf("Error encoding to JPG for MJPEG stream %v: %v", s.id, err)
		return
	}
	b := s.enc.Bytes()

	// Clients may still be writing the previous frame, so never reuse it.
	header := fmt.Sprintf(headerf, len(b))
	frame := make([]byte, len(header)+len(b))
	copy(frame, header)
	copy(frame[len(header):], b)

	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.m {
		select {
		case c <- frame:
		default:
			// Skip listeners not ready for next frame.
		}
	}
}

func (s *MJPEGStream) Close() {
	s.parent.lock.Lock()
	defer s.parent.lock.Unlock()
	delete(s.parent.m, s.id)
}
