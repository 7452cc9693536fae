package serve

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"livecam/video"
)

// PhotoServer serves one stored photo, selected by the id parameter.
type PhotoServer struct {
	Store *video.PhotoStore
	// Thumb serves the photo's thumbnail instead.
	Thumb bool
}

func (s *PhotoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	pr, ok := s.Store.Lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("No photo found for id %v", id), http.StatusNotFound)
		return
	}

	path := pr.Path
	if s.Thumb {
		path = video.ThumbPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, filepath.Base(path), pr.Time, f)
}
