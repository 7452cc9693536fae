package serve

import (
	"encoding/json"
	"net/http"

	"livecam/video"
)

type PhotoEntry struct {
	ID        string
	Seq       int
	Timestamp int64
	Size      int64
}

type PhotoListResponse struct {
	Items []*PhotoEntry

	Available      bool
	ItemsTotalSize int64
	ItemsCount     int
	LastSeq        int
}

// PhotoListServer lists stored photos as JSON, newest first.
type PhotoListServer struct {
	Store *video.PhotoStore
}

func (s *PhotoListServer) BuildResponse() (*PhotoListResponse, error) {
	resp := &PhotoListResponse{
		Items:     []*PhotoEntry{},
		Available: s.Store.Available(),
	}
	if !resp.Available {
		return resp, nil
	}
	records, err := s.Store.List()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		resp.Items = append(resp.Items, &PhotoEntry{
			ID:        r.ID,
			Seq:       r.Seq,
			Timestamp: r.Time.Unix(),
			Size:      r.Size,
		})
		resp.ItemsTotalSize += r.Size
	}
	resp.ItemsCount = len(records)
	if len(records) > 0 {
		resp.LastSeq = records[len(records)-1].Seq
	}
	return resp, nil
}

func (s *PhotoListServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := s.BuildResponse()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	js, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
