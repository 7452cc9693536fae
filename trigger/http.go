package trigger

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Handler implements http.Handler for manual triggering. It feeds the same
// debounced Request as the physical input.
type Handler struct {
	Request *Request
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	if !h.Request.Signal() {
		log.WithField("addr", r.RemoteAddr).Debugf("Capture request ignored")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprintln(w, "ignored")
		return
	}
	log.WithField("addr", r.RemoteAddr).Infof("Capture requested over HTTP")
	fmt.Fprintln(w, "ok")
}
