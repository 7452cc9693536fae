package trigger

import (
	"sync"
	"time"
)

// DefaultDebounce is the minimum spacing between two accepted requests.
const DefaultDebounce = 200 * time.Millisecond

// Request is a single-slot capture request shared between event sources
// (signal handler, HTTP, keyboard) and the main loop. At most one request is
// ever pending; requests inside the debounce window or while a capture is in
// progress are dropped.
type Request struct {
	Debounce time.Duration

	mu       sync.Mutex
	pending  bool
	busy     bool
	last     time.Time
	accepted uint64
	ignored  uint64

	now func() time.Time
}

func NewRequest(debounce time.Duration) *Request {
	return &Request{
		Debounce: debounce,
		now:      time.Now,
	}
}

// Signal records a capture request. It is safe to call from any goroutine and
// returns whether the request was accepted.
func (r *Request) Signal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	if r.busy || r.pending || (!r.last.IsZero() && t.Sub(r.last) <= r.Debounce) {
		r.ignored++
		return false
	}
	r.pending = true
	r.last = t
	r.accepted++
	return true
}

// Take tests and clears the pending flag. When it returns true the caller owns
// the capture and must call Done once it has finished; signals arriving in
// between are ignored.
func (r *Request) Take() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return false
	}
	r.pending = false
	r.busy = true
	return true
}

// Done ends the capture started by a successful Take.
func (r *Request) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
}

// Pending reports whether a request is waiting to be taken.
func (r *Request) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Counts returns the number of accepted and ignored signals.
func (r *Request) Counts() (accepted, ignored uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepted, r.ignored
}
