package trigger

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRequest() (*Request, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 3, 10, 14, 34, 21, 0, time.UTC)}
	r := NewRequest(DefaultDebounce)
	r.now = c.now
	return r, c
}

func TestSignalAndTake(t *testing.T) {
	r, _ := newTestRequest()

	assert.False(t, r.Take(), "nothing pending yet")
	assert.True(t, r.Signal())
	assert.True(t, r.Pending())
	assert.True(t, r.Take())
	assert.False(t, r.Pending())
	r.Done()
	assert.False(t, r.Take(), "flag is cleared by Take")
}

func TestSignalDebounced(t *testing.T) {
	r, c := newTestRequest()

	require.True(t, r.Signal())
	require.True(t, r.Take())
	r.Done()

	c.advance(100 * time.Millisecond)
	assert.False(t, r.Signal(), "inside debounce window")

	c.advance(100 * time.Millisecond)
	assert.False(t, r.Signal(), "exactly at the threshold is still debounced")

	c.advance(time.Millisecond)
	assert.True(t, r.Signal())

	accepted, ignored := r.Counts()
	assert.EqualValues(t, 2, accepted)
	assert.EqualValues(t, 2, ignored)
}

func TestSignalIgnoredWhileBusy(t *testing.T) {
	r, c := newTestRequest()

	require.True(t, r.Signal())
	require.True(t, r.Take())

	c.advance(time.Second)
	assert.False(t, r.Signal(), "capture in progress")
	assert.False(t, r.Pending())

	r.Done()
	assert.True(t, r.Signal())
}

func TestSignalSinglePending(t *testing.T) {
	r, c := newTestRequest()

	require.True(t, r.Signal())
	c.advance(time.Second)
	assert.False(t, r.Signal(), "a request is already pending")
	assert.True(t, r.Take())
	assert.False(t, r.Take())
}

func TestAtMostOneAcceptedPerWindow(t *testing.T) {
	r, c := newTestRequest()
	rng := rand.New(rand.NewSource(1))

	var accepted []time.Time
	for i := 0; i < 5000; i++ {
		c.advance(time.Duration(rng.Intn(60)) * time.Millisecond)
		if r.Signal() {
			accepted = append(accepted, c.t)
			// Drain immediately so only the debounce limits acceptance.
			require.True(t, r.Take())
			r.Done()
		}
	}
	require.NotEmpty(t, accepted)
	for i := 1; i < len(accepted); i++ {
		assert.Greater(t, accepted[i].Sub(accepted[i-1]), DefaultDebounce)
	}
}

func TestSignalConcurrent(t *testing.T) {
	r := NewRequest(time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	n := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Signal() {
				mu.Lock()
				n++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, n)
	assert.True(t, r.Take())
}

func TestHandler(t *testing.T) {
	r, _ := newTestRequest()
	h := &Handler{Request: r}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trigger", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trigger", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/trigger", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
