package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCaptureRecord(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := newCaptureRecord("abc", CaptureResult{
		Seq:      7,
		Outcome:  OutcomeWriteFailed,
		Err:      ErrWrite,
		Time:     ts,
		Duration: 1500 * time.Millisecond,
	})
	assert.Equal(t, "abc", rec.Session)
	assert.Equal(t, 7, rec.Seq)
	assert.Equal(t, "write_failed", rec.Outcome)
	assert.Equal(t, ErrWrite.Error(), rec.Error)
	assert.Equal(t, ts, rec.TakenAt)
	assert.Equal(t, int64(1500), rec.DurationMs)

	rec = newCaptureRecord("abc", CaptureResult{Seq: 8, Outcome: OutcomeSaved, Path: "/p"})
	assert.Empty(t, rec.Error)
	assert.Equal(t, "/p", rec.Path)
}

func TestJournalDropsOnBacklog(t *testing.T) {
	j := &Journal{Session: "s", c: make(chan *CaptureRecord, 1)}
	done := make(chan bool)
	go func() {
		j.CaptureDone(CaptureResult{Seq: 1})
		j.CaptureDone(CaptureResult{Seq: 2})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CaptureDone blocked")
	}
	assert.Len(t, j.c, 1)
	assert.Equal(t, 1, (<-j.c).Seq)
}
