package video

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"livecam/metrics"
	"livecam/video/process"
	"livecam/video/source"
)

// StillState is a state of the still capture sequence.
type StillState int

const (
	StillIdle StillState = iota
	StillAwaitingFrame
	StillPersisting
	StillRestoring
	StillAborted
)

func (s StillState) String() string {
	switch s {
	case StillIdle:
		return "idle"
	case StillAwaitingFrame:
		return "awaiting-frame"
	case StillPersisting:
		return "persisting"
	case StillRestoring:
		return "restoring"
	case StillAborted:
		return "aborted"
	}
	return fmt.Sprintf("StillState(%d)", int(s))
}

// Outcome summarizes how a capture attempt ended.
type Outcome string

const (
	OutcomeSaved              Outcome = "saved"
	OutcomeStorageUnavailable Outcome = "storage_unavailable"
	OutcomeAcquireFailed      Outcome = "acquire_failed"
	OutcomeWriteFailed        Outcome = "write_failed"
)

// CaptureResult describes one capture attempt.
type CaptureResult struct {
	// Seq is zero when the attempt never got a frame.
	Seq      int
	Path     string
	Outcome  Outcome
	Err      error
	Time     time.Time
	Duration time.Duration
}

// CaptureListener is told about every capture attempt. Implementations must
// not block; they run on the main loop.
type CaptureListener interface {
	CaptureDone(r CaptureResult)
}

// Store is where still captures are persisted.
type Store interface {
	Available() bool
	Write(name string, data []byte) (string, error)
}

// StillCapture takes one high quality photo by temporarily switching the
// sensor to the still profile. The live view profile is restored on every
// path out of Capture; an attempt that finds no storage never touches the
// sensor.
type StillCapture struct {
	Source source.Source
	Store  Store
	Status *process.Status

	LiveView, Still source.Profile

	Listeners []CaptureListener

	// OnState, if set, observes every state transition.
	OnState func(StillState)

	state          StillState
	seq            int
	restorePending bool
	now            func() time.Time
}

func NewStillCapture(src source.Source, store Store, status *process.Status, live, still source.Profile) *StillCapture {
	return &StillCapture{
		Source:   src,
		Store:    store,
		Status:   status,
		LiveView: live,
		Still:    still,
		now:      time.Now,
	}
}

// SetSeq sets the last used sequence number.
func (s *StillCapture) SetSeq(seq int) {
	s.seq = seq
}

// Seq returns the last used sequence number.
func (s *StillCapture) Seq() int {
	return s.seq
}

func (s *StillCapture) State() StillState {
	return s.state
}

func (s *StillCapture) setState(st StillState) {
	s.state = st
	log.Debugf("Still capture %v", st)
	if s.OnState != nil {
		s.OnState(st)
	}
}

// Capture runs one capture attempt to completion. It cannot be cancelled
// once the sensor has been switched; ctx only bounds frame acquisition.
func (s *StillCapture) Capture(ctx context.Context) (res CaptureResult) {
	start := s.now()
	res.Time = start
	defer func() {
		res.Duration = s.now().Sub(start)
		s.setState(StillIdle)
		s.report(res)
	}()

	if !s.Store.Available() {
		s.setState(StillAborted)
		res.Outcome = OutcomeStorageUnavailable
		res.Err = ErrStorageUnavailable
		s.Status.Show(process.BannerError, "No storage")
		return res
	}

	s.setState(StillAwaitingFrame)
	defer s.restore()

	if err := s.Source.SetProfile(s.Still); err != nil {
		res.Outcome = OutcomeAcquireFailed
		res.Err = fmt.Errorf("switch to %v profile: %w", s.Still.Name, err)
		s.Status.Show(process.BannerError, "Capture failed")
		return res
	}

	frame, err := s.Source.Acquire(ctx)
	if err != nil {
		res.Outcome = OutcomeAcquireFailed
		res.Err = err
		s.Status.Show(process.BannerError, "Capture failed")
		return res
	}

	s.setState(StillPersisting)
	s.seq++
	res.Seq = s.seq
	path, err := s.Store.Write(PhotoName(frame.Time, res.Seq), frame.Data)
	frame.Release()
	if err != nil {
		res.Outcome = OutcomeWriteFailed
		res.Err = err
		s.Status.Show(process.BannerError, fmt.Sprintf("Save failed #%d", res.Seq))
		return res
	}
	res.Path = path
	res.Outcome = OutcomeSaved
	s.Status.Show(process.BannerSuccess, fmt.Sprintf("Saved #%d", res.Seq))
	return res
}

func (s *StillCapture) restore() {
	s.setState(StillRestoring)
	err := s.Source.SetProfile(s.LiveView)
	if err != nil {
		log.Errorf("Failed to restore %v profile, retrying: %v", s.LiveView.Name, err)
		err = s.Source.SetProfile(s.LiveView)
	}
	if err != nil {
		log.Errorf("Failed to restore %v profile, will retry before next frame: %v", s.LiveView.Name, err)
	}
	s.restorePending = err != nil
}

// RestorePending reports whether the sensor may still be in the still
// profile after a failed restore.
func (s *StillCapture) RestorePending() bool {
	return s.restorePending
}

// Recover retries a failed restore of the live view profile. It returns true
// once the live view profile is active.
func (s *StillCapture) Recover() bool {
	if !s.restorePending {
		return true
	}
	if err := s.Source.SetProfile(s.LiveView); err != nil {
		log.Debugf("Still unable to restore %v profile: %v", s.LiveView.Name, err)
		return false
	}
	s.restorePending = false
	log.Infof("Restored %v profile", s.LiveView.Name)
	return true
}

func (s *StillCapture) report(r CaptureResult) {
	metrics.Captures.WithLabelValues(string(r.Outcome)).Inc()
	metrics.CaptureSeconds.Observe(r.Duration.Seconds())

	l := log.WithField("outcome", r.Outcome).WithField("took", r.Duration)
	if r.Seq > 0 {
		l = l.WithField("seq", r.Seq)
	}
	if r.Err != nil {
		l.Warnf("Still capture failed: %v", r.Err)
	} else {
		l.Infof("Photo written to %v", r.Path)
	}

	for _, c := range s.Listeners {
		c.CaptureDone(r)
	}
}
