package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Files replays a directory of JPEG files as if they came from a sensor, for
// bench testing without hardware. Frames are paced at Interval and the
// directory is cycled forever.
type Files struct {
	Dir      string
	Interval time.Duration

	paths []string
	next  int
	due   time.Time
	pool  *Pool

	l       sync.Mutex
	profile Profile
}

// OpenFiles lists the *.jpg files in dir. It fails if there are none.
func OpenFiles(dir string, interval time.Duration, p Profile) (*Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || !(strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg")) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JPEG files in %v", dir)
	}
	sort.Strings(paths)
	log.Infof("Replaying %d frames from %v", len(paths), dir)
	return &Files{
		Dir:      dir,
		Interval: interval,
		paths:    paths,
		pool:     NewPool(2),
		profile:  p,
	}, nil
}

func (f *Files) Acquire(ctx context.Context) (*Frame, error) {
	if wait := time.Until(f.due); wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	f.due = time.Now().Add(f.Interval)

	path := f.paths[f.next]
	f.next = (f.next + 1) % len(f.paths)

	b := f.pool.Get()
	if b == nil {
		return nil, ErrNoFrame
	}
	data, err := os.ReadFile(path)
	if err != nil {
		f.pool.Put(b)
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	b = append(b, data...)
	return NewFrame(b, time.Now(), func() { f.pool.Put(b) }), nil
}

// SetProfile only records the profile; replayed frames keep their size.
func (f *Files) SetProfile(p Profile) error {
	f.l.Lock()
	defer f.l.Unlock()
	log.Debugf("Replay source switching to profile %v", p.Name)
	f.profile = p
	return nil
}

func (f *Files) Profile() Profile {
	f.l.Lock()
	defer f.l.Unlock()
	return f.profile
}

// Lent returns the number of frames acquired but not yet released.
func (f *Files) Lent() int {
	return f.pool.Lent()
}

func (f *Files) Close() error {
	f.pool.Close()
	return nil
}
