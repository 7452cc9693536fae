package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const (
	ExtPhoto = ".jpg"
	ExtTemp  = ".temp"

	// FileTimeLayout defines the time part of photo filenames.
	// See https://golang.org/src/time/format.go.
	FileTimeLayout = "20060102-150405-0700"

	// probeInterval re-checks storage presence for mounts that produce no
	// filesystem events.
	probeInterval = 2 * time.Second
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrWrite              = errors.New("photo write failed")
)

// PhotoName returns the filename for a capture. The sequence number keeps
// names unique within a session even when the clock does not advance.
func PhotoName(t time.Time, seq int) string {
	return fmt.Sprintf("%s_%05d%s", t.Format(FileTimeLayout), seq, ExtPhoto)
}

// PhotoRecord describes one stored photo.
type PhotoRecord struct {
	ID   string
	Time time.Time
	Seq  int
	Path string
	Size int64
}

func parsePhotoName(name string) (time.Time, int, bool) {
	if !strings.HasSuffix(name, ExtPhoto) {
		return time.Time{}, 0, false
	}
	base := strings.TrimSuffix(name, ExtPhoto)
	i := strings.LastIndexByte(base, '_')
	if i != len(FileTimeLayout) {
		return time.Time{}, 0, false
	}
	t, err := time.Parse(FileTimeLayout, base[:i])
	if err != nil {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(base[i+1:])
	if err != nil || seq < 0 {
		return time.Time{}, 0, false
	}
	return t, seq, true
}

// PhotoStore persists still captures to removable storage mounted at BasePath.
type PhotoStore struct {
	BasePath string
	Dir      string

	// RequireMount treats BasePath as unavailable unless something is
	// mounted on it, so photos never land on the root filesystem.
	RequireMount bool

	watching  atomic.Bool
	available atomic.Bool
}

func NewPhotoStore(basePath, dir string) *PhotoStore {
	return &PhotoStore{
		BasePath: basePath,
		Dir:      dir,
	}
}

// Path returns the directory photos are written to.
func (s *PhotoStore) Path() string {
	return filepath.Join(s.BasePath, s.Dir)
}

func (s *PhotoStore) probe() bool {
	fi, err := os.Stat(s.BasePath)
	if err != nil || !fi.IsDir() {
		return false
	}
	if s.RequireMount {
		return isMountPoint(s.BasePath)
	}
	return true
}

// Available reports whether the storage is present. While Watch is running
// the answer comes from the watcher and costs nothing.
func (s *PhotoStore) Available() bool {
	if s.watching.Load() {
		return s.available.Load()
	}
	return s.probe()
}

func (s *PhotoStore) refresh() {
	now := s.probe()
	if s.available.Swap(now) != now {
		if now {
			log.Infof("Storage available at %v", s.BasePath)
		} else {
			log.Warnf("Storage removed from %v", s.BasePath)
		}
	}
}

// Watch tracks storage insertion and removal until ctx is done.
func (s *PhotoStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	parent := filepath.Dir(filepath.Clean(s.BasePath))
	if err := watcher.Add(parent); err != nil {
		watcher.Close()
		return err
	}
	s.available.Store(s.probe())
	s.watching.Store(true)
	log.Infof("Watching %v for storage changes (available: %v)", s.BasePath, s.available.Load())

	go func() {
		defer watcher.Close()
		defer s.watching.Store(false)
		ticker := time.NewTicker(probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == filepath.Clean(s.BasePath) {
					s.refresh()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("Storage watcher error: %v", err)
			case <-ticker.C:
				s.refresh()
			}
		}
	}()
	return nil
}

// Write stores data verbatim under name and returns the final path. The file
// is synced and renamed into place so a removed card never holds a partial
// photo under its final name.
func (s *PhotoStore) Write(name string, data []byte) (string, error) {
	if !s.Available() {
		return "", ErrStorageUnavailable
	}
	dir := s.Path()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ExtTemp
	if err := writeSync(tmp, data); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return path, nil
}

func writeSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns stored photos ordered by sequence number.
func (s *PhotoStore) List() ([]PhotoRecord, error) {
	entries, err := os.ReadDir(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var records []PhotoRecord
	for _, e := range entries {
		t, seq, ok := parsePhotoName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		r := PhotoRecord{
			ID:   strings.TrimSuffix(e.Name(), ExtPhoto),
			Time: t,
			Seq:  seq,
			Path: filepath.Join(s.Path(), e.Name()),
		}
		if fi, err := e.Info(); err == nil {
			r.Size = fi.Size()
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Seq != records[j].Seq {
			return records[i].Seq < records[j].Seq
		}
		return records[i].Time.Before(records[j].Time)
	})
	return records, nil
}

// Lookup finds a photo by ID, the filename without extension.
func (s *PhotoStore) Lookup(id string) (PhotoRecord, bool) {
	name := id + ExtPhoto
	t, seq, ok := parsePhotoName(name)
	if !ok {
		return PhotoRecord{}, false
	}
	path := filepath.Join(s.Path(), name)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return PhotoRecord{}, false
	}
	return PhotoRecord{ID: id, Time: t, Seq: seq, Path: path, Size: fi.Size()}, true
}

// LastSeq returns the highest sequence number already stored, so numbering
// continues across restarts.
func (s *PhotoStore) LastSeq() int {
	records, err := s.List()
	if err != nil || len(records) == 0 {
		return 0
	}
	return records[len(records)-1].Seq
}
