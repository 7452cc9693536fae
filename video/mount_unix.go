//go:build unix

package video

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// isMountPoint reports whether path sits on a different device than its parent.
func isMountPoint(path string) bool {
	var st, parent unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	if err := unix.Stat(filepath.Dir(filepath.Clean(path)), &parent); err != nil {
		return false
	}
	return st.Dev != parent.Dev
}
