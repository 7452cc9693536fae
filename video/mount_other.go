//go:build !unix

package video

func isMountPoint(path string) bool {
	return true
}
