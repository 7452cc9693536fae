package video

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoName(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 8, 7, 0, time.FixedZone("", -7*3600))
	name := PhotoName(ts, 12)
	assert.Equal(t, "20240501-090807-0700_00012.jpg", name)

	got, seq, ok := parsePhotoName(name)
	require.True(t, ok)
	assert.Equal(t, 12, seq)
	assert.True(t, got.Equal(ts))

	for _, bad := range []string{"x.jpg", "20240501-090807-0700_00012.png", "20240501-090807-0700_abc.jpg", "20240501_00001.jpg"} {
		_, _, ok := parsePhotoName(bad)
		assert.False(t, ok, bad)
	}
}

func TestPhotoStoreWrite(t *testing.T) {
	base := t.TempDir()
	s := NewPhotoStore(base, "DCIM")
	require.True(t, s.Available())

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	path, err := s.Write(PhotoName(ts, 1), []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "DCIM", "20240501-120000+0000_00001.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	matches, err := filepath.Glob(filepath.Join(base, "DCIM", "*"+ExtTemp))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPhotoStoreUnavailable(t *testing.T) {
	s := NewPhotoStore(filepath.Join(t.TempDir(), "missing"), "DCIM")
	assert.False(t, s.Available())
	_, err := s.Write("a.jpg", []byte("x"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestPhotoStoreWriteError(t *testing.T) {
	base := t.TempDir()
	// A file where the photo directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(base, "DCIM"), nil, 0644))
	s := NewPhotoStore(base, "DCIM")
	_, err := s.Write("a.jpg", []byte("x"))
	assert.ErrorIs(t, err, ErrWrite)
}

func TestPhotoStoreListLookup(t *testing.T) {
	s := NewPhotoStore(t.TempDir(), "DCIM")
	assert.Zero(t, s.LastSeq())

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, seq := range []int{3, 1, 10} {
		_, err := s.Write(PhotoName(ts.Add(time.Duration(seq)*time.Second), seq), []byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Path(), "notes.txt"), nil, 0644))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int{1, 3, 10}, []int{records[0].Seq, records[1].Seq, records[2].Seq})
	assert.Equal(t, int64(1), records[0].Size)
	assert.Equal(t, 10, s.LastSeq())

	r, ok := s.Lookup(records[1].ID)
	require.True(t, ok)
	assert.Equal(t, records[1].Path, r.Path)

	_, ok = s.Lookup("../../etc/passwd")
	assert.False(t, ok)
	_, ok = s.Lookup("20240501-120000+0000_00099")
	assert.False(t, ok)
}
