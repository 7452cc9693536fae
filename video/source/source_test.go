package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRelease(t *testing.T) {
	calls := 0
	f := NewFrame([]byte{0xff, 0xd8}, time.Now(), func() { calls++ })

	assert.False(t, f.Released())
	f.Release()
	assert.True(t, f.Released())
	assert.Equal(t, 1, calls)
	assert.Nil(t, f.Data)

	assert.Panics(t, f.Release, "double release is a bug")
	assert.Equal(t, 1, calls)
}

func TestPoolDepth(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	a := p.Get()
	b := p.Get()
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 2, p.Lent())

	assert.Nil(t, p.Get(), "pool is exhausted")

	p.Put(a)
	assert.Equal(t, 1, p.Lent())
	c := p.Get()
	assert.NotNil(t, c)
	assert.Len(t, c, 0, "returned buffers are reset")
}

func TestPoolClosed(t *testing.T) {
	p := NewPool(1)
	b := p.Get()
	p.Close()
	p.Close()

	p.Put(b)
	assert.Nil(t, p.Get())
	assert.Equal(t, 0, p.Lent())
}

func writeFiles(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0644))
	}
	return dir
}

func TestFilesReplay(t *testing.T) {
	dir := writeFiles(t, "b.jpg", "a.jpg", "notes.txt")
	f, err := OpenFiles(dir, 0, Profile{Name: "live"})
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	var got []string
	for i := 0; i < 3; i++ {
		fr, err := f.Acquire(ctx)
		require.NoError(t, err)
		got = append(got, string(fr.Data))
		assert.Equal(t, 1, f.Lent())
		fr.Release()
		assert.Equal(t, 0, f.Lent())
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "a.jpg"}, got)
}

func TestFilesExhaustion(t *testing.T) {
	dir := writeFiles(t, "a.jpg")
	f, err := OpenFiles(dir, 0, Profile{})
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	a, err := f.Acquire(ctx)
	require.NoError(t, err)
	b, err := f.Acquire(ctx)
	require.NoError(t, err)

	_, err = f.Acquire(ctx)
	assert.True(t, errors.Is(err, ErrNoFrame))

	a.Release()
	b.Release()
}

func TestFilesProfile(t *testing.T) {
	dir := writeFiles(t, "a.jpg")
	f, err := OpenFiles(dir, 0, Profile{Name: "live"})
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.SetProfile(Profile{Name: "still", Width: 1600, Height: 1200}))
	assert.Equal(t, "still", f.Profile().Name)
}

func TestFilesEmptyDir(t *testing.T) {
	_, err := OpenFiles(writeFiles(t, "readme.md"), 0, Profile{})
	assert.Error(t, err)
}

func TestFilesCancelled(t *testing.T) {
	f, err := OpenFiles(writeFiles(t, "a.jpg"), time.Hour, Profile{})
	require.NoError(t, err)
	defer f.Close()

	fr, err := f.Acquire(context.Background())
	require.NoError(t, err)
	fr.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdjustedProfile(t *testing.T) {
	p := Profile{Name: "live", Width: 320, Height: 240, Quality: 60}
	assert.Equal(t, p, adjusted(p, 320, 240))
	assert.Equal(t, Profile{Name: "live", Width: 352, Height: 288, Quality: 60}, adjusted(p, 352, 288))
}
