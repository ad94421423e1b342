package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLocalPutAndOpen(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	src := writeTemp(t, "hello rendition")
	key, err := l.Put(ctx, "vid-1", "720p.mp4", src)
	require.NoError(t, err)
	assert.Equal(t, "videos/vid-1/720p.mp4", key)

	r, size, err := l.Open(ctx, key)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(len("hello rendition")), size)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello rendition", string(data))
}

func TestLocalPutOverwrites(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key, err := l.Put(ctx, "vid-1", "720p.mp4", writeTemp(t, "first"))
	require.NoError(t, err)
	_, err = l.Put(ctx, "vid-1", "720p.mp4", writeTemp(t, "second"))
	require.NoError(t, err)

	r, _, err := l.Open(ctx, key)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalOpenSeek(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key, err := l.Put(ctx, "vid-1", "480p.mp4", writeTemp(t, "0123456789"))
	require.NoError(t, err)

	r, _, err := l.Open(ctx, key)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))
}

func TestLocalOpenMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, err = l.Open(context.Background(), "videos/nope/720p.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRemove(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key, err := l.Put(ctx, "vid-1", "720p.mp4", writeTemp(t, "x"))
	require.NoError(t, err)

	require.NoError(t, l.Remove(ctx, key))
	_, _, err = l.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing a missing key is not an error.
	require.NoError(t, l.Remove(ctx, key))
}

func TestLocalRemoveVideo(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	_, err = l.Put(ctx, "vid-1", "720p.mp4", writeTemp(t, "a"))
	require.NoError(t, err)
	_, err = l.Put(ctx, "vid-1", "thumbnail.jpg", writeTemp(t, "b"))
	require.NoError(t, err)

	require.NoError(t, l.RemoveVideo(ctx, "vid-1"))

	_, statErr := os.Stat(filepath.Join(root, "videos", "vid-1"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalRemoveVideoRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, l.RemoveVideo(context.Background(), "../escape"))
	assert.Error(t, l.RemoveVideo(context.Background(), ""))
}
