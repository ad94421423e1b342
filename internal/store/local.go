package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores artifacts on the local filesystem under a root directory.
// Publication is write-to-temp-then-rename in the destination directory, so
// a concurrent reader never observes a partial file.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) Put(ctx context.Context, videoID, name, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := Key(videoID, name)
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	// The temp file lives next to the destination so the final rename is
	// atomic on the same filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src, err := os.Open(localPath)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}

	return key, nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadSeekCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	p := filepath.Join(l.root, filepath.FromSlash(key))
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat artifact: %w", err)
	}

	return f, info.Size(), nil
}

func (l *Local) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

func (l *Local) RemoveVideo(ctx context.Context, videoID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Refuse anything that could escape the root.
	if videoID == "" || strings.ContainsAny(videoID, "/\\.") {
		return fmt.Errorf("invalid video id %q", videoID)
	}

	dir := filepath.Join(l.root, "videos", videoID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove artifact directory: %w", err)
	}
	return nil
}
