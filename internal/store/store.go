package store

import (
	"context"
	"errors"
	"io"
	"path"
)

// ErrNotFound is returned when no artifact exists under the given key.
var ErrNotFound = errors.New("artifact not found")

// Store owns the physical placement of derived artifacts (renditions and
// thumbnails), keyed by "videos/<id>/<name>". Implementations must publish
// files atomically: a reader either sees the complete artifact or none.
type Store interface {
	// Put publishes a finished local file under the video's artifact
	// directory and returns its key.
	Put(ctx context.Context, videoID, name, localPath string) (string, error)

	// Open returns a seekable reader over the artifact plus its size.
	// Seekability is what lets the streaming layer serve byte ranges
	// without buffering whole files.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, int64, error)

	// Remove deletes a single artifact. Removing a missing key is not an
	// error; failure-path cleanup calls this blindly.
	Remove(ctx context.Context, key string) error

	// RemoveVideo deletes the video's entire artifact directory.
	RemoveVideo(ctx context.Context, videoID string) error
}

// Key builds the canonical artifact key for a video file.
func Key(videoID, name string) string {
	return path.Join("videos", videoID, name)
}
