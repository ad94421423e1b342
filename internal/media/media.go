package media

import (
	"context"
	"errors"
)

var (
	// ErrUnreadableMedia means the external decoder could not parse the
	// source (bad container, bad codec, zero duration, or probe timeout).
	ErrUnreadableMedia = errors.New("unreadable media")
	// ErrEncodeFailed means a single rendition encode did not produce an
	// output. The pipeline drops the rung and continues.
	ErrEncodeFailed = errors.New("encode failed")
)

// ProbeResult is what the pipeline needs to know about a source file.
type ProbeResult struct {
	DurationSeconds int
	Width           int
	Height          int
}

// Prober inspects a media file without mutating it.
type Prober interface {
	Probe(ctx context.Context, sourcePath string) (ProbeResult, error)
}

// Encoder produces one derived artifact per call. Both operations respect
// ctx cancellation by killing the external process.
type Encoder interface {
	// EncodeRendition transcodes the source to the target height,
	// preserving aspect ratio, writing an mp4 to outputPath.
	EncodeRendition(ctx context.Context, sourcePath, outputPath string, height int) error

	// ExtractThumbnail writes a single JPEG frame taken at atSeconds.
	ExtractThumbnail(ctx context.Context, sourcePath, outputPath string, atSeconds float64) error
}
