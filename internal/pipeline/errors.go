package pipeline

import "errors"

var (
	// ErrBackpressure is returned by Submit when the job queue is full.
	// The caller should surface a retry signal to the uploader.
	ErrBackpressure = errors.New("transcode queue full")

	// ErrAlreadyQueued is returned by Submit when a job for the same
	// video id is already queued or running.
	ErrAlreadyQueued = errors.New("job already in flight for video")

	// ErrAllEncodesFailed means no rendition survived the ladder.
	ErrAllEncodesFailed = errors.New("all encodes failed")
)
