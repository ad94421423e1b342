package catalog

import "context"

// Publish carries the artifacts a transcode run produced for one video. A
// publish is applied to the record as a single update so callers never see
// duration without renditions or vice versa.
type Publish struct {
	DurationSeconds int
	Renditions      []Rendition
	ThumbnailPath   string
}

// Store is the metadata store the pipeline and HTTP layer share. The
// pipeline is the only writer for a given id after creation; mutating
// methods bump UpdatedAt.
type Store interface {
	Create(ctx context.Context, v *Video) error
	Get(ctx context.Context, id string) (*Video, error)

	// SetPublished atomically records the artifacts and moves the record
	// to StatusPublished. Only StatusProcessing records may transition;
	// a record already terminal returns ErrConflict.
	SetPublished(ctx context.Context, id string, p Publish) error
	// SetFailed moves the record to StatusFailed with a reason, under the
	// same StatusProcessing guard as SetPublished. The record is preserved
	// so the owner can learn what happened.
	SetFailed(ctx context.Context, id string, reason string) error

	// UpdateDetails changes the owner-editable fields only.
	UpdateDetails(ctx context.Context, id, title, description, visibility string) (*Video, error)
	Delete(ctx context.Context, id string) error
}
