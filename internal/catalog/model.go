package catalog

import (
	"errors"
	"strconv"
	"time"
)

// Video lifecycle status. A record leaves StatusProcessing exactly once,
// to either StatusPublished or StatusFailed, and never returns.
const (
	StatusProcessing = "PROCESSING"
	StatusPublished  = "PUBLISHED"
	StatusFailed     = "FAILED"
)

var (
	// ErrNotFound is returned when no record exists for the given id.
	ErrNotFound = errors.New("video not found")
	// ErrConflict is returned when creating a record with an id that
	// already exists.
	ErrConflict = errors.New("video already exists")
)

// Rendition is one encoded output of a source video: a target height and
// the artifact-store key of the file.
type Rendition struct {
	Height int    `json:"height"`
	Path   string `json:"path"`
}

// Video is the metadata record for a single uploaded video. Renditions is
// kept sorted by height descending and is only non-empty once the record is
// published.
type Video struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Visibility      string      `json:"visibility"`
	Status          string      `json:"status"`
	DurationSeconds int         `json:"duration_seconds"`
	Renditions      []Rendition `json:"renditions"`
	ThumbnailPath   string      `json:"thumbnail_path,omitempty"`
	FailureReason   string      `json:"failure_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Rendition returns the rendition matching height, or the highest available
// one at or below it. The boolean reports whether anything was found.
func (v *Video) Rendition(height int) (Rendition, bool) {
	if len(v.Renditions) == 0 {
		return Rendition{}, false
	}
	if height > 0 {
		for _, r := range v.Renditions {
			if r.Height <= height {
				return r, true
			}
		}
	}
	return v.Renditions[0], true
}

// Qualities returns the available rendition heights as "720p"-style labels,
// highest first.
func (v *Video) Qualities() []string {
	labels := make([]string, 0, len(v.Renditions))
	for _, r := range v.Renditions {
		labels = append(labels, quality(r.Height))
	}
	return labels
}

func quality(height int) string {
	return strconv.Itoa(height) + "p"
}
