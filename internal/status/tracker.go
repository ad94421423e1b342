package status

import (
	"context"

	"github.com/rs/zerolog"

	"vodhub/internal/catalog"
)

// Snapshot is the external-facing view of a video's processing state. Only
// the three record statuses are exposed; internal pipeline states are not.
type Snapshot struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	AvailableQualities []string `json:"available_qualities"`
	EstimatedProgress  int      `json:"estimated_progress"`
}

// Progress is the read side of the pipeline's progress reporting.
type Progress interface {
	GetProgress(ctx context.Context, videoID string) (int, error)
}

// Tracker projects the catalog record plus cached progress into a Snapshot.
type Tracker struct {
	catalog  catalog.Store
	progress Progress
	log      zerolog.Logger
}

// NewTracker creates a status tracker. progress may be nil, in which case
// only terminal states report a meaningful percentage.
func NewTracker(cat catalog.Store, progress Progress, log zerolog.Logger) *Tracker {
	return &Tracker{catalog: cat, progress: progress, log: log}
}

// GetStatus returns the poll view for a video. Unknown ids surface
// catalog.ErrNotFound.
func (t *Tracker) GetStatus(ctx context.Context, videoID string) (Snapshot, error) {
	v, err := t.catalog.Get(ctx, videoID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:                 v.ID,
		Status:             v.Status,
		AvailableQualities: v.Qualities(),
	}

	switch v.Status {
	case catalog.StatusPublished:
		snap.EstimatedProgress = 100
	case catalog.StatusFailed:
		snap.EstimatedProgress = 0
	default:
		if t.progress != nil {
			p, err := t.progress.GetProgress(ctx, videoID)
			if err != nil {
				// Progress is advisory; a cache outage must not fail the poll.
				t.log.Warn().Err(err).Str("video_id", videoID).Msg("progress lookup failed")
			} else {
				snap.EstimatedProgress = p
			}
		}
	}

	return snap, nil
}
