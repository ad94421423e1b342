package events

import (
	"context"
	"time"
)

// Event types emitted by the pipeline.
const (
	TypeVideoPublished = "video.published"
	TypeVideoFailed    = "video.failed"
)

// Event is a video lifecycle notification for downstream consumers
// (notification fan-out, search indexing). The pipeline emits one per
// terminal job outcome.
type Event struct {
	Type       string    `json:"type"`
	VideoID    string    `json:"video_id"`
	OwnerID    string    `json:"owner_id"`
	Reason     string    `json:"reason,omitempty"`
	Renditions []int     `json:"renditions,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers lifecycle events. Delivery is best-effort from the
// pipeline's point of view; a publish failure never fails the job.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
