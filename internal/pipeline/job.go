package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"vodhub/internal/catalog"
	"vodhub/internal/config"
	"vodhub/internal/events"
	"vodhub/internal/media"
	"vodhub/internal/metrics"
	"vodhub/internal/store"
	"vodhub/internal/tracing"
)

// Job is one video's transcode work item. SourcePath is the raw upload on
// local disk; the job owns it and deletes it on every terminal path.
type Job struct {
	VideoID    string
	OwnerID    string
	SourcePath string
	EnqueuedAt time.Time
}

// ProgressSink receives heuristic completion percentages as a job advances.
type ProgressSink interface {
	SetProgress(ctx context.Context, videoID string, percent int) error
}

// Runner drives a single job through probe, thumbnail, renditions and
// commit. It is the only writer of the video's catalog record after upload.
type Runner struct {
	catalog   catalog.Store
	artifacts store.Store
	prober    media.Prober
	encoder   media.Encoder
	progress  ProgressSink
	events    events.Publisher
	cfg       config.PipelineConfig
	log       zerolog.Logger
}

// NewRunner wires a job runner. progress may be nil; events may be
// events.Nop{}.
func NewRunner(
	cat catalog.Store,
	artifacts store.Store,
	prober media.Prober,
	encoder media.Encoder,
	progress ProgressSink,
	pub events.Publisher,
	cfg config.PipelineConfig,
	log zerolog.Logger,
) *Runner {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Runner{
		catalog:   cat,
		artifacts: artifacts,
		prober:    prober,
		encoder:   encoder,
		progress:  progress,
		events:    pub,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes the job to a terminal state. It never returns an error to
// the worker loop and never panics: every failure, including a panic inside
// a step, becomes the job's own FAILED outcome.
func (r *Runner) Run(ctx context.Context, job Job) {
	log := r.log.With().Str("video_id", job.VideoID).Logger()
	started := time.Now()

	span, ctx := tracing.StartSpan(ctx, "transcode_job")
	span.SetTag("video_id", job.VideoID)

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()

	// The raw upload must not outlive the job, whatever happens below.
	defer func() {
		if err := os.Remove(job.SourcePath); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("path", job.SourcePath).Msg("failed to delete source upload")
		}
	}()

	var jobErr error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				jobErr = fmt.Errorf("job panicked: %v", rec)
				log.Error().Interface("panic", rec).Msg("transcode job panicked")
			}
		}()
		jobErr = r.run(ctx, job, log)
	}()

	metrics.JobDuration.Observe(time.Since(started).Seconds())

	if jobErr != nil {
		r.fail(ctx, job, jobErr, log)
		tracing.FinishWithError(span, jobErr)
		return
	}

	metrics.JobsCompletedTotal.WithLabelValues(catalog.StatusPublished).Inc()
	log.Info().Dur("took", time.Since(started)).Msg("video published")
	tracing.FinishWithError(span, nil)
}

func (r *Runner) run(ctx context.Context, job Job, log zerolog.Logger) error {
	// Probe.
	r.report(ctx, job.VideoID, 5)
	probe, err := r.probe(ctx, job.SourcePath)
	if err != nil {
		return err
	}
	log.Info().
		Int("duration_s", probe.DurationSeconds).
		Int("native_height", probe.Height).
		Msg("source probed")
	r.report(ctx, job.VideoID, 10)

	// Scratch space for encoder outputs before they are published.
	if err := os.MkdirAll(r.cfg.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(r.cfg.TempDir, job.VideoID+".*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Thumbnail at the temporal midpoint.
	thumbLocal := filepath.Join(workDir, "thumbnail.jpg")
	if err := r.thumbnail(ctx, job.SourcePath, thumbLocal, float64(probe.DurationSeconds)/2); err != nil {
		return err
	}
	thumbKey, err := r.artifacts.Put(ctx, job.VideoID, "thumbnail.jpg", thumbLocal)
	if err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}
	r.report(ctx, job.VideoID, 20)

	// Rendition ladder, highest first, no upscaling. A failed rung is
	// dropped; the job fails only when nothing survives.
	rungs := media.SelectRungs(r.cfg.Ladder, probe.Height)
	renditions := make([]catalog.Rendition, 0, len(rungs))
	for i, height := range rungs {
		name := fmt.Sprintf("%dp.mp4", height)
		local := filepath.Join(workDir, name)

		if err := r.encode(ctx, job.SourcePath, local, height); err != nil {
			metrics.EncodeFailuresTotal.WithLabelValues(strconv.Itoa(height)).Inc()
			log.Warn().Err(err).Int("height", height).Msg("rendition encode failed, dropping rung")
			continue
		}

		key, err := r.artifacts.Put(ctx, job.VideoID, name, local)
		if err != nil {
			metrics.EncodeFailuresTotal.WithLabelValues(strconv.Itoa(height)).Inc()
			log.Warn().Err(err).Int("height", height).Msg("failed to store rendition, dropping rung")
			continue
		}
		// Local copy is no longer needed once published.
		os.Remove(local)

		renditions = append(renditions, catalog.Rendition{Height: height, Path: key})
		log.Info().Int("height", height).Msg("rendition ready")
		r.report(ctx, job.VideoID, 20+75*(i+1)/len(rungs))
	}

	if len(renditions) == 0 {
		return ErrAllEncodesFailed
	}

	// Commit: one atomic record update flips the video to PUBLISHED.
	err = r.catalog.SetPublished(ctx, job.VideoID, catalog.Publish{
		DurationSeconds: probe.DurationSeconds,
		Renditions:      renditions,
		ThumbnailPath:   thumbKey,
	})
	if err != nil {
		return fmt.Errorf("failed to commit video record: %w", err)
	}
	r.report(ctx, job.VideoID, 100)

	heights := make([]int, len(renditions))
	for i, rend := range renditions {
		heights[i] = rend.Height
	}
	r.publish(ctx, events.Event{
		Type:       events.TypeVideoPublished,
		VideoID:    job.VideoID,
		OwnerID:    job.OwnerID,
		Renditions: heights,
		OccurredAt: time.Now().UTC(),
	}, log)

	return nil
}

// fail moves the record to FAILED and removes whatever artifacts this job
// already wrote. The record itself is preserved so the owner can see the
// outcome.
func (r *Runner) fail(ctx context.Context, job Job, cause error, log zerolog.Logger) {
	log.Error().Err(cause).Msg("transcode job failed")
	metrics.JobsCompletedTotal.WithLabelValues(catalog.StatusFailed).Inc()

	// ctx may already be cancelled (shutdown, step timeout at the
	// boundary); cleanup still has to run.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := r.artifacts.RemoveVideo(cleanupCtx, job.VideoID); err != nil {
		log.Error().Err(err).Msg("failed to clean up partial artifacts")
	}

	if err := r.catalog.SetFailed(cleanupCtx, job.VideoID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("failed to mark video failed")
	}

	r.publish(cleanupCtx, events.Event{
		Type:       events.TypeVideoFailed,
		VideoID:    job.VideoID,
		OwnerID:    job.OwnerID,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	}, log)
}

func (r *Runner) probe(ctx context.Context, sourcePath string) (media.ProbeResult, error) {
	span, ctx := tracing.StartSpan(ctx, "probe")
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	result, err := r.prober.Probe(ctx, sourcePath)
	tracing.FinishWithError(span, err)
	return result, err
}

func (r *Runner) thumbnail(ctx context.Context, sourcePath, outputPath string, at float64) error {
	span, ctx := tracing.StartSpan(ctx, "thumbnail")
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ThumbTimeout)
	defer cancel()

	err := r.encoder.ExtractThumbnail(ctx, sourcePath, outputPath, at)
	tracing.FinishWithError(span, err)
	return err
}

func (r *Runner) encode(ctx context.Context, sourcePath, outputPath string, height int) error {
	span, ctx := tracing.StartSpan(ctx, "encode")
	span.SetTag("height", height)
	ctx, cancel := context.WithTimeout(ctx, r.cfg.EncodeTimeout)
	defer cancel()

	err := r.encoder.EncodeRendition(ctx, sourcePath, outputPath, height)
	tracing.FinishWithError(span, err)
	return err
}

func (r *Runner) report(ctx context.Context, videoID string, percent int) {
	if r.progress == nil {
		return
	}
	if err := r.progress.SetProgress(ctx, videoID, percent); err != nil {
		r.log.Warn().Err(err).Str("video_id", videoID).Msg("failed to report progress")
	}
}

func (r *Runner) publish(ctx context.Context, e events.Event, log zerolog.Logger) {
	if err := r.events.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("event", e.Type).Msg("failed to publish event")
	}
}
