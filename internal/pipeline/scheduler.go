package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vodhub/internal/metrics"
)

// Scheduler owns the bounded job queue and the worker pool. Submission is
// non-blocking: a full queue is reported as ErrBackpressure instead of
// stalling the upload request.
type Scheduler struct {
	runner *Runner
	jobs   chan Job
	log    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler with the given pool size and queue
// capacity. Call Start before Submit.
func NewScheduler(runner *Runner, workers, queueSize int, log zerolog.Logger) *Scheduler {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Scheduler{
		runner:   runner,
		jobs:     make(chan Job, queueSize),
		inflight: make(map[string]struct{}),
		log:      log,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed by
// Shutdown or when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.log.Info().Int("workers", workers).Int("queue_size", cap(s.jobs)).Msg("transcode workers started")
}

// Submit enqueues a job without blocking. A second submit for the same
// video id while the first is queued or running is rejected, which keeps
// per-id execution serialized.
func (s *Scheduler) Submit(job Job) error {
	s.mu.Lock()
	if _, dup := s.inflight[job.VideoID]; dup {
		s.mu.Unlock()
		return ErrAlreadyQueued
	}
	s.inflight[job.VideoID] = struct{}{}
	s.mu.Unlock()

	job.EnqueuedAt = time.Now()

	select {
	case s.jobs <- job:
		metrics.JobsQueueDepth.Set(float64(len(s.jobs)))
		return nil
	default:
		s.release(job.VideoID)
		return ErrBackpressure
	}
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.log.With().Int("worker", id).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			metrics.JobsQueueDepth.Set(float64(len(s.jobs)))
			log.Info().Str("video_id", job.VideoID).
				Dur("queued", time.Since(job.EnqueuedAt)).
				Msg("job dequeued")

			// Run absorbs all failures, including panics; one bad job
			// must not take the worker down.
			s.runner.Run(ctx, job)
			s.release(job.VideoID)
		}
	}
}

func (s *Scheduler) release(videoID string) {
	s.mu.Lock()
	delete(s.inflight, videoID)
	s.mu.Unlock()
}

// Shutdown stops intake and waits for the workers to finish, up to ctx's
// deadline. Workers drain what is already queued unless their own context
// is cancelled first; anything left stays PROCESSING and a fresh Submit
// after restart is the caller's concern.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
