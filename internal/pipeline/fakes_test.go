package pipeline

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"vodhub/internal/catalog"
	"vodhub/internal/config"
	"vodhub/internal/events"
	"vodhub/internal/media"
	"vodhub/internal/store"
)

type fakeProber struct {
	result media.ProbeResult
	err    error
	panics bool
}

func (f *fakeProber) Probe(ctx context.Context, sourcePath string) (media.ProbeResult, error) {
	if f.panics {
		panic("prober exploded")
	}
	return f.result, f.err
}

// fakeEncoder writes small placeholder files instead of invoking ffmpeg.
// Heights listed in fail cause that rung to fail.
type fakeEncoder struct {
	mu        sync.Mutex
	fail      map[int]bool
	failThumb bool
	encoded   []int
}

func (f *fakeEncoder) EncodeRendition(ctx context.Context, sourcePath, outputPath string, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[height] {
		return media.ErrEncodeFailed
	}
	f.encoded = append(f.encoded, height)
	return os.WriteFile(outputPath, []byte("rendition"), 0o644)
}

func (f *fakeEncoder) ExtractThumbnail(ctx context.Context, sourcePath, outputPath string, atSeconds float64) error {
	if f.failThumb {
		return media.ErrEncodeFailed
	}
	return os.WriteFile(outputPath, []byte("jpeg"), 0o644)
}

type recordingSink struct {
	mu       sync.Mutex
	percents []int
}

func (r *recordingSink) SetProgress(ctx context.Context, videoID string, percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percents = append(r.percents, percent)
	return nil
}

func (r *recordingSink) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.percents) == 0 {
		return 0
	}
	return r.percents[len(r.percents)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	catalog   *catalog.MemoryStore
	artifacts *store.Local
	prober    *fakeProber
	encoder   *fakeEncoder
	sink      *recordingSink
	publisher *recordingPublisher
	runner    *Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	artifacts, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		catalog:   catalog.NewMemoryStore(),
		artifacts: artifacts,
		prober: &fakeProber{result: media.ProbeResult{
			DurationSeconds: 60,
			Width:           1920,
			Height:          1080,
		}},
		encoder:   &fakeEncoder{fail: map[int]bool{}},
		sink:      &recordingSink{},
		publisher: &recordingPublisher{},
	}

	cfg := config.PipelineConfig{
		WorkerCount:   2,
		QueueSize:     4,
		TempDir:       t.TempDir(),
		Ladder:        []int{1080, 720, 480, 360},
		ProbeTimeout:  time.Minute,
		EncodeTimeout: time.Minute,
		ThumbTimeout:  time.Minute,
	}

	env.runner = NewRunner(env.catalog, env.artifacts, env.prober, env.encoder,
		env.sink, env.publisher, cfg, zerolog.Nop())
	return env
}

// newJob creates a PROCESSING record and a source file on disk, mirroring
// what the upload handler does before Submit.
func (e *testEnv) newJob(t *testing.T, id string) Job {
	t.Helper()

	src := t.TempDir() + "/" + id + ".mp4"
	require.NoError(t, os.WriteFile(src, []byte("raw upload"), 0o644))

	require.NoError(t, e.catalog.Create(context.Background(), &catalog.Video{
		ID:      id,
		OwnerID: "owner-1",
		Title:   "t",
		Status:  catalog.StatusProcessing,
	}))

	return Job{VideoID: id, OwnerID: "owner-1", SourcePath: src}
}
