package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// pipeWaitDelay bounds how long Run waits for the stdout/stderr pipes after
// the context kills the process. Without it an orphaned descendant (a
// wrapper script's child, for example) inheriting the pipes would keep a
// worker blocked long past the step timeout.
const pipeWaitDelay = 3 * time.Second

// FFmpeg implements Prober and Encoder by shelling out to ffprobe/ffmpeg.
// Paths are injected at construction; there is no process-wide tool state.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates an FFmpeg adapter for the given binary paths.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe and reports duration and native resolution. Every
// probe failure (process error, unparseable output, no video stream,
// non-positive duration) collapses into ErrUnreadableMedia; the caller
// cannot do anything different per cause.
func (f *FFmpeg) Probe(ctx context.Context, sourcePath string) (ProbeResult, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		sourcePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ProbeResult{}, fmt.Errorf("%w: probe timed out", ErrUnreadableMedia)
		}
		return ProbeResult{}, fmt.Errorf("%w: ffprobe: %s", ErrUnreadableMedia, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: bad ffprobe output", ErrUnreadableMedia)
	}

	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return ProbeResult{}, fmt.Errorf("%w: no usable duration", ErrUnreadableMedia)
	}

	result := ProbeResult{DurationSeconds: int(math.Round(duration))}
	if result.DurationSeconds <= 0 {
		return ProbeResult{}, fmt.Errorf("%w: no usable duration", ErrUnreadableMedia)
	}

	for _, s := range out.Streams {
		if s.CodecType == "video" {
			result.Width = s.Width
			result.Height = s.Height
			break
		}
	}
	if result.Height <= 0 {
		return ProbeResult{}, fmt.Errorf("%w: no video stream", ErrUnreadableMedia)
	}

	return result, nil
}

// EncodeRendition transcodes the source down to the target height. Width is
// left to ffmpeg (-2 keeps it even for libx264), matching the source aspect
// ratio.
func (f *FFmpeg) EncodeRendition(ctx context.Context, sourcePath, outputPath string, height int) error {
	args := []string{
		"-i", sourcePath,
		"-c:v", "libx264",
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-preset", "fast",
		"-crf", "23",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	cmd.WaitDelay = pipeWaitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %dp encode timed out", ErrEncodeFailed, height)
		}
		return fmt.Errorf("%w: ffmpeg: %s", ErrEncodeFailed, tail(stderr.String()))
	}

	return nil
}

// ExtractThumbnail grabs a single frame at atSeconds as a JPEG, scaled to
// 1280 wide.
func (f *FFmpeg) ExtractThumbnail(ctx context.Context, sourcePath, outputPath string, atSeconds float64) error {
	args := []string{
		"-ss", fmt.Sprintf("%.2f", atSeconds),
		"-i", sourcePath,
		"-vframes", "1",
		"-q:v", "2",
		"-vf", "scale=1280:-1",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	cmd.WaitDelay = pipeWaitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.New("thumbnail extraction timed out")
		}
		return fmt.Errorf("failed to extract thumbnail: %s", tail(stderr.String()))
	}

	return nil
}

// tail keeps error messages bounded; ffmpeg stderr can be pages long.
func tail(s string) string {
	const max = 512
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
