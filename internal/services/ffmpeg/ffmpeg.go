package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FrameRate is the fixed rate used when decoding reference frames.
const FrameRate = 25

// Service wraps ffmpeg invocations for the pipeline stages that need media
// plumbing: audio extraction, frame decoding, audio/video merging, and the
// final transcode.
type Service struct {
	binary        string
	probeBinary   string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an ffmpeg service. Empty binary names fall back to
// "ffmpeg" and "ffprobe".
func NewService(binary, probeBinary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(probeBinary) == "" {
		probeBinary = "ffprobe"
	}
	return &Service{binary: binary, probeBinary: probeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Available reports whether the ffmpeg binary can be resolved.
func (s *Service) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// Probe inspects the source container with ffprobe.
func (s *Service) Probe(ctx context.Context, path string) (ProbeResult, error) {
	return Probe(ctx, s.probeBinary, path)
}

// HasAudio reports whether the source carries at least one audio stream.
func (s *Service) HasAudio(ctx context.Context, path string) (bool, error) {
	result, err := s.Probe(ctx, path)
	if err != nil {
		return false, err
	}
	return result.HasAudio(), nil
}

// ExtractAudio converts the source media into a normalized mono 16 kHz PCM
// track at dest.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	return s.run(ctx, args...)
}

// ExtractFrames decodes the source video into a fixed-rate jpeg sequence
// under framesDir.
func (s *Service) ExtractFrames(ctx context.Context, source, framesDir string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vf", fmt.Sprintf("fps=%d", FrameRate),
		"-qscale:v", "2",
		framesDir + "/frame_%06d.jpg",
	}
	return s.run(ctx, args...)
}

// MergeAudio copies the original video stream and substitutes the dubbed
// audio track. Used as the lip-sync fallback.
func (s *Service) MergeAudio(ctx context.Context, videoSource, audioTrack, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoSource,
		"-i", audioTrack,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		dest,
	}
	return s.run(ctx, args...)
}

// Render transcodes the upstream intermediate into the final deliverable
// container with fast-start metadata.
func (s *Service) Render(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dest,
	}
	return s.run(ctx, args...)
}

func (s *Service) run(ctx context.Context, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.binary, args...)
	}
	cmd := exec.CommandContext(ctx, s.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}
