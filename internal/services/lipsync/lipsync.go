// Package lipsync drives the face-reenactment model that re-renders the
// mouth region of the source video to match the dubbed audio track.
package lipsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"dubforge/internal/config"
	"dubforge/internal/services"
)

// Quality tiers accepted at submission. The tier controls the resolution
// factor passed to the inference script.
const (
	TierBalanced = "balanced"
	TierUltra    = "ultra"
)

// Service runs a Wav2Lip-style python inference process against a model
// checkpoint on disk.
type Service struct {
	cfg           config.LipSync
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a lip-sync runner from the daemon configuration.
func NewService(cfg config.LipSync) *Service {
	if strings.TrimSpace(cfg.Python) == "" {
		cfg.Python = "python3"
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// ModelAvailable reports whether the checkpoint and inference script both
// exist on disk. A missing model is not an error; the pipeline falls back to
// a plain audio/video merge.
func (s *Service) ModelAvailable() bool {
	if strings.TrimSpace(s.cfg.ModelPath) == "" || strings.TrimSpace(s.cfg.ScriptPath) == "" {
		return false
	}
	if info, err := os.Stat(s.cfg.ModelPath); err != nil || info.IsDir() {
		return false
	}
	if info, err := os.Stat(s.cfg.ScriptPath); err != nil || info.IsDir() {
		return false
	}
	return true
}

// ResizeFactor maps a quality tier to the downscale factor the inference
// script applies before reenactment. Higher tiers process at full resolution.
func ResizeFactor(qualityTier string) int {
	if strings.EqualFold(strings.TrimSpace(qualityTier), TierUltra) {
		return 1
	}
	return 2
}

// Run executes the inference process, writing the reenacted video to
// destPath. Any launch failure or non-zero exit is returned to the caller,
// which is expected to fall back to a merge.
func (s *Service) Run(ctx context.Context, videoPath, audioPath, destPath, qualityTier string) error {
	if !s.ModelAvailable() {
		return services.Wrap(services.ErrUnavailable, "lip-sync", "preflight", "model checkpoint not available", nil)
	}

	args := []string{
		s.cfg.ScriptPath,
		"--checkpoint_path", s.cfg.ModelPath,
		"--face", videoPath,
		"--audio", audioPath,
		"--outfile", destPath,
		"--resize_factor", strconv.Itoa(ResizeFactor(qualityTier)),
	}
	if err := s.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "lip-sync", "inference", fmt.Sprintf("%s exited with error", s.cfg.Python), err)
	}
	if info, err := os.Stat(destPath); err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "lip-sync", "inference", "inference produced no output", err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.cfg.Python, args...)
	}
	cmd := exec.CommandContext(ctx, s.cfg.Python, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
