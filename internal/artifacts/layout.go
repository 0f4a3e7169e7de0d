// Package artifacts defines the on-disk layout of per-job working files and
// final deliverables. Intermediates live under the work directory and are
// removed by the retention manager; deliverables live under the output
// directory and persist until the job is deleted.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubforge/internal/config"
)

// Layout resolves the paths one job reads and writes.
type Layout struct {
	workRoot   string
	outputRoot string
	jobID      string
}

// NewLayout builds the layout for a job from the configured directories.
func NewLayout(cfg *config.Config, jobID string) Layout {
	return Layout{
		workRoot:   cfg.Paths.WorkDir,
		outputRoot: cfg.Paths.OutputDir,
		jobID:      jobID,
	}
}

// WorkDir is the job's scratch directory for intermediates.
func (l Layout) WorkDir() string {
	return filepath.Join(l.workRoot, l.jobID)
}

// OutputDir is the job's permanent deliverable directory.
func (l Layout) OutputDir() string {
	return filepath.Join(l.outputRoot, l.jobID)
}

// EnsureDirs creates the work and output directories for the job.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.WorkDir(), l.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create job directory %s: %w", dir, err)
		}
	}
	return nil
}

// AudioPath is the normalized mono 16 kHz source audio track.
func (l Layout) AudioPath() string {
	return filepath.Join(l.WorkDir(), "audio.wav")
}

// FramesDir holds the fixed-rate frame sequence.
func (l Layout) FramesDir() string {
	return filepath.Join(l.WorkDir(), "frames")
}

// DubbedAudioPath is the synthesized target-language audio track.
func (l Layout) DubbedAudioPath() string {
	return filepath.Join(l.WorkDir(), "dubbed.mp3")
}

// SyncedVideoPath is the lip-synced (or merged) intermediate video.
func (l Layout) SyncedVideoPath() string {
	return filepath.Join(l.WorkDir(), "synced.mp4")
}

// VideoPath is the final deliverable, named after the original upload.
func (l Layout) VideoPath(originalFilename string) string {
	return filepath.Join(l.OutputDir(), baseName(originalFilename)+"_dubbed.mp4")
}

// SubtitlePath is the translated subtitle deliverable.
func (l Layout) SubtitlePath(originalFilename string) string {
	return filepath.Join(l.OutputDir(), baseName(originalFilename)+".srt")
}

// Intermediates lists every retention-eligible path for the job. The frames
// directory is included as a whole.
func (l Layout) Intermediates() []string {
	return []string{
		l.AudioPath(),
		l.DubbedAudioPath(),
		l.SyncedVideoPath(),
		l.FramesDir(),
	}
}

func baseName(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "output"
	}
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "output"
	}
	return base
}
