package artifacts_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubforge/internal/artifacts"
	"dubforge/internal/testsupport"
)

func TestLayoutPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := artifacts.NewLayout(cfg, "job-1")

	if got := layout.AudioPath(); !strings.HasSuffix(got, filepath.Join("job-1", "audio.wav")) {
		t.Fatalf("unexpected audio path: %s", got)
	}
	if got := layout.VideoPath("clip.mkv"); filepath.Base(got) != "clip_dubbed.mp4" {
		t.Fatalf("unexpected video path: %s", got)
	}
	if got := layout.SubtitlePath("clip.mkv"); filepath.Base(got) != "clip.srt" {
		t.Fatalf("unexpected subtitle path: %s", got)
	}
	if got := layout.VideoPath(""); filepath.Base(got) != "output_dubbed.mp4" {
		t.Fatalf("unexpected fallback video path: %s", got)
	}
}

func TestLayoutIntermediatesCoverScratchFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := artifacts.NewLayout(cfg, "job-2")

	paths := layout.Intermediates()
	if len(paths) != 4 {
		t.Fatalf("expected 4 intermediates, got %d", len(paths))
	}
	for _, path := range paths {
		if !strings.HasPrefix(path, layout.WorkDir()) {
			t.Fatalf("intermediate %s escapes work directory", path)
		}
	}
	for _, deliverable := range []string{layout.VideoPath("a.mp4"), layout.SubtitlePath("a.mp4")} {
		for _, path := range paths {
			if path == deliverable {
				t.Fatalf("deliverable %s listed as intermediate", deliverable)
			}
		}
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := artifacts.NewLayout(cfg, "job-3")

	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}
	for _, dir := range []string{layout.WorkDir(), layout.OutputDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory at %s: %v", dir, err)
		}
	}
}
