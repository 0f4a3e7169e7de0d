package retention_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubforge/internal/artifacts"
	"dubforge/internal/retention"
	"dubforge/internal/testsupport"
)

func seedArtifacts(t *testing.T, layout artifacts.Layout) {
	t.Helper()
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}
	for _, path := range []string{layout.AudioPath(), layout.DubbedAudioPath(), layout.SyncedVideoPath()} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}
	frameDir := layout.FramesDir()
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		t.Fatalf("seed frames dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(frameDir, "frame_000001.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed frame: %v", err)
	}
}

func TestScheduleCleanupRemovesIntermediatesOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := artifacts.NewLayout(cfg, "job-1")
	seedArtifacts(t, layout)

	video := layout.VideoPath("clip.mp4")
	if err := os.WriteFile(video, []byte("final"), 0o644); err != nil {
		t.Fatalf("seed deliverable: %v", err)
	}

	mgr := retention.NewManager(cfg, nil)
	mgr.ScheduleCleanup("job-1", 0)
	mgr.Wait()

	for _, path := range layout.Intermediates() {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
	if _, err := os.Stat(video); err != nil {
		t.Fatalf("deliverable should survive cleanup: %v", err)
	}
}

func TestScheduleCleanupDelayOverridesDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.CleanupDelay = 3600
	layout := artifacts.NewLayout(cfg, "job-4")
	seedArtifacts(t, layout)

	mgr := retention.NewManager(cfg, nil)
	mgr.ScheduleCleanup("job-4", time.Millisecond)
	mgr.Wait()

	if _, err := os.Stat(layout.AudioPath()); !os.IsNotExist(err) {
		t.Fatalf("expected intermediates removed despite long default delay, stat err=%v", err)
	}
}

func TestCleanupNowToleratesMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mgr := retention.NewManager(cfg, nil)
	mgr.CleanupNow("never-created")
}

func TestCancelStopsPendingCleanup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.CleanupDelay = 3600
	layout := artifacts.NewLayout(cfg, "job-2")
	seedArtifacts(t, layout)

	mgr := retention.NewManager(cfg, nil)
	mgr.ScheduleCleanup("job-2", 0)
	mgr.Cancel("job-2")
	mgr.Wait()

	if _, err := os.Stat(layout.AudioPath()); err != nil {
		t.Fatalf("cleanup ran despite cancel: %v", err)
	}
}

func TestRemoveAllDeletesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := artifacts.NewLayout(cfg, "job-3")
	seedArtifacts(t, layout)
	if err := os.WriteFile(layout.VideoPath("clip.mp4"), []byte("final"), 0o644); err != nil {
		t.Fatalf("seed deliverable: %v", err)
	}

	mgr := retention.NewManager(cfg, nil)
	mgr.RemoveAll("job-3")

	for _, dir := range []string{layout.WorkDir(), layout.OutputDir()} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", dir, err)
		}
	}
}
