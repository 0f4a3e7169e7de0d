package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dubforge/internal/artifacts"
	"dubforge/internal/config"
	"dubforge/internal/jobs"
	"dubforge/internal/pipeline"
	"dubforge/internal/services/tts"
	"dubforge/internal/subtitles"
	"dubforge/internal/testsupport"
)

type fakeMedia struct {
	mu          sync.Mutex
	available   bool
	noAudio     bool
	extractErr  error
	renderErr   error
	mergeCalls  int
	renderCalls int
}

func (f *fakeMedia) Available() bool { return f.available }

func (f *fakeMedia) HasAudio(ctx context.Context, source string) (bool, error) {
	return !f.noAudio, nil
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, source, dest string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	return os.WriteFile(dest, []byte("pcm"), 0o644)
}

// ExtractFrames mirrors ffmpeg: an image-sequence pattern fails when the
// target directory does not exist.
func (f *fakeMedia) ExtractFrames(ctx context.Context, source, framesDir string) error {
	if _, err := os.Stat(framesDir); err != nil {
		return fmt.Errorf("frame_%%06d.jpg: %w", err)
	}
	return os.WriteFile(filepath.Join(framesDir, "frame_000001.jpg"), []byte("jpg"), 0o644)
}

func (f *fakeMedia) MergeAudio(ctx context.Context, videoSource, audioTrack, dest string) error {
	f.mu.Lock()
	f.mergeCalls++
	f.mu.Unlock()
	return os.WriteFile(dest, []byte("merged"), 0o644)
}

func (f *fakeMedia) Render(ctx context.Context, source, dest string) error {
	f.mu.Lock()
	f.renderCalls++
	f.mu.Unlock()
	if f.renderErr != nil {
		return f.renderErr
	}
	return os.WriteFile(dest, []byte("mp4"), 0o644)
}

type fakeTranscriber struct {
	available bool
	segments  []subtitles.Segment
	err       error
}

func (f *fakeTranscriber) Available() bool { return f.available }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Segment, error) {
	return f.segments, f.err
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		out[i].Text = "translated: " + seg.Text
	}
	return out, nil
}

type fakeSynthesizer struct {
	err error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, req tts.Request) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(req.Dest, []byte("voice"), 0o644)
}

type fakeLipSyncer struct {
	mu        sync.Mutex
	available bool
	err       error
	runCalls  int
}

func (f *fakeLipSyncer) ModelAvailable() bool { return f.available }

func (f *fakeLipSyncer) Run(ctx context.Context, videoPath, audioPath, destPath, qualityTier string) error {
	f.mu.Lock()
	f.runCalls++
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte("synced"), 0o644)
}

type recordingRetainer struct {
	mu   sync.Mutex
	jobs []string
}

func (r *recordingRetainer) ScheduleCleanup(jobID string, delay time.Duration) {
	r.mu.Lock()
	r.jobs = append(r.jobs, jobID)
	r.mu.Unlock()
}

type fixture struct {
	cfg       *config.Config
	store     *jobs.Store
	media     *fakeMedia
	scriber   *fakeTranscriber
	trans     *fakeTranslator
	synth     *fakeSynthesizer
	lip       *fakeLipSyncer
	retainer  *recordingRetainer
	orch      *pipeline.Orchestrator
	sourceDir string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		cfg:      cfg,
		store:    store,
		media:    &fakeMedia{available: true},
		scriber:  &fakeTranscriber{available: true, segments: []subtitles.Segment{{Start: 0, End: 2.5, Text: "Hello"}, {Start: 2.5, End: 5, Text: "World"}}},
		trans:    &fakeTranslator{},
		synth:    &fakeSynthesizer{},
		lip:      &fakeLipSyncer{available: true},
		retainer: &recordingRetainer{},
	}
	f.orch = pipeline.New(cfg, store, nil, pipeline.Options{
		Media:       f.media,
		Transcriber: f.scriber,
		Translator:  f.trans,
		Synthesizer: f.synth,
		LipSyncer:   f.lip,
		Retention:   f.retainer,
	})
	f.sourceDir = t.TempDir()
	return f
}

func (f *fixture) submit(t *testing.T) *jobs.Job {
	t.Helper()
	source := f.sourceFile(t)
	return testsupport.NewJob(t, f.store, jobs.Meta{
		SourcePath:       source,
		OriginalFilename: "clip.mp4",
		TargetLang:       "es",
	})
}

func (f *fixture) sourceFile(t *testing.T) string {
	t.Helper()
	path := f.sourceDir + "/clip.mp4"
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	return path
}

func (f *fixture) runToTerminal(t *testing.T, job *jobs.Job) *jobs.Job {
	t.Helper()
	f.orch.Launch(job)
	f.orch.Wait()

	final, err := f.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final == nil {
		t.Fatalf("job %s vanished from store", job.ID)
	}
	if !final.Status.IsTerminal() {
		t.Fatalf("job not terminal: %s", final.Status)
	}
	return final
}

func TestPipelineHappyPath(t *testing.T) {
	f := newFixture(t)
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done (message: %s)", final.Status, final.Message)
	}
	if final.Progress != 100 {
		t.Fatalf("progress = %d, want 100", final.Progress)
	}
	if final.Stage != jobs.StageComplete {
		t.Fatalf("stage = %s, want complete", final.Stage)
	}
	for _, kind := range []jobs.ArtifactKind{jobs.ArtifactVideo, jobs.ArtifactSRT, jobs.ArtifactAudio} {
		path, ok := final.Outputs[kind]
		if !ok {
			t.Fatalf("missing output %s", kind)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("output %s not on disk: %v", kind, err)
		}
	}
	if len(final.Degraded) != 0 {
		t.Fatalf("unexpected degraded stages: %v", final.Degraded)
	}
	if len(f.retainer.jobs) != 1 || f.retainer.jobs[0] != job.ID {
		t.Fatalf("cleanup not scheduled: %v", f.retainer.jobs)
	}
	srt, err := os.ReadFile(final.Outputs[jobs.ArtifactSRT])
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "00:00:00,000 --> 00:00:02,500") {
		t.Fatalf("srt missing expected timestamps:\n%s", srt)
	}
	if !strings.Contains(string(srt), "translated: Hello") {
		t.Fatalf("srt missing translated text:\n%s", srt)
	}
}

func TestFramesDirectoryCreatedBeforeExtraction(t *testing.T) {
	f := newFixture(t)
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done (message: %s)", final.Status, final.Message)
	}
	if len(final.Degraded) != 0 {
		t.Fatalf("unexpected degraded stages: %v", final.Degraded)
	}
	layout := artifacts.NewLayout(f.cfg, job.ID)
	frame := filepath.Join(layout.FramesDir(), "frame_000001.jpg")
	if _, err := os.Stat(frame); err != nil {
		t.Fatalf("expected frame written into created directory: %v", err)
	}
}

func TestSourceWithoutAudioStreamFails(t *testing.T) {
	f := newFixture(t)
	f.media.noAudio = true
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusError {
		t.Fatalf("status = %s, want error", final.Status)
	}
	if final.ErrorMessage != "no audio stream found in source media" {
		t.Fatalf("error message = %q", final.ErrorMessage)
	}
	if len(final.Outputs) != 0 {
		t.Fatalf("outputs should be empty on failure: %v", final.Outputs)
	}
}

func TestExtractAudioFailureAbortsPipeline(t *testing.T) {
	f := newFixture(t)
	f.media.extractErr = errors.New("no audio stream found")
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusError {
		t.Fatalf("status = %s, want error", final.Status)
	}
	if final.ErrorMessage != "no audio stream found" {
		t.Fatalf("error message = %q, want cause verbatim", final.ErrorMessage)
	}
	if len(final.Outputs) != 0 {
		t.Fatalf("outputs should be empty on failure: %v", final.Outputs)
	}
	if len(f.retainer.jobs) != 0 {
		t.Fatal("cleanup must not be scheduled on failure")
	}
}

func TestLipSyncModelAbsentFallsBackToMerge(t *testing.T) {
	f := newFixture(t)
	f.lip.available = false
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	if f.lip.runCalls != 0 {
		t.Fatal("inference must not run without a model")
	}
	if f.media.mergeCalls != 1 {
		t.Fatalf("merge calls = %d, want 1", f.media.mergeCalls)
	}
	if !degradedContains(final, jobs.StageLipSync) {
		t.Fatalf("lip-sync not marked degraded: %v", final.Degraded)
	}
}

func TestLipSyncInferenceFailureFallsBackToMerge(t *testing.T) {
	f := newFixture(t)
	f.lip.err = errors.New("CUDA out of memory")
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	if f.lip.runCalls != 1 || f.media.mergeCalls != 1 {
		t.Fatalf("run=%d merge=%d, want 1/1", f.lip.runCalls, f.media.mergeCalls)
	}
}

func TestTranslationExhaustionUsesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.trans.err = errors.New("all providers exhausted")
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	srt, err := os.ReadFile(final.Outputs[jobs.ArtifactSRT])
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "[Translated to es]: Hello") {
		t.Fatalf("placeholder translation missing:\n%s", srt)
	}
	if !degradedContains(final, jobs.StageTranslate) {
		t.Fatalf("translate not marked degraded: %v", final.Degraded)
	}
}

func TestSynthesisExhaustionReusesOriginalAudio(t *testing.T) {
	f := newFixture(t)
	f.synth.err = errors.New("quota exceeded")
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	layout := artifacts.NewLayout(f.cfg, job.ID)
	if got := final.Outputs[jobs.ArtifactAudio]; got != layout.AudioPath() {
		t.Fatalf("audio output = %s, want original track %s", got, layout.AudioPath())
	}
	if !degradedContains(final, jobs.StageSynthesizeVoice) {
		t.Fatalf("synthesize-voice not marked degraded: %v", final.Degraded)
	}
}

func TestTranscriberUnavailableUsesMockTranscript(t *testing.T) {
	f := newFixture(t)
	f.scriber.available = false
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	srt, err := os.ReadFile(final.Outputs[jobs.ArtifactSRT])
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "Welcome to this video.") {
		t.Fatalf("mock transcript missing:\n%s", srt)
	}
	if !degradedContains(final, jobs.StageTranscribe) {
		t.Fatalf("transcribe not marked degraded: %v", final.Degraded)
	}
}

func TestRenderFailureDeliversUpstreamFile(t *testing.T) {
	f := newFixture(t)
	f.media.renderErr = errors.New("encoder unavailable")
	job := f.submit(t)
	final := f.runToTerminal(t, job)

	if final.Status != jobs.StatusDone {
		t.Fatalf("status = %s, want done", final.Status)
	}
	data, err := os.ReadFile(final.Outputs[jobs.ArtifactVideo])
	if err != nil {
		t.Fatalf("read video output: %v", err)
	}
	if string(data) != "synced" {
		t.Fatalf("expected upstream intermediate delivered, got %q", data)
	}
	if !degradedContains(final, jobs.StageRender) {
		t.Fatalf("render not marked degraded: %v", final.Degraded)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	f := newFixture(t)
	job := f.submit(t)
	f.orch.Launch(job)

	done := make(chan struct{})
	go func() {
		defer close(done)
		last := 0
		for {
			current, err := f.store.GetByID(context.Background(), job.ID)
			if err != nil || current == nil {
				return
			}
			if current.Progress < last {
				t.Errorf("progress regressed: %d -> %d", last, current.Progress)
				return
			}
			last = current.Progress
			if current.Status.IsTerminal() {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	f.orch.Wait()
	<-done

	final, err := f.store.GetByID(context.Background(), job.ID)
	if err != nil || final == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status == jobs.StatusDone && final.Progress != 100 {
		t.Fatalf("done job progress = %d, want 100", final.Progress)
	}
}

func TestConcurrentJobsAreIndependent(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxConcurrentJobs(2))

	const count = 5
	launched := make([]*jobs.Job, 0, count)
	for i := 0; i < count; i++ {
		source := f.sourceDir + fmt.Sprintf("/clip%d.mp4", i)
		if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
			t.Fatalf("seed source: %v", err)
		}
		job := testsupport.NewJob(t, f.store, jobs.Meta{
			SourcePath:       source,
			OriginalFilename: fmt.Sprintf("clip%d.mp4", i),
			TargetLang:       "es",
		})
		launched = append(launched, job)
		f.orch.Launch(job)
	}
	f.orch.Wait()

	for _, job := range launched {
		final, err := f.store.GetByID(context.Background(), job.ID)
		if err != nil || final == nil {
			t.Fatalf("GetByID %s: %v", job.ID, err)
		}
		if final.Status != jobs.StatusDone {
			t.Fatalf("job %s status = %s, want done (message: %s)", job.ID, final.Status, final.Message)
		}
	}
}

func TestCancelStopsQueuedJob(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxConcurrentJobs(1))

	blocker := make(chan struct{})
	slow := &slowMedia{fakeMedia: f.media, block: blocker}
	f.orch = pipeline.New(f.cfg, f.store, nil, pipeline.Options{
		Media:       slow,
		Transcriber: f.scriber,
		Translator:  f.trans,
		Synthesizer: f.synth,
		LipSyncer:   f.lip,
		Retention:   f.retainer,
	})

	first := f.submit(t)
	second := f.submit(t)
	f.orch.Launch(first)
	f.orch.Launch(second)

	f.orch.Cancel(second.ID)
	close(blocker)
	f.orch.Wait()

	queued, err := f.store.GetByID(context.Background(), second.ID)
	if err != nil || queued == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if queued.Status == jobs.StatusDone {
		t.Fatal("cancelled job must not complete")
	}
}

type slowMedia struct {
	*fakeMedia
	block chan struct{}
}

func (s *slowMedia) ExtractAudio(ctx context.Context, source, dest string) error {
	select {
	case <-s.block:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.fakeMedia.ExtractAudio(ctx, source, dest)
}

func degradedContains(job *jobs.Job, stage string) bool {
	for _, s := range job.Degraded {
		if s == stage {
			return true
		}
	}
	return false
}
