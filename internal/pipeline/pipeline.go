// Package pipeline drives a dubbing job through its fixed stage sequence:
// extract-audio, extract-frames, transcribe, translate, synthesize-voice,
// lip-sync, render. Each stage records a progress checkpoint before running
// its external capability and applies a documented fallback on failure;
// only extract-audio aborts the job.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"dubforge/internal/artifacts"
	"dubforge/internal/config"
	"dubforge/internal/fileutil"
	"dubforge/internal/jobs"
	"dubforge/internal/logging"
	"dubforge/internal/services"
	"dubforge/internal/services/translate"
	"dubforge/internal/services/tts"
	"dubforge/internal/services/whisper"
	"dubforge/internal/subtitles"
)

// MediaEngine abstracts the ffmpeg operations the pipeline needs.
type MediaEngine interface {
	Available() bool
	HasAudio(ctx context.Context, source string) (bool, error)
	ExtractAudio(ctx context.Context, source, dest string) error
	ExtractFrames(ctx context.Context, source, framesDir string) error
	MergeAudio(ctx context.Context, videoSource, audioTrack, dest string) error
	Render(ctx context.Context, source, dest string) error
}

// Transcriber produces timestamped segments from an audio track.
type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Segment, error)
}

// Translator converts transcript segments to the target language.
type Translator interface {
	Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error)
}

// Synthesizer produces a dubbed audio track.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) error
}

// LipSyncer re-renders the mouth region to match the dubbed audio.
type LipSyncer interface {
	ModelAvailable() bool
	Run(ctx context.Context, videoPath, audioPath, destPath, qualityTier string) error
}

// Retainer schedules intermediate-artifact cleanup after success. A
// non-positive delay defers to the retainer's configured default.
type Retainer interface {
	ScheduleCleanup(jobID string, delay time.Duration)
}

// Orchestrator executes jobs, one goroutine per job, bounded by the
// configured concurrency ceiling.
type Orchestrator struct {
	cfg         *config.Config
	store       *jobs.Store
	logger      *slog.Logger
	media       MediaEngine
	transcriber Transcriber
	translator  Translator
	synthesizer Synthesizer
	lipSyncer   LipSyncer
	retention   Retainer

	semaphore chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// Options bundles the stage capabilities the orchestrator dispatches to.
type Options struct {
	Media       MediaEngine
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
	LipSyncer   LipSyncer
	Retention   Retainer
}

// New creates an orchestrator. A max_concurrent_jobs of zero leaves
// execution unbounded.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	var semaphore chan struct{}
	if limit := cfg.Workflow.MaxConcurrentJobs; limit > 0 {
		semaphore = make(chan struct{}, limit)
	}
	return &Orchestrator{
		cfg:         cfg,
		store:       store,
		logger:      logger.With(logging.String(logging.FieldComponent, "pipeline")),
		media:       opts.Media,
		transcriber: opts.Transcriber,
		translator:  opts.Translator,
		synthesizer: opts.Synthesizer,
		lipSyncer:   opts.LipSyncer,
		retention:   opts.Retention,
		semaphore:   semaphore,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Launch starts the job in its own goroutine and returns immediately. Jobs
// over the concurrency ceiling wait in queued until a slot frees up.
func (o *Orchestrator) Launch(job *jobs.Job) {
	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release(job.ID)
		o.execute(ctx, job)
	}()
}

// Cancel aborts a running job's in-flight external process, if any. Used by
// the deletion path so no orphaned processes outlive the job record.
func (o *Orchestrator) Cancel(jobID string) {
	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// Wait blocks until every launched job has finished. Used on daemon shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) release(jobID string) {
	o.mu.Lock()
	if cancel, ok := o.cancels[jobID]; ok {
		cancel()
		delete(o.cancels, jobID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) execute(ctx context.Context, job *jobs.Job) {
	if o.semaphore != nil {
		select {
		case o.semaphore <- struct{}{}:
			defer func() { <-o.semaphore }()
		case <-ctx.Done():
			return
		}
	}

	ctx = services.WithJobID(ctx, job.ID)
	log := o.logger.With(logging.String(logging.FieldJobID, job.ID))
	log.Info("dubbing pipeline started",
		logging.String("source", job.Meta.OriginalFilename),
		logging.String("target_lang", job.Meta.TargetLang),
	)

	job.Status = jobs.StatusRunning
	layout := artifacts.NewLayout(o.cfg, job.ID)
	if err := layout.EnsureDirs(); err != nil {
		o.fail(ctx, job, log, err)
		return
	}

	// extract-audio is the only unrecoverable stage.
	if err := o.extractAudio(ctx, job, layout); err != nil {
		o.fail(ctx, job, log, err)
		return
	}
	o.extractFrames(ctx, job, layout, log)

	transcript := o.transcribe(ctx, job, layout, log)
	translated := o.translate(ctx, job, log, transcript)
	dubbedAudio := o.synthesizeVoice(ctx, job, layout, log, translated)
	synced := o.lipSync(ctx, job, layout, log, dubbedAudio)
	finalVideo, err := o.render(ctx, job, layout, log, synced)
	if err != nil {
		o.fail(ctx, job, log, err)
		return
	}

	subtitlePath := layout.SubtitlePath(job.Meta.OriginalFilename)
	if err := subtitles.Write(subtitlePath, translated); err != nil {
		o.fail(ctx, job, log, err)
		return
	}

	job.SetDone(map[jobs.ArtifactKind]string{
		jobs.ArtifactVideo: finalVideo,
		jobs.ArtifactSRT:   subtitlePath,
		jobs.ArtifactAudio: dubbedAudio,
	})
	if err := o.store.Update(ctx, job); err != nil {
		log.Error("failed to persist completion", logging.Error(err))
		return
	}
	if o.retention != nil {
		o.retention.ScheduleCleanup(job.ID, 0)
	}
	log.Info("dubbing pipeline finished",
		logging.Int("degraded_stages", len(job.Degraded)),
	)
}

func (o *Orchestrator) extractAudio(ctx context.Context, job *jobs.Job, layout artifacts.Layout) error {
	o.checkpoint(ctx, job, jobs.StageExtractAudio, "Extracting audio track", 8)
	if !o.media.Available() {
		return services.Wrap(services.ErrExternalTool, jobs.StageExtractAudio, "preflight", "media engine unavailable", nil)
	}
	// A probe failure is not fatal here; extraction reports its own error.
	if hasAudio, err := o.media.HasAudio(ctx, job.Meta.SourcePath); err == nil && !hasAudio {
		return services.Wrap(services.ErrValidation, "", "", "no audio stream found in source media", nil)
	}
	return o.media.ExtractAudio(ctx, job.Meta.SourcePath, layout.AudioPath())
}

// extractFrames is opportunistic; a failure leaves the frames directory
// absent and the pipeline moves on.
func (o *Orchestrator) extractFrames(ctx context.Context, job *jobs.Job, layout artifacts.Layout, log *slog.Logger) {
	o.checkpoint(ctx, job, jobs.StageExtractFrames, "Extracting video frames", 18)
	framesDir := layout.FramesDir()
	// ffmpeg does not create the directory for an image-sequence pattern.
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		log.Warn("frame extraction failed, continuing without frames", logging.Error(err))
		return
	}
	if err := o.media.ExtractFrames(ctx, job.Meta.SourcePath, framesDir); err != nil {
		log.Warn("frame extraction failed, continuing without frames", logging.Error(err))
	}
}

func (o *Orchestrator) transcribe(ctx context.Context, job *jobs.Job, layout artifacts.Layout, log *slog.Logger) []subtitles.Segment {
	o.checkpoint(ctx, job, jobs.StageTranscribe, "Transcribing speech", 28)
	if o.transcriber != nil && o.transcriber.Available() {
		segments, err := o.transcriber.Transcribe(ctx, layout.AudioPath(), layout.WorkDir(), job.Meta.SourceLang)
		if err == nil && len(segments) > 0 {
			o.checkpoint(ctx, job, jobs.StageTranscribe, "Transcription complete", 40)
			return segments
		}
		if err != nil {
			log.Warn("transcription failed, using mock transcript", logging.Error(err))
		}
	} else {
		log.Warn("transcription engine unavailable, using mock transcript")
	}
	job.MarkDegraded(jobs.StageTranscribe)
	o.checkpoint(ctx, job, jobs.StageTranscribe, "Transcription complete", 40)
	return whisper.MockTranscript()
}

func (o *Orchestrator) translate(ctx context.Context, job *jobs.Job, log *slog.Logger, segments []subtitles.Segment) []subtitles.Segment {
	o.checkpoint(ctx, job, jobs.StageTranslate, fmt.Sprintf("Translating to %s", job.Meta.TargetLang), 48)
	translated, err := o.translator.Translate(ctx, segments, job.Meta.SourceLang, job.Meta.TargetLang)
	if err != nil {
		log.Warn("all translation providers failed, using placeholder translation", logging.Error(err))
		job.MarkDegraded(jobs.StageTranslate)
		translated = translate.Placeholder(segments, job.Meta.TargetLang)
	}
	o.checkpoint(ctx, job, jobs.StageTranslate, "Translation complete", 58)
	return translated
}

func (o *Orchestrator) synthesizeVoice(ctx context.Context, job *jobs.Job, layout artifacts.Layout, log *slog.Logger, translated []subtitles.Segment) string {
	o.checkpoint(ctx, job, jobs.StageSynthesizeVoice, "Synthesizing dubbed voice", 65)
	dest := layout.DubbedAudioPath()
	req := tts.Request{
		Text:           subtitles.JoinText(translated),
		TargetLang:     job.Meta.TargetLang,
		ReferenceAudio: layout.AudioPath(),
		Dest:           dest,
		CloneVoice:     job.Meta.VoiceMode == jobs.VoiceModeClone,
	}
	if err := o.synthesizer.Synthesize(ctx, req); err != nil {
		log.Warn("voice synthesis exhausted, reusing original audio", logging.Error(err))
		job.MarkDegraded(jobs.StageSynthesizeVoice)
		dest = layout.AudioPath()
	}
	o.checkpoint(ctx, job, jobs.StageSynthesizeVoice, "Voice synthesis complete", 75)
	return dest
}

func (o *Orchestrator) lipSync(ctx context.Context, job *jobs.Job, layout artifacts.Layout, log *slog.Logger, dubbedAudio string) string {
	o.checkpoint(ctx, job, jobs.StageLipSync, "Synchronizing lip movement", 82)
	dest := layout.SyncedVideoPath()
	if o.lipSyncer != nil && o.lipSyncer.ModelAvailable() {
		err := o.lipSyncer.Run(ctx, job.Meta.SourcePath, dubbedAudio, dest, job.Meta.QualityTier)
		if err == nil {
			o.checkpoint(ctx, job, jobs.StageLipSync, "Lip synchronization complete", 90)
			return dest
		}
		log.Warn("lip-sync inference failed, falling back to audio merge", logging.Error(err))
	} else {
		log.Info("lip-sync model unavailable, merging dubbed audio instead")
	}
	job.MarkDegraded(jobs.StageLipSync)
	if err := o.media.MergeAudio(ctx, job.Meta.SourcePath, dubbedAudio, dest); err != nil {
		log.Warn("audio merge failed, passing source video through", logging.Error(err))
		dest = job.Meta.SourcePath
	}
	o.checkpoint(ctx, job, jobs.StageLipSync, "Lip synchronization complete", 90)
	return dest
}

func (o *Orchestrator) render(ctx context.Context, job *jobs.Job, layout artifacts.Layout, log *slog.Logger, source string) (string, error) {
	o.checkpoint(ctx, job, jobs.StageRender, "Rendering final video", 94)
	dest := layout.VideoPath(job.Meta.OriginalFilename)
	if err := o.media.Render(ctx, source, dest); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		log.Warn("final transcode failed, delivering upstream intermediate", logging.Error(err))
		job.MarkDegraded(jobs.StageRender)
		if copyErr := fileutil.CopyFileVerified(source, dest); copyErr != nil {
			return "", services.Wrap(services.ErrExternalTool, jobs.StageRender, "fallback-copy", "could not deliver upstream intermediate", copyErr)
		}
	}
	return dest, nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, job *jobs.Job, stage, message string, percent int) {
	job.SetProgress(stage, message, percent)
	if err := o.store.Update(ctx, job); err != nil {
		o.logger.Warn("failed to persist progress",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldStage, stage),
			logging.Error(err),
		)
	}
}

func (o *Orchestrator) fail(ctx context.Context, job *jobs.Job, log *slog.Logger, err error) {
	job.SetFailed(services.Message(err))
	log.Error("dubbing pipeline failed",
		logging.String(logging.FieldStage, job.Stage),
		logging.Error(err),
	)
	if updateErr := o.store.Update(context.WithoutCancel(ctx), job); updateErr != nil {
		log.Error("failed to persist failure", logging.Error(updateErr))
	}
}

