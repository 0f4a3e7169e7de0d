package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dubforge/internal/api"
	"dubforge/internal/config"
	"dubforge/internal/jobs"
	"dubforge/internal/logging"
	"dubforge/internal/pipeline"
	"dubforge/internal/retention"
	"dubforge/internal/services/translate"
)

// allowedUploadExtensions lists the media containers accepted at submission.
var allowedUploadExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
}

// Daemon coordinates the job store, the pipeline orchestrator, and the HTTP
// API, and enforces single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *jobs.Store
	orchestrator *pipeline.Orchestrator
	retention    *retention.Manager
	jobSvc       *api.JobService

	lockPath string
	lock     *flock.Flock

	apiSrv *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, orch *pipeline.Orchestrator, ret *retention.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "dubforged.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		orchestrator: orch,
		retention:    ret,
		jobSvc:       api.NewJobService(store),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and brings up
// the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dubforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.recoverJobs(runCtx); err != nil {
		d.logger.Warn("job recovery incomplete", logging.Error(err))
	}
	if d.apiSrv != nil {
		if err := d.apiSrv.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("dubforge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API, waits for in-flight jobs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	d.orchestrator.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("dubforge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address, or empty before Start.
func (d *Daemon) Addr() string {
	if d.apiSrv == nil {
		return ""
	}
	return d.apiSrv.addr()
}

// SubmitParams carries the submission fields accompanying an upload.
type SubmitParams struct {
	SourceLang    string
	TargetLang    string
	VoiceMode     string
	QualityTier   string
	SyncThreshold float64
}

// Submit persists the uploaded media, creates the job record, and launches
// the pipeline. The returned job is already visible in the store.
func (d *Daemon) Submit(ctx context.Context, file multipart.File, filename string, params SubmitParams) (*jobs.Job, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedUploadExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported media type %q", ext)
	}
	rawTarget := strings.TrimSpace(params.TargetLang)
	if rawTarget == "" {
		return nil, errors.New("target language is required")
	}
	targetLang, ok := translate.NormalizeLang(rawTarget)
	if !ok || targetLang == "auto" {
		return nil, fmt.Errorf("invalid target language %q", rawTarget)
	}
	sourceLang := strings.TrimSpace(params.SourceLang)
	if sourceLang != "" {
		sourceLang, ok = translate.NormalizeLang(sourceLang)
		if !ok {
			return nil, fmt.Errorf("invalid source language %q", params.SourceLang)
		}
	}
	voiceMode := jobs.VoiceMode(strings.ToLower(strings.TrimSpace(params.VoiceMode)))
	switch voiceMode {
	case "":
		voiceMode = jobs.VoiceModePlain
	case jobs.VoiceModeClone, jobs.VoiceModePlain:
	default:
		return nil, fmt.Errorf("unknown voice mode %q", params.VoiceMode)
	}

	sourcePath, err := d.saveUpload(file, ext)
	if err != nil {
		return nil, err
	}

	job, err := d.store.Create(ctx, jobs.Meta{
		SourcePath:       sourcePath,
		OriginalFilename: filepath.Base(filename),
		SourceLang:       sourceLang,
		TargetLang:       targetLang,
		VoiceMode:        voiceMode,
		QualityTier:      strings.TrimSpace(params.QualityTier),
		SyncThreshold:    params.SyncThreshold,
	})
	if err != nil {
		_ = os.Remove(sourcePath)
		return nil, err
	}

	d.orchestrator.Launch(job)
	d.logger.Info("job submitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("filename", job.Meta.OriginalFilename),
		logging.String("target_lang", job.Meta.TargetLang),
	)
	return job, nil
}

// Delete cancels any in-flight work, removes every artifact the job wrote,
// and drops the record. Returns false when the job is unknown.
func (d *Daemon) Delete(ctx context.Context, id string) (bool, error) {
	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	d.orchestrator.Cancel(id)
	if d.retention != nil {
		d.retention.RemoveAll(id)
	}
	if job.Meta.SourcePath != "" {
		_ = os.Remove(job.Meta.SourcePath)
	}

	found, err := d.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	d.logger.Info("job deleted", logging.String(logging.FieldJobID, id))
	return found, nil
}

// JobService exposes the read-only query facade.
func (d *Daemon) JobService() *api.JobService {
	return d.jobSvc
}

// recoverJobs handles records left over from a previous run: jobs caught
// mid-flight are failed, queued jobs are relaunched.
func (d *Daemon) recoverJobs(ctx context.Context) error {
	stale, err := d.store.List(ctx, jobs.StatusRunning)
	if err != nil {
		return err
	}
	for _, job := range stale {
		job.SetFailed("interrupted by daemon restart")
		if err := d.store.Update(ctx, job); err != nil {
			return err
		}
		d.logger.Warn("failed interrupted job", logging.String(logging.FieldJobID, job.ID))
	}

	queued, err := d.store.List(ctx, jobs.StatusQueued)
	if err != nil {
		return err
	}
	for _, job := range queued {
		d.orchestrator.Launch(job)
		d.logger.Info("relaunched queued job", logging.String(logging.FieldJobID, job.ID))
	}
	return nil
}

func (d *Daemon) saveUpload(file multipart.File, ext string) (string, error) {
	uploadDir := filepath.Join(d.cfg.Paths.WorkDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	dest := filepath.Join(uploadDir, uuid.NewString()+ext)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("store upload: %w", err)
	}
	return dest, nil
}
