package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"dubforge/internal/api"
	"dubforge/internal/config"
	"dubforge/internal/deps"
	"dubforge/internal/jobs"
	"dubforge/internal/logging"
	"dubforge/internal/services"
)

// maxUploadBytes caps the in-memory portion of multipart parsing; larger
// uploads spill to disk.
const maxUploadBytes = 32 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	jobSvc *api.JobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		jobSvc: d.jobSvc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           srv.logRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleJobs serves POST /api/jobs (submission) and GET /api/jobs (listing).
func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing media file")
		return
	}
	defer file.Close()

	threshold, _ := strconv.ParseFloat(r.FormValue("sync_threshold"), 64)
	params := SubmitParams{
		SourceLang:    r.FormValue("source_lang"),
		TargetLang:    r.FormValue("target_lang"),
		VoiceMode:     r.FormValue("voice_mode"),
		QualityTier:   r.FormValue("quality_tier"),
		SyncThreshold: threshold,
	}

	job, err := s.daemon.Submit(r.Context(), file, header.Filename, params)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{ID: job.ID, Status: string(job.Status)})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}

	resp, err := s.jobSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleJob serves GET/DELETE /api/jobs/{id} and GET /api/jobs/{id}/artifact/{kind}.
func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleStatus(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDelete(w, r, id)
	case len(parts) == 3 && parts[1] == "artifact" && r.Method == http.MethodGet:
		s.handleArtifact(w, r, id, parts[2])
	default:
		s.writeError(w, http.StatusNotFound, "job not found")
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	view, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if view == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	found, err := s.daemon.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *apiServer) handleArtifact(w http.ResponseWriter, r *http.Request, id, kindValue string) {
	kind, ok := jobs.ParseArtifactKind(kindValue)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown artifact kind %q", kindValue))
		return
	}
	path, err := s.jobSvc.Artifact(r.Context(), id, kind)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, services.Message(err))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, err := s.jobSvc.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	statuses := deps.Check(s.daemon.cfg)
	payload := api.HealthResponse{
		Status:       "ok",
		JobCount:     count,
		Dependencies: make([]api.DependencyStatus, 0, len(statuses)),
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		payload.Status = "degraded"
	}
	for _, status := range statuses {
		payload.Dependencies = append(payload.Dependencies, api.DependencyStatus{
			Name:      status.Name,
			Available: status.Available,
			Optional:  status.Optional,
			Detail:    status.Detail,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := uuid.NewString()
		r = r.WithContext(services.WithRequestID(r.Context(), requestID))
		next.ServeHTTP(w, r)
		s.log().Debug("request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String(logging.FieldCorrelationID, requestID),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
