package api

import (
	"context"
	"os"

	"dubforge/internal/jobs"
	"dubforge/internal/services"
)

// JobReader abstracts job persistence interactions needed for API queries.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	Count(ctx context.Context) (int, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs filtered by status, newest first per store ordering.
func (s *JobService) List(ctx context.Context, statuses ...jobs.Status) (JobListResponse, error) {
	if s == nil || s.store == nil {
		return JobListResponse{}, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return JobListResponse{}, err
	}
	return JobListResponse{Jobs: FromJobs(items), Total: len(items)}, nil
}

// Describe fetches a single job's status view.
func (s *JobService) Describe(ctx context.Context, id string) (*JobView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	view := FromJob(job)
	return &view, nil
}

// Artifact resolves an artifact kind to its on-disk path. It fails with a
// not-found error when the job is unknown, not yet done, the kind was never
// produced, or the file no longer exists (removed by retention).
func (s *JobService) Artifact(ctx context.Context, id string, kind jobs.ArtifactKind) (string, error) {
	if s == nil || s.store == nil {
		return "", services.Wrap(services.ErrNotFound, "", "artifact", "job service unavailable", nil)
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", services.Wrap(services.ErrNotFound, "", "artifact", "unknown job "+id, nil)
	}
	if job.Status != jobs.StatusDone {
		return "", services.Wrap(services.ErrNotFound, "", "artifact", "job not finished", nil)
	}
	path, ok := job.Outputs[kind]
	if !ok || path == "" {
		return "", services.Wrap(services.ErrNotFound, "", "artifact", "artifact "+string(kind)+" not produced", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(services.ErrNotFound, "", "artifact", "artifact "+string(kind)+" no longer available", err)
	}
	return path, nil
}

// Count returns the total number of job records.
func (s *JobService) Count(ctx context.Context) (int, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.Count(ctx)
}
