package api

import (
	"time"

	"dubforge/internal/jobs"
)

// FromJob converts a persisted job into its API representation. Outputs are
// exposed only once the job is done.
func FromJob(job *jobs.Job) JobView {
	if job == nil {
		return JobView{}
	}
	view := JobView{
		ID:     job.ID,
		Status: string(job.Status),
		Progress: JobProgress{
			Stage:   job.Stage,
			Percent: job.Progress,
			Message: job.Message,
		},
		ErrorMessage: job.ErrorMessage,
		SourceLang:   job.Meta.SourceLang,
		TargetLang:   job.Meta.TargetLang,
		VoiceMode:    string(job.Meta.VoiceMode),
		QualityTier:  job.Meta.QualityTier,
		Filename:     job.Meta.OriginalFilename,
		CreatedAt:    formatTime(job.CreatedAt),
		UpdatedAt:    formatTime(job.UpdatedAt),
	}
	if job.Status == jobs.StatusDone && len(job.Outputs) > 0 {
		view.Outputs = make(map[string]string, len(job.Outputs))
		for kind := range job.Outputs {
			view.Outputs[string(kind)] = "/api/jobs/" + job.ID + "/artifact/" + string(kind)
		}
	}
	if len(job.Degraded) > 0 {
		view.Degraded = append([]string(nil), job.Degraded...)
	}
	return view
}

// FromJobs converts a job slice, preserving order.
func FromJobs(items []*jobs.Job) []JobView {
	if len(items) == 0 {
		return nil
	}
	views := make([]JobView, 0, len(items))
	for _, job := range items {
		views = append(views, FromJob(job))
	}
	return views
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
