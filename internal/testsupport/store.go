package testsupport

import (
	"context"
	"testing"

	"dubforge/internal/config"
	"dubforge/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a queued job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, meta jobs.Meta) *jobs.Job {
	t.Helper()

	if meta.TargetLang == "" {
		meta.TargetLang = "es"
	}
	if meta.VoiceMode == "" {
		meta.VoiceMode = jobs.VoiceModePlain
	}
	job, err := store.Create(context.Background(), meta)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
