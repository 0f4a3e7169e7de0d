// Package logging assembles the structured slog loggers used across dubforge.
//
// It owns the console/JSON handler selection (with terminal detection for the
// default), centralizes level and output plumbing, and exposes context-aware
// helpers so stage code automatically tags log lines with job IDs, stages, and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
