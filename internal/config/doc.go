// Package config loads, normalizes, and validates dubforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: working/output directories, transcription and lip-sync
// tool locations, and the ordered translation and voice-synthesis provider
// connections.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
