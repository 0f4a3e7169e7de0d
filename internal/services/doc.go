// Package services holds the shared plumbing for external capability wrappers:
// the error taxonomy used to classify stage failures and the context keys that
// thread job, stage, and correlation identifiers through logging.
//
// Concrete wrappers live in subpackages (ffmpeg, whisper, translate, tts,
// lipsync), one per external collaborator.
package services
