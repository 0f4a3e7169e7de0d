// Package tts provides the ordered voice-synthesis provider chain.
//
// Providers share the Synthesizer interface; when a submission requests voice
// cloning the cloning-capable provider is tried first, then the generic cloud
// provider. Exhausting every provider surfaces an error and the stage falls
// back to reusing the original audio track instead of aborting the pipeline.
package tts
