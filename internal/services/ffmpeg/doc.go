// Package ffmpeg wraps the ffmpeg and ffprobe binaries behind small typed
// helpers: audio normalization, fixed-rate frame decoding, audio/video
// merging, the final fast-start transcode, and container inspection.
package ffmpeg
