// Package subtitles renders timestamped transcript segments as SRT files.
//
// The subtitle artifact for a finished job is derived purely from the
// in-memory translated segments; no external tool is involved.
package subtitles
