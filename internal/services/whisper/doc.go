// Package whisper shells out to a whisper-compatible CLI to produce
// timestamped transcript segments, honoring a source-language hint or
// auto-detect. A deterministic mock transcript backs the stage's fallback
// path when the engine is missing or its output cannot be parsed.
package whisper
