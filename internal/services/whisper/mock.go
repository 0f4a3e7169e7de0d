package whisper

import "dubforge/internal/subtitles"

// MockTranscript returns the deterministic placeholder segments used when the
// transcription engine is unavailable or produced unparsable output. The
// pipeline continues with these so downstream stages still exercise their
// full path.
func MockTranscript() []subtitles.Segment {
	return []subtitles.Segment{
		{Start: 0.0, End: 4.0, Text: "Welcome to this video."},
		{Start: 4.0, End: 8.0, Text: "The transcription engine was not available."},
		{Start: 8.0, End: 12.0, Text: "This is placeholder dialogue used for dubbing."},
	}
}
