package subtitles

import (
	"fmt"
	"os"
	"strings"
)

// Segment is one timestamped span of transcript or translated text.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp renders seconds in the SRT timestamp form HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis - secs*1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Render produces SRT content from the segments: numbered cues with
// start --> end timestamp lines, each followed by its text.
func Render(segments []Segment) string {
	var b strings.Builder
	cue := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cue++
		fmt.Fprintf(&b, "%d\n", cue)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// JoinText concatenates the segment texts with single spaces, skipping
// empty segments. Used to build the synthesis script for a dubbed track.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Write renders the segments and writes the SRT file to path.
func Write(path string, segments []Segment) error {
	content := Render(segments)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
