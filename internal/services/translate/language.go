package translate

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeLang canonicalizes a language code, returning false when the code
// cannot be parsed. "auto" passes through for auto-detect submissions.
func NormalizeLang(code string) (string, bool) {
	trimmed := strings.TrimSpace(strings.ToLower(code))
	if trimmed == "" || trimmed == "auto" {
		return trimmed, trimmed != ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	return base.String(), true
}

// DisplayName returns the English display name for a language code, falling
// back to the code itself when unknown.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return "auto-detected"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return trimmed
	}
	return name
}
