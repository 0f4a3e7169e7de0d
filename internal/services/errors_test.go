package services_test

import (
	"errors"
	"strings"
	"testing"

	"dubforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "transcode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "transcode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestMessageStripsSentinelPrefix(t *testing.T) {
	err := services.Wrap(services.ErrUnavailable, "extract-audio", "ffmpeg", "binary missing", nil)
	got := services.Message(err)
	if strings.Contains(got, services.ErrUnavailable.Error()) {
		t.Fatalf("expected sentinel prefix removed, got %q", got)
	}
	if !strings.Contains(got, "extract-audio") || !strings.Contains(got, "binary missing") {
		t.Fatalf("expected detail preserved, got %q", got)
	}

	if services.Message(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}
