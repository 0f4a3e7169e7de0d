package tts_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubforge/internal/services/tts"
)

type fakeSynth struct {
	name       string
	configured bool
	cloning    bool
	err        error
	calls      []tts.Request
}

func (f *fakeSynth) Name() string          { return f.name }
func (f *fakeSynth) Configured() bool      { return f.configured }
func (f *fakeSynth) SupportsCloning() bool { return f.cloning }

func (f *fakeSynth) Synthesize(ctx context.Context, req tts.Request) error {
	f.calls = append(f.calls, req)
	return f.err
}

func TestChainPrefersCloningProviderForCloneRequests(t *testing.T) {
	generic := &fakeSynth{name: "generic", configured: true}
	cloner := &fakeSynth{name: "cloner", configured: true, cloning: true}

	chain := tts.NewChain(nil, generic, cloner)
	req := tts.Request{Text: "hola", CloneVoice: true, Dest: "/tmp/out.mp3"}
	if err := chain.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(cloner.calls) != 1 {
		t.Fatalf("expected cloning provider used, calls=%d", len(cloner.calls))
	}
	if len(generic.calls) != 0 {
		t.Fatal("expected generic provider skipped when cloner succeeds")
	}
}

func TestChainKeepsConfiguredOrderForPlainRequests(t *testing.T) {
	cloner := &fakeSynth{name: "cloner", configured: true, cloning: true, err: errors.New("down")}
	generic := &fakeSynth{name: "generic", configured: true}

	chain := tts.NewChain(nil, cloner, generic)
	req := tts.Request{Text: "hola"}
	if err := chain.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(cloner.calls) != 1 || len(generic.calls) != 1 {
		t.Fatalf("expected fallthrough, calls: cloner=%d generic=%d", len(cloner.calls), len(generic.calls))
	}
}

func TestChainExhaustion(t *testing.T) {
	a := &fakeSynth{name: "a", configured: true, err: errors.New("down")}
	b := &fakeSynth{name: "b", configured: false}

	chain := tts.NewChain(nil, a, b)
	if err := chain.Synthesize(context.Background(), tts.Request{Text: "x"}); err == nil {
		t.Fatal("expected error when providers exhausted")
	}
	if len(b.calls) != 0 {
		t.Fatal("expected unconfigured provider skipped")
	}
}

func TestElevenLabsWritesAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("unexpected api key header: %q", got)
		}
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "dubbed.mp3")
	provider := tts.NewElevenLabs(server.URL, "secret", "voice-1", time.Second)
	err := provider.Synthesize(context.Background(), tts.Request{Text: "hola", Dest: dest})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("unexpected output: %q", data)
	}
}

func TestOpenAIServerErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "dubbed.mp3")
	provider := tts.NewOpenAI(server.URL, "key", "", "", time.Second)
	if err := provider.Synthesize(context.Background(), tts.Request{Text: "hola", Dest: dest}); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestProvidersListsConfiguredOnly(t *testing.T) {
	chain := tts.NewChain(nil,
		&fakeSynth{name: "a", configured: true},
		&fakeSynth{name: "b", configured: false},
	)
	names := chain.Providers()
	if len(names) != 1 || names[0] != "a" {
		t.Fatalf("unexpected provider names: %v", names)
	}
}
