package translate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dubforge/internal/services/translate"
	"dubforge/internal/subtitles"
)

var sampleSegments = []subtitles.Segment{
	{Start: 0, End: 2.5, Text: "Hello"},
	{Start: 2.5, End: 5, Text: "World"},
}

type fakeProvider struct {
	name       string
	configured bool
	err        error
	calls      int
	prefix     string
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		out[i] = subtitles.Segment{Start: seg.Start, End: seg.End, Text: f.prefix + seg.Text}
	}
	return out, nil
}

func TestChainFallsThroughInPriorityOrder(t *testing.T) {
	failing := &fakeProvider{name: "first", configured: true, err: errors.New("down")}
	skipped := &fakeProvider{name: "second", configured: false}
	working := &fakeProvider{name: "third", configured: true, prefix: "ok:"}

	chain := translate.NewChain(nil, failing, skipped, working)
	out, err := chain.Translate(context.Background(), sampleSegments, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if failing.calls != 1 {
		t.Fatalf("expected failing provider tried once, got %d", failing.calls)
	}
	if skipped.calls != 0 {
		t.Fatal("expected unconfigured provider skipped")
	}
	if out[0].Text != "ok:Hello" {
		t.Fatalf("unexpected translation: %q", out[0].Text)
	}
	if out[1].Start != 2.5 || out[1].End != 5 {
		t.Fatalf("expected timing preserved, got %+v", out[1])
	}
}

func TestChainExhaustionReturnsError(t *testing.T) {
	a := &fakeProvider{name: "a", configured: true, err: errors.New("down")}
	b := &fakeProvider{name: "b", configured: true, err: errors.New("also down")}

	chain := translate.NewChain(nil, a, b)
	if _, err := chain.Translate(context.Background(), sampleSegments, "en", "es"); err == nil {
		t.Fatal("expected error when all providers exhausted")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected both providers tried, got %d and %d", a.calls, b.calls)
	}
}

func TestPlaceholderForm(t *testing.T) {
	out := translate.Placeholder(sampleSegments, "es")
	if out[0].Text != "[Translated to es]: Hello" {
		t.Fatalf("unexpected placeholder: %q", out[0].Text)
	}
	if out[1].Text != "[Translated to es]: World" {
		t.Fatalf("unexpected placeholder: %q", out[1].Text)
	}
	if out[0].Start != 0 || out[0].End != 2.5 {
		t.Fatalf("expected timing preserved, got %+v", out[0])
	}
}

func TestLibreTranslateProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Q      string `json:"q"`
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Target != "es" {
			t.Errorf("unexpected target: %q", req.Target)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "es:" + req.Q})
	}))
	defer server.Close()

	provider := translate.NewLibreTranslate(server.URL, "", time.Second)
	out, err := provider.Translate(context.Background(), sampleSegments, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[0].Text != "es:Hello" || out[1].Text != "es:World" {
		t.Fatalf("unexpected translations: %v", out)
	}
}

func TestLibreTranslateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := translate.NewLibreTranslate(server.URL, "", time.Second)
	if _, err := provider.Translate(context.Background(), sampleSegments, "en", "es"); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestDeepLProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key secret" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		texts := r.PostForm["text"]
		payload := map[string]any{"translations": []map[string]string{}}
		translations := make([]map[string]string, len(texts))
		for i, text := range texts {
			translations[i] = map[string]string{"text": "de:" + text}
		}
		payload["translations"] = translations
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	provider := translate.NewDeepL(server.URL, "secret", time.Second)
	out, err := provider.Translate(context.Background(), sampleSegments, "auto", "de")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[1].Text != "de:World" {
		t.Fatalf("unexpected translation: %q", out[1].Text)
	}
}

func TestDeepLUnconfiguredWithoutKey(t *testing.T) {
	provider := translate.NewDeepL("", "", time.Second)
	if provider.Configured() {
		t.Fatal("expected unconfigured provider without api key")
	}
}

func TestLLMProviderLineProtocol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Hola\nMundo"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	defer server.Close()

	provider := translate.NewLLM(server.URL, "key", "test-model", time.Second)
	out, err := provider.Translate(context.Background(), sampleSegments, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[0].Text != "Hola" || out[1].Text != "Mundo" {
		t.Fatalf("unexpected translations: %v", out)
	}
}

func TestLLMProviderRejectsLineCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "only one line"}},
			},
		})
	}))
	defer server.Close()

	provider := translate.NewLLM(server.URL, "key", "test-model", time.Second)
	if _, err := provider.Translate(context.Background(), sampleSegments, "en", "es"); err == nil {
		t.Fatal("expected error on line count mismatch")
	}
}

func TestNormalizeLang(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "en", true},
		{"ES", "es", true},
		{"auto", "auto", true},
		{"en-US", "en", true},
		{"", "", false},
		{"not-a-lang!", "", false},
	}
	for _, tc := range cases {
		got, ok := translate.NormalizeLang(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeLang(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := translate.DisplayName("es"); got != "Spanish" {
		t.Fatalf("unexpected display name: %q", got)
	}
	if got := translate.DisplayName("auto"); got != "auto-detected" {
		t.Fatalf("unexpected auto name: %q", got)
	}
}
