package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dubforge/internal/subtitles"
)

// LibreTranslate talks to a LibreTranslate-compatible HTTP endpoint.
type LibreTranslate struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLibreTranslate constructs the provider. An empty baseURL leaves it
// unconfigured so the chain skips it.
func NewLibreTranslate(baseURL, apiKey string, timeout time.Duration) *LibreTranslate {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LibreTranslate{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *LibreTranslate) Name() string { return "libretranslate" }

func (p *LibreTranslate) Configured() bool { return p.baseURL != "" }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate sends each segment individually so timing structure is preserved.
func (p *LibreTranslate) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	source := strings.TrimSpace(sourceLang)
	if source == "" {
		source = "auto"
	}

	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		translated, err := p.translateText(ctx, seg.Text, source, targetLang)
		if err != nil {
			return nil, err
		}
		out[i] = subtitles.Segment{Start: seg.Start, End: seg.End, Text: translated}
	}
	return out, nil
}

func (p *LibreTranslate) translateText(ctx context.Context, text, source, target string) (string, error) {
	payload, err := json.Marshal(libreRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: p.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("libretranslate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("libretranslate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("libretranslate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed libreResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("libretranslate: parse response: %w", err)
	}
	if strings.TrimSpace(parsed.TranslatedText) == "" {
		return "", fmt.Errorf("libretranslate: empty translation")
	}
	return strings.TrimSpace(parsed.TranslatedText), nil
}
