package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubforge/internal/subtitles"
)

// DeepL talks to the DeepL REST API.
type DeepL struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewDeepL constructs the provider. Without an API key it reports
// unconfigured and the chain skips it.
func NewDeepL(baseURL, apiKey string, timeout time.Duration) *DeepL {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api-free.deepl.com/v2/translate"
	}
	return &DeepL{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *DeepL) Name() string { return "deepl" }

func (p *DeepL) Configured() bool { return p.apiKey != "" }

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends all segment texts in one request; DeepL returns one
// translation per input text, so timing structure is preserved by index.
func (p *DeepL) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	form := url.Values{}
	for _, seg := range segments {
		form.Add("text", seg.Text)
	}
	form.Set("target_lang", strings.ToUpper(targetLang))
	if source := strings.TrimSpace(sourceLang); source != "" && source != "auto" {
		form.Set("source_lang", strings.ToUpper(source))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("deepl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepl: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepl: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepl: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed deeplResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("deepl: parse response: %w", err)
	}
	if len(parsed.Translations) != len(segments) {
		return nil, fmt.Errorf("deepl: expected %d translations, got %d", len(segments), len(parsed.Translations))
	}

	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		out[i] = subtitles.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(parsed.Translations[i].Text),
		}
	}
	return out, nil
}
