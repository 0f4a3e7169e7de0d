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

// LLM translates via an OpenAI-compatible chat completion endpoint.
type LLM struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewLLM constructs the provider. Without an API key it reports unconfigured.
func NewLLM(baseURL, apiKey, model string, timeout time.Duration) *LLM {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &LLM{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *LLM) Name() string { return "llm" }

func (p *LLM) Configured() bool { return p.apiKey != "" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate sends every segment as one numbered line and requires the model
// to return the same number of lines, keeping the timing structure intact.
func (p *LLM) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = seg.Text
	}

	prompt := fmt.Sprintf(
		"Translate each line below into %s. Return exactly %d lines, one translation per input line, in the same order, with no numbering or commentary.\n\n%s",
		DisplayName(targetLang), len(lines), strings.Join(lines, "\n"),
	)

	payload, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a professional subtitle translator."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("llm: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm: response contains no choices")
	}

	translated := splitLines(parsed.Choices[0].Message.Content)
	if len(translated) != len(segments) {
		return nil, fmt.Errorf("llm: expected %d lines, got %d", len(segments), len(translated))
	}

	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		out[i] = subtitles.Segment{Start: seg.Start, End: seg.End, Text: translated[i]}
	}
	return out, nil
}

func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
