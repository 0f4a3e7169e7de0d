package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAI synthesizes speech through an OpenAI-compatible speech endpoint.
// It is the generic cloud provider; it does not clone voices.
type OpenAI struct {
	baseURL    string
	apiKey     string
	model      string
	voice      string
	httpClient *http.Client
}

// NewOpenAI constructs the provider. Without an API key it reports
// unconfigured and the chain skips it.
func NewOpenAI(baseURL, apiKey, model, voice string, timeout time.Duration) *OpenAI {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1/audio/speech"
	}
	if strings.TrimSpace(model) == "" {
		model = "tts-1"
	}
	if strings.TrimSpace(voice) == "" {
		voice = "alloy"
	}
	return &OpenAI{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		voice:      strings.TrimSpace(voice),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) Configured() bool { return p.apiKey != "" }

func (p *OpenAI) SupportsCloning() bool { return false }

type openAIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Synthesize posts the text and writes the returned audio bytes to req.Dest.
func (p *OpenAI) Synthesize(ctx context.Context, req Request) error {
	payload, err := json.Marshal(openAIRequest{
		Model: p.model,
		Input: req.Text,
		Voice: p.voice,
	})
	if err != nil {
		return fmt.Errorf("openai speech: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai speech: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("openai speech: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(req.Dest)
	if err != nil {
		return fmt.Errorf("openai speech: create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("openai speech: write output: %w", err)
	}
	return nil
}
