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

// ElevenLabs synthesizes speech through the ElevenLabs REST API. It is the
// cloning-capable provider: with a configured voice id it reproduces the
// reference speaker.
type ElevenLabs struct {
	baseURL    string
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

// NewElevenLabs constructs the provider. Without an API key it reports
// unconfigured and the chain skips it.
func NewElevenLabs(baseURL, apiKey, voiceID string, timeout time.Duration) *ElevenLabs {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabs{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		voiceID:    strings.TrimSpace(voiceID),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *ElevenLabs) Name() string { return "elevenlabs" }

func (p *ElevenLabs) Configured() bool { return p.apiKey != "" }

func (p *ElevenLabs) SupportsCloning() bool { return true }

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize posts the text and writes the returned audio bytes to req.Dest.
func (p *ElevenLabs) Synthesize(ctx context.Context, req Request) error {
	voice := p.voiceID
	if voice == "" {
		voice = "21m00Tcm4TlvDq8ikWAM" // ElevenLabs default voice
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: "eleven_multilingual_v2",
	})
	if err != nil {
		return fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", p.baseURL, voice)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("elevenlabs: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(req.Dest)
	if err != nil {
		return fmt.Errorf("elevenlabs: create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("elevenlabs: write output: %w", err)
	}
	return nil
}
