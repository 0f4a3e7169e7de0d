package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dubforge/internal/subtitles"
)

// DefaultModel is used when the configuration leaves the model unset.
const DefaultModel = "base"

// Config captures the transcription engine settings.
type Config struct {
	Binary string
	Model  string
}

// Service provides speech-to-text transcription by shelling out to a
// whisper-compatible CLI.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "whisper"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Available reports whether the transcription binary can be resolved.
func (s *Service) Available() bool {
	_, err := exec.LookPath(s.cfg.Binary)
	return err == nil
}

// Transcribe produces timestamped segments from the audio track. language is
// a source-language hint; empty means auto-detect. outputDir is where the
// engine writes its JSON result.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Segment, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("transcribe: audio path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if lang := strings.TrimSpace(language); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}

	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outputDir, base+".json")
	return parseResult(resultPath)
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type resultPayload struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseResult(path string) ([]subtitles.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: read result: %w", err)
	}
	var payload resultPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("transcribe: parse result: %w", err)
	}
	if len(payload.Segments) == 0 {
		return nil, fmt.Errorf("transcribe: result contains no segments")
	}

	segments := make([]subtitles.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, subtitles.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}
