package tts

import (
	"context"
	"log/slog"

	"dubforge/internal/logging"
	"dubforge/internal/services"
)

// Request carries everything one synthesis pass needs.
type Request struct {
	Text           string
	TargetLang     string
	ReferenceAudio string
	Dest           string
	CloneVoice     bool
}

// Synthesizer is one concrete voice-synthesis backend among several
// interchangeable alternatives.
type Synthesizer interface {
	Name() string
	Configured() bool
	SupportsCloning() bool
	Synthesize(ctx context.Context, req Request) error
}

// Chain tries providers in priority order. When the request asks for voice
// cloning, cloning-capable providers are tried first.
type Chain struct {
	providers []Synthesizer
	logger    *slog.Logger
}

// NewChain builds a provider chain in priority order.
func NewChain(logger *slog.Logger, providers ...Synthesizer) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Chain{providers: providers, logger: logger}
}

// Providers returns the names of the configured providers in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, provider := range c.providers {
		if provider.Configured() {
			names = append(names, provider.Name())
		}
	}
	return names
}

// Synthesize runs the chain, catching and logging each provider failure.
// Exhausting every provider returns an error; the stage then falls back to
// reusing the original audio track.
func (c *Chain) Synthesize(ctx context.Context, req Request) error {
	ordered := c.providers
	if req.CloneVoice {
		ordered = cloningFirst(c.providers)
	}

	for _, provider := range ordered {
		if !provider.Configured() {
			continue
		}
		if err := provider.Synthesize(ctx, req); err != nil {
			c.logger.Warn("voice synthesis provider failed",
				logging.String("provider", provider.Name()),
				logging.Error(err),
			)
			continue
		}
		c.logger.Debug("voice synthesis provider succeeded", logging.String("provider", provider.Name()))
		return nil
	}
	return services.Wrap(services.ErrUnavailable, "synthesize-voice", "chain", "all providers exhausted", nil)
}

func cloningFirst(providers []Synthesizer) []Synthesizer {
	ordered := make([]Synthesizer, 0, len(providers))
	for _, provider := range providers {
		if provider.SupportsCloning() {
			ordered = append(ordered, provider)
		}
	}
	for _, provider := range providers {
		if !provider.SupportsCloning() {
			ordered = append(ordered, provider)
		}
	}
	return ordered
}
