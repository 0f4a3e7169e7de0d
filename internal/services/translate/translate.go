package translate

import (
	"context"
	"fmt"
	"log/slog"

	"dubforge/internal/logging"
	"dubforge/internal/services"
	"dubforge/internal/subtitles"
)

// Translator is one concrete translation backend among several
// interchangeable alternatives.
type Translator interface {
	Name() string
	Configured() bool
	Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error)
}

// Chain tries an ordered list of providers, falling through on each failure.
// Only exhausting every provider is reported as an error; callers then apply
// the placeholder fallback.
type Chain struct {
	providers []Translator
	logger    *slog.Logger
}

// NewChain builds a provider chain in priority order.
func NewChain(logger *slog.Logger, providers ...Translator) *Chain {
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

// Translate runs the chain. Each provider failure is caught and logged before
// falling through to the next.
func (c *Chain) Translate(ctx context.Context, segments []subtitles.Segment, sourceLang, targetLang string) ([]subtitles.Segment, error) {
	for _, provider := range c.providers {
		if !provider.Configured() {
			continue
		}
		translated, err := provider.Translate(ctx, segments, sourceLang, targetLang)
		if err != nil {
			c.logger.Warn("translation provider failed",
				logging.String("provider", provider.Name()),
				logging.Error(err),
			)
			continue
		}
		c.logger.Debug("translation provider succeeded", logging.String("provider", provider.Name()))
		return translated, nil
	}
	return nil, services.Wrap(services.ErrUnavailable, "translate", "chain", "all providers exhausted", nil)
}

// Placeholder produces the deterministic fallback translation: the original
// text annotated with the target-language tag, timing preserved.
func Placeholder(segments []subtitles.Segment, targetLang string) []subtitles.Segment {
	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		out[i] = subtitles.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  fmt.Sprintf("[Translated to %s]: %s", targetLang, seg.Text),
		}
	}
	return out
}
