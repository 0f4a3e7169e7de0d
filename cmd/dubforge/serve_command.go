package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dubforge/internal/config"
	"dubforge/internal/daemon"
	"dubforge/internal/deps"
	"dubforge/internal/jobs"
	"dubforge/internal/logging"
	"dubforge/internal/pipeline"
	"dubforge/internal/retention"
	"dubforge/internal/services/ffmpeg"
	"dubforge/internal/services/lipsync"
	"dubforge/internal/services/translate"
	"dubforge/internal/services/tts"
	"dubforge/internal/services/whisper"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dubbing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			if missing := deps.MissingRequired(deps.Check(cfg)); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %v", missing)
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}

			ret := retention.NewManager(cfg, logger)
			orch := pipeline.New(cfg, store, logger, pipeline.Options{
				Media:       ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
				Transcriber: whisper.NewService(whisper.Config{Binary: cfg.Transcription.Binary, Model: cfg.Transcription.Model}),
				Translator:  buildTranslateChain(cfg, logger),
				Synthesizer: buildSpeechChain(cfg, logger),
				LipSyncer:   lipsync.NewService(cfg.LipSync),
				Retention:   ret,
			})

			d, err := daemon.New(cfg, store, logger, orch, ret)
			if err != nil {
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dubforge daemon listening on %s\n", d.Addr())

			<-runCtx.Done()
			d.Stop()
			ret.Wait()
			return nil
		},
	}
}

func buildTranslateChain(cfg *config.Config, logger *slog.Logger) *translate.Chain {
	timeout := providerTimeout(cfg.Translation.TimeoutSeconds)
	providers := make([]translate.Translator, 0, 3)
	if p := cfg.Translation.LibreTranslate; p.Enabled {
		providers = append(providers, translate.NewLibreTranslate(p.BaseURL, p.APIKey, timeout))
	}
	if p := cfg.Translation.DeepL; p.Enabled {
		providers = append(providers, translate.NewDeepL(p.BaseURL, p.APIKey, timeout))
	}
	if p := cfg.Translation.LLM; p.Enabled {
		providers = append(providers, translate.NewLLM(p.BaseURL, p.APIKey, p.Model, timeout))
	}
	return translate.NewChain(logger, providers...)
}

func buildSpeechChain(cfg *config.Config, logger *slog.Logger) *tts.Chain {
	timeout := providerTimeout(cfg.Synthesis.TimeoutSeconds)
	providers := make([]tts.Synthesizer, 0, 2)
	if p := cfg.Synthesis.ElevenLabs; p.Enabled {
		providers = append(providers, tts.NewElevenLabs(p.BaseURL, p.APIKey, p.Voice, timeout))
	}
	if p := cfg.Synthesis.OpenAI; p.Enabled {
		providers = append(providers, tts.NewOpenAI(p.BaseURL, p.APIKey, p.Model, p.Voice, timeout))
	}
	return tts.NewChain(logger, providers...)
}

func providerTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
