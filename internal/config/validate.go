package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxConcurrentJobs < 0 {
		return errors.New("workflow.max_concurrent_jobs must not be negative")
	}
	if c.Workflow.CleanupDelay < 0 {
		return errors.New("workflow.cleanup_delay_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TimeoutSeconds <= 0 {
		return errors.New("translation.timeout_seconds must be positive")
	}
	if c.Translation.DeepL.Enabled && strings.TrimSpace(c.Translation.DeepL.APIKey) == "" {
		return errors.New("translation.deepl.api_key must be set when translation.deepl.enabled is true")
	}
	if c.Translation.LLM.Enabled && strings.TrimSpace(c.Translation.LLM.APIKey) == "" {
		return errors.New("translation.llm.api_key must be set when translation.llm.enabled is true")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	if c.Synthesis.TimeoutSeconds <= 0 {
		return errors.New("synthesis.timeout_seconds must be positive")
	}
	if c.Synthesis.ElevenLabs.Enabled && strings.TrimSpace(c.Synthesis.ElevenLabs.APIKey) == "" {
		return errors.New("synthesis.elevenlabs.api_key must be set when synthesis.elevenlabs.enabled is true")
	}
	if c.Synthesis.OpenAI.Enabled && strings.TrimSpace(c.Synthesis.OpenAI.APIKey) == "" {
		return errors.New("synthesis.openai.api_key must be set when synthesis.openai.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
