// Package deps reports availability of the external capabilities the dubbing
// pipeline dispatches to, without exercising the pipeline itself.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"dubforge/internal/config"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Check evaluates everything the configured pipeline would reach for:
// required and optional binaries, the lip-sync model assets, and the remote
// provider credentials.
func Check(cfg *config.Config) []Status {
	requirements := []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Audio extraction, merge, and final render"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Media inspection"},
		{Name: "Whisper", Command: whisperCommand(cfg), Description: "Speech transcription", Optional: true},
		{Name: "Python", Command: pythonCommand(cfg), Description: "Lip-sync inference runtime", Optional: true},
	}
	results := CheckBinaries(requirements)
	results = append(results, CheckDirectories(cfg)...)
	results = append(results, CheckLipSyncModel(cfg.LipSync))
	results = append(results, CheckProviders(cfg)...)
	return results
}

// CheckDirectories verifies the daemon can write to its working, output, and
// log directories.
func CheckDirectories(cfg *config.Config) []Status {
	dirs := []struct {
		name string
		path string
	}{
		{"Work directory", cfg.Paths.WorkDir},
		{"Output directory", cfg.Paths.OutputDir},
		{"Log directory", cfg.Paths.LogDir},
	}
	results := make([]Status, 0, len(dirs))
	for _, dir := range dirs {
		status := Status{
			Name:        dir.name,
			Command:     dir.path,
			Description: "Writable directory",
		}
		if strings.TrimSpace(dir.path) == "" {
			status.Detail = "path not configured"
			results = append(results, status)
			continue
		}
		if err := unix.Access(dir.path, unix.W_OK); err != nil {
			status.Detail = fmt.Sprintf("not writable: %v", err)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckLipSyncModel reports whether the face-reenactment checkpoint and
// inference script are both present on disk.
func CheckLipSyncModel(cfg config.LipSync) Status {
	status := Status{
		Name:        "Lip-sync model",
		Command:     cfg.ModelPath,
		Description: "Face-reenactment checkpoint",
		Optional:    true,
	}
	for _, path := range []string{cfg.ModelPath, cfg.ScriptPath} {
		if strings.TrimSpace(path) == "" {
			status.Detail = "model not configured"
			return status
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			status.Detail = fmt.Sprintf("asset %q not found", path)
			return status
		}
	}
	status.Available = true
	return status
}

// CheckProviders reports which remote translation and synthesis backends are
// configured. All providers are optional; each stage has a local fallback.
func CheckProviders(cfg *config.Config) []Status {
	checks := []struct {
		name       string
		enabled    bool
		configured bool
	}{
		{"LibreTranslate", cfg.Translation.LibreTranslate.Enabled, cfg.Translation.LibreTranslate.BaseURL != ""},
		{"DeepL", cfg.Translation.DeepL.Enabled, cfg.Translation.DeepL.APIKey != ""},
		{"Translation LLM", cfg.Translation.LLM.Enabled, cfg.Translation.LLM.APIKey != ""},
		{"ElevenLabs", cfg.Synthesis.ElevenLabs.Enabled, cfg.Synthesis.ElevenLabs.APIKey != ""},
		{"OpenAI speech", cfg.Synthesis.OpenAI.Enabled, cfg.Synthesis.OpenAI.APIKey != ""},
	}
	results := make([]Status, 0, len(checks))
	for _, check := range checks {
		status := Status{
			Name:        check.name,
			Description: "Remote provider",
			Optional:    true,
			Available:   check.enabled && check.configured,
		}
		if !check.enabled {
			status.Detail = "disabled"
		} else if !check.configured {
			status.Detail = "missing credentials"
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

func whisperCommand(cfg *config.Config) string {
	if cmd := strings.TrimSpace(cfg.Transcription.Binary); cmd != "" {
		return cmd
	}
	return "whisper"
}

func pythonCommand(cfg *config.Config) string {
	if cmd := strings.TrimSpace(cfg.LipSync.Python); cmd != "" {
		return cmd
	}
	return "python3"
}
