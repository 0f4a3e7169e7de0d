package config

const (
	defaultWorkDir              = "~/.local/share/dubforge/work"
	defaultOutputDir            = "~/.local/share/dubforge/output"
	defaultLogDir               = "~/.local/share/dubforge/logs"
	defaultAPIBind              = "127.0.0.1:8750"
	defaultWhisperBinary        = "whisper"
	defaultWhisperModel         = "base"
	defaultLibreTranslateURL    = "http://127.0.0.1:5000/translate"
	defaultDeepLURL             = "https://api-free.deepl.com/v2/translate"
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4o-mini"
	defaultElevenLabsURL        = "https://api.elevenlabs.io/v1"
	defaultOpenAISpeechURL      = "https://api.openai.com/v1/audio/speech"
	defaultOpenAISpeechModel    = "tts-1"
	defaultOpenAISpeechVoice    = "alloy"
	defaultTranslateTimeout     = 60
	defaultSynthesisTimeout     = 120
	defaultLipSyncPython        = "python3"
	defaultMaxConcurrentJobs    = 2
	defaultCleanupDelaySeconds  = 3600
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Transcription: Transcription{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		Translation: Translation{
			LibreTranslate: TranslateProvider{BaseURL: defaultLibreTranslateURL},
			DeepL:          TranslateProvider{BaseURL: defaultDeepLURL},
			LLM:            TranslateProvider{BaseURL: defaultLLMBaseURL, Model: defaultLLMModel},
			TimeoutSeconds: defaultTranslateTimeout,
		},
		Synthesis: Synthesis{
			ElevenLabs:     SpeechProvider{BaseURL: defaultElevenLabsURL},
			OpenAI:         SpeechProvider{BaseURL: defaultOpenAISpeechURL, Model: defaultOpenAISpeechModel, Voice: defaultOpenAISpeechVoice},
			TimeoutSeconds: defaultSynthesisTimeout,
		},
		LipSync: LipSync{
			Python: defaultLipSyncPython,
		},
		Workflow: Workflow{
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			CleanupDelay:      defaultCleanupDelaySeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
