package config

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "hvga.yml"

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:     "gpt-3.5-turbo",
	ProviderOpenRouter: "openai/gpt-3.5-turbo",
	ProviderAnthropic:  "claude-3-haiku-20240307",
	ProviderOllama:     "llama3",
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}

// DefaultConfig returns a Config with sensible defaults: OpenAI primary,
// Anthropic fallback, in-memory sessions.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3001,
			PublicDir:      "public",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 60,
			MaxUploadMB:    10,
		},
		Primary: ProviderConfig{
			Type:           ProviderOpenAI,
			Model:          "gpt-3.5-turbo",
			TimeoutSeconds: 30,
		},
		Fallback: ProviderConfig{
			Type:           ProviderAnthropic,
			Model:          "claude-3-haiku-20240307",
			TimeoutSeconds: 20,
		},
		NominalModel:  "gpt-3.5-turbo",
		KnowledgeFile: "data/knowledge.txt",
		Timezone:      "America/Chicago",
		Backend: BackendConfig{
			TimeoutSeconds: 10,
		},
		Speech: SpeechConfig{
			TimeoutSeconds: 30,
		},
		Session: SessionConfig{
			Store:        SessionMemory,
			DBPath:       "data/sessions.db",
			TTLMinutes:   60,
			HistoryLimit: 10,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "hvga-og",
			Insecure:    true,
			SampleRatio: 1,
		},
		LogLevel: "info",
	}
}
