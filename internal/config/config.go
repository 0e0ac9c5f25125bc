package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: HVGA_LOG_LEVEL -> log_level,
// HVGA_SERVER__PORT -> server.port.
const EnvPrefix = "HVGA_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from the given YAML file, overlays HVGA_*
// environment overrides, then applies the conventional variables
// (OPENAI_API_KEY, PORT, VERCEL and friends).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.applyConventionalEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConventionalEnv fills secrets and endpoints from the variable names
// the hosting platforms and SDKs use. Values already configured win, except
// PORT which the platform assigns.
func (c *Config) applyConventionalEnv() error {
	setIfEmpty := func(dst *string, name string) {
		if *dst == "" {
			*dst = os.Getenv(name)
		}
	}

	for _, p := range []*ProviderConfig{&c.Primary, &c.Fallback} {
		if name := APIKeyEnvVar(p.Type); name != "" {
			setIfEmpty(&p.APIKey, name)
		}
		if p.Type == ProviderOllama {
			setIfEmpty(&p.BaseURL, "OLLAMA_HOST")
		}
	}

	setIfEmpty(&c.Backend.SupabaseURL, "SUPABASE_URL")
	setIfEmpty(&c.Backend.AnonKey, "SUPABASE_ANON_KEY")
	setIfEmpty(&c.Backend.StandingsURL, "TX_CUP_STANDINGS_URL")
	setIfEmpty(&c.Backend.MembersURL, "MEMBERS_PROFILE_URL")
	setIfEmpty(&c.Speech.DeepgramAPIKey, "DEEPGRAM_API_KEY")

	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = n
	}
	if os.Getenv("VERCEL") != "" {
		c.Server.Serverless = true
	}
	return nil
}

// Save writes the configuration to the given YAML file path. Secrets are
// omitted when empty so a saved file never carries blank keys.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderAnthropic:  true,
	ProviderOllama:     true,
}

var validSessionStores = map[SessionStore]bool{
	SessionMemory: true,
	SessionSQLite: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !c.Primary.Enabled() {
		return fmt.Errorf("primary.type is required")
	}
	if err := c.Primary.validate("primary"); err != nil {
		return err
	}
	if c.Fallback.Enabled() {
		if err := c.Fallback.validate("fallback"); err != nil {
			return err
		}
	}

	if c.KnowledgeFile == "" {
		return fmt.Errorf("knowledge_file is required")
	}

	if !c.Server.Serverless && (c.Server.Port < 0 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout_seconds must be non-negative")
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must be non-negative")
	}

	if !validSessionStores[c.Session.Store] {
		return fmt.Errorf("invalid session.store %q: must be memory or sqlite", c.Session.Store)
	}
	if c.Session.Store == SessionSQLite && c.Session.DBPath == "" {
		return fmt.Errorf("session.db_path is required for the sqlite store")
	}
	if c.Session.HistoryLimit != 0 && c.Session.HistoryLimit < 2 {
		return fmt.Errorf("session.history_limit must be at least 2")
	}
	if c.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be non-negative")
	}

	if c.Backend.TimeoutSeconds < 0 || c.Speech.TimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}

	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1")
	}

	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q", c.LogLevel)
		}
	}
	return nil
}

func (p ProviderConfig) validate(field string) error {
	if !validProviders[p.Type] {
		return fmt.Errorf("invalid %s.type %q: must be one of openai, openrouter, anthropic, ollama", field, p.Type)
	}
	if p.Model == "" {
		return fmt.Errorf("%s.model is required", field)
	}
	if p.TimeoutSeconds < 0 {
		return fmt.Errorf("%s.timeout_seconds must be non-negative", field)
	}
	if p.RequestsPerMinute < 0 {
		return fmt.Errorf("%s.requests_per_minute must be non-negative", field)
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}
