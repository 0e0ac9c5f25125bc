package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets the conventional variables so the host environment does
// not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "OLLAMA_HOST",
		"SUPABASE_URL", "SUPABASE_ANON_KEY", "TX_CUP_STANDINGS_URL", "MEMBERS_PROFILE_URL",
		"DEEPGRAM_API_KEY", "PORT", "VERCEL",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Primary.Type != ProviderOpenAI || cfg.Primary.Model != "gpt-3.5-turbo" {
		t.Errorf("primary = %+v", cfg.Primary)
	}
	if cfg.Fallback.Type != ProviderAnthropic || cfg.Fallback.Model != "claude-3-haiku-20240307" {
		t.Errorf("fallback = %+v", cfg.Fallback)
	}
	if cfg.Server.Port != 3001 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Session.Store != SessionMemory || cfg.Session.HistoryLimit != 10 {
		t.Errorf("session = %+v", cfg.Session)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "hvga.yml")

	original := DefaultConfig()
	original.Primary.Type = ProviderOpenRouter
	original.Primary.Model = "openai/gpt-4o-mini"
	original.Fallback = ProviderConfig{}
	original.KnowledgeFile = "kb.txt"
	original.Server.Port = 8080
	original.Server.AllowedOrigins = []string{"https://hvga.org"}
	original.Session.Store = SessionSQLite
	original.Telemetry.SampleRatio = 0.5

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Primary.Type != ProviderOpenRouter || loaded.Primary.Model != "openai/gpt-4o-mini" {
		t.Errorf("primary = %+v", loaded.Primary)
	}
	if loaded.KnowledgeFile != "kb.txt" {
		t.Errorf("knowledge_file = %q", loaded.KnowledgeFile)
	}
	if loaded.Server.Port != 8080 {
		t.Errorf("port = %d", loaded.Server.Port)
	}
	if len(loaded.Server.AllowedOrigins) != 1 || loaded.Server.AllowedOrigins[0] != "https://hvga.org" {
		t.Errorf("allowed_origins = %v", loaded.Server.AllowedOrigins)
	}
	if loaded.Session.Store != SessionSQLite {
		t.Errorf("session.store = %q", loaded.Session.Store)
	}
	if loaded.Telemetry.SampleRatio != 0.5 {
		t.Errorf("sample_ratio = %v", loaded.Telemetry.SampleRatio)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Primary.Type != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Primary.Type)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hvga.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("HVGA_LOG_LEVEL", "debug")
	t.Setenv("HVGA_PRIMARY__MODEL", "gpt-4o")
	t.Setenv("HVGA_SESSION__TTL_MINUTES", "15")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("log_level = %q", loaded.LogLevel)
	}
	if loaded.Primary.Model != "gpt-4o" {
		t.Errorf("primary.model = %q", loaded.Primary.Model)
	}
	if loaded.Session.TTLMinutes != 15 {
		t.Errorf("session.ttl_minutes = %d", loaded.Session.TTLMinutes)
	}
}

func TestLoadConventionalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-open")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("TX_CUP_STANDINGS_URL", "https://x/standings")
	t.Setenv("MEMBERS_PROFILE_URL", "https://x/members")
	t.Setenv("DEEPGRAM_API_KEY", "dg")
	t.Setenv("PORT", "4000")
	t.Setenv("VERCEL", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Primary.APIKey != "sk-open" || cfg.Fallback.APIKey != "sk-ant" {
		t.Errorf("keys = %q, %q", cfg.Primary.APIKey, cfg.Fallback.APIKey)
	}
	if cfg.Backend.SupabaseURL != "https://x.supabase.co" || cfg.Backend.AnonKey != "anon" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Backend.StandingsURL != "https://x/standings" || cfg.Backend.MembersURL != "https://x/members" {
		t.Errorf("backend urls = %+v", cfg.Backend)
	}
	if cfg.Speech.DeepgramAPIKey != "dg" {
		t.Errorf("deepgram key = %q", cfg.Speech.DeepgramAPIKey)
	}
	if cfg.Server.Port != 4000 || !cfg.Server.Serverless {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestConfiguredKeyWinsOverEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hvga.yml")
	cfg := DefaultConfig()
	cfg.Primary.APIKey = "from-file"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "from-env")

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Primary.APIKey != "from-file" {
		t.Errorf("api key = %q, want from-file", loaded.Primary.APIKey)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	if _, err := Load(filepath.Join(t.TempDir(), "x.yml")); err == nil {
		t.Error("expected error for non-numeric PORT")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("DEEPGRAM_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DEEPGRAM_API_KEY") })

	if got := os.Getenv("DEEPGRAM_API_KEY"); got != "from-dotenv" {
		t.Errorf("DEEPGRAM_API_KEY = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no primary", func(c *Config) { c.Primary = ProviderConfig{} }, true},
		{"invalid primary", func(c *Config) { c.Primary.Type = "google" }, true},
		{"empty model", func(c *Config) { c.Primary.Model = "" }, true},
		{"fallback disabled", func(c *Config) { c.Fallback = ProviderConfig{} }, false},
		{"invalid fallback", func(c *Config) { c.Fallback.Type = "minimax" }, true},
		{"negative timeout", func(c *Config) { c.Primary.TimeoutSeconds = -1 }, true},
		{"no knowledge file", func(c *Config) { c.KnowledgeFile = "" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"serverless ignores port", func(c *Config) { c.Server.Port = 70000; c.Server.Serverless = true }, false},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, true},
		{"sqlite without path", func(c *Config) { c.Session.Store = SessionSQLite; c.Session.DBPath = "" }, true},
		{"history too short", func(c *Config) { c.Session.HistoryLimit = 1 }, true},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry.Enabled = true }, true},
		{"bad sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 2 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestDefaultModel(t *testing.T) {
	if got := DefaultModel(ProviderAnthropic); got != "claude-3-haiku-20240307" {
		t.Errorf("anthropic default = %q", got)
	}
	if got := DefaultModel("unknown"); got != "" {
		t.Errorf("unknown default = %q", got)
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "3001", " 65535 "} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "65536", "abc", ""} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}
