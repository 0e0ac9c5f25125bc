package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOllama     ProviderType = "ollama"
)

// SessionStore selects where conversation history lives.
type SessionStore string

const (
	SessionMemory SessionStore = "memory"
	SessionSQLite SessionStore = "sqlite"
)

// Config is the top-level configuration, corresponding to hvga.yml.
type Config struct {
	Server        ServerConfig    `yaml:"server" koanf:"server"`
	Primary       ProviderConfig  `yaml:"primary" koanf:"primary"`
	Fallback      ProviderConfig  `yaml:"fallback" koanf:"fallback"`
	NominalModel  string          `yaml:"nominal_model" koanf:"nominal_model"`
	KnowledgeFile string          `yaml:"knowledge_file" koanf:"knowledge_file"`
	Timezone      string          `yaml:"timezone" koanf:"timezone"`
	Backend       BackendConfig   `yaml:"backend" koanf:"backend"`
	Speech        SpeechConfig    `yaml:"speech" koanf:"speech"`
	Session       SessionConfig   `yaml:"session" koanf:"session"`
	Telemetry     TelemetryConfig `yaml:"telemetry" koanf:"telemetry"`
	LogLevel      string          `yaml:"log_level" koanf:"log_level"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host" koanf:"host"`
	Port           int      `yaml:"port" koanf:"port"`
	PublicDir      string   `yaml:"public_dir" koanf:"public_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	RequestTimeout int      `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	MaxUploadMB    int      `yaml:"max_upload_mb" koanf:"max_upload_mb"`
	// Serverless is set on hosted platforms that assign the listener
	// themselves (VERCEL in the environment).
	Serverless bool `yaml:"serverless" koanf:"serverless"`
}

// ProviderConfig configures one entry of the provider fallback list. An
// empty Type disables the entry.
type ProviderConfig struct {
	Type              ProviderType `yaml:"type" koanf:"type"`
	Model             string       `yaml:"model" koanf:"model"`
	APIKey            string       `yaml:"api_key,omitempty" koanf:"api_key"`
	BaseURL           string       `yaml:"base_url,omitempty" koanf:"base_url"`
	TimeoutSeconds    int          `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// Enabled reports whether the entry names a provider.
func (p ProviderConfig) Enabled() bool { return p.Type != "" }

// BackendConfig points at the hosted standings/members backend.
type BackendConfig struct {
	SupabaseURL    string `yaml:"supabase_url" koanf:"supabase_url"`
	AnonKey        string `yaml:"anon_key,omitempty" koanf:"anon_key"`
	StandingsURL   string `yaml:"standings_url" koanf:"standings_url"`
	MembersURL     string `yaml:"members_url" koanf:"members_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// SpeechConfig configures Deepgram transcription.
type SpeechConfig struct {
	DeepgramAPIKey string `yaml:"deepgram_api_key,omitempty" koanf:"deepgram_api_key"`
	Endpoint       string `yaml:"endpoint" koanf:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// SessionConfig controls conversation history.
type SessionConfig struct {
	Store        SessionStore `yaml:"store" koanf:"store"`
	DBPath       string       `yaml:"db_path" koanf:"db_path"`
	TTLMinutes   int          `yaml:"ttl_minutes" koanf:"ttl_minutes"`
	HistoryLimit int          `yaml:"history_limit" koanf:"history_limit"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" koanf:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" koanf:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name" koanf:"service_name"`
	Insecure     bool    `yaml:"insecure" koanf:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio" koanf:"sample_ratio"`
}
