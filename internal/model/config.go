package model

import "time"

// Config holds the complete provscan configuration
type Config struct {
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Extractor ExtractorConfig `yaml:"extractor" mapstructure:"extractor"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Harness   HarnessConfig   `yaml:"harness" mapstructure:"harness"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PolicyConfig holds the generator name lists used by the scorer.
// Names are matched case-insensitively and exactly.
type PolicyConfig struct {
	SuspiciousGenerators   []string `yaml:"suspicious_generators" mapstructure:"suspicious_generators"`
	ManipulationGenerators []string `yaml:"manipulation_generators" mapstructure:"manipulation_generators"`
}

// ExtractorConfig configures the external provenance extraction tool
type ExtractorConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures the report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// ServerConfig configures the HTTP upload endpoint
type ServerConfig struct {
	Addr              string   `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxConnections    int      `yaml:"max_connections" mapstructure:"max_connections"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
	AllowOrigins      []string `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// HarnessConfig configures the batch evaluation harness
type HarnessConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Concurrency       int           `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	HistoryDB         string        `yaml:"history_db,omitempty" mapstructure:"history_db"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LLMConfig configures the optional report explanation
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultSuspiciousGenerators lists known generative-AI tool identifiers
func DefaultSuspiciousGenerators() []string {
	return []string{
		"chatgpt",
		"gpt",
		"gpt-3",
		"gpt-4",
		"gpt-4o",
		"microsoft responsible ai image provenance",
		"midjourney",
		"stable diffusion",
		"adobe firefly",
		"leonardo",
		"dall-e",
	}
}

// DefaultManipulationGenerators lists known editing-tool identifiers
func DefaultManipulationGenerators() []string {
	return []string{"photoshop", "gimp"}
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			SuspiciousGenerators:   DefaultSuspiciousGenerators(),
			ManipulationGenerators: DefaultManipulationGenerators(),
		},
		Extractor: ExtractorConfig{
			Binary:  "c2patool",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.provscan/cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			MaxUploadBytes:    50 << 20,
			MaxConnections:    64,
			RequestsPerSecond: 5,
			Burst:             10,
			AllowOrigins:      []string{"*"},
		},
		Harness: HarnessConfig{
			Timeout:           2 * time.Minute,
			Concurrency:       1,
			RequestsPerSecond: 0,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 400,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
