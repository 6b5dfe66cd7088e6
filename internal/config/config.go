package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Responder names accepted by chat.responder.
const (
	ResponderSummary = "summary"
	ResponderOpenAI  = "openai"
)

// Email providers accepted by email.provider.
const (
	EmailMock  = "mock"
	EmailBrevo = "brevo"
)

// Config holds the programdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chat      ChatConfig      `yaml:"chat"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Email     EmailConfig     `yaml:"email"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"` // empty disables CORS, "*" allows any
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RetrievalConfig tunes the TF-IDF engine.
type RetrievalConfig struct {
	MaxFeatures  int     `yaml:"max_features"` // negative = no cap
	MinScore     float64 `yaml:"min_score"`
	CacheSize    int     `yaml:"cache_size"` // negative disables the query cache
	RefitOnWrite bool    `yaml:"refit_on_write"`
}

// CorpusConfig controls the initial catalog.
type CorpusConfig struct {
	SeedCSV string `yaml:"seed_csv"` // loaded only when storage holds no programs
}

// ChatConfig selects and tunes the chat responder.
type ChatConfig struct {
	Responder      string       `yaml:"responder"`
	OpenAI         OpenAIConfig `yaml:"openai"`
	RateLimitRPS   float64      `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst int          `yaml:"rate_limit_burst"`
}

// OpenAIConfig holds chat completion settings.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// ScraperConfig holds program page scraping settings.
type ScraperConfig struct {
	Enabled      bool            `yaml:"enabled"`
	TimeoutSec   int             `yaml:"timeout_sec"`
	RateLimitRPS float64         `yaml:"rate_limit_rps"`
	MaxBodyBytes int64           `yaml:"max_body_bytes"`
	UserAgent    string          `yaml:"user_agent"`
	Selectors    SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig holds CSS selectors for program detail pages. Empty values use built-in defaults.
type SelectorsConfig struct {
	Description  string `yaml:"description"`
	Requirements string `yaml:"requirements"`
	TuitionFee   string `yaml:"tuition_fee"`
	Duration     string `yaml:"duration"`
}

// EmailConfig selects the outbound mail provider. The mock provider only logs.
type EmailConfig struct {
	Provider  string      `yaml:"provider"`
	FromEmail string      `yaml:"from_email"`
	FromName  string      `yaml:"from_name"`
	Brevo     BrevoConfig `yaml:"brevo"`
}

// BrevoConfig holds Brevo transactional email API settings.
type BrevoConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// StorageConfig holds retention settings.
type StorageConfig struct {
	ChatTTLHours           int `yaml:"chat_ttl_hours"`           // 0 = keep forever
	AnalyticsRetentionDays int `yaml:"analytics_retention_days"` // 0 = keep forever
}

// ChatTTL returns the chat session lifetime, zero for no expiry.
func (s StorageConfig) ChatTTL() time.Duration {
	return time.Duration(s.ChatTTLHours) * time.Hour
}

// AnalyticsRetention returns how long logged events live, zero for no expiry.
func (s StorageConfig) AnalyticsRetention() time.Duration {
	return time.Duration(s.AnalyticsRetentionDays) * 24 * time.Hour
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML after ${VAR} expansion, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Retrieval.MaxFeatures == 0 {
		c.Retrieval.MaxFeatures = 500
	}
	if c.Retrieval.MinScore <= 0 {
		c.Retrieval.MinScore = 0.1
	}
	if c.Retrieval.CacheSize == 0 {
		c.Retrieval.CacheSize = 256
	}
	if c.Chat.Responder == "" {
		c.Chat.Responder = ResponderSummary
	}
	if c.Chat.RateLimitRPS > 0 && c.Chat.RateLimitBurst <= 0 {
		c.Chat.RateLimitBurst = 5
	}
	if c.Chat.OpenAI.MaxTokens <= 0 {
		c.Chat.OpenAI.MaxTokens = 300
	}
	if c.Chat.OpenAI.Temperature <= 0 {
		c.Chat.OpenAI.Temperature = 0.7
	}
	if c.Chat.OpenAI.TimeoutSec <= 0 {
		c.Chat.OpenAI.TimeoutSec = 20
	}
	if c.Scraper.TimeoutSec <= 0 {
		c.Scraper.TimeoutSec = 10
	}
	if c.Scraper.RateLimitRPS <= 0 {
		c.Scraper.RateLimitRPS = 1
	}
	if c.Email.Provider == "" {
		c.Email.Provider = EmailMock
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = "noreply@techrealm.com"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "TechRealm"
	}
	if c.Email.Brevo.TimeoutSec <= 0 {
		c.Email.Brevo.TimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Retrieval.MinScore >= 1 {
		return fmt.Errorf("retrieval.min_score must be below 1, got %g", c.Retrieval.MinScore)
	}
	switch c.Chat.Responder {
	case ResponderSummary:
	case ResponderOpenAI:
		if c.Chat.OpenAI.APIKey == "" {
			return fmt.Errorf("chat.openai.api_key is required when chat.responder is %q", ResponderOpenAI)
		}
	default:
		return fmt.Errorf(
			"chat.responder must be %q or %q, got %q",
			ResponderSummary, ResponderOpenAI, c.Chat.Responder,
		)
	}
	if c.Chat.RateLimitRPS < 0 {
		return fmt.Errorf("chat.rate_limit_rps must not be negative, got %g", c.Chat.RateLimitRPS)
	}
	switch c.Email.Provider {
	case EmailMock:
	case EmailBrevo:
		if c.Email.Brevo.APIKey == "" {
			return fmt.Errorf("email.brevo.api_key is required when email.provider is %q", EmailBrevo)
		}
	default:
		return fmt.Errorf("email.provider must be %q or %q, got %q", EmailMock, EmailBrevo, c.Email.Provider)
	}
	if c.Storage.ChatTTLHours < 0 || c.Storage.AnalyticsRetentionDays < 0 {
		return fmt.Errorf("storage retention values must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
