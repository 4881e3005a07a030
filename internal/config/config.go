// Package config loads the service configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	GitHub   GitHubConfig  `mapstructure:"github"`
	AI       AIConfig      `mapstructure:"ai"`
	Database DBConfig      `mapstructure:"database"`
	Jobs     JobsConfig    `mapstructure:"jobs"`
	Logging  logger.Config `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// PublicURL is the externally reachable base URL, reported by the
	// webhook status endpoint.
	PublicURL string `mapstructure:"public_url"`
}

// GitHubConfig selects between a personal access token and GitHub App
// installation auth. App auth wins when AppID is set.
type GitHubConfig struct {
	Token          string        `mapstructure:"token"`
	AppID          int64         `mapstructure:"app_id"`
	InstallationID int64         `mapstructure:"installation_id"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	OllamaHost        string        `mapstructure:"ollama_host"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxPatchChars     int           `mapstructure:"max_patch_chars"`
}

// DBConfig configures the review store. For the sqlite driver DSN is the
// database file path; for postgres it overrides the discrete fields.
type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	DSN             string        `mapstructure:"dsn"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type JobsConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
	QueueSize  int `mapstructure:"queue_size"`
	// DeliveryTTL is how long accepted delivery ids are remembered.
	DeliveryTTL time.Duration `mapstructure:"delivery_ttl"`
}

// Supported values.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// extraEnv binds the environment names used by existing deployments in
// addition to the SECTION_KEY form.
var extraEnv = map[string][]string{
	"github.webhook_secret": {"GITHUB_WEBHOOK_SECRET", "WEBHOOK_SECRET"},
	"github.token":          {"GITHUB_TOKEN"},
	"ai.openai_api_key":     {"AI_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"ai.gemini_api_key":     {"AI_GEMINI_API_KEY", "GEMINI_API_KEY"},
	"database.dsn":          {"DATABASE_DSN", "DATABASE_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "")

	v.SetDefault("github.token", "")
	v.SetDefault("github.app_id", 0)
	v.SetDefault("github.installation_id", 0)
	v.SetDefault("github.private_key_path", "")
	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.timeout", 30*time.Second)

	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.requests_per_minute", 30)
	v.SetDefault("ai.max_patch_chars", 2000)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "warden")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "pr_warden")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("jobs.max_workers", 5)
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.delivery_ttl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// LoadConfig reads configuration using the global viper instance, so a
// config file chosen with viper.SetConfigFile (the CLI --config flag) is
// honoured.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads config.yaml (when present), applies environment overrides and
// defaults, and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range extraEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel(cfg.AI.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GitHub.WebhookSecret == "" {
		slog.Warn("webhook secret is not configured; webhook deliveries will be rejected")
	}
	return &cfg, nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderOllama:
		return "gemma3:latest"
	default:
		return "gpt-4o-mini"
	}
}

// Validate rejects structurally invalid configuration. Missing credentials
// are reported by the component that needs them.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, errors.New("github.timeout must be positive"))
	}
	if c.GitHub.AppID != 0 && (c.GitHub.InstallationID == 0 || c.GitHub.PrivateKeyPath == "") {
		errs = append(errs, errors.New("github.installation_id and github.private_key_path are required when github.app_id is set"))
	}

	switch c.AI.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unsupported ai.provider %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	if c.AI.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("ai.requests_per_minute must not be negative"))
	}
	if c.AI.MaxPatchChars <= 0 {
		errs = append(errs, errors.New("ai.max_patch_chars must be positive"))
	}

	switch c.Database.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	if c.Jobs.MaxWorkers < 1 {
		errs = append(errs, errors.New("jobs.max_workers must be at least 1"))
	}
	if c.Jobs.QueueSize < 1 {
		errs = append(errs, errors.New("jobs.queue_size must be at least 1"))
	}
	if c.Jobs.DeliveryTTL < 0 {
		errs = append(errs, errors.New("jobs.delivery_ttl must not be negative"))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported logging.format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// WebhookURL is the public address of the webhook endpoint.
func (c *Config) WebhookURL() string {
	base := strings.TrimRight(c.Server.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	return base + "/api/webhook"
}
