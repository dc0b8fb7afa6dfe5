package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// configFileEnv names an optional YAML/TOML/JSON file layered under the environment.
const configFileEnv = "CONFIG_FILE"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	AIOrNot   AIOrNotConfig   `mapstructure:"aiornot"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the analysis service.
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DashboardConfig configures the dashboard that stages images and renders views.
type DashboardConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	AnalysisURL    string        `mapstructure:"analysis_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	StaticDir      string        `mapstructure:"static_dir"`
}

type AIOrNotConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ReverseSearch bool          `mapstructure:"reverse_search"`
}

type OpenAIConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	APIEndpoint    string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	DeploymentName string `mapstructure:"deployment"`
	APIVersion     string `mapstructure:"api_version"`
}

// Enabled reports whether the artifact detection pass can run.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel parses Level, falling back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

var defaults = map[string]interface{}{
	"server.port":                "8000",
	"server.host":                "0.0.0.0",
	"server.read_timeout":        "30s",
	"server.write_timeout":       "60s",
	"server.max_upload_bytes":    10 << 20,
	"dashboard.port":             "5173",
	"dashboard.host":             "127.0.0.1",
	"dashboard.analysis_url":     "http://localhost:8000",
	"dashboard.request_timeout":  "60s",
	"dashboard.max_upload_bytes": 10 << 20,
	"dashboard.static_dir":       "",
	"aiornot.api_key":            "",
	"aiornot.endpoint":           "https://api.aiornot.com/v2/image/sync",
	"aiornot.timeout":            "45s",
	"aiornot.reverse_search":     false,
	"openai.provider":            "openai",
	"openai.api_key":             "",
	"openai.endpoint":            "https://api.openai.com/v1",
	"openai.model":               "gpt-4o-mini",
	"openai.deployment":          "gpt-4o",
	"openai.api_version":         "2023-05-15",
	"log.level":                  "info",
}

// envNames maps configuration keys to their environment variables.
var envNames = map[string]string{
	"server.port":                "SERVER_PORT",
	"server.host":                "SERVER_HOST",
	"server.read_timeout":        "SERVER_READ_TIMEOUT",
	"server.write_timeout":       "SERVER_WRITE_TIMEOUT",
	"server.max_upload_bytes":    "SERVER_MAX_UPLOAD_BYTES",
	"dashboard.port":             "DASHBOARD_PORT",
	"dashboard.host":             "DASHBOARD_HOST",
	"dashboard.analysis_url":     "ANALYSIS_SERVICE_URL",
	"dashboard.request_timeout":  "ANALYSIS_REQUEST_TIMEOUT",
	"dashboard.max_upload_bytes": "DASHBOARD_MAX_UPLOAD_BYTES",
	"dashboard.static_dir":       "DASHBOARD_STATIC_DIR",
	"aiornot.api_key":            "AIORNOT_API_KEY",
	"aiornot.endpoint":           "AIORNOT_ENDPOINT",
	"aiornot.timeout":            "AIORNOT_TIMEOUT",
	"aiornot.reverse_search":     "AIORNOT_REVERSE_SEARCH",
	"openai.provider":            "OPENAI_PROVIDER",
	"openai.api_key":             "OPENAI_API_KEY",
	"openai.endpoint":            "OPENAI_ENDPOINT",
	"openai.model":               "OPENAI_MODEL",
	"openai.deployment":          "OPENAI_DEPLOYMENT",
	"openai.api_version":         "OPENAI_API_VERSION",
	"log.level":                  "LOG_LEVEL",
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path := os.Getenv(configFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("configuration file read", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.OpenAI.Provider = strings.ToLower(cfg.OpenAI.Provider)

	slog.Info("configuration loaded successfully")
	return &cfg, nil
}

// ValidateServer checks the settings the analysis service needs.
func (c *Config) ValidateServer() error {
	if c.AIOrNot.APIKey == "" {
		return fmt.Errorf("AIORNOT_API_KEY is required")
	}
	if c.AIOrNot.Endpoint == "" {
		return fmt.Errorf("AIORNOT_ENDPOINT cannot be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("SERVER_MAX_UPLOAD_BYTES must be positive")
	}
	switch c.OpenAI.Provider {
	case "openai", "azure":
	default:
		return fmt.Errorf("unsupported OPENAI_PROVIDER %q", c.OpenAI.Provider)
	}
	return nil
}

// ValidateDashboard checks the settings the dashboard needs.
func (c *Config) ValidateDashboard() error {
	if c.Dashboard.AnalysisURL == "" {
		return fmt.Errorf("ANALYSIS_SERVICE_URL cannot be empty")
	}
	if c.Dashboard.MaxUploadBytes <= 0 {
		return fmt.Errorf("DASHBOARD_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
