package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// External analysis service
	Provider string
	Model    string
	APIKey   string

	// Presentation
	ProgressInterval   time.Duration
	SessionIdleTimeout time.Duration
	CORSAllowedOrigins []string

	// AnalysisWorkers bounds the page analyses running at once.
	AnalysisWorkers int

	// Remote sources, optional
	AllowPrivateSources bool
	AzureAccountName    string
	AzureAccountKey     string
	MinioEndpoint       string
	MinioAccessKey      string
	MinioSecretKey      string
	MinioRegion         string
	MinioUseSSL         bool
}

// fileConfig is the YAML overlay read from CONFIG_FILE. Environment
// variables always win over values from the file.
type fileConfig struct {
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	RequestTimeout     string   `yaml:"request_timeout"`
	ImageFetchTimeout  string   `yaml:"image_fetch_timeout"`
	MaxRequestBodySize int64    `yaml:"max_request_body_size"`
	LogLevel           string   `yaml:"log_level"`
	Provider           string   `yaml:"provider"`
	Model              string   `yaml:"model"`
	APIKey             string   `yaml:"api_key"`
	ProgressInterval   string   `yaml:"progress_interval"`
	SessionIdleTimeout string   `yaml:"session_idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	AnalysisWorkers    int64    `yaml:"analysis_workers"`
	AllowPrivate       bool     `yaml:"allow_private_sources"`
	Azure              struct {
		AccountName string `yaml:"account_name"`
		AccountKey  string `yaml:"account_key"`
	} `yaml:"azure"`
	Minio struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Region    string `yaml:"region"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether azblob:// sources can be served.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// MinioEnabled reports whether s3:// sources can be served.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

// LoadFromEnv builds the configuration. A missing API credential is an error:
// the service cannot make a single request without it.
func LoadFromEnv() (*Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", firstNonEmpty(fc.Host, "0.0.0.0")),
		Port:                getEnvOrDefault("PORT", firstNonEmpty(fc.Port, "8080")),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", fileDuration(fc.RequestTimeout, 30*time.Second)),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", fileDuration(fc.ImageFetchTimeout, 15*time.Second)),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", fileInt(fc.MaxRequestBodySize, 10*1024*1024)), // 10MB
		LogLevel:            getEnvOrDefault("LOG_LEVEL", firstNonEmpty(fc.LogLevel, "info")),
		Provider:            strings.ToLower(getEnvOrDefault("AI_PROVIDER", firstNonEmpty(fc.Provider, ProviderGemini))),
		Model:               getEnvOrDefault("AI_MODEL", fc.Model),
		ProgressInterval:    parseDurationOrDefault("PROGRESS_INTERVAL", fileDuration(fc.ProgressInterval, 2500*time.Millisecond)),
		SessionIdleTimeout:  parseDurationOrDefault("SESSION_IDLE_TIMEOUT", fileDuration(fc.SessionIdleTimeout, 30*time.Minute)),
		CORSAllowedOrigins:  parseListOrDefault("CORS_ALLOWED_ORIGINS", fc.CORSAllowedOrigins),
		AnalysisWorkers:     int(parseIntOrDefault("ANALYSIS_WORKERS", fileInt(fc.AnalysisWorkers, 8))),
		AllowPrivateSources: parseBoolOrDefault("ALLOW_PRIVATE_SOURCES", fc.AllowPrivate),
		AzureAccountName:    getEnvOrDefault("AZURE_STORAGE_ACCOUNT", fc.Azure.AccountName),
		AzureAccountKey:     getEnvOrDefault("AZURE_STORAGE_KEY", fc.Azure.AccountKey),
		MinioEndpoint:       getEnvOrDefault("MINIO_ENDPOINT", fc.Minio.Endpoint),
		MinioAccessKey:      getEnvOrDefault("MINIO_ACCESS_KEY", fc.Minio.AccessKey),
		MinioSecretKey:      getEnvOrDefault("MINIO_SECRET_KEY", fc.Minio.SecretKey),
		MinioRegion:         getEnvOrDefault("MINIO_REGION", fc.Minio.Region),
		MinioUseSSL:         parseBoolOrDefault("MINIO_USE_SSL", fc.Minio.UseSSL),
	}

	switch cfg.Provider {
	case ProviderGemini:
		cfg.APIKey = firstNonEmpty(os.Getenv("API_KEY"), os.Getenv("GEMINI_API_KEY"), fc.APIKey)
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
	case ProviderOpenAI:
		cfg.APIKey = firstNonEmpty(os.Getenv("API_KEY"), os.Getenv("OPENAI_API_KEY"), fc.APIKey)
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %q", cfg.Provider)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable not set")
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.AnalysisWorkers <= 0 {
		return nil, fmt.Errorf("ANALYSIS_WORKERS must be > 0 (got %d)", cfg.AnalysisWorkers)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.ProgressInterval <= 0 || cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("durations must be > 0 (got request=%s, fetch=%s, progress=%s, session=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.ProgressInterval, cfg.SessionIdleTimeout)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func fileDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func fileInt(value, defaultValue int64) int64 {
	if value != 0 {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
