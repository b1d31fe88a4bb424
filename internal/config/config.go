package config

import (
	"time"

	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/glazehq/glazer/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    logger.Config   `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	Providers ProvidersConfig `yaml:"providers"`
	WRHQ      WRHQConfig      `yaml:"wrhq"`
	Poller    PollerConfig    `yaml:"poller"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// When disabled the server falls back to the in-process queue,
	// losing durability across restarts.
	Enabled bool `yaml:"enabled"`
}

type AuthConfig struct {
	TOTPSecret    string `yaml:"totp_secret"`
	SessionSecret string `yaml:"session_secret"`
	SessionTTL    string `yaml:"session_ttl"`
}

// SessionTTLDuration parses the session lifetime, falling back to 12h
func (a AuthConfig) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(a.SessionTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

type ProvidersConfig struct {
	Claude      ClaudeConfig      `yaml:"claude"`
	NanoBanana  NanoBananaConfig  `yaml:"nano_banana"`
	AutoContent AutoContentConfig `yaml:"autocontent"`
	Creatify    CreatifyConfig    `yaml:"creatify"`
	Storage     StorageConfig     `yaml:"storage"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	GetLate     GetLateConfig     `yaml:"getlate"`
	Podbean     PodbeanConfig     `yaml:"podbean"`
}

type ClaudeConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	APIVersion string `yaml:"api_version"`
	MaxTokens  int    `yaml:"max_tokens"`
}

type NanoBananaConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AutoContentConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type CreatifyConfig struct {
	APIID   string `yaml:"api_id"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type StorageConfig struct {
	Bucket      string `yaml:"bucket"`
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

type YouTubeConfig struct {
	AccessToken string `yaml:"access_token"`
	Enabled     bool   `yaml:"enabled"`
}

type GetLateConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type PodbeanConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BaseURL      string `yaml:"base_url"`
}

// WRHQConfig holds the partner directory site that mirrors client content
type WRHQConfig struct {
	Enabled          bool   `yaml:"enabled"`
	WordPressURL     string `yaml:"wordpress_url"`
	WordPressUser    string `yaml:"wordpress_user"`
	WordPressAppPass string `yaml:"wordpress_app_pass"`
	GetLateAccountID string `yaml:"getlate_account_id"`
}

type PollerConfig struct {
	Interval string `yaml:"interval"`
	// Polling runs unless explicitly disabled
	Disabled bool `yaml:"disabled"`
}

// IntervalDuration parses the poll interval, falling back to 10s
func (p PollerConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(p.Interval)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

type WorkerConfig struct {
	Concurrency int    `yaml:"concurrency"`
	QueueKey    string `yaml:"queue_key"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5840
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.SessionTTL == "" {
		cfg.Auth.SessionTTL = "12h"
	}
	if cfg.Providers.Claude.Model == "" {
		cfg.Providers.Claude.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Providers.Claude.APIVersion == "" {
		cfg.Providers.Claude.APIVersion = "2023-06-01"
	}
	if cfg.Providers.Claude.MaxTokens == 0 {
		cfg.Providers.Claude.MaxTokens = 8192
	}
	if cfg.Providers.NanoBanana.Model == "" {
		cfg.Providers.NanoBanana.Model = "gemini-2.5-flash-image"
	}
	if cfg.Providers.AutoContent.BaseURL == "" {
		cfg.Providers.AutoContent.BaseURL = "https://api.autocontentapi.com"
	}
	if cfg.Providers.Creatify.BaseURL == "" {
		cfg.Providers.Creatify.BaseURL = "https://api.creatify.ai"
	}
	if cfg.Providers.GetLate.BaseURL == "" {
		cfg.Providers.GetLate.BaseURL = "https://getlate.dev/api/v1"
	}
	if cfg.Providers.Podbean.BaseURL == "" {
		cfg.Providers.Podbean.BaseURL = "https://api.podbean.com"
	}
	if cfg.Providers.Storage.BaseURL == "" {
		cfg.Providers.Storage.BaseURL = "https://storage.googleapis.com"
	}
	if cfg.Poller.Interval == "" {
		cfg.Poller.Interval = "10s"
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 2
	}
	if cfg.Worker.QueueKey == "" {
		cfg.Worker.QueueKey = "glazer:finalize"
	}

	return cfg, nil
}
