// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int           `yaml:"port"`
	OriginURL string        `yaml:"origin_url"` // storefront origin for checkout redirects
	Timeout   time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type StripeConfig struct {
	SecretKey     string        `yaml:"secret_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Currency      string        `yaml:"currency"`
	SessionExpiry time.Duration `yaml:"session_expiry"`
	Tolerance     time.Duration `yaml:"signature_tolerance"`
}

type LearnWorldsConfig struct {
	BaseURL     string  `yaml:"base_url"`
	ClientID    string  `yaml:"client_id"`
	AccessToken string  `yaml:"access_token"`
	RatePerSec  float64 `yaml:"rate_per_sec"`
	Burst       int     `yaml:"burst"`
}

type CatalogConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	MaxFailures   int           `yaml:"max_failures"`
	RefreshSecret string        `yaml:"refresh_secret"` // shared secret for the change-notification webhook
}

type SchedConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Stripe      StripeConfig      `yaml:"stripe"`
	LearnWorlds LearnWorldsConfig `yaml:"learnworlds"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Sched       SchedConfig       `yaml:"sched"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Stripe.SessionExpiry <= 0 {
		cfg.Stripe.SessionExpiry = 30 * time.Minute
	}
	if cfg.Stripe.Tolerance <= 0 {
		cfg.Stripe.Tolerance = 5 * time.Minute
	}
	if cfg.LearnWorlds.RatePerSec <= 0 {
		cfg.LearnWorlds.RatePerSec = 2
	}
	if cfg.LearnWorlds.Burst <= 0 {
		cfg.LearnWorlds.Burst = 1
	}
	if cfg.Catalog.TTL <= 0 {
		cfg.Catalog.TTL = 5 * time.Minute
	}
	if cfg.Catalog.MaxFailures <= 0 {
		cfg.Catalog.MaxFailures = 3
	}
	if cfg.Sched.ExpiryInterval <= 0 {
		cfg.Sched.ExpiryInterval = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return nil, errors.New("stripe.secret_key is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, errors.New("stripe.webhook_secret is required")
	}
	if cfg.LearnWorlds.BaseURL == "" || cfg.LearnWorlds.AccessToken == "" {
		return nil, errors.New("learnworlds.base_url and learnworlds.access_token are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
