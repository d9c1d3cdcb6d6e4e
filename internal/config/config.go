// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevAPIKey is accepted as the backend bearer key when running with -dev and no key is set.
const DevAPIKey = "test-api-key-123"

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type AuthConfig struct {
	APIKey        string        `yaml:"api_key"`
	AdminPassword string        `yaml:"admin_password"`
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	CookieDomain  string        `yaml:"cookie_domain"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty selects the in-memory profile store
}

type RedisConfig struct {
	URL        string        `yaml:"url"` // empty disables cache, locks and rate limiting
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	TTL        time.Duration `yaml:"ttl"`
	RateLimit  int           `yaml:"rate_limit"` // interactions per user per window
	RateWindow time.Duration `yaml:"rate_window"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // openai|gemini|mock; empty picks by available key
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	GeminiModel     string        `yaml:"gemini_model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	CallTimeout     time.Duration `yaml:"call_timeout"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
	HistoryTurns    int           `yaml:"history_turns"`
}

type BotConfig struct {
	Token           string        `yaml:"token"`   // empty disables the Telegram front end
	Workers         int           `yaml:"workers"` // update handlers
	Locale          string        `yaml:"locale"`
	InactivityLimit time.Duration `yaml:"inactivity_limit"`
	RetireAfter     time.Duration `yaml:"retire_after"` // idle chats release their dialogue manager
}

type StorageConfig struct {
	ProfilesFile     string        `yaml:"profiles_file"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type WorkersConfig struct {
	PruneInterval time.Duration `yaml:"prune_interval"`
	IdleAfter     time.Duration `yaml:"idle_after"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 32 bytes; encrypts the profile snapshot at rest
}

// ClientConfig is read by cmd/chat.
type ClientConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	InactivityLimit time.Duration `yaml:"inactivity_limit"`
	UserID          string        `yaml:"user_id"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Bot      BotConfig      `yaml:"bot"`
	Storage  StorageConfig  `yaml:"storage"`
	Workers  WorkersConfig  `yaml:"workers"`
	Security SecurityConfig `yaml:"security"`
	Client   ClientConfig   `yaml:"client"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file is fine), overlays secrets
// from .env and the process environment, fills defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)

	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Auth.APIKey, "HUMANE_API_KEY")
	set(&c.Auth.AdminPassword, "ADMIN_PASSWORD")
	set(&c.Auth.JWTSecret, "JWT_SECRET")
	set(&c.AI.OpenAIKey, "OPENAI_API_KEY")
	set(&c.AI.GeminiKey, "GEMINI_API_KEY")
	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Redis.URL, "REDIS_URL")
	set(&c.Bot.Token, "TELEGRAM_TOKEN")
	set(&c.Security.EncryptionKey, "ENCRYPTION_KEY")
	set(&c.Client.BaseURL, "HUMANE_API_URL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	c.Server.RequestTimeout = orDuration(c.Server.RequestTimeout, 60*time.Second)
	c.Server.ReadTimeout = orDuration(c.Server.ReadTimeout, 15*time.Second)
	c.Server.WriteTimeout = orDuration(c.Server.WriteTimeout, 90*time.Second)

	if c.Auth.APIKey == "" && c.Runtime.Dev {
		c.Auth.APIKey = DevAPIKey
	}
	c.Auth.SessionTTL = orDuration(c.Auth.SessionTTL, 30*time.Minute)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	c.Redis.TTL = orDuration(c.Redis.TTL, time.Hour)
	c.Redis.RateWindow = orDuration(c.Redis.RateWindow, time.Minute)
	c.Redis.LockTTL = orDuration(c.Redis.LockTTL, 30*time.Second)
	if c.Redis.RateLimit <= 0 {
		c.Redis.RateLimit = 30
	}

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		switch {
		case c.AI.OpenAIKey != "":
			c.AI.Provider = "openai"
		case c.AI.GeminiKey != "":
			c.AI.Provider = "gemini"
		default:
			c.AI.Provider = "mock"
		}
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-3.5-turbo"
	}
	if c.AI.GeminiModel == "" {
		c.AI.GeminiModel = "gemini-2.0-flash"
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	c.AI.CallTimeout = orDuration(c.AI.CallTimeout, 30*time.Second)
	if c.AI.MaxPromptTokens <= 0 {
		c.AI.MaxPromptTokens = 3000
	}
	if c.AI.HistoryTurns <= 0 {
		c.AI.HistoryTurns = 10
	}

	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.Locale == "" {
		c.Bot.Locale = "en"
	}
	c.Bot.InactivityLimit = orDuration(c.Bot.InactivityLimit, 5*time.Minute)
	c.Bot.RetireAfter = orDuration(c.Bot.RetireAfter, 30*time.Minute)

	if c.Storage.ProfilesFile == "" {
		c.Storage.ProfilesFile = "user_profiles.json"
	}
	c.Storage.SnapshotInterval = orDuration(c.Storage.SnapshotInterval, 5*time.Minute)

	c.Workers.PruneInterval = orDuration(c.Workers.PruneInterval, 5*time.Minute)
	c.Workers.IdleAfter = orDuration(c.Workers.IdleAfter, 30*time.Minute)

	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:8000"
	}
	c.Client.Timeout = orDuration(c.Client.Timeout, 20*time.Second)
	c.Client.InactivityLimit = orDuration(c.Client.InactivityLimit, 5*time.Second)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Auth.APIKey == "" {
		return errors.New("auth.api_key (HUMANE_API_KEY) is required outside dev mode")
	}
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required for provider openai")
		}
	case "gemini":
		if c.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key is required for provider gemini")
		}
	case "mock":
	default:
		return fmt.Errorf("ai.provider %q is not one of openai|gemini|mock", c.AI.Provider)
	}
	if c.Security.EncryptionKey != "" && len(c.Security.EncryptionKey) != 32 {
		return errors.New("security.encryption_key must be 32 bytes")
	}
	if c.Auth.AdminPassword != "" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth.admin_password is set")
	}
	return nil
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
