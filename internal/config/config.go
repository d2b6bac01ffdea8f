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

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type BadgerConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Backend string       `yaml:"backend"` // badger | redis
	Badger  BadgerConfig `yaml:"badger"`
	Redis   RedisConfig  `yaml:"redis"`
}

type AIConfig struct {
	OpenAIKey       string  `yaml:"openai_key"`
	OpenAIBaseURL   string  `yaml:"openai_base_url"`
	GeminiKey       string  `yaml:"gemini_key"`
	GeminiURL       string  `yaml:"gemini_url"`
	CFAccountID     string  `yaml:"cf_account_id"`
	CFAPIToken      string  `yaml:"cf_api_token"`
	DefaultModel    string  `yaml:"default_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

type TutorConfig struct {
	RetentionWindow    int    `yaml:"retention_window"`     // max stored history entries per user
	PromptHistoryLimit int    `yaml:"prompt_history_limit"` // history entries sent to the model
	FallbackMessage    string `yaml:"fallback_message"`
}

type OwnerConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl"` // evict cached records idle this long
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Tutor   TutorConfig   `yaml:"tutor"`
	Owner   OwnerConfig   `yaml:"owner"`

	Runtime RuntimeConfig `yaml:"-"`
}

const defaultFallback = "I'm having trouble connecting to my brain right now. Please try again."

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "badger"
	}
	if cfg.Storage.Badger.Dir == "" {
		cfg.Storage.Badger.Dir = "data/state"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "@cf/meta/llama-3-8b-instruct"
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.7
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 1024
	}
	if cfg.Tutor.RetentionWindow <= 0 {
		cfg.Tutor.RetentionWindow = 50
	}
	if cfg.Tutor.PromptHistoryLimit <= 0 {
		cfg.Tutor.PromptHistoryLimit = 10
	}
	if cfg.Tutor.FallbackMessage == "" {
		cfg.Tutor.FallbackMessage = defaultFallback
	}
	if cfg.Owner.IdleTTL <= 0 {
		cfg.Owner.IdleTTL = 15 * time.Minute
	}

	// API keys may live in the environment instead of the file.
	if cfg.AI.OpenAIKey == "" {
		cfg.AI.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AI.GeminiKey == "" {
		cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.AI.CFAPIToken == "" {
		cfg.AI.CFAPIToken = os.Getenv("CF_API_TOKEN")
	}
	if cfg.AI.CFAccountID == "" {
		cfg.AI.CFAccountID = os.Getenv("CF_ACCOUNT_ID")
	}

	// Minimal validation
	switch cfg.Storage.Backend {
	case "badger", "redis":
	default:
		return nil, fmt.Errorf("storage.backend must be badger or redis, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "redis" && cfg.Storage.Redis.URL == "" {
		return nil, errors.New("storage.redis.url is required for the redis backend")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
