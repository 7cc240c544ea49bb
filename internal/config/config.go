// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port       string           `yaml:"port"`
	Debug      bool             `yaml:"debug"`
	DB         DBConfig         `yaml:"db"`
	LLM        LLMConfig        `yaml:"llm"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Engine     EngineConfig     `yaml:"engine"`
}

// DBConfig selects the timesheet store.
type DBConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
}

// LLMConfig points the intent classifier at an OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// CheckpointConfig selects where suspended threads are kept.
type CheckpointConfig struct {
	Backend string        `yaml:"backend"` // "memory", "postgres" or "nats"
	NATSURL string        `yaml:"nats_url"`
	Bucket  string        `yaml:"bucket"`
	TTL     time.Duration `yaml:"ttl"`
}

// EngineConfig bounds a single turn.
type EngineConfig struct {
	MaxSteps        int           `yaml:"max_steps"`
	TurnTimeout     time.Duration `yaml:"turn_timeout"`
	GateConcurrency int           `yaml:"gate_concurrency"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port: "8080",
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "./data/em.db",
		},
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "google/gemini-2.5-flash-lite",
		},
		Checkpoint: CheckpointConfig{
			Backend: "memory",
			Bucket:  "EMFLOW_CHECKPOINTS",
			TTL:     24 * time.Hour,
		},
		Engine: EngineConfig{
			MaxSteps:        50,
			TurnTimeout:     60 * time.Second,
			GateConcurrency: 4,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by EMFLOW_CONFIG and then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("EMFLOW_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Debug = getEnvBool("DEBUG", c.Debug)

	c.DB.Driver = getEnv("DB_DRIVER", c.DB.Driver)
	c.DB.URL = getEnv("DATABASE_URL", c.DB.URL)
	c.DB.Path = getEnv("DB_PATH", c.DB.Path)

	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)

	c.Checkpoint.Backend = getEnv("CHECKPOINT_BACKEND", c.Checkpoint.Backend)
	c.Checkpoint.NATSURL = getEnv("NATS_URL", c.Checkpoint.NATSURL)
	c.Checkpoint.Bucket = getEnv("CHECKPOINT_BUCKET", c.Checkpoint.Bucket)
	c.Checkpoint.TTL = getEnvDuration("CHECKPOINT_TTL", c.Checkpoint.TTL)

	c.Engine.MaxSteps = getEnvInt("MAX_STEPS", c.Engine.MaxSteps)
	c.Engine.TurnTimeout = getEnvDuration("TURN_TIMEOUT", c.Engine.TurnTimeout)
	c.Engine.GateConcurrency = getEnvInt("GATE_CONCURRENCY", c.Engine.GateConcurrency)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}

	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, errors.New("DB_PATH cannot be empty for the sqlite driver"))
		}
	case "postgres":
		if c.DB.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL cannot be empty for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	switch c.Checkpoint.Backend {
	case "memory":
	case "postgres":
		if c.DB.Driver != "postgres" {
			errs = append(errs, errors.New("the postgres checkpoint backend requires DB_DRIVER=postgres"))
		}
	case "nats":
		if c.Checkpoint.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL cannot be empty for the nats checkpoint backend"))
		}
		if c.Checkpoint.Bucket == "" {
			errs = append(errs, errors.New("CHECKPOINT_BUCKET cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CHECKPOINT_BACKEND %q", c.Checkpoint.Backend))
	}
	if c.Checkpoint.TTL < 0 {
		errs = append(errs, errors.New("CHECKPOINT_TTL cannot be negative"))
	}

	if c.Engine.MaxSteps <= 0 {
		errs = append(errs, errors.New("MAX_STEPS must be > 0"))
	}
	if c.Engine.TurnTimeout < time.Second {
		errs = append(errs, errors.New("TURN_TIMEOUT must be at least 1s"))
	}
	if c.Engine.GateConcurrency <= 0 {
		errs = append(errs, errors.New("GATE_CONCURRENCY must be > 0"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
