package main

import (
	"time"

	"atlashub/cmd/atlas-service/internal/data"
	"atlashub/pkg/config"
)

// Config is the application config. Every field can be overridden by
// an ATLAS_-prefixed environment variable.
type Config struct {
	Server    ServerConf    `mapstructure:"server"`
	Data      DataConf      `mapstructure:"data"`
	Session   SessionConf   `mapstructure:"session"`
	Providers ProvidersConf `mapstructure:"providers"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	Tracing   TracingConf   `mapstructure:"tracing"`
}

type ServerConf struct {
	HTTP HTTPConf `mapstructure:"http"`
}

type HTTPConf struct {
	Addr string `mapstructure:"addr"`
}

type DataConf struct {
	Database data.DBConfig `mapstructure:"database"`
}

type SessionConf struct {
	TTLSeconds   int `mapstructure:"ttl_seconds"`
	SweepSeconds int `mapstructure:"sweep_seconds"`
}

// TTL returns the configured idle TTL.
func (c SessionConf) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepEvery returns the sweep interval.
func (c SessionConf) SweepEvery() time.Duration {
	if c.SweepSeconds <= 0 {
		return 0
	}
	return time.Duration(c.SweepSeconds) * time.Second
}

// ProviderConf configures one language-model endpoint. A provider is
// enabled when its API key is set.
type ProviderConf struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

func (c ProviderConf) Enabled() bool {
	return c.APIKey != ""
}

// ProvidersConf lists the endpoints in failover order: OpenAI, Groq,
// Gemini.
type ProvidersConf struct {
	OpenAI ProviderConf `mapstructure:"openai"`
	Groq   ProviderConf `mapstructure:"groq"`
	Gemini ProviderConf `mapstructure:"gemini"`
}

type KafkaConf struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// TracingConf configures OTLP trace export. Tracing is enabled when a
// collector endpoint is set.
type TracingConf struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Env        string  `mapstructure:"env"`
}

func (c TracingConf) Enabled() bool {
	return c.Endpoint != ""
}

// loadConfig reads the YAML file and applies env overrides and
// defaults.
func loadConfig(path string) (*Config, error) {
	manager := config.NewManager()
	if err := manager.LoadConfig(path); err != nil {
		return nil, err
	}

	var c Config
	if err := manager.Unmarshal(&c); err != nil {
		return nil, err
	}

	applyDefaults(&c)
	applyEnvOverrides(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Server.HTTP.Addr == "" {
		c.Server.HTTP.Addr = ":8080"
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = 1800
	}
	if c.Session.SweepSeconds == 0 {
		c.Session.SweepSeconds = 300
	}
	if c.Providers.OpenAI.BaseURL == "" {
		c.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Providers.Groq.BaseURL == "" {
		c.Providers.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Providers.Groq.Model == "" {
		c.Providers.Groq.Model = "llama-3.1-70b-versatile"
	}
	if c.Providers.Gemini.Model == "" {
		c.Providers.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Tracing.Env == "" {
		c.Tracing.Env = "development"
	}
}

// applyEnvOverrides covers the secrets that are conventionally passed
// as plain env vars rather than through the config file.
func applyEnvOverrides(c *Config) {
	c.Data.Database.DSN = config.GetEnv("DATABASE_URL", c.Data.Database.DSN)
	c.Providers.OpenAI.APIKey = config.GetEnv("OPENAI_API_KEY", c.Providers.OpenAI.APIKey)
	c.Providers.Groq.APIKey = config.GetEnv("GROQ_API_KEY", c.Providers.Groq.APIKey)
	c.Providers.Gemini.APIKey = config.GetEnv("GEMINI_API_KEY", c.Providers.Gemini.APIKey)
	c.Kafka.Brokers = config.GetEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Tracing.Endpoint = config.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
}
