package main

import (
	"github.com/go-kratos/kratos/v2/log"

	"atlashub/cmd/atlas-service/internal/biz"
	"atlashub/cmd/atlas-service/internal/data"
	"atlashub/cmd/atlas-service/internal/domain"
	"atlashub/cmd/atlas-service/internal/infra"
)

// provideDBConfig extracts the database config.
func provideDBConfig(c *Config) *data.DBConfig {
	return &c.Data.Database
}

// provideSessionStore builds the store with the configured TTL.
func provideSessionStore(c *Config, logger log.Logger) *biz.SessionStore {
	return biz.NewSessionStore(c.Session.TTL(), logger)
}

// provideProviders builds the failover chain in the fixed order
// OpenAI, Groq, Gemini, skipping endpoints without an API key.
func provideProviders(c *Config, logger log.Logger) []domain.Provider {
	var providers []domain.Provider
	if p := c.Providers.OpenAI; p.Enabled() {
		providers = append(providers, infra.NewOpenAIProvider("openai", p.BaseURL, p.APIKey, p.Model, logger))
	}
	if p := c.Providers.Groq; p.Enabled() {
		providers = append(providers, infra.NewOpenAIProvider("groq", p.BaseURL, p.APIKey, p.Model, logger))
	}
	if p := c.Providers.Gemini; p.Enabled() {
		providers = append(providers, infra.NewGeminiProvider("gemini", p.BaseURL, p.APIKey, p.Model, logger))
	}
	return providers
}

// provideTurnProducer builds the Kafka producer, or nil when no
// brokers are configured.
func provideTurnProducer(c *Config, logger log.Logger) (*infra.TurnProducer, error) {
	return infra.NewTurnProducer(&infra.KafkaConfig{
		Brokers: c.Kafka.Brokers,
		Topic:   c.Kafka.Topic,
	}, logger)
}

// provideTurnEventSink adapts the concrete producer to the usecase
// interface, keeping a nil producer a nil sink.
func provideTurnEventSink(p *infra.TurnProducer) biz.TurnEventSink {
	if p == nil {
		return nil
	}
	return p
}
