package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-kratos/kratos/v2/log"

	"atlashub/cmd/atlas-service/internal/biz"
)

// DefaultTurnTopic receives one event per completed chat exchange.
const DefaultTurnTopic = "atlas.chat.turns"

// KafkaConfig configures the turn-event producer. Empty brokers mean
// no producer; the chat path runs without analytics.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TurnProducer publishes turn events to Kafka. Publishing is
// best-effort: failures are logged and dropped, never surfaced to the
// chat path.
type TurnProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *log.Helper
}

// NewTurnProducer creates the producer, or nil when no brokers are
// configured.
func NewTurnProducer(config *KafkaConfig, logger log.Logger) (*TurnProducer, error) {
	helper := log.NewHelper(log.With(logger, "module", "turn-producer"))
	if config == nil || len(config.Brokers) == 0 {
		helper.Warn("no kafka brokers configured, turn events disabled")
		return nil, nil
	}

	topic := config.Topic
	if topic == "" {
		topic = DefaultTurnTopic
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	kafkaConfig.Producer.Compression = sarama.CompressionSnappy
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Version = sarama.V3_6_0_0

	producer, err := sarama.NewSyncProducer(config.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &TurnProducer{
		producer: producer,
		topic:    topic,
		log:      helper,
	}, nil
}

// PublishTurn sends one event keyed by session id so a session's turns
// stay ordered within a partition.
func (p *TurnProducer) PublishTurn(ctx context.Context, ev biz.TurnEvent) {
	if p == nil {
		return
	}

	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("failed to marshal turn event: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(ev.SessionID),
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.log.Errorf("failed to publish turn event: %v", err)
	}
}

// Close flushes and shuts the underlying producer down.
func (p *TurnProducer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
