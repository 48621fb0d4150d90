// Package kafka publishes messages to Kafka with a sarama sync producer.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/port/outbound"
)

// Config holds Kafka producer configuration.
type Config struct {
	Brokers         []string      `mapstructure:"brokers"`
	ClientID        string        `mapstructure:"client_id"`
	EscalationTopic string        `mapstructure:"escalation_topic"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// NewSaramaConfig builds the producer configuration.
func NewSaramaConfig(cfg *Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.ClientID = cfg.ClientID
	if saramaConfig.ClientID == "" {
		saramaConfig.ClientID = "reelforge"
	}
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	if cfg.MaxRetries > 0 {
		saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	}
	if cfg.Timeout > 0 {
		saramaConfig.Producer.Timeout = cfg.Timeout
	}
	return saramaConfig
}

// Producer implements MessagePort.
type Producer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
}

// NewProducer connects a sync producer to the configured brokers.
func NewProducer(cfg *Config, logger *zap.Logger) (*Producer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return NewProducerFrom(producer, logger), nil
}

// NewProducerFrom wraps an existing sync producer.
func NewProducerFrom(producer sarama.SyncProducer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{producer: producer, logger: logger.Named("kafka")}
}

// Publish sends one message and waits for the broker acknowledgement.
// The sync producer cannot be interrupted, so ctx is only checked up front.
func (p *Producer) Publish(ctx context.Context, topic, key string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(message),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.logger.Debug("message published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

// Compile-time interface check
var _ outbound.MessagePort = (*Producer)(nil)
