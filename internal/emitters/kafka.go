package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wave-portal/internal/config"
	"wave-portal/internal/logger"
	"wave-portal/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the emitter uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes every history record to a Kafka topic, keyed by
// sender so one waver's records stay ordered within a partition.
type KafkaEmitter struct {
	writer messageWriter
	mu     sync.Mutex
}

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(cfg config.KafkaConfig) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.BrokerAddress),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (k *KafkaEmitter) EmitRecord(ctx context.Context, record models.Record) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter is closed")
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal wave: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.Sender),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logger.GetLogger().Debug().
		Str("sender", record.Sender).
		Time("timestamp", record.Timestamp).
		Msg("Successfully emitted wave to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
