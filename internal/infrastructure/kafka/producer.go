package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// EventTypeEmbeddingGenerated — тип события успешной генерации эмбеддинга
const EventTypeEmbeddingGenerated = "embedding.generated"

// embeddingGeneratedPayload — JSON-представление события embedding.generated.
type embeddingGeneratedPayload struct {
	MomentID     string `json:"moment_id"`
	Dimension    int    `json:"dimension"`
	Fallback     bool   `json:"fallback"`
	ModelVersion string `json:"model_version"`
}

// Producer публикует события ядра в топик эмбеддингов.
// Ключ сообщения — moment_id, чтобы события одного момента шли в одну партицию.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.EmbeddingTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// EmbeddingGenerated публикует событие embedding.generated.
func (p *Producer) EmbeddingGenerated(ctx context.Context, event *usecase.EmbeddingGeneratedEvent) error {
	payload, err := json.Marshal(embeddingGeneratedPayload{
		MomentID:     event.MomentID,
		Dimension:    event.Dimension,
		Fallback:     event.Fallback,
		ModelVersion: event.ModelVersion,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	value, err := json.Marshal(envelope{
		EventID:    uuid.NewString(),
		EventType:  EventTypeEmbeddingGenerated,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.MomentID),
		Value: value,
	})
}

// EnsureTopic создаёт топик эмбеддингов, если его ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	const (
		numPartitions     = 3
		replicationFactor = 1
	)

	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.EmbeddingTopic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.EmbeddingTopic,
			NumPartitions:     numPartitions,
			ReplicationFactor: replicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.EmbeddingTopic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.EmbeddingTopic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
