package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	EventTypeMomentCreated     = "moment.created"
	EventTypeMomentInteraction = "moment.interaction"
)

// envelope — общий конверт событий в топиках моментов.
type envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type momentCreatedPayload struct {
	MomentID    string        `json:"moment_id"`
	UserID      string        `json:"user_id"`
	StorageKey  string        `json:"storage_key"`
	Description string        `json:"description"`
	Hashtags    []string      `json:"hashtags"`
	Metadata    videoMetadata `json:"metadata"`
}

type videoMetadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
}

type momentInteractionPayload struct {
	MomentID string            `json:"moment_id"`
	Metrics  engagementMetrics `json:"metrics"`
	Duration float64           `json:"duration"`
}

type engagementMetrics struct {
	Views          int64   `json:"views"`
	UniqueViews    int64   `json:"unique_views"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Shares         int64   `json:"shares"`
	Saves          int64   `json:"saves"`
	AvgWatchTime   float64 `json:"avg_watch_time"`
	CompletionRate float64 `json:"completion_rate"`
	Reports        int64   `json:"reports"`
}

// Consumer читает события моментов из топика социального слоя
// и диспетчеризует их в usecase-слой. Нераспознанные и повреждённые
// события логируются и коммитятся, чтобы не блокировать партицию.
type Consumer struct {
	reader       *kafka.Reader
	momentUC     usecase.MomentUC
	engagementUC usecase.EngagementUC
	logger       logger.Logger
	wg           sync.WaitGroup
}

func NewConsumer(cfg *cfg.KafkaCfg, momentUC usecase.MomentUC, engagementUC usecase.EngagementUC, logger logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.MomentsTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // синхронный коммит после обработки
	})

	return &Consumer{
		reader:       reader,
		momentUC:     momentUC,
		engagementUC: engagementUC,
		logger:       logger,
	}
}

// Start запускает цикл чтения. Останавливается закрытием reader через Stop
// либо отменой контекста.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Stop закрывает reader и дожидается завершения цикла чтения.
func (c *Consumer) Stop() error {
	err := c.reader.Close()
	c.wg.Wait()
	return err
}

func (c *Consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, kafka.ErrGroupClosed) {
				return
			}
			c.logger.Warnf("kafka fetch failed: %v", err)
			continue
		}

		if err := c.dispatch(ctx, msg.Value); err != nil {
			c.logger.Errorf(err, "moment event processing failed, offset %d", msg.Offset)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warnf("kafka commit failed: %v", err)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, value []byte) error {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		c.logger.Warnf("skipping malformed moment event: %v", err)
		return nil
	}

	switch env.EventType {
	case EventTypeMomentCreated:
		return c.handleMomentCreated(ctx, env.Payload)
	case EventTypeMomentInteraction:
		return c.handleInteraction(ctx, env.Payload)
	default:
		c.logger.Debugf("ignoring event type %s", env.EventType)
		return nil
	}
}

func (c *Consumer) handleMomentCreated(ctx context.Context, payload json.RawMessage) error {
	var p momentCreatedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warnf("skipping malformed moment.created payload: %v", err)
		return nil
	}

	return c.momentUC.OnMomentCreated(ctx, usecase.NewMomentCreatedReq(
		p.MomentID,
		p.UserID,
		p.StorageKey,
		p.Description,
		p.Hashtags,
		domain.VideoMetadata{
			Width:    p.Metadata.Width,
			Height:   p.Metadata.Height,
			Duration: p.Metadata.Duration,
			Codec:    p.Metadata.Codec,
			HasAudio: p.Metadata.HasAudio,
		},
	))
}

func (c *Consumer) handleInteraction(ctx context.Context, payload json.RawMessage) error {
	var p momentInteractionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warnf("skipping malformed moment.interaction payload: %v", err)
		return nil
	}

	return c.engagementUC.ProcessInteraction(ctx, usecase.NewInteractionReq(
		p.MomentID,
		domain.EngagementMetrics{
			Views:          p.Metrics.Views,
			UniqueViews:    p.Metrics.UniqueViews,
			Likes:          p.Metrics.Likes,
			Comments:       p.Metrics.Comments,
			Shares:         p.Metrics.Shares,
			Saves:          p.Metrics.Saves,
			AvgWatchTime:   p.Metrics.AvgWatchTime,
			CompletionRate: p.Metrics.CompletionRate,
			Reports:        p.Metrics.Reports,
		},
		p.Duration,
	))
}
