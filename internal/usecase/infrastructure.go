package usecase

import (
	"context"
	"time"

	"github.com/momenta-tech/go-backend/internal/domain"
)

// Extraction-сервисы — чёрные ящики с документированными контрактами.
// Детали декодирования и инференса скрыты за этими интерфейсами.

type AudioExtractorInfra interface {
	ExtractAudio(ctx context.Context, req *ExtractAudioReq) (*ExtractAudioRes, error)
}

type FrameExtractorInfra interface {
	ExtractFrames(ctx context.Context, req *ExtractFramesReq) (*ExtractFramesRes, error)
}

type TranscriberInfra interface {
	Transcribe(ctx context.Context, req *TranscribeReq) (*TranscribeRes, error)
}

type VisualEmbedderInfra interface {
	EmbedFrames(ctx context.Context, req *VisualEmbedReq) (*VisualEmbedRes, error)
}

type TextEmbedderInfra interface {
	EmbedText(ctx context.Context, req *TextEmbedReq) (*TextEmbedRes, error)
}

type LegacyEmbedderInfra interface {
	Embed(ctx context.Context, req *LegacyEmbedReq) (*LegacyEmbedRes, error)
}

type VideoCompressorInfra interface {
	Compress(ctx context.Context, req *CompressReq) (*CompressRes, error)
}

// CompressionQueue — очередь немедленной диспетчеризации с приоритетами.
type CompressionQueue interface {
	Enqueue(job *domain.CompressionJob) error
}

// EmbeddingQueue — очередь с диспетчеризацией по настенным часам.
// ScheduleFor возвращает вычисленный момент диспетчеризации.
type EmbeddingQueue interface {
	ScheduleFor(job *domain.EmbeddingJob, at string) (time.Time, error)
}

// EventProducer публикует события ядра для downstream-подписчиков.
type EventProducer interface {
	EmbeddingGenerated(ctx context.Context, event *EmbeddingGeneratedEvent) error
}
