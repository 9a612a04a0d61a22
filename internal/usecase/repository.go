package usecase

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/domain"
)

type MomentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Moment, error)
	Upsert(ctx context.Context, moment *domain.Moment) error
}

// ProcessingStatusRepository управляет шагами обработки момента.
// Шаги только добавляются; запись мутируется одним писателем за переход.
type ProcessingStatusRepository interface {
	AppendStep(ctx context.Context, momentID string, step *domain.ProcessingStep) error
	MarkProcessing(ctx context.Context, momentID string, name domain.StepName, progress int) error
	CompleteStep(ctx context.Context, momentID string, name domain.StepName) error
	FailStep(ctx context.Context, momentID string, name domain.StepName, reason string) error
}

// EmbeddingRepository сохраняет векторы моментов в векторное хранилище.
type EmbeddingRepository interface {
	UpsertContent(ctx context.Context, emb *domain.CombinedEmbedding) error
	UpsertEngagement(ctx context.Context, vec *domain.EngagementVector) error
}

// EmbeddingMetaRepository сохраняет метаданные сгенерированного эмбеддинга в PostgreSQL.
type EmbeddingMetaRepository interface {
	Insert(ctx context.Context, emb *domain.CombinedEmbedding) error
}

// EngagementCacheRepository кэширует актуальный engagement-вектор момента.
type EngagementCacheRepository interface {
	Set(ctx context.Context, vec *domain.EngagementVector) error
	Get(ctx context.Context, momentID string) (*domain.EngagementVector, error)
}

// MediaRepository отдаёт исходные байты видео из объектного хранилища.
type MediaRepository interface {
	Download(ctx context.Context, key string) ([]byte, error)
}
