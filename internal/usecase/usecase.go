package usecase

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/domain"
)

// MomentUC — обработка жизненного цикла момента: постановка задач
// транскодирования и генерации эмбеддинга, реакция на события взаимодействий.
type MomentUC interface {
	OnMomentCreated(ctx context.Context, req *MomentCreatedReq) error
	ProcessCompressionJob(ctx context.Context, job *domain.CompressionJob) error
}

// EmbeddingUC — генерация мультимодального эмбеддинга момента
type EmbeddingUC interface {
	GenerateMomentEmbedding(ctx context.Context, req *ContentEmbeddingReq) (*domain.CombinedEmbedding, error)
	ProcessEmbeddingJob(ctx context.Context, job *domain.EmbeddingJob) error
}

// EngagementUC — расчёт engagement-вектора момента
type EngagementUC interface {
	CalculateVector(momentID string, metrics domain.EngagementMetrics, duration float64) (*domain.EngagementVector, error)
	ProcessInteraction(ctx context.Context, req *InteractionReq) error
}
