package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// MomentUseCase обрабатывает жизненный цикл момента после создания:
// немедленная постановка транскодирования и отложенное планирование эмбеддинга.
type MomentUseCase struct {
	compressionQueue CompressionQueue
	embeddingQueue   EmbeddingQueue
	compressor       VideoCompressorInfra
	momentRepo       MomentRepository
	statusRepo       ProcessingStatusRepository
	embCfg           *cfg.EmbeddingCfg
	logger           logger.Logger
}

func NewMomentUC(
	compressionQueue CompressionQueue,
	embeddingQueue EmbeddingQueue,
	compressor VideoCompressorInfra,
	momentRepo MomentRepository,
	statusRepo ProcessingStatusRepository,
	embCfg *cfg.EmbeddingCfg,
	logger logger.Logger,
) *MomentUseCase {
	return &MomentUseCase{
		compressionQueue: compressionQueue,
		embeddingQueue:   embeddingQueue,
		compressor:       compressor,
		momentRepo:       momentRepo,
		statusRepo:       statusRepo,
		embCfg:           embCfg,
		logger:           logger,
	}
}

// OnMomentCreated ставит задачи обработки нового момента.
// Отказ постановки любой из задач логируется и не прерывает поток создания момента:
// шаг остаётся отсутствующим/ожидающим до ручной или отложенной сверки.
func (m *MomentUseCase) OnMomentCreated(ctx context.Context, req *MomentCreatedReq) error {
	const op = "MomentUseCase.OnMomentCreated"

	if err := m.validateMoment(req); err != nil {
		return e.Wrap(op, err)
	}

	// Событие может быть доставлено повторно, запись идемпотентна
	moment := domain.NewMoment(req.MomentID, req.UserID, req.Description, req.Hashtags, req.StorageKey, req.Metadata)
	if err := m.momentRepo.Upsert(ctx, moment); err != nil {
		return e.Wrap(op, err)
	}

	m.enqueueCompression(ctx, req)
	m.scheduleEmbedding(ctx, moment)

	return nil
}

// enqueueCompression ставит транскодирование с высоким приоритетом.
func (m *MomentUseCase) enqueueCompression(ctx context.Context, req *MomentCreatedReq) {
	const op = "MomentUseCase.enqueueCompression"

	job := domain.NewCompressionJob(uuid.NewString(), req.MomentID, req.StorageKey, req.Metadata)

	if err := m.compressionQueue.Enqueue(job); err != nil {
		m.logger.Warnf("Failed to enqueue compression for moment %s: %v", req.MomentID, e.Wrap(op, err))
		return
	}

	step := domain.NewProcessingStep(domain.StepVideoCompression, domain.StepPending)
	if err := m.statusRepo.AppendStep(ctx, req.MomentID, step); err != nil {
		m.logger.Warnf("Failed to persist compression step for moment %s: %v", req.MomentID, e.Wrap(op, err))
	}
}

// scheduleEmbedding планирует генерацию эмбеддинга на ближайшее наступление настроенного времени суток.
func (m *MomentUseCase) scheduleEmbedding(ctx context.Context, moment *domain.Moment) {
	const op = "MomentUseCase.scheduleEmbedding"

	job := domain.NewEmbeddingJob(uuid.NewString(), moment)

	dispatchAt, err := m.embeddingQueue.ScheduleFor(job, m.embCfg.DispatchTime)
	if err != nil {
		m.logger.Warnf("Failed to schedule embedding for moment %s: %v", moment.ID, e.Wrap(op, err))
		return
	}

	m.logger.Debugf("moment %s: embedding scheduled for %s", moment.ID, dispatchAt)

	step := domain.NewProcessingStep(domain.StepEmbeddingGeneration, domain.StepPending)
	if err := m.statusRepo.AppendStep(ctx, moment.ID, step); err != nil {
		m.logger.Warnf("Failed to persist embedding step for moment %s: %v", moment.ID, e.Wrap(op, err))
	}
}

// ProcessCompressionJob выполняется воркером очереди: вызывает внешний транскодер
// и переводит шаг video_compression в терминальное состояние.
func (m *MomentUseCase) ProcessCompressionJob(ctx context.Context, job *domain.CompressionJob) error {
	const op = "MomentUseCase.ProcessCompressionJob"

	if err := m.statusRepo.MarkProcessing(ctx, job.MomentID, domain.StepVideoCompression, 10); err != nil {
		m.logger.Warnf("Failed to mark compression step processing: %v", e.Wrap(op, err))
	}

	res, err := m.compressor.Compress(ctx, &CompressReq{
		MomentID:   job.MomentID,
		StorageKey: job.StorageKey,
		Metadata:   job.Metadata,
	})
	if err != nil {
		if stErr := m.statusRepo.FailStep(ctx, job.MomentID, domain.StepVideoCompression, err.Error()); stErr != nil {
			m.logger.Warnf("Failed to mark compression step error: %v", stErr)
		}
		return e.Wrap(op, err)
	}

	m.logger.Infof("moment %s: compression produced %d renditions in %dms", job.MomentID, len(res.OutputKeys), res.ProcessingTimeMs)

	if err := m.statusRepo.CompleteStep(ctx, job.MomentID, domain.StepVideoCompression); err != nil {
		m.logger.Warnf("Failed to complete compression step: %v", e.Wrap(op, err))
	}

	return nil
}

// validateMoment проверяет обязательные поля события создания момента.
func (m *MomentUseCase) validateMoment(req *MomentCreatedReq) error {
	if strings.TrimSpace(req.MomentID) == "" {
		return e.ErrMomentIDRequired
	}

	if strings.TrimSpace(req.StorageKey) == "" {
		return e.ErrStorageKeyRequired
	}

	return nil
}
