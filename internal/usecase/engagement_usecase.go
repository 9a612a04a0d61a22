package usecase

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/momenta-tech/go-backend/pkg/vectormath"
)

const (
	engagementVersion = "engagement-v1"
	engagementMethod  = "rate_features_l2"
)

// EngagementUseCase рассчитывает engagement-вектор момента из сырых счётчиков.
// Вектор всегда пересчитывается заново, инкрементальных обновлений нет.
type EngagementUseCase struct {
	embRepo   EmbeddingRepository
	cacheRepo EngagementCacheRepository
	logger    logger.Logger
}

func NewEngagementUC(embRepo EmbeddingRepository, cacheRepo EngagementCacheRepository, logger logger.Logger) *EngagementUseCase {
	return &EngagementUseCase{
		embRepo:   embRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// CalculateVector — чистая функция счётчиков и длительности.
// Возвращает 10-мерный L2-нормированный вектор признаков с именованными ставками
// либо структурную ошибку; паники через публичную границу не проходят.
func (u *EngagementUseCase) CalculateVector(momentID string, metrics domain.EngagementMetrics, duration float64) (*domain.EngagementVector, error) {
	const op = "EngagementUseCase.CalculateVector"

	if err := validateMetrics(metrics); err != nil {
		return nil, e.Wrap(op, err)
	}

	views := float64(metrics.Views)

	likeRate := safeRate(float64(metrics.Likes), views)
	commentRate := safeRate(float64(metrics.Comments), views)
	shareRate := safeRate(float64(metrics.Shares), views)
	saveRate := safeRate(float64(metrics.Saves), views)
	reportRate := safeRate(float64(metrics.Reports), views)

	// retentionRate ограничивается [0,1]: при высоком среднем времени просмотра
	// формула avgWatchTime / (views*duration) может превысить 1
	retentionRate := 0.0
	if metrics.Views > 0 && duration > 0 {
		retentionRate = clamp01(metrics.AvgWatchTime / (views * duration))
	}

	completionRate := clamp01(metrics.CompletionRate)

	viralityScore := (shareRate + saveRate) / 2

	qualityScore := retentionRate + completionRate - 2*reportRate
	if qualityScore < 0 {
		qualityScore = 0
	}

	viewsPerUnique := 1.0
	if metrics.UniqueViews > 0 {
		viewsPerUnique = views / float64(metrics.UniqueViews)
	}

	vector := vectormath.NormalizeL2([]float32{
		float32(likeRate),
		float32(commentRate),
		float32(shareRate),
		float32(saveRate),
		float32(retentionRate),
		float32(completionRate),
		float32(reportRate),
		float32(viralityScore),
		float32(qualityScore),
		float32(viewsPerUnique),
	})

	features := map[string]float64{
		"like_rate":        likeRate,
		"comment_rate":     commentRate,
		"share_rate":       shareRate,
		"save_rate":        saveRate,
		"retention_rate":   retentionRate,
		"completion_rate":  completionRate,
		"report_rate":      reportRate,
		"virality_score":   viralityScore,
		"quality_score":    qualityScore,
		"views_per_unique": viewsPerUnique,
	}

	return domain.NewEngagementVector(momentID, vector, features, engagementVersion, engagementMethod), nil
}

// ProcessInteraction пересчитывает engagement-вектор по событию взаимодействия
// и сохраняет его в кэш и векторное хранилище. Расчёт не зависит от расписания эмбеддингов.
func (u *EngagementUseCase) ProcessInteraction(ctx context.Context, req *InteractionReq) error {
	const op = "EngagementUseCase.ProcessInteraction"

	vec, err := u.CalculateVector(req.MomentID, req.Metrics, req.Duration)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := u.embRepo.UpsertEngagement(ctx, vec); err != nil {
		return e.Wrap(op, err)
	}

	// Кэш — best effort: его отказ не откатывает сохранённый вектор
	if err := u.cacheRepo.Set(ctx, vec); err != nil {
		u.logger.Warnf("Failed to cache engagement vector for moment %s: %v", req.MomentID, err)
	}

	return nil
}

// validateMetrics отклоняет отрицательные счётчики.
func validateMetrics(m domain.EngagementMetrics) error {
	counters := []int64{m.Views, m.UniqueViews, m.Likes, m.Comments, m.Shares, m.Saves, m.Reports}
	for _, c := range counters {
		if c < 0 {
			return e.ErrNegativeMetrics
		}
	}

	if m.AvgWatchTime < 0 {
		return e.ErrNegativeMetrics
	}

	return nil
}

// safeRate возвращает num/den либо 0 при нулевом знаменателе.
func safeRate(num, den float64) float64 {
	if den == 0 {
		return 0
	}

	return num / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}
