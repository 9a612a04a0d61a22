package usecase

import (
	"context"
	"testing"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbeddingRepo struct {
	upserted *domain.EngagementVector
	err      error
}

func (s *stubEmbeddingRepo) UpsertContent(_ context.Context, _ *domain.CombinedEmbedding) error {
	return s.err
}

func (s *stubEmbeddingRepo) UpsertEngagement(_ context.Context, vec *domain.EngagementVector) error {
	s.upserted = vec
	return s.err
}

type stubEngagementCache struct {
	set *domain.EngagementVector
	err error
}

func (s *stubEngagementCache) Set(_ context.Context, vec *domain.EngagementVector) error {
	s.set = vec
	return s.err
}

func (s *stubEngagementCache) Get(_ context.Context, _ string) (*domain.EngagementVector, error) {
	return s.set, nil
}

func newEngagementUC() (*EngagementUseCase, *stubEmbeddingRepo, *stubEngagementCache) {
	embRepo := &stubEmbeddingRepo{}
	cache := &stubEngagementCache{}
	return NewEngagementUC(embRepo, cache, logger.NewSlogLogger()), embRepo, cache
}

func TestCalculateVector_Rates(t *testing.T) {
	uc, _, _ := newEngagementUC()

	metrics := domain.EngagementMetrics{
		Views:          1000,
		UniqueViews:    800,
		Likes:          150,
		Comments:       50,
		Shares:         30,
		Saves:          20,
		AvgWatchTime:   25,
		CompletionRate: 0.75,
		Reports:        2,
	}

	vec, err := uc.CalculateVector("m-1", metrics, 30)
	require.NoError(t, err)

	assert.InDelta(t, 0.15, vec.Features["like_rate"], 1e-9)
	assert.InDelta(t, 0.05, vec.Features["comment_rate"], 1e-9)
	assert.InDelta(t, 0.03, vec.Features["share_rate"], 1e-9)
	assert.InDelta(t, 0.02, vec.Features["save_rate"], 1e-9)
	assert.InDelta(t, 0.002, vec.Features["report_rate"], 1e-9)
	assert.InDelta(t, 25.0/(1000*30), vec.Features["retention_rate"], 1e-9)
	assert.InDelta(t, 0.75, vec.Features["completion_rate"], 1e-9)
	assert.InDelta(t, 0.025, vec.Features["virality_score"], 1e-9)
	assert.InDelta(t, 1.25, vec.Features["views_per_unique"], 1e-9)
	assert.Greater(t, vec.Features["quality_score"], 0.0)

	assert.Len(t, vec.Vector, domain.EngagementDimension)
	assert.InDelta(t, 1.0, vectorNorm(vec.Vector), 1e-5)
	assert.Equal(t, "engagement-v1", vec.Version)
	assert.Equal(t, "rate_features_l2", vec.Method)
}

func TestCalculateVector_ZeroViews(t *testing.T) {
	uc, _, _ := newEngagementUC()

	vec, err := uc.CalculateVector("m-1", domain.EngagementMetrics{}, 30)
	require.NoError(t, err)

	for _, name := range []string{"like_rate", "comment_rate", "share_rate", "save_rate", "report_rate", "retention_rate"} {
		assert.Zerof(t, vec.Features[name], "feature %s", name)
	}

	// При нуле уникальных просмотров коэффициент повторных просмотров нейтрален
	assert.Equal(t, 1.0, vec.Features["views_per_unique"])
	assert.Len(t, vec.Vector, domain.EngagementDimension)
}

func TestCalculateVector_RetentionClamped(t *testing.T) {
	uc, _, _ := newEngagementUC()

	// Среднее время просмотра больше длительности: без клампа retention > 1
	metrics := domain.EngagementMetrics{Views: 1, AvgWatchTime: 90, CompletionRate: 2}

	vec, err := uc.CalculateVector("m-1", metrics, 30)
	require.NoError(t, err)

	assert.Equal(t, 1.0, vec.Features["retention_rate"])
	assert.Equal(t, 1.0, vec.Features["completion_rate"])
}

func TestCalculateVector_NegativeMetrics(t *testing.T) {
	uc, _, _ := newEngagementUC()

	tests := []struct {
		name    string
		metrics domain.EngagementMetrics
	}{
		{"negative likes", domain.EngagementMetrics{Views: 10, Likes: -1}},
		{"negative views", domain.EngagementMetrics{Views: -10}},
		{"negative watch time", domain.EngagementMetrics{Views: 10, AvgWatchTime: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CalculateVector("m-1", tt.metrics, 30)
			assert.ErrorIs(t, err, e.ErrNegativeMetrics)
		})
	}
}

func TestProcessInteraction_PersistsAndCaches(t *testing.T) {
	uc, embRepo, cache := newEngagementUC()

	req := NewInteractionReq("m-1", domain.EngagementMetrics{Views: 100, Likes: 10}, 15)

	err := uc.ProcessInteraction(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, embRepo.upserted)
	assert.Equal(t, "m-1", embRepo.upserted.MomentID)
	require.NotNil(t, cache.set)
	assert.Equal(t, embRepo.upserted, cache.set)
}

func TestProcessInteraction_CacheFailureIsSoft(t *testing.T) {
	embRepo := &stubEmbeddingRepo{}
	cache := &stubEngagementCache{err: assert.AnError}
	uc := NewEngagementUC(embRepo, cache, logger.NewSlogLogger())

	req := NewInteractionReq("m-1", domain.EngagementMetrics{Views: 100}, 15)

	assert.NoError(t, uc.ProcessInteraction(context.Background(), req))
	assert.NotNil(t, embRepo.upserted)
}

func TestProcessInteraction_UpsertFailure(t *testing.T) {
	embRepo := &stubEmbeddingRepo{err: assert.AnError}
	uc := NewEngagementUC(embRepo, &stubEngagementCache{}, logger.NewSlogLogger())

	req := NewInteractionReq("m-1", domain.EngagementMetrics{Views: 100}, 15)

	assert.Error(t, uc.ProcessInteraction(context.Background(), req))
}
