package qdrant

import (
	"context"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingRepo сохраняет векторы моментов в Qdrant.
// Fused-векторы и fallback-векторы живут в разных коллекциях,
// так как их размерности различаются.
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// UpsertContent сохраняет итоговый вектор момента.
// Коллекция выбирается по признаку fallback. ID точки — moment_id,
// поэтому повторная генерация заменяет предыдущий вектор.
func (q *EmbeddingRepo) UpsertContent(ctx context.Context, emb *domain.CombinedEmbedding) error {
	collection := q.cfg.ContentCollection
	if emb.Fallback {
		collection = q.cfg.FallbackCollection
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(emb.MomentID),
		Vectors: qdrant.NewVectors(emb.Vector...),
		Payload: qdrant.NewValueMap(domain.NewEmbeddingPayload(emb.MomentID, emb.Fallback, emb.ModelVersion)),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// UpsertEngagement сохраняет engagement-вектор момента, замещая предыдущий.
func (q *EmbeddingRepo) UpsertEngagement(ctx context.Context, vec *domain.EngagementVector) error {
	payload := domain.Payload{
		"moment_id":  vec.MomentID,
		"version":    vec.Version,
		"method":     vec.Method,
		"created_at": time.Now().UTC().UnixNano(),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(vec.MomentID),
		Vectors: qdrant.NewVectors(vec.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.EngagementCollection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
