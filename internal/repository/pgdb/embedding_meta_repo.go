package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/repository/pgdb/converter"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/tr"
)

// EmbeddingMetaRepo хранит метаданные сгенерированных эмбеддингов в PostgreSQL.
type EmbeddingMetaRepo struct {
	pool *pgxpool.Pool
	conv converter.EmbeddingMetaConverter
}

func NewEmbeddingMetaRepo(pool *pgxpool.Pool, conv converter.EmbeddingMetaConverter) *EmbeddingMetaRepo {
	return &EmbeddingMetaRepo{
		pool: pool,
		conv: conv,
	}
}

// Insert сохраняет метаданные эмбеддинга. Вызывается только внутри транзакции
// сохранения результата; повторная генерация замещает предыдущую запись.
func (r *EmbeddingMetaRepo) Insert(ctx context.Context, emb *domain.CombinedEmbedding) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	model := r.conv.ToModel(emb)

	query := `
		INSERT INTO moment_embeddings (moment_id, dimension, fallback, components, model_version, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (moment_id)
		DO UPDATE SET
			dimension = EXCLUDED.dimension,
			fallback = EXCLUDED.fallback,
			components = EXCLUDED.components,
			model_version = EXCLUDED.model_version,
			generated_at = EXCLUDED.generated_at;
	`

	_, err = tx.Exec(ctx, query,
		model.MomentID, model.Dimension, model.Fallback, model.Components, model.ModelVersion, model.GeneratedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
