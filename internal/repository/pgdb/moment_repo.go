package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/repository/pgdb/converter"
	"github.com/momenta-tech/go-backend/pkg/e"
)

// MomentRepo реализует репозиторий моментов поверх PostgreSQL.
type MomentRepo struct {
	pool *pgxpool.Pool
	conv converter.MomentConverter
}

func NewMomentRepo(pool *pgxpool.Pool, conv converter.MomentConverter) *MomentRepo {
	return &MomentRepo{
		pool: pool,
		conv: conv,
	}
}

// GetByID возвращает момент по идентификатору.
// Возвращает e.ErrMomentNotFound, если момент не существует или был удалён.
func (m *MomentRepo) GetByID(ctx context.Context, id string) (*domain.Moment, error) {
	query := `
		SELECT
			id, user_id, description, hashtags, storage_key,
			width, height, duration, codec, has_audio,
			created_at, updated_at
		FROM moments
		WHERE id = $1 AND deleted_at IS NULL;
	`

	var model converter.MomentModel
	err := m.pool.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.UserID, &model.Description, &model.Hashtags, &model.StorageKey,
		&model.Width, &model.Height, &model.Duration, &model.Codec, &model.HasAudio,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrMomentNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return m.conv.ToEntity(&model), nil
}

// Upsert идемпотентно сохраняет момент. Используется при приёме события
// moment.created, которое может быть доставлено повторно.
func (m *MomentRepo) Upsert(ctx context.Context, moment *domain.Moment) error {
	model := m.conv.ToModel(moment)

	query := `
		INSERT INTO moments (
			id, user_id, description, hashtags, storage_key,
			width, height, duration, codec, has_audio
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			description = EXCLUDED.description,
			hashtags = EXCLUDED.hashtags,
			updated_at = NOW();
	`

	_, err := m.pool.Exec(ctx, query,
		model.ID, model.UserID, model.Description, model.Hashtags, model.StorageKey,
		model.Width, model.Height, model.Duration, model.Codec, model.HasAudio,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
