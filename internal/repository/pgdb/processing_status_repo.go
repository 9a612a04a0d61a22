package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/repository/pgdb/converter"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/tr"
)

// executor — общий срез pgx.Tx и pgxpool.Pool, достаточный для запросов репозитория.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProcessingStatusRepo хранит шаги обработки моментов в PostgreSQL.
// Методы работают и внутри внешней транзакции, и без неё.
type ProcessingStatusRepo struct {
	pool *pgxpool.Pool
	conv converter.ProcessingStepConverter
}

func NewProcessingStatusRepo(pool *pgxpool.Pool, conv converter.ProcessingStepConverter) *ProcessingStatusRepo {
	return &ProcessingStatusRepo{
		pool: pool,
		conv: conv,
	}
}

// AppendStep добавляет шаг обработки момента. Повторное добавление того же
// шага идемпотентно и не сбрасывает достигнутый прогресс.
func (p *ProcessingStatusRepo) AppendStep(ctx context.Context, momentID string, step *domain.ProcessingStep) error {
	model := p.conv.ToModel(momentID, step)

	query := `
		INSERT INTO processing_steps (moment_id, name, status, progress, error, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (moment_id, name) DO NOTHING;
	`

	_, err := p.executor(ctx).Exec(ctx, query,
		model.MomentID, model.Name, model.Status, model.Progress, model.Error, model.StartedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// MarkProcessing переводит шаг в состояние processing с указанным прогрессом.
// Шаг создаётся, если его ещё нет: диспетчеризация могла опередить запись шага.
func (p *ProcessingStatusRepo) MarkProcessing(ctx context.Context, momentID string, name domain.StepName, progress int) error {
	query := `
		INSERT INTO processing_steps (moment_id, name, status, progress, started_at)
		VALUES ($1, $2, 'processing', $3, NOW())
		ON CONFLICT (moment_id, name)
		DO UPDATE SET
			status = 'processing',
			progress = EXCLUDED.progress,
			started_at = COALESCE(processing_steps.started_at, NOW());
	`

	_, err := p.executor(ctx).Exec(ctx, query, momentID, string(name), progress)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// CompleteStep переводит шаг в состояние completed.
// completed_at выставляется ровно один раз и дальше не меняется.
func (p *ProcessingStatusRepo) CompleteStep(ctx context.Context, momentID string, name domain.StepName) error {
	query := `
		UPDATE processing_steps
		SET status = 'completed', progress = 100, error = NULL,
			completed_at = NOW()
		WHERE moment_id = $1 AND name = $2 AND completed_at IS NULL;
	`

	_, err := p.executor(ctx).Exec(ctx, query, momentID, string(name))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FailStep переводит шаг в состояние error с причиной.
// Уже завершённый шаг не перезаписывается.
func (p *ProcessingStatusRepo) FailStep(ctx context.Context, momentID string, name domain.StepName, reason string) error {
	query := `
		UPDATE processing_steps
		SET status = 'error', error = $3, completed_at = NOW()
		WHERE moment_id = $1 AND name = $2 AND completed_at IS NULL;
	`

	_, err := p.executor(ctx).Exec(ctx, query, momentID, string(name), reason)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// executor возвращает транзакцию из контекста, если она там есть, иначе пул.
func (p *ProcessingStatusRepo) executor(ctx context.Context) executor {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}

	return p.pool
}
