package queue

import (
	"context"
	"testing"
	"time"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingJob(id string) *domain.EmbeddingJob {
	return domain.NewEmbeddingJob(id, &domain.Moment{
		ID:         "moment-" + id,
		StorageKey: "moments/" + id + ".mp4",
	})
}

func TestEmbeddingScheduler_ScheduleFor(t *testing.T) {
	s := NewEmbeddingScheduler(logger.NewSlogLogger())
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	}

	job := embeddingJob("a")
	dispatchAt, err := s.ScheduleFor(job, "01:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 11, 1, 0, 0, 0, time.UTC), dispatchAt)
	assert.Equal(t, dispatchAt, job.DispatchAt)
	assert.Equal(t, 1, s.Len())
}

func TestEmbeddingScheduler_InvalidDispatchTime(t *testing.T) {
	s := NewEmbeddingScheduler(logger.NewSlogLogger())

	_, err := s.ScheduleFor(embeddingJob("a"), "1:00pm")
	assert.ErrorIs(t, err, e.ErrInvalidDispatch)
	assert.Equal(t, 0, s.Len())
}

func TestEmbeddingScheduler_ScheduleAfterStop(t *testing.T) {
	s := NewEmbeddingScheduler(logger.NewSlogLogger())
	s.Stop()

	_, err := s.ScheduleFor(embeddingJob("a"), "01:00")
	assert.ErrorIs(t, err, e.ErrQueueClosed)
}

func TestEmbeddingScheduler_DispatchNotBeforeDue(t *testing.T) {
	s := NewEmbeddingScheduler(logger.NewSlogLogger())

	// Часы, идущие в реальном темпе от точки за 200мс до срока диспетчеризации
	start := time.Now()
	anchor := time.Date(2025, 6, 10, 14, 29, 59, int(800*time.Millisecond), time.UTC)
	s.now = func() time.Time {
		return anchor.Add(time.Since(start))
	}

	job := embeddingJob("a")
	dispatchAt, err := s.ScheduleFor(job, "14:30")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), dispatchAt)

	dispatched := make(chan time.Time, 1)
	s.Start(context.Background(), 1, func(_ context.Context, got *domain.EmbeddingJob) error {
		assert.Equal(t, job.ID, got.ID)
		dispatched <- time.Now()
		return nil
	})

	select {
	case at := <-dispatched:
		assert.GreaterOrEqual(t, at.Sub(start), 200*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dispatched")
	}
	s.Stop()
}

func TestEmbeddingScheduler_FutureJobStaysPending(t *testing.T) {
	s := NewEmbeddingScheduler(logger.NewSlogLogger())
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	}

	_, err := s.ScheduleFor(embeddingJob("a"), "23:00")
	require.NoError(t, err)

	dispatched := make(chan struct{}, 1)
	s.Start(context.Background(), 1, func(_ context.Context, _ *domain.EmbeddingJob) error {
		dispatched <- struct{}{}
		return nil
	})

	select {
	case <-dispatched:
		t.Fatal("job dispatched before its due time")
	case <-time.After(150 * time.Millisecond):
	}

	assert.Equal(t, 1, s.Len())
	s.Stop()
}
