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

func compressionJob(id string, priority domain.Priority) *domain.CompressionJob {
	job := domain.NewCompressionJob(id, "moment-"+id, "moments/"+id+".mp4", domain.VideoMetadata{})
	job.Priority = priority
	return job
}

func TestCompressionQueue_PriorityOrder(t *testing.T) {
	q := NewCompressionQueue(16, logger.NewSlogLogger())

	require.NoError(t, q.Enqueue(compressionJob("a", domain.PriorityNormal)))
	require.NoError(t, q.Enqueue(compressionJob("b", domain.PriorityHigh)))
	require.NoError(t, q.Enqueue(compressionJob("c", domain.PriorityNormal)))
	require.NoError(t, q.Enqueue(compressionJob("d", domain.PriorityHigh)))

	processed := make(chan string, 4)
	q.Start(context.Background(), 1, func(_ context.Context, job *domain.CompressionJob) error {
		processed <- job.ID
		return nil
	})

	var order []string
	for i := 0; i < 4; i++ {
		select {
		case id := <-processed:
			order = append(order, id)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	q.Stop()

	// HIGH раньше NORMAL, FIFO внутри приоритета
	assert.Equal(t, []string{"b", "d", "a", "c"}, order)
}

func TestCompressionQueue_EnqueueAfterStop(t *testing.T) {
	q := NewCompressionQueue(16, logger.NewSlogLogger())
	q.Stop()

	err := q.Enqueue(compressionJob("a", domain.PriorityHigh))
	assert.ErrorIs(t, err, e.ErrQueueClosed)
}

func TestCompressionQueue_CapacityLimit(t *testing.T) {
	q := NewCompressionQueue(1, logger.NewSlogLogger())

	require.NoError(t, q.Enqueue(compressionJob("a", domain.PriorityHigh)))
	assert.Error(t, q.Enqueue(compressionJob("b", domain.PriorityHigh)))
	assert.Equal(t, 1, q.Len())
}

func TestCompressionQueue_FailedJobDoesNotStopWorker(t *testing.T) {
	q := NewCompressionQueue(16, logger.NewSlogLogger())

	require.NoError(t, q.Enqueue(compressionJob("bad", domain.PriorityHigh)))
	require.NoError(t, q.Enqueue(compressionJob("good", domain.PriorityNormal)))

	processed := make(chan string, 2)
	q.Start(context.Background(), 1, func(_ context.Context, job *domain.CompressionJob) error {
		processed <- job.ID
		if job.ID == "bad" {
			return assert.AnError
		}
		return nil
	})

	var order []string
	for i := 0; i < 2; i++ {
		select {
		case id := <-processed:
			order = append(order, id)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	q.Stop()

	assert.Equal(t, []string{"bad", "good"}, order)
}
