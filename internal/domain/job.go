package domain

import "time"

// Priority — приоритет задачи в очереди, меньшее значение диспетчеризуется раньше
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 1
	PriorityLow    Priority = 2
)

// CompressionJob — задача транскодирования видео момента.
// Диспетчеризуется сразу, как только освобождается воркер.
type CompressionJob struct {
	ID         string // uuid
	MomentID   string
	StorageKey string
	Metadata   VideoMetadata
	Priority   Priority
	EnqueuedAt time.Time
}

func NewCompressionJob(id string, momentID string, storageKey string, metadata VideoMetadata) *CompressionJob {
	return &CompressionJob{
		ID:         id,
		MomentID:   momentID,
		StorageKey: storageKey,
		Metadata:   metadata,
		Priority:   PriorityHigh,
		EnqueuedAt: time.Now().UTC(),
	}
}

// EmbeddingJob — задача генерации эмбеддинга момента.
// Диспетчеризуется не раньше DispatchAt; DispatchAt выставляет очередь
// при планировании как ближайшее наступление настроенного времени суток.
type EmbeddingJob struct {
	ID          string // uuid
	MomentID    string
	StorageKey  string
	Description string
	Hashtags    []string
	Metadata    VideoMetadata
	Priority    Priority
	DispatchAt  time.Time
	EnqueuedAt  time.Time
}

func NewEmbeddingJob(id string, moment *Moment) *EmbeddingJob {
	return &EmbeddingJob{
		ID:          id,
		MomentID:    moment.ID,
		StorageKey:  moment.StorageKey,
		Description: moment.Description,
		Hashtags:    moment.Hashtags,
		Metadata:    moment.Metadata,
		Priority:    PriorityNormal,
		EnqueuedAt:  time.Now().UTC(),
	}
}
