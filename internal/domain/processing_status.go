package domain

import "time"

// StepName — имя шага обработки момента
type StepName string

const (
	StepVideoProcessing     StepName = "video_processing"
	StepModeration          StepName = "moderation"
	StepUpload              StepName = "upload"
	StepVideoCompression    StepName = "video_compression"
	StepEmbeddingGeneration StepName = "embedding_generation"
)

// StepStatus — состояние шага обработки
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// ProcessingStep описывает один шаг обработки момента.
// Шаги только добавляются и никогда не переупорядочиваются;
// CompletedAt выставляется ровно один раз.
type ProcessingStep struct {
	Name        StepName
	Status      StepStatus
	Progress    int // Процент выполнения, 0-100
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func NewProcessingStep(name StepName, status StepStatus) *ProcessingStep {
	now := time.Now().UTC()
	step := &ProcessingStep{
		Name:   name,
		Status: status,
	}

	if status != StepPending {
		step.StartedAt = &now
	}

	return step
}
