package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrInvalidWeights      = fmt.Errorf("weights must be non-negative with a positive sum")
	ErrVectorWeightsLength = fmt.Errorf("vectors and weights length mismatch")
	ErrEmptyVector         = fmt.Errorf("vector is empty")
	ErrNoSurvivingModality = fmt.Errorf("no modality produced a vector")

	// Ошибки извлечения
	ErrNoAudioTrack      = fmt.Errorf("video has no audio track")
	ErrModalityDisabled  = fmt.Errorf("modality disabled by extraction profile")
	ErrNoFramesExtracted = fmt.Errorf("no frames extracted")
	ErrExtractionTimeout = fmt.Errorf("extraction timed out")

	// Ошибки расчёта engagement-вектора
	ErrNegativeMetrics = fmt.Errorf("engagement counters must be non-negative")

	// Ошибки очередей
	ErrQueueClosed     = fmt.Errorf("queue is closed")
	ErrInvalidDispatch = fmt.Errorf("invalid dispatch time, expected HH:MM")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")
	ErrWeightsSum           = fmt.Errorf("embedding weights must sum to 1")

	// Ошибки данных момента
	ErrMomentIDRequired   = fmt.Errorf("moment id is required")
	ErrStorageKeyRequired = fmt.Errorf("storage key is required")
	ErrMomentNotFound     = fmt.Errorf("moment not found")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
