package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// ComponentStats описывает вклад одной модальности в итоговый вектор
type ComponentStats struct {
	Dimension        int
	Confidence       float64
	ProcessingTimeMs int64
}

// EmbeddingComponents содержит статистику по модальностям, попавшим в итоговый вектор.
// Для fallback-вектора все поля равны nil.
type EmbeddingComponents struct {
	Text          *ComponentStats
	Visual        *ComponentStats
	Transcription *ComponentStats
}

// CombinedEmbedding представляет итоговый вектор момента после слияния модальностей
// либо fallback-вектор устаревшей одномодельной генерации.
type CombinedEmbedding struct {
	MomentID     string
	Vector       []float32
	Dimension    int
	Fallback     bool
	Components   EmbeddingComponents
	ModelVersion string
	GeneratedAt  time.Time
}

func NewCombinedEmbedding(momentID string, vector []float32, fallback bool, components EmbeddingComponents, modelVersion string) *CombinedEmbedding {
	return &CombinedEmbedding{
		MomentID:     momentID,
		Vector:       vector,
		Dimension:    len(vector),
		Fallback:     fallback,
		Components:   components,
		ModelVersion: modelVersion,
		GeneratedAt:  time.Now().UTC(),
	}
}

// NewEmbeddingPayload собирает payload для точки в Qdrant
func NewEmbeddingPayload(momentID string, fallback bool, modelVersion string) Payload {
	return Payload{
		"moment_id":     momentID,
		"fallback":      fallback,
		"created_at":    time.Now().UTC().UnixNano(),
		"model_version": modelVersion,
	}
}
