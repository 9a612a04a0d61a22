package converter

import "time"

// MomentModel представляет запись таблицы moments в PostgreSQL.
type MomentModel struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Description string     `db:"description"`
	Hashtags    []string   `db:"hashtags"`
	StorageKey  string     `db:"storage_key"`
	Width       int        `db:"width"`
	Height      int        `db:"height"`
	Duration    float64    `db:"duration"`
	Codec       string     `db:"codec"`
	HasAudio    bool       `db:"has_audio"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// ProcessingStepModel представляет запись таблицы processing_steps в PostgreSQL.
type ProcessingStepModel struct {
	MomentID    string     `db:"moment_id"`
	Name        string     `db:"name"`
	Status      string     `db:"status"`
	Progress    int        `db:"progress"`
	Error       *string    `db:"error"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// EmbeddingMetaModel представляет запись таблицы moment_embeddings в PostgreSQL.
// Components сериализуется в JSONB колонку.
type EmbeddingMetaModel struct {
	MomentID     string    `db:"moment_id"`
	Dimension    int       `db:"dimension"`
	Fallback     bool      `db:"fallback"`
	Components   []byte    `db:"components"`
	ModelVersion string    `db:"model_version"`
	GeneratedAt  time.Time `db:"generated_at"`
}

// ComponentStatsModel — вклад одной модальности в JSONB представлении.
type ComponentStatsModel struct {
	Dimension        int     `json:"dimension"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// EmbeddingComponentsModel — статистика модальностей итогового вектора в JSONB представлении.
// Для fallback-вектора все поля отсутствуют.
type EmbeddingComponentsModel struct {
	Text          *ComponentStatsModel `json:"text,omitempty"`
	Visual        *ComponentStatsModel `json:"visual,omitempty"`
	Transcription *ComponentStatsModel `json:"transcription,omitempty"`
}
