package usecase

import "github.com/momenta-tech/go-backend/internal/domain"

// MOMENT USECASE

// MomentCreatedReq — событие создания момента от социального слоя.
type MomentCreatedReq struct {
	MomentID    string
	UserID      string
	StorageKey  string
	Description string
	Hashtags    []string
	Metadata    domain.VideoMetadata
}

// InteractionReq — событие взаимодействия со счётчиками на момент события.
type InteractionReq struct {
	MomentID string
	Metrics  domain.EngagementMetrics
	Duration float64 // Длительность видео, секунды
}

// EMBEDDING USECASE

// ContentEmbeddingReq — неизменяемый вход одного прогона слияния.
type ContentEmbeddingReq struct {
	MomentID    string
	Video       []byte
	Description string
	Hashtags    []string
	Metadata    domain.VideoMetadata
}

// INFRASTRUCTURE

// ExtractAudioReq — запрос извлечения аудиодорожки из видео.
type ExtractAudioReq struct {
	Video      []byte
	SampleRate int
	Channels   int
}

// ExtractAudioRes — результат извлечения аудиодорожки.
type ExtractAudioRes struct {
	Track            *domain.AudioTrack
	ProcessingTimeMs int64
}

// ExtractFramesReq — запрос сэмплирования кадров из видео.
type ExtractFramesReq struct {
	Video     []byte
	FPS       float64
	MaxFrames int
}

// ExtractFramesRes — результат сэмплирования кадров.
// Batch — транзиентный ресурс, обязан быть освобождён после использования.
type ExtractFramesRes struct {
	Batch            *domain.FrameBatch
	ProcessingTimeMs int64
}

// TranscribeReq — запрос транскрипции аудиодорожки.
type TranscribeReq struct {
	Audio      []byte
	SampleRate int
}

// TranscribeRes — результат транскрипции.
type TranscribeRes struct {
	Text             string
	Language         string
	Confidence       float64
	ProcessingTimeMs int64
}

// VisualEmbedReq — запрос визуального эмбеддинга по кадрам.
type VisualEmbedReq struct {
	Frames []domain.Frame
}

// VisualEmbedRes — результат визуального эмбеддинга
// (сервис усредняет покадровые векторы в один).
type VisualEmbedRes struct {
	Vector           []float32
	FramesProcessed  int
	Confidence       float64
	ProcessingTimeMs int64
}

// TextEmbedReq — запрос текстового эмбеддинга.
type TextEmbedReq struct {
	Text string
}

// TextEmbedRes — результат текстового эмбеддинга.
type TextEmbedRes struct {
	Vector           []float32
	TokenCount       int
	Confidence       float64
	ProcessingTimeMs int64
}

// LegacyEmbedReq — запрос fallback-эмбеддинга устаревшей одномодельной генерации.
type LegacyEmbedReq struct {
	Text string
}

// LegacyEmbedRes — результат fallback-эмбеддинга.
type LegacyEmbedRes struct {
	Vector           []float32
	ProcessingTimeMs int64
}

// CompressReq — запрос транскодирования видео момента.
type CompressReq struct {
	MomentID   string
	StorageKey string
	Metadata   domain.VideoMetadata
}

// CompressRes — результат транскодирования.
type CompressRes struct {
	OutputKeys       []string // Ключи транскодированных рендишенов в S3
	ProcessingTimeMs int64
}

// EmbeddingGeneratedEvent — событие успешной генерации эмбеддинга для downstream-подписчиков.
type EmbeddingGeneratedEvent struct {
	MomentID     string
	Dimension    int
	Fallback     bool
	ModelVersion string
}

// MAPPERS

func NewMomentCreatedReq(momentID, userID, storageKey, description string, hashtags []string, metadata domain.VideoMetadata) *MomentCreatedReq {
	return &MomentCreatedReq{
		MomentID:    momentID,
		UserID:      userID,
		StorageKey:  storageKey,
		Description: description,
		Hashtags:    hashtags,
		Metadata:    metadata,
	}
}

func NewInteractionReq(momentID string, metrics domain.EngagementMetrics, duration float64) *InteractionReq {
	return &InteractionReq{
		MomentID: momentID,
		Metrics:  metrics,
		Duration: duration,
	}
}

func NewContentEmbeddingReq(momentID string, video []byte, description string, hashtags []string, metadata domain.VideoMetadata) *ContentEmbeddingReq {
	return &ContentEmbeddingReq{
		MomentID:    momentID,
		Video:       video,
		Description: description,
		Hashtags:    hashtags,
		Metadata:    metadata,
	}
}

func NewEmbeddingGeneratedEvent(emb *domain.CombinedEmbedding) *EmbeddingGeneratedEvent {
	return &EmbeddingGeneratedEvent{
		MomentID:     emb.MomentID,
		Dimension:    emb.Dimension,
		Fallback:     emb.Fallback,
		ModelVersion: emb.ModelVersion,
	}
}
