package domain

import "time"

// VideoMetadata описывает технические характеристики видео момента
type VideoMetadata struct {
	Width    int
	Height   int
	Duration float64 // Длительность в секундах
	Codec    string
	HasAudio bool
}

// Moment описывает единицу короткого видеоконтента, принадлежащую пользователю
type Moment struct {
	ID          string // uuid
	UserID      string
	Description string
	Hashtags    []string
	StorageKey  string // ключ исходного видео в S3
	Metadata    VideoMetadata
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewMoment(id string, userID string, description string, hashtags []string, storageKey string, metadata VideoMetadata) *Moment {
	return &Moment{
		ID:          id,
		UserID:      userID,
		Description: description,
		Hashtags:    hashtags,
		StorageKey:  storageKey,
		Metadata:    metadata,
	}
}
