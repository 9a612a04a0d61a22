package domain

import "time"

// EngagementDimension — фиксированная размерность engagement-вектора
const EngagementDimension = 10

// EngagementMetrics — сырые счётчики взаимодействий момента.
// Счётчики принадлежат социальному слою, сюда попадают снимком на момент события.
type EngagementMetrics struct {
	Views          int64
	UniqueViews    int64
	Likes          int64
	Comments       int64
	Shares         int64
	Saves          int64
	AvgWatchTime   float64 // Суммарно-усреднённое время просмотра, секунды
	CompletionRate float64
	Reports        int64
}

// EngagementVector — производный вектор признаков вовлечённости момента.
// Всегда пересчитывается заново из актуальных счётчиков, никогда не патчится инкрементально.
type EngagementVector struct {
	MomentID     string
	Vector       []float32
	Features     map[string]float64
	Version      string
	Method       string
	CalculatedAt time.Time
}

func NewEngagementVector(momentID string, vector []float32, features map[string]float64, version string, method string) *EngagementVector {
	return &EngagementVector{
		MomentID:     momentID,
		Vector:       vector,
		Features:     features,
		Version:      version,
		Method:       method,
		CalculatedAt: time.Now().UTC(),
	}
}
