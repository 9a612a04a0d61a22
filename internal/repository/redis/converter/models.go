package converter

import "time"

// EngagementRedisModel — JSON-представление engagement-вектора в кэше.
type EngagementRedisModel struct {
	MomentID     string             `json:"moment_id"`
	Vector       []float32          `json:"vector"`
	Features     map[string]float64 `json:"features"`
	Version      string             `json:"version"`
	Method       string             `json:"method"`
	CalculatedAt time.Time          `json:"calculated_at"`
}
