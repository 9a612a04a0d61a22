package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// VisualEmbedder — клиент сервиса визуальных эмбеддингов.
// Сервис усредняет покадровые векторы в один вектор фиксированной размерности.
type VisualEmbedder struct {
	client serviceClient
}

func NewVisualEmbedder(baseURL string, maxRetries int, logger logger.Logger) *VisualEmbedder {
	return &VisualEmbedder{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type visualEmbedBody struct {
	Frames []frameModel `json:"frames"`
}

type visualEmbedResponse struct {
	Vector           []float32 `json:"vector"`
	FramesProcessed  int       `json:"frames_processed"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// EmbedFrames получает усреднённый визуальный вектор по кадрам.
func (v *VisualEmbedder) EmbedFrames(ctx context.Context, req *usecase.VisualEmbedReq) (*usecase.VisualEmbedRes, error) {
	const op = "VisualEmbedder.EmbedFrames"

	frames := make([]frameModel, 0, len(req.Frames))
	for _, fr := range req.Frames {
		frames = append(frames, frameModel{
			TimestampMs: fr.TimestampMs,
			Data:        fr.Data,
			MimeType:    fr.MimeType,
		})
	}

	var res visualEmbedResponse
	if err := v.client.postJSON(ctx, "/v1/embed-frames", &visualEmbedBody{Frames: frames}, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.VisualEmbedRes{
		Vector:           res.Vector,
		FramesProcessed:  res.FramesProcessed,
		Confidence:       res.Confidence,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
