package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// LegacyEmbedder — клиент устаревшей одномодельной генерации.
// Используется только как деградация, когда ни одна модальность не выжила.
type LegacyEmbedder struct {
	client serviceClient
}

func NewLegacyEmbedder(baseURL string, maxRetries int, logger logger.Logger) *LegacyEmbedder {
	return &LegacyEmbedder{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type legacyEmbedBody struct {
	Text string `json:"text"`
}

type legacyEmbedResponse struct {
	Vector           []float32 `json:"vector"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

func (l *LegacyEmbedder) Embed(ctx context.Context, req *usecase.LegacyEmbedReq) (*usecase.LegacyEmbedRes, error) {
	const op = "LegacyEmbedder.Embed"

	var res legacyEmbedResponse
	if err := l.client.postJSON(ctx, "/v1/embed", &legacyEmbedBody{Text: req.Text}, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.LegacyEmbedRes{
		Vector:           res.Vector,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
