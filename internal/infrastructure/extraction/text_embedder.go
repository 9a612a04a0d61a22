package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// TextEmbedder — клиент сервиса текстовых эмбеддингов.
type TextEmbedder struct {
	client serviceClient
}

func NewTextEmbedder(baseURL string, maxRetries int, logger logger.Logger) *TextEmbedder {
	return &TextEmbedder{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type textEmbedBody struct {
	Text string `json:"text"`
}

type textEmbedResponse struct {
	Vector           []float32 `json:"vector"`
	TokenCount       int       `json:"token_count"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// EmbedText получает текстовый вектор по склеенному входу модели.
func (t *TextEmbedder) EmbedText(ctx context.Context, req *usecase.TextEmbedReq) (*usecase.TextEmbedRes, error) {
	const op = "TextEmbedder.EmbedText"

	var res textEmbedResponse
	if err := t.client.postJSON(ctx, "/v1/embed-text", &textEmbedBody{Text: req.Text}, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.TextEmbedRes{
		Vector:           res.Vector,
		TokenCount:       res.TokenCount,
		Confidence:       res.Confidence,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
