package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// VideoCompressor — клиент сервиса транскодирования видео.
// Сервис читает исходник из S3 по ключу и пишет рендишены туда же.
type VideoCompressor struct {
	client serviceClient
}

func NewVideoCompressor(baseURL string, maxRetries int, logger logger.Logger) *VideoCompressor {
	return &VideoCompressor{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type compressBody struct {
	MomentID   string        `json:"moment_id"`
	StorageKey string        `json:"storage_key"`
	Metadata   videoMetadata `json:"metadata"`
}

type videoMetadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
}

type compressResponse struct {
	OutputKeys       []string `json:"output_keys"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

func (v *VideoCompressor) Compress(ctx context.Context, req *usecase.CompressReq) (*usecase.CompressRes, error) {
	const op = "VideoCompressor.Compress"

	body := compressBody{
		MomentID:   req.MomentID,
		StorageKey: req.StorageKey,
		Metadata:   newVideoMetadata(req.Metadata),
	}

	var res compressResponse
	if err := v.client.postJSON(ctx, "/v1/compress", &body, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.CompressRes{
		OutputKeys:       res.OutputKeys,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}

func newVideoMetadata(m domain.VideoMetadata) videoMetadata {
	return videoMetadata{
		Width:    m.Width,
		Height:   m.Height,
		Duration: m.Duration,
		Codec:    m.Codec,
		HasAudio: m.HasAudio,
	}
}
