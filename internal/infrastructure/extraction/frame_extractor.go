package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// FrameExtractor — клиент сервиса сэмплирования кадров из видео.
type FrameExtractor struct {
	client serviceClient
}

func NewFrameExtractor(baseURL string, maxRetries int, logger logger.Logger) *FrameExtractor {
	return &FrameExtractor{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type extractFramesBody struct {
	Video     []byte  `json:"video_data"`
	FPS       float64 `json:"fps"`
	MaxFrames int     `json:"max_frames"`
}

type frameModel struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Data        []byte `json:"data"`
	MimeType    string `json:"mime_type"`
}

type extractFramesResponse struct {
	Frames           []frameModel `json:"frames"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
}

// ExtractFrames сэмплирует кадры с частотой req.FPS, но не более req.MaxFrames.
// Владение возвращённым батчем переходит вызывающему.
func (f *FrameExtractor) ExtractFrames(ctx context.Context, req *usecase.ExtractFramesReq) (*usecase.ExtractFramesRes, error) {
	const op = "FrameExtractor.ExtractFrames"

	body := extractFramesBody{
		Video:     req.Video,
		FPS:       req.FPS,
		MaxFrames: req.MaxFrames,
	}

	var res extractFramesResponse
	if err := f.client.postJSON(ctx, "/v1/extract-frames", &body, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	frames := make([]domain.Frame, 0, len(res.Frames))
	for _, fr := range res.Frames {
		frames = append(frames, domain.Frame{
			TimestampMs: fr.TimestampMs,
			Data:        fr.Data,
			MimeType:    fr.MimeType,
		})
	}

	return &usecase.ExtractFramesRes{
		Batch:            domain.NewFrameBatch(frames),
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
