package extraction

import (
	"context"
	"errors"
	"net/http"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// AudioExtractor — клиент сервиса извлечения аудиодорожки из видео.
type AudioExtractor struct {
	client serviceClient
}

func NewAudioExtractor(baseURL string, maxRetries int, logger logger.Logger) *AudioExtractor {
	return &AudioExtractor{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type extractAudioBody struct {
	Video      []byte `json:"video_data"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type extractAudioResponse struct {
	Audio            []byte  `json:"audio_data"`
	SampleRate       int     `json:"sample_rate"`
	Channels         int     `json:"channels"`
	DurationSec      float64 `json:"duration_sec"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// ExtractAudio извлекает аудиодорожку заданного формата.
// Видео без аудиодорожки сервис отвергает статусом 422 — возвращается e.ErrNoAudioTrack.
func (a *AudioExtractor) ExtractAudio(ctx context.Context, req *usecase.ExtractAudioReq) (*usecase.ExtractAudioRes, error) {
	const op = "AudioExtractor.ExtractAudio"

	body := extractAudioBody{
		Video:      req.Video,
		SampleRate: req.SampleRate,
		Channels:   req.Channels,
	}

	var res extractAudioResponse
	if err := a.client.postJSON(ctx, "/v1/extract-audio", &body, &res); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Status == http.StatusUnprocessableEntity {
			return nil, e.ErrNoAudioTrack
		}
		return nil, e.Wrap(op, err)
	}

	return &usecase.ExtractAudioRes{
		Track: &domain.AudioTrack{
			Data:       res.Audio,
			SampleRate: res.SampleRate,
			Channels:   res.Channels,
			Duration:   res.DurationSec,
		},
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
