package extraction

import (
	"context"

	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// Transcriber — клиент speech-to-text сервиса.
type Transcriber struct {
	client serviceClient
}

func NewTranscriber(baseURL string, maxRetries int, logger logger.Logger) *Transcriber {
	return &Transcriber{
		client: newServiceClient(baseURL, maxRetries, logger),
	}
}

type transcribeBody struct {
	Audio      []byte `json:"audio_data"`
	SampleRate int    `json:"sample_rate"`
}

type transcribeResponse struct {
	Text             string  `json:"text"`
	Language         string  `json:"language"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// Transcribe транскрибирует аудиодорожку. Пустой текст — валидный результат
// (видео без речи), решение об использовании принимает вызывающий.
func (t *Transcriber) Transcribe(ctx context.Context, req *usecase.TranscribeReq) (*usecase.TranscribeRes, error) {
	const op = "Transcriber.Transcribe"

	body := transcribeBody{
		Audio:      req.Audio,
		SampleRate: req.SampleRate,
	}

	var res transcribeResponse
	if err := t.client.postJSON(ctx, "/v1/transcribe", &body, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.TranscribeRes{
		Text:             res.Text,
		Language:         res.Language,
		Confidence:       res.Confidence,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}
