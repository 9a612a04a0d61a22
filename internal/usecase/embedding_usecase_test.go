package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAudio struct {
	res *ExtractAudioRes
	err error
}

func (s *stubAudio) ExtractAudio(_ context.Context, _ *ExtractAudioReq) (*ExtractAudioRes, error) {
	return s.res, s.err
}

type stubFrames struct {
	batch *domain.FrameBatch
	err   error
}

func (s *stubFrames) ExtractFrames(_ context.Context, _ *ExtractFramesReq) (*ExtractFramesRes, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ExtractFramesRes{Batch: s.batch, ProcessingTimeMs: 5}, nil
}

type stubTranscriber struct {
	res *TranscribeRes
	err error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ *TranscribeReq) (*TranscribeRes, error) {
	return s.res, s.err
}

type stubVisual struct {
	res *VisualEmbedRes
	err error
}

func (s *stubVisual) EmbedFrames(_ context.Context, _ *VisualEmbedReq) (*VisualEmbedRes, error) {
	return s.res, s.err
}

type stubText struct {
	res     *TextEmbedRes
	err     error
	gotText string
}

func (s *stubText) EmbedText(_ context.Context, req *TextEmbedReq) (*TextEmbedRes, error) {
	s.gotText = req.Text
	return s.res, s.err
}

type stubLegacy struct {
	res     *LegacyEmbedRes
	err     error
	called  bool
	gotText string
}

func (s *stubLegacy) Embed(_ context.Context, req *LegacyEmbedReq) (*LegacyEmbedRes, error) {
	s.called = true
	s.gotText = req.Text
	return s.res, s.err
}

type stubMomentRepo struct {
	moment *domain.Moment
	err    error
}

func (s *stubMomentRepo) GetByID(_ context.Context, _ string) (*domain.Moment, error) {
	return s.moment, s.err
}

func (s *stubMomentRepo) Upsert(_ context.Context, _ *domain.Moment) error { return nil }

type stubMediaRepo struct {
	data   []byte
	err    error
	called bool
}

func (s *stubMediaRepo) Download(_ context.Context, _ string) ([]byte, error) {
	s.called = true
	return s.data, s.err
}

type stubStatusRepo struct {
	processing []domain.StepName
	completed  []domain.StepName
	failed     []domain.StepName
	reasons    []string
}

func (s *stubStatusRepo) AppendStep(_ context.Context, _ string, _ *domain.ProcessingStep) error {
	return nil
}

func (s *stubStatusRepo) MarkProcessing(_ context.Context, _ string, name domain.StepName, _ int) error {
	s.processing = append(s.processing, name)
	return nil
}

func (s *stubStatusRepo) CompleteStep(_ context.Context, _ string, name domain.StepName) error {
	s.completed = append(s.completed, name)
	return nil
}

func (s *stubStatusRepo) FailStep(_ context.Context, _ string, name domain.StepName, reason string) error {
	s.failed = append(s.failed, name)
	s.reasons = append(s.reasons, reason)
	return nil
}

func testEmbeddingCfg() *cfg.EmbeddingCfg {
	return &cfg.EmbeddingCfg{
		Weights:       cfg.WeightConfig{Text: 0.6, Visual: 0.3, Engagement: 0.1},
		TextDim:       4,
		VisualDim:     3,
		LegacyDim:     4,
		ModelVersion:  "multimodal-v2",
		LegacyVersion: "legacy-v1",
		Profile:       cfg.ProfileFull,
		DispatchTime:  "01:00",
	}
}

func testExtractionCfg() *cfg.ExtractionCfg {
	return &cfg.ExtractionCfg{
		AudioTimeout:         time.Second,
		TranscriptionTimeout: time.Second,
		VisualTimeout:        time.Second,
		TextTimeout:          time.Second,
		LegacyTimeout:        time.Second,
		MaxRetries:           1,
		SampleRate:           16000,
		Channels:             1,
		FramesFPS:            1,
		MaxFrames:            10,
	}
}

type fusionFixture struct {
	audio       *stubAudio
	frames      *stubFrames
	transcriber *stubTranscriber
	visual      *stubVisual
	text        *stubText
	legacy      *stubLegacy
	status      *stubStatusRepo
	uc          *EmbeddingUseCase
}

func newFusionFixture(embCfg *cfg.EmbeddingCfg) *fusionFixture {
	f := &fusionFixture{
		audio: &stubAudio{res: &ExtractAudioRes{
			Track:            &domain.AudioTrack{Data: []byte("pcm"), SampleRate: 16000, Channels: 1, Duration: 12},
			ProcessingTimeMs: 40,
		}},
		frames: &stubFrames{batch: domain.NewFrameBatch([]domain.Frame{
			{TimestampMs: 0, Data: []byte("f0"), MimeType: "image/jpeg"},
			{TimestampMs: 1000, Data: []byte("f1"), MimeType: "image/jpeg"},
		})},
		transcriber: &stubTranscriber{res: &TranscribeRes{
			Text: "hello from the video", Language: "en", Confidence: 0.9, ProcessingTimeMs: 120,
		}},
		visual: &stubVisual{res: &VisualEmbedRes{
			Vector: []float32{0.5, 0.5, 0.5}, FramesProcessed: 2, Confidence: 0.8, ProcessingTimeMs: 60,
		}},
		text: &stubText{res: &TextEmbedRes{
			Vector: []float32{0.1, 0.2, 0.3, 0.4}, TokenCount: 12, Confidence: 0.95, ProcessingTimeMs: 15,
		}},
		legacy: &stubLegacy{res: &LegacyEmbedRes{
			Vector: []float32{1, 2, 3, 4}, ProcessingTimeMs: 25,
		}},
		status: &stubStatusRepo{},
	}

	f.uc = NewEmbeddingUC(
		f.audio, f.frames, f.transcriber, f.visual, f.text, f.legacy,
		&stubMomentRepo{}, &stubMediaRepo{}, nil, nil, f.status, nil, nil,
		embCfg, testExtractionCfg(), logger.NewSlogLogger(),
	)

	return f
}

func fusionReq() *ContentEmbeddingReq {
	return NewContentEmbeddingReq(
		"6f1f7dcb-3f2e-4b5a-9c7d-2a8e4f6b1c3d",
		[]byte("video-bytes"),
		"sunset ride",
		[]string{"travel", "#bike"},
		domain.VideoMetadata{Width: 1080, Height: 1920, Duration: 12, Codec: "h264", HasAudio: true},
	)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestGenerateMomentEmbedding_AllModalitiesSurvive(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.Equal(t, 7, emb.Dimension)
	assert.Equal(t, "multimodal-v2", emb.ModelVersion)
	assert.InDelta(t, 1.0, vectorNorm(emb.Vector), 1e-5)

	require.NotNil(t, emb.Components.Text)
	require.NotNil(t, emb.Components.Visual)
	require.NotNil(t, emb.Components.Transcription)
	assert.Equal(t, 4, emb.Components.Text.Dimension)
	assert.Equal(t, 3, emb.Components.Visual.Dimension)

	// Транскрипт дошёл до текстовой модели вместе с описанием и хэштегами
	assert.Equal(t, "sunset ride hello from the video #travel #bike", f.text.gotText)
	assert.False(t, f.legacy.called)

	assert.True(t, f.frames.batch.Released())
}

func TestGenerateMomentEmbedding_NoAudioTrack(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())

	req := fusionReq()
	req.Metadata.HasAudio = false

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.NotNil(t, emb.Components.Text)
	assert.NotNil(t, emb.Components.Visual)
	assert.Nil(t, emb.Components.Transcription)

	// Текстовая модальность работает без транскрипта
	assert.Equal(t, "sunset ride #travel #bike", f.text.gotText)
}

func TestGenerateMomentEmbedding_TranscriptionFailureIsSoft(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())
	f.transcriber.res = nil
	f.transcriber.err = e.ErrExtractionTimeout

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.NotNil(t, emb.Components.Text)
	assert.Nil(t, emb.Components.Transcription)
	assert.Equal(t, "sunset ride #travel #bike", f.text.gotText)
}

func TestGenerateMomentEmbedding_VisualFailureSurvivesOnText(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())
	f.frames.err = e.ErrNoFramesExtracted
	f.frames.batch = nil

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.Equal(t, 4, emb.Dimension)
	assert.NotNil(t, emb.Components.Text)
	assert.Nil(t, emb.Components.Visual)
	assert.InDelta(t, 1.0, vectorNorm(emb.Vector), 1e-5)
}

func TestGenerateMomentEmbedding_FallbackWhenNothingSurvives(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())
	f.text.res = nil
	f.text.err = e.ErrExtractionTimeout
	f.frames.err = e.ErrNoFramesExtracted
	f.frames.batch = nil

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.True(t, emb.Fallback)
	assert.Equal(t, 4, emb.Dimension)
	assert.Equal(t, "legacy-v1", emb.ModelVersion)
	assert.Nil(t, emb.Components.Text)
	assert.Nil(t, emb.Components.Visual)
	assert.Nil(t, emb.Components.Transcription)
	assert.InDelta(t, 1.0, vectorNorm(emb.Vector), 1e-5)

	assert.True(t, f.legacy.called)
	// Fallback-вход не содержит транскрипта
	assert.Equal(t, "sunset ride #travel #bike", f.legacy.gotText)
}

func TestGenerateMomentEmbedding_FallbackFailureIsError(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())
	f.text.res = nil
	f.text.err = e.ErrExtractionTimeout
	f.frames.err = e.ErrNoFramesExtracted
	f.frames.batch = nil
	f.legacy.res = nil
	f.legacy.err = e.ErrExtractionTimeout

	_, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	assert.Error(t, err)
}

func TestGenerateMomentEmbedding_FramesReleasedOnVisualEmbedFailure(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())
	f.visual.res = nil
	f.visual.err = e.ErrExtractionTimeout

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.Nil(t, emb.Components.Visual)
	assert.True(t, f.frames.batch.Released())
}

func TestGenerateMomentEmbedding_MockProfileKeepsTextOnly(t *testing.T) {
	embCfg := testEmbeddingCfg()
	embCfg.Profile = cfg.ProfileMock

	f := newFusionFixture(embCfg)

	emb, err := f.uc.GenerateMomentEmbedding(context.Background(), fusionReq())
	require.NoError(t, err)

	assert.False(t, emb.Fallback)
	assert.Equal(t, 4, emb.Dimension)
	assert.NotNil(t, emb.Components.Text)
	assert.Nil(t, emb.Components.Visual)
	assert.Nil(t, emb.Components.Transcription)
}

func TestProcessEmbeddingJob_SkipsDeletedMoment(t *testing.T) {
	f := newFusionFixture(testEmbeddingCfg())

	momentRepo := &stubMomentRepo{err: e.ErrMomentNotFound}
	media := &stubMediaRepo{}
	uc := NewEmbeddingUC(
		f.audio, f.frames, f.transcriber, f.visual, f.text, f.legacy,
		momentRepo, media, nil, nil, f.status, nil, nil,
		testEmbeddingCfg(), testExtractionCfg(), logger.NewSlogLogger(),
	)

	job := domain.NewEmbeddingJob("job-1", &domain.Moment{ID: "m-1", StorageKey: "moments/m-1.mp4"})

	err := uc.ProcessEmbeddingJob(context.Background(), job)
	require.NoError(t, err)

	assert.False(t, media.called)
	assert.Empty(t, f.status.failed)
}

func TestComposeTextInput(t *testing.T) {
	tests := []struct {
		name        string
		description string
		transcript  string
		hashtags    []string
		want        string
	}{
		{
			name:        "all parts",
			description: "my trip",
			transcript:  "we are riding",
			hashtags:    []string{"travel", "#fun"},
			want:        "my trip we are riding #travel #fun",
		},
		{
			name:        "empty transcript",
			description: "my trip",
			hashtags:    []string{"travel"},
			want:        "my trip #travel",
		},
		{
			name:     "blank pieces skipped",
			hashtags: []string{"", "  ", "go"},
			want:     "#go",
		},
		{
			name: "everything empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, composeTextInput(tt.description, tt.transcript, tt.hashtags))
		})
	}
}
