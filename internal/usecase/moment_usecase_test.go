package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompressionQueue struct {
	jobs []*domain.CompressionJob
	err  error
}

func (s *stubCompressionQueue) Enqueue(job *domain.CompressionJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

type stubEmbeddingQueue struct {
	jobs []*domain.EmbeddingJob
	err  error
}

func (s *stubEmbeddingQueue) ScheduleFor(job *domain.EmbeddingJob, _ string) (time.Time, error) {
	if s.err != nil {
		return time.Time{}, s.err
	}
	s.jobs = append(s.jobs, job)
	return time.Now().Add(time.Hour), nil
}

type stubCompressor struct {
	res *CompressRes
	err error
}

func (s *stubCompressor) Compress(_ context.Context, _ *CompressReq) (*CompressRes, error) {
	return s.res, s.err
}

type recordingMomentRepo struct {
	upserted []*domain.Moment
	err      error
}

func (r *recordingMomentRepo) GetByID(_ context.Context, _ string) (*domain.Moment, error) {
	return nil, e.ErrMomentNotFound
}

func (r *recordingMomentRepo) Upsert(_ context.Context, moment *domain.Moment) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, moment)
	return nil
}

type momentFixture struct {
	compressionQ *stubCompressionQueue
	embeddingQ   *stubEmbeddingQueue
	compressor   *stubCompressor
	momentRepo   *recordingMomentRepo
	status       *stubStatusRepo
	uc           *MomentUseCase
}

func newMomentFixture() *momentFixture {
	f := &momentFixture{
		compressionQ: &stubCompressionQueue{},
		embeddingQ:   &stubEmbeddingQueue{},
		compressor:   &stubCompressor{res: &CompressRes{OutputKeys: []string{"moments/m-1/720p.mp4"}, ProcessingTimeMs: 900}},
		momentRepo:   &recordingMomentRepo{},
		status:       &stubStatusRepo{},
	}

	f.uc = NewMomentUC(
		f.compressionQ, f.embeddingQ, f.compressor, f.momentRepo, f.status,
		testEmbeddingCfg(), logger.NewSlogLogger(),
	)

	return f
}

func momentCreated() *MomentCreatedReq {
	return NewMomentCreatedReq(
		"6f1f7dcb-3f2e-4b5a-9c7d-2a8e4f6b1c3d",
		"user-1",
		"moments/m-1/source.mp4",
		"sunset ride",
		[]string{"travel"},
		domain.VideoMetadata{Width: 1080, Height: 1920, Duration: 12, Codec: "h264", HasAudio: true},
	)
}

func TestOnMomentCreated_EnqueuesBothJobs(t *testing.T) {
	f := newMomentFixture()

	err := f.uc.OnMomentCreated(context.Background(), momentCreated())
	require.NoError(t, err)

	require.Len(t, f.momentRepo.upserted, 1)
	assert.Equal(t, "6f1f7dcb-3f2e-4b5a-9c7d-2a8e4f6b1c3d", f.momentRepo.upserted[0].ID)

	require.Len(t, f.compressionQ.jobs, 1)
	assert.Equal(t, domain.PriorityHigh, f.compressionQ.jobs[0].Priority)
	assert.Equal(t, "moments/m-1/source.mp4", f.compressionQ.jobs[0].StorageKey)

	require.Len(t, f.embeddingQ.jobs, 1)
	assert.Equal(t, "sunset ride", f.embeddingQ.jobs[0].Description)
}

func TestOnMomentCreated_Validation(t *testing.T) {
	f := newMomentFixture()

	noID := momentCreated()
	noID.MomentID = "  "
	assert.ErrorIs(t, f.uc.OnMomentCreated(context.Background(), noID), e.ErrMomentIDRequired)

	noKey := momentCreated()
	noKey.StorageKey = ""
	assert.ErrorIs(t, f.uc.OnMomentCreated(context.Background(), noKey), e.ErrStorageKeyRequired)

	assert.Empty(t, f.momentRepo.upserted)
	assert.Empty(t, f.compressionQ.jobs)
}

func TestOnMomentCreated_QueueFailuresAreSoft(t *testing.T) {
	f := newMomentFixture()
	f.compressionQ.err = assert.AnError
	f.embeddingQ.err = e.ErrQueueClosed

	err := f.uc.OnMomentCreated(context.Background(), momentCreated())
	assert.NoError(t, err)
	assert.Len(t, f.momentRepo.upserted, 1)
}

func TestOnMomentCreated_UpsertFailure(t *testing.T) {
	f := newMomentFixture()
	f.momentRepo.err = assert.AnError

	err := f.uc.OnMomentCreated(context.Background(), momentCreated())
	assert.Error(t, err)
	assert.Empty(t, f.compressionQ.jobs)
	assert.Empty(t, f.embeddingQ.jobs)
}

func TestProcessCompressionJob_CompletesStep(t *testing.T) {
	f := newMomentFixture()

	job := domain.NewCompressionJob("job-1", "m-1", "moments/m-1/source.mp4", domain.VideoMetadata{Duration: 12})

	err := f.uc.ProcessCompressionJob(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, []domain.StepName{domain.StepVideoCompression}, f.status.processing)
	assert.Equal(t, []domain.StepName{domain.StepVideoCompression}, f.status.completed)
	assert.Empty(t, f.status.failed)
}

func TestProcessCompressionJob_FailureMarksStep(t *testing.T) {
	f := newMomentFixture()
	f.compressor.res = nil
	f.compressor.err = e.ErrExtractionTimeout

	job := domain.NewCompressionJob("job-1", "m-1", "moments/m-1/source.mp4", domain.VideoMetadata{Duration: 12})

	err := f.uc.ProcessCompressionJob(context.Background(), job)
	assert.Error(t, err)

	require.Len(t, f.status.failed, 1)
	assert.Equal(t, domain.StepVideoCompression, f.status.failed[0])
	assert.NotEmpty(t, f.status.reasons[0])
}
