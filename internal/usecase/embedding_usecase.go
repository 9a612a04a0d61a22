package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/momenta-tech/go-backend/pkg/vectormath"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
)

// EmbeddingUseCase реализует генерацию мультимодального эмбеддинга момента:
// конкурентное извлечение модальностей, слияние выживших векторов
// и деградацию к устаревшей одномодельной генерации.
type EmbeddingUseCase struct {
	audio       AudioExtractorInfra
	frames      FrameExtractorInfra
	transcriber TranscriberInfra
	visual      VisualEmbedderInfra
	text        TextEmbedderInfra
	legacy      LegacyEmbedderInfra
	momentRepo  MomentRepository
	mediaRepo   MediaRepository
	embRepo     EmbeddingRepository
	metaRepo    EmbeddingMetaRepository
	statusRepo  ProcessingStatusRepository
	producer    EventProducer
	dbPool      transaction.Transactional
	embCfg      *cfg.EmbeddingCfg
	extCfg      *cfg.ExtractionCfg
	logger      logger.Logger
}

func NewEmbeddingUC(
	audio AudioExtractorInfra,
	frames FrameExtractorInfra,
	transcriber TranscriberInfra,
	visual VisualEmbedderInfra,
	text TextEmbedderInfra,
	legacy LegacyEmbedderInfra,
	momentRepo MomentRepository,
	mediaRepo MediaRepository,
	embRepo EmbeddingRepository,
	metaRepo EmbeddingMetaRepository,
	statusRepo ProcessingStatusRepository,
	producer EventProducer,
	dbPool transaction.Transactional,
	embCfg *cfg.EmbeddingCfg,
	extCfg *cfg.ExtractionCfg,
	logger logger.Logger,
) *EmbeddingUseCase {
	return &EmbeddingUseCase{
		audio:       audio,
		frames:      frames,
		transcriber: transcriber,
		visual:      visual,
		text:        text,
		legacy:      legacy,
		momentRepo:  momentRepo,
		mediaRepo:   mediaRepo,
		embRepo:     embRepo,
		metaRepo:    metaRepo,
		statusRepo:  statusRepo,
		producer:    producer,
		dbPool:      dbPool,
		embCfg:      embCfg,
		extCfg:      extCfg,
		logger:      logger,
	}
}

// vecOutcome — результат одной векторной модальности.
// Ровно одно из полей действительно: либо vector со статистикой, либо err.
type vecOutcome struct {
	vector []float32
	stats  domain.ComponentStats
	err    error
}

// transcriptOutcome — результат цепочки аудио → транскрипция.
type transcriptOutcome struct {
	text  string
	stats domain.ComponentStats
	err   error
}

// GenerateMomentEmbedding выполняет один прогон слияния для момента.
// Извлечения выполняются конкурентно с независимыми таймаутами; отказ одной
// модальности не отменяет остальные. Если ни текстовая, ни визуальная модальность
// не выжила, возвращается fallback-вектор устаревшей модели — это не ошибка вызова.
func (u *EmbeddingUseCase) GenerateMomentEmbedding(ctx context.Context, req *ContentEmbeddingReq) (*domain.CombinedEmbedding, error) {
	const op = "EmbeddingUseCase.GenerateMomentEmbedding"

	var (
		trOut     transcriptOutcome
		visualOut vecOutcome
		textOut   vecOutcome
	)

	transcriptCh := make(chan transcriptOutcome, 1)
	framesCh := make(chan *domain.FrameBatch, 1)

	// Кадры — транзиентный ресурс прогона, освобождаются на любом пути выхода
	defer func() {
		select {
		case batch := <-framesCh:
			if batch != nil {
				batch.Release()
			}
		default:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(3)

	// Аудио → транскрипция. Транскрипт опционален: его отсутствие не прерывает прогон.
	go func() {
		defer wg.Done()
		trOut = u.transcribeBranch(ctx, req)
		transcriptCh <- trOut
	}()

	// Кадры → визуальный эмбеддинг
	go func() {
		defer wg.Done()
		visualOut = u.visualBranch(ctx, req, framesCh)
	}()

	// Текстовый эмбеддинг: дожидается транскрипта (или его отказа) и работает с тем, что есть
	go func() {
		defer wg.Done()
		tr := <-transcriptCh
		textOut = u.textBranch(ctx, req, tr.text)
	}()

	wg.Wait()

	// Решение: без единого выжившего вектора — деградация к устаревшей модели
	if textOut.err != nil && visualOut.err != nil {
		u.logger.Warnf("moment %s: no modality survived (text: %v, visual: %v), falling back", req.MomentID, textOut.err, visualOut.err)
		return u.fallbackEmbedding(ctx, req)
	}

	vectors := make([][]float32, 0, 2)
	weights := make([]float64, 0, 2)
	components := domain.EmbeddingComponents{}

	if textOut.err == nil {
		vectors = append(vectors, textOut.vector)
		weights = append(weights, u.embCfg.Weights.Text)
		components.Text = &textOut.stats
		if trOut.err == nil {
			components.Transcription = &trOut.stats
		}
	}

	if visualOut.err == nil {
		vectors = append(vectors, visualOut.vector)
		weights = append(weights, u.embCfg.Weights.Visual)
		components.Visual = &visualOut.stats
	}

	// Веса перенормируются по подмножеству выживших модальностей
	combined, err := vectormath.CombineVectors(vectors, weights)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	final := vectormath.NormalizeL2(combined)

	return domain.NewCombinedEmbedding(req.MomentID, final, false, components, u.embCfg.ModelVersion), nil
}

// transcribeBranch извлекает аудиодорожку и транскрибирует её.
func (u *EmbeddingUseCase) transcribeBranch(ctx context.Context, req *ContentEmbeddingReq) transcriptOutcome {
	if !u.embCfg.AudioEnabled() {
		return transcriptOutcome{err: e.ErrModalityDisabled}
	}

	if !req.Metadata.HasAudio {
		return transcriptOutcome{err: e.ErrNoAudioTrack}
	}

	audioCtx, cancel := context.WithTimeout(ctx, u.extCfg.AudioTimeout)
	defer cancel()

	audioRes, err := u.audio.ExtractAudio(audioCtx, &ExtractAudioReq{
		Video:      req.Video,
		SampleRate: u.extCfg.SampleRate,
		Channels:   u.extCfg.Channels,
	})
	if err != nil {
		u.logger.Warnf("moment %s: audio extraction failed: %v", req.MomentID, err)
		return transcriptOutcome{err: err}
	}

	trCtx, cancel := context.WithTimeout(ctx, u.extCfg.TranscriptionTimeout)
	defer cancel()

	trRes, err := u.transcriber.Transcribe(trCtx, &TranscribeReq{
		Audio:      audioRes.Track.Data,
		SampleRate: audioRes.Track.SampleRate,
	})
	if err != nil {
		u.logger.Warnf("moment %s: transcription failed: %v", req.MomentID, err)
		return transcriptOutcome{err: err}
	}

	return transcriptOutcome{
		text: trRes.Text,
		stats: domain.ComponentStats{
			Confidence:       trRes.Confidence,
			ProcessingTimeMs: audioRes.ProcessingTimeMs + trRes.ProcessingTimeMs,
		},
	}
}

// visualBranch сэмплирует кадры и получает усреднённый визуальный вектор.
// Владение батчем кадров передаётся через framesCh вызывающему для освобождения.
func (u *EmbeddingUseCase) visualBranch(ctx context.Context, req *ContentEmbeddingReq, framesCh chan<- *domain.FrameBatch) vecOutcome {
	if !u.embCfg.VisualEnabled() {
		return vecOutcome{err: e.ErrModalityDisabled}
	}

	framesCtx, cancel := context.WithTimeout(ctx, u.extCfg.VisualTimeout)
	defer cancel()

	framesRes, err := u.frames.ExtractFrames(framesCtx, &ExtractFramesReq{
		Video:     req.Video,
		FPS:       u.extCfg.FramesFPS,
		MaxFrames: u.extCfg.MaxFrames,
	})
	if err != nil {
		u.logger.Warnf("moment %s: frame extraction failed: %v", req.MomentID, err)
		return vecOutcome{err: err}
	}

	framesCh <- framesRes.Batch

	if framesRes.Batch.Len() == 0 {
		return vecOutcome{err: e.ErrNoFramesExtracted}
	}

	embedCtx, cancel := context.WithTimeout(ctx, u.extCfg.VisualTimeout)
	defer cancel()

	embedRes, err := u.visual.EmbedFrames(embedCtx, &VisualEmbedReq{Frames: framesRes.Batch.Frames()})
	if err != nil {
		u.logger.Warnf("moment %s: visual embedding failed: %v", req.MomentID, err)
		return vecOutcome{err: err}
	}

	return vecOutcome{
		vector: embedRes.Vector,
		stats: domain.ComponentStats{
			Dimension:        len(embedRes.Vector),
			Confidence:       embedRes.Confidence,
			ProcessingTimeMs: framesRes.ProcessingTimeMs + embedRes.ProcessingTimeMs,
		},
	}
}

// textBranch получает текстовый эмбеддинг по описанию, транскрипту и хэштегам.
func (u *EmbeddingUseCase) textBranch(ctx context.Context, req *ContentEmbeddingReq, transcript string) vecOutcome {
	textCtx, cancel := context.WithTimeout(ctx, u.extCfg.TextTimeout)
	defer cancel()

	res, err := u.text.EmbedText(textCtx, &TextEmbedReq{
		Text: composeTextInput(req.Description, transcript, req.Hashtags),
	})
	if err != nil {
		u.logger.Warnf("moment %s: text embedding failed: %v", req.MomentID, err)
		return vecOutcome{err: err}
	}

	return vecOutcome{
		vector: res.Vector,
		stats: domain.ComponentStats{
			Dimension:        len(res.Vector),
			Confidence:       res.Confidence,
			ProcessingTimeMs: res.ProcessingTimeMs,
		},
	}
}

// fallbackEmbedding запрашивает вектор устаревшей одномодельной генерации
// по описанию и хэштегам. Метаданные модальностей не заполняются.
func (u *EmbeddingUseCase) fallbackEmbedding(ctx context.Context, req *ContentEmbeddingReq) (*domain.CombinedEmbedding, error) {
	const op = "EmbeddingUseCase.fallbackEmbedding"

	legacyCtx, cancel := context.WithTimeout(ctx, u.extCfg.LegacyTimeout)
	defer cancel()

	res, err := u.legacy.Embed(legacyCtx, &LegacyEmbedReq{
		Text: composeTextInput(req.Description, "", req.Hashtags),
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	final := vectormath.NormalizeL2(res.Vector)

	return domain.NewCombinedEmbedding(req.MomentID, final, true, domain.EmbeddingComponents{}, u.embCfg.LegacyVersion), nil
}

// ProcessEmbeddingJob выполняется воркером очереди в момент диспетчеризации:
// скачивает исходное видео, генерирует эмбеддинг и сохраняет результат,
// завершая шаг embedding_generation.
func (u *EmbeddingUseCase) ProcessEmbeddingJob(ctx context.Context, job *domain.EmbeddingJob) error {
	const op = "EmbeddingUseCase.ProcessEmbeddingJob"

	if err := u.statusRepo.MarkProcessing(ctx, job.MomentID, domain.StepEmbeddingGeneration, 10); err != nil {
		u.logger.Warnf("Failed to mark embedding step processing: %v", e.Wrap(op, err))
	}

	// Момент мог быть удалён между планированием и диспетчеризацией
	if _, err := u.momentRepo.GetByID(ctx, job.MomentID); err != nil {
		if errors.Is(err, e.ErrMomentNotFound) {
			u.logger.Infof("moment %s deleted before embedding dispatch, skipping", job.MomentID)
			return nil
		}
		return u.failJob(ctx, job, e.Wrap(op, err))
	}

	video, err := u.mediaRepo.Download(ctx, job.StorageKey)
	if err != nil {
		return u.failJob(ctx, job, e.Wrap(op, err))
	}

	emb, err := u.GenerateMomentEmbedding(ctx, NewContentEmbeddingReq(job.MomentID, video, job.Description, job.Hashtags, job.Metadata))
	if err != nil {
		return u.failJob(ctx, job, e.Wrap(op, err))
	}

	if err := u.persistEmbedding(ctx, job.MomentID, emb); err != nil {
		return u.failJob(ctx, job, e.Wrap(op, err))
	}

	// Событие для downstream-подписчиков; отказ публикации не откатывает результат
	if err := u.producer.EmbeddingGenerated(ctx, NewEmbeddingGeneratedEvent(emb)); err != nil {
		u.logger.Warnf("Failed to publish embedding.generated: %v", e.Wrap(op, err))
	}

	return nil
}

// persistEmbedding сохраняет вектор в Qdrant и метаданные с завершением шага в одной транзакции.
func (u *EmbeddingUseCase) persistEmbedding(ctx context.Context, momentID string, emb *domain.CombinedEmbedding) error {
	const op = "EmbeddingUseCase.persistEmbedding"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = u.metaRepo.Insert(ctx, emb); err != nil {
		return e.Wrap(op, err)
	}

	// Qdrant не транзакционен: upsert до коммита, чтобы отказ откатил метаданные
	if err = u.embRepo.UpsertContent(ctx, emb); err != nil {
		return e.Wrap(op, err)
	}

	if err = u.statusRepo.CompleteStep(ctx, momentID, domain.StepEmbeddingGeneration); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// failJob помечает шаг генерации эмбеддинга ошибочным и возвращает исходную ошибку.
func (u *EmbeddingUseCase) failJob(ctx context.Context, job *domain.EmbeddingJob, cause error) error {
	if err := u.statusRepo.FailStep(ctx, job.MomentID, domain.StepEmbeddingGeneration, cause.Error()); err != nil {
		u.logger.Warnf("Failed to mark embedding step error: %v", err)
	}

	return cause
}

// composeTextInput собирает вход текстовой модели: описание, транскрипт (если есть)
// и хэштеги с префиксом '#', разделённые пробелами.
func composeTextInput(description, transcript string, hashtags []string) string {
	parts := make([]string, 0, 2+len(hashtags))

	if s := strings.TrimSpace(description); s != "" {
		parts = append(parts, s)
	}

	if s := strings.TrimSpace(transcript); s != "" {
		parts = append(parts, s)
	}

	for _, tag := range hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		parts = append(parts, tag)
	}

	return strings.Join(parts, " ")
}
