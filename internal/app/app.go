package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	config "github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/delivery/ops"
	"github.com/momenta-tech/go-backend/internal/infrastructure/extraction"
	"github.com/momenta-tech/go-backend/internal/infrastructure/kafka"
	"github.com/momenta-tech/go-backend/internal/infrastructure/queue"
	s3Repo "github.com/momenta-tech/go-backend/internal/repository/minio"
	"github.com/momenta-tech/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/momenta-tech/go-backend/internal/repository/pgdb/converter"
	qdrantRepo "github.com/momenta-tech/go-backend/internal/repository/qdrant"
	"github.com/momenta-tech/go-backend/internal/repository/redis"
	redisConv "github.com/momenta-tech/go-backend/internal/repository/redis/converter"
	"github.com/momenta-tech/go-backend/internal/usecase"
	"github.com/momenta-tech/go-backend/pkg/clients"
	"github.com/momenta-tech/go-backend/pkg/closer"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/momenta-tech/go-backend/pkg/postgres"
)

// App связывает все компоненты ядра эмбеддингов: приём событий из Kafka,
// очереди обработки, extraction-клиенты, хранилища и служебный HTTP-сервер.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	db           *postgres.PgDatabase
	redisClient  *clients.RedisClient
	qdrantClient *clients.QdrantClient

	compressionQueue *queue.CompressionQueue
	scheduler        *queue.EmbeddingScheduler
	consumer         *kafka.Consumer
	producer         *kafka.Producer
	opsSrv           *ops.Server

	momentUC    usecase.MomentUC
	embeddingUC usecase.EmbeddingUC
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName)
	minioCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureCollections(qdrantCtx, qdrantClient)
	qdrantCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(redisCtx)
	redisCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	momentConv := pgdbConv.NewMomentConverter()
	stepConv := pgdbConv.NewProcessingStepConverter()
	metaConv := pgdbConv.NewEmbeddingMetaConverter()
	engagementConv := redisConv.NewEngagementConverter()

	momentRepo := pgdb.NewMomentRepo(db.Pool, momentConv)
	statusRepo := pgdb.NewProcessingStatusRepo(db.Pool, stepConv)
	metaRepo := pgdb.NewEmbeddingMetaRepo(db.Pool, metaConv)
	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)
	cacheRepo := redis.NewEngagementCacheRepo(redisClient, engagementConv, cfg.Redis, log)
	mediaRepo := s3Repo.NewMediaRepo(minioClient, cfg.Minio)

	ext := cfg.Extraction
	audio := extraction.NewAudioExtractor(ext.AudioAddr, ext.MaxRetries, log)
	frames := extraction.NewFrameExtractor(ext.VisualAddr, ext.MaxRetries, log)
	transcriber := extraction.NewTranscriber(ext.TranscriptionAddr, ext.MaxRetries, log)
	visual := extraction.NewVisualEmbedder(ext.VisualAddr, ext.MaxRetries, log)
	text := extraction.NewTextEmbedder(ext.TextAddr, ext.MaxRetries, log)
	legacy := extraction.NewLegacyEmbedder(ext.LegacyAddr, ext.MaxRetries, log)
	compressor := extraction.NewVideoCompressor(ext.CompressionAddr, ext.MaxRetries, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("Failed to ensure embedding topic, continuing: %v", err)
	}

	compressionQueue := queue.NewCompressionQueue(cfg.Queue.QueueCapacity, log)
	scheduler := queue.NewEmbeddingScheduler(log)

	embeddingUC := usecase.NewEmbeddingUC(
		audio,
		frames,
		transcriber,
		visual,
		text,
		legacy,
		momentRepo,
		mediaRepo,
		embRepo,
		metaRepo,
		statusRepo,
		producer,
		db.Pool,
		cfg.Embedding,
		cfg.Extraction,
		log,
	)

	engagementUC := usecase.NewEngagementUC(embRepo, cacheRepo, log)

	momentUC := usecase.NewMomentUC(
		compressionQueue,
		scheduler,
		compressor,
		momentRepo,
		statusRepo,
		cfg.Embedding,
		log,
	)

	consumer := kafka.NewConsumer(cfg.Kafka, momentUC, engagementUC, log)

	r := chi.NewRouter()
	router := ops.NewRouter(r, log)
	router.Init([]ops.Check{
		{Name: "postgres", Probe: func(ctx context.Context) error { return db.Pool.Ping(ctx) }},
		{Name: "redis", Probe: redisClient.Ping},
		{Name: "qdrant", Probe: func(ctx context.Context) error {
			_, err := qdrantClient.Client.HealthCheck(ctx)
			return err
		}},
	})

	return &App{
		cfg:              cfg,
		logger:           log,
		closer:           closer.NewCloser(2 * time.Second),
		db:               db,
		redisClient:      redisClient,
		qdrantClient:     qdrantClient,
		compressionQueue: compressionQueue,
		scheduler:        scheduler,
		consumer:         consumer,
		producer:         producer,
		opsSrv:           ops.NewServer(r, cfg.Ops),
		momentUC:         momentUC,
		embeddingUC:      embeddingUC,
	}, nil
}

// Run запускает очереди, потребителя событий и служебный сервер,
// блокируется до сигнала завершения или фатальной ошибки.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.registerShutdown()

	a.compressionQueue.Start(ctx, a.cfg.Queue.CompressionWorkers, a.momentUC.ProcessCompressionJob)
	a.scheduler.Start(ctx, a.cfg.Queue.EmbeddingWorkers, a.embeddingUC.ProcessEmbeddingJob)
	a.consumer.Start(ctx)
	a.logger.Infof("queues and kafka consumer started")

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("ops server started on port %s", a.cfg.Ops.Port)
		if err := a.opsSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "ops server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof("Application shutdown complete")
	}

	return appErr
}

// registerShutdown регистрирует закрытие ресурсов в порядке, обратном запуску.
func (a *App) registerShutdown() {
	a.closer.Add(func(ctx context.Context) error {
		a.db.Close()
		return nil
	})
	a.closer.Add(func(ctx context.Context) error {
		return a.redisClient.Client.Close()
	})
	a.closer.Add(func(ctx context.Context) error {
		return a.qdrantClient.Client.Close()
	})
	a.closer.Add(func(ctx context.Context) error {
		return a.producer.Close()
	})
	a.closer.Add(func(ctx context.Context) error {
		a.compressionQueue.Stop()
		return nil
	})
	a.closer.Add(func(ctx context.Context) error {
		a.scheduler.Stop()
		return nil
	})
	a.closer.Add(func(ctx context.Context) error {
		return a.consumer.Stop()
	})
	a.closer.Add(func(ctx context.Context) error {
		return a.opsSrv.Stop(ctx)
	})
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
