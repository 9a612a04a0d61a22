package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	ProfileFull = "full"
	ProfileMock = "mock"
)

type Config struct {
	Minio      *MinIOCfg
	Ops        *OpsConfig
	Db         *PGDBCfg
	Qdrant     *QdrantCfg
	Redis      *RedisCfg
	Extraction *ExtractionCfg
	Embedding  *EmbeddingCfg
	Queue      *QueueCfg
	Kafka      *KafkaCfg
}

type KafkaCfg struct {
	Brokers        []string
	MomentsTopic   string // события moment.created / moment.interaction
	EmbeddingTopic string // события embedding.generated
	GroupID        string
	NetworkMode    string
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет с исходными видео моментов
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

type OpsConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	ContentCollection    string // fused-векторы моментов
	FallbackCollection   string // fallback-векторы устаревшей модели
	EngagementCollection string // engagement-векторы
	UseTLS               bool
	ContentVectorSize    uint64
	FallbackVectorSize   uint64
	EngagementVectorSize uint64
}

type RedisCfg struct {
	Addr          string
	Password      string
	User          string
	DB            int
	MaxRetries    int
	DialTimeout   time.Duration
	Timeout       time.Duration
	EngagementTTL time.Duration
}

// ExtractionCfg — адреса и лимиты внешних extraction-сервисов.
// Сервисы — чёрные ящики, доступные по JSON/HTTP.
type ExtractionCfg struct {
	AudioAddr         string
	TranscriptionAddr string
	VisualAddr        string
	TextAddr          string
	LegacyAddr        string
	CompressionAddr   string

	AudioTimeout         time.Duration
	TranscriptionTimeout time.Duration
	VisualTimeout        time.Duration
	TextTimeout          time.Duration
	LegacyTimeout        time.Duration

	MaxRetries int

	SampleRate int // Частота дискретизации аудио, Гц
	Channels   int
	FramesFPS  float64
	MaxFrames  int
}

// WeightConfig — именованные веса модальностей.
// Инвариант: сумма весов равна 1, проверяется при загрузке конфигурации,
// при слиянии перенормируется только подмножество выживших модальностей.
type WeightConfig struct {
	Text       float64
	Visual     float64
	Engagement float64
}

// EmbeddingCfg — параметры генерации эмбеддингов
type EmbeddingCfg struct {
	Weights       WeightConfig
	TextDim       uint64
	VisualDim     uint64
	LegacyDim     uint64
	ModelVersion  string
	LegacyVersion string
	Profile       string // full | mock: mock отключает тяжёлые модели, оставляя текстовую
	DispatchTime  string // Время суток диспетчеризации embedding-задач, HH:MM
}

// AudioEnabled сообщает, включено ли извлечение аудио и транскрипция в текущем профиле
func (c *EmbeddingCfg) AudioEnabled() bool {
	return c.Profile != ProfileMock
}

// VisualEnabled сообщает, включено ли извлечение кадров и визуальный эмбеддинг в текущем профиле
func (c *EmbeddingCfg) VisualEnabled() bool {
	return c.Profile != ProfileMock
}

type QueueCfg struct {
	CompressionWorkers int
	EmbeddingWorkers   int
	QueueCapacity      int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	const op = "cfg.Load"

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ops, err := loadOpsConfig(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	extraction, err := loadExtractionCfg()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	embedding, err := loadEmbeddingCfg(log)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	queue, err := loadQueueCfg()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &Config{
		Minio:      minio,
		Ops:        ops,
		Db:         db,
		Qdrant:     qdrant,
		Redis:      redis,
		Extraction: extraction,
		Embedding:  embedding,
		Queue:      queue,
		Kafka:      kafka,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultMomentsTopic   = "moments.events"
		defaultEmbeddingTopic = "moments.embeddings"
		defaultGroupID        = "embedding-core"
		defaultNetworkMode    = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	return &KafkaCfg{
		Brokers:        brokers,
		MomentsTopic:   getEnvOrDefault("KAFKA_MOMENTS_TOPIC", defaultMomentsTopic),
		EmbeddingTopic: getEnvOrDefault("KAFKA_EMBEDDING_TOPIC", defaultEmbeddingTopic),
		GroupID:        getEnvOrDefault("KAFKA_GROUP_ID", defaultGroupID),
		NetworkMode:    getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadOpsConfig(log logger.Logger) (*OpsConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("OPS_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("OPS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid OPS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("OPS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid OPS_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &OpsConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort       = "6334"
		defaultUseTLS               = false
		defaultContentCollection    = "moment_embeddings"
		defaultFallbackCollection   = "moment_embeddings_fallback"
		defaultEngagementCollection = "moment_engagement"
		defaultContentSize          = "896"
		defaultFallbackSize         = "384"
	)

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	contentSize, err := strconv.ParseUint(getEnvOrDefault("CONTENT_VECTOR_SIZE", defaultContentSize), 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid CONTENT_VECTOR_SIZE")
		return nil, err
	}

	fallbackSize, err := strconv.ParseUint(getEnvOrDefault("FALLBACK_VECTOR_SIZE", defaultFallbackSize), 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid FALLBACK_VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnv("QDRANT_HOST"),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		ContentCollection:    getEnvOrDefault("CONTENT_COLLECTION", defaultContentCollection),
		FallbackCollection:   getEnvOrDefault("FALLBACK_COLLECTION", defaultFallbackCollection),
		EngagementCollection: getEnvOrDefault("ENGAGEMENT_COLLECTION", defaultEngagementCollection),
		UseTLS:               useTLS,
		ContentVectorSize:    contentSize,
		FallbackVectorSize:   fallbackSize,
		EngagementVectorSize: 10,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr          = "localhost:6379"
		defaultDB            = 0
		defaultMaxRetries    = 3
		defaultDialTimeout   = 5 * time.Second
		defaultReadTimeout   = 3 * time.Second
		defaultWriteTimeout  = 3 * time.Second
		defaultEngagementTTL = 10 * time.Minute
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	engagementTTL, err := parseDurationEnv("ENGAGEMENT_TTL", defaultEngagementTTL)
	if err != nil {
		log.Errorf(err, "invalid ENGAGEMENT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:          addr,
		Password:      password,
		User:          user,
		DB:            db,
		MaxRetries:    maxRetries,
		DialTimeout:   dialTimeout,
		Timeout:       timeout,
		EngagementTTL: engagementTTL,
	}, nil
}

func loadExtractionCfg() (*ExtractionCfg, error) {
	const (
		defaultAudioTimeout         = 30 * time.Second
		defaultTranscriptionTimeout = 60 * time.Second
		defaultVisualTimeout        = 45 * time.Second
		defaultTextTimeout          = 15 * time.Second
		defaultLegacyTimeout        = 15 * time.Second
		defaultMaxRetries           = 3
		defaultSampleRate           = 16000
		defaultChannels             = 1
		defaultMaxFrames            = 10
	)

	audioTimeout, err := parseDurationEnv("AUDIO_TIMEOUT", defaultAudioTimeout)
	if err != nil {
		return nil, e.Wrap("AUDIO_TIMEOUT", err)
	}

	transcriptionTimeout, err := parseDurationEnv("TRANSCRIPTION_TIMEOUT", defaultTranscriptionTimeout)
	if err != nil {
		return nil, e.Wrap("TRANSCRIPTION_TIMEOUT", err)
	}

	visualTimeout, err := parseDurationEnv("VISUAL_TIMEOUT", defaultVisualTimeout)
	if err != nil {
		return nil, e.Wrap("VISUAL_TIMEOUT", err)
	}

	textTimeout, err := parseDurationEnv("TEXT_TIMEOUT", defaultTextTimeout)
	if err != nil {
		return nil, e.Wrap("TEXT_TIMEOUT", err)
	}

	legacyTimeout, err := parseDurationEnv("LEGACY_TIMEOUT", defaultLegacyTimeout)
	if err != nil {
		return nil, e.Wrap("LEGACY_TIMEOUT", err)
	}

	maxRetries, err := parseIntEnv("EXTRACTION_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("EXTRACTION_MAX_RETRIES", err)
	}

	maxFrames, err := parseIntEnv("MAX_FRAMES", defaultMaxFrames)
	if err != nil {
		return nil, e.Wrap("MAX_FRAMES", err)
	}

	return &ExtractionCfg{
		AudioAddr:            getEnvOrDefault("AUDIO_SERVICE_ADDR", "http://audio-extractor:8000"),
		TranscriptionAddr:    getEnvOrDefault("TRANSCRIPTION_SERVICE_ADDR", "http://transcriber:8000"),
		VisualAddr:           getEnvOrDefault("VISUAL_SERVICE_ADDR", "http://visual-embedder:8000"),
		TextAddr:             getEnvOrDefault("TEXT_SERVICE_ADDR", "http://text-embedder:8000"),
		LegacyAddr:           getEnvOrDefault("LEGACY_SERVICE_ADDR", "http://legacy-embedder:8000"),
		CompressionAddr:      getEnvOrDefault("COMPRESSION_SERVICE_ADDR", "http://transcoder:8000"),
		AudioTimeout:         audioTimeout,
		TranscriptionTimeout: transcriptionTimeout,
		VisualTimeout:        visualTimeout,
		TextTimeout:          textTimeout,
		LegacyTimeout:        legacyTimeout,
		MaxRetries:           maxRetries,
		SampleRate:           defaultSampleRate,
		Channels:             defaultChannels,
		FramesFPS:            1,
		MaxFrames:            maxFrames,
	}, nil
}

func loadEmbeddingCfg(log logger.Logger) (*EmbeddingCfg, error) {
	const (
		defaultTextWeight       = "0.6"
		defaultVisualWeight     = "0.3"
		defaultEngagementWeight = "0.1"
		defaultTextDim          = "384"
		defaultVisualDim        = "512"
		defaultLegacyDim        = "384"
		defaultModelVersion     = "multimodal-v2"
		defaultLegacyVersion    = "legacy-v1"
		defaultDispatchTime     = "01:00"
	)

	weights, err := loadWeightConfig(log, defaultTextWeight, defaultVisualWeight, defaultEngagementWeight)
	if err != nil {
		return nil, err
	}

	textDim, err := strconv.ParseUint(getEnvOrDefault("TEXT_DIM", defaultTextDim), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid TEXT_DIM")
		return nil, err
	}

	visualDim, err := strconv.ParseUint(getEnvOrDefault("VISUAL_DIM", defaultVisualDim), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid VISUAL_DIM")
		return nil, err
	}

	legacyDim, err := strconv.ParseUint(getEnvOrDefault("LEGACY_DIM", defaultLegacyDim), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid LEGACY_DIM")
		return nil, err
	}

	profile := getEnvOrDefault("EXTRACTION_PROFILE", ProfileFull)
	if profile != ProfileFull && profile != ProfileMock {
		err := fmt.Errorf("unknown EXTRACTION_PROFILE: %s", profile)
		log.Errorf(err, "invalid EXTRACTION_PROFILE")
		return nil, err
	}

	dispatchTime := getEnvOrDefault("EMBEDDING_DISPATCH_TIME", defaultDispatchTime)
	if _, err := time.Parse("15:04", dispatchTime); err != nil {
		log.Errorf(err, "invalid EMBEDDING_DISPATCH_TIME")
		return nil, e.ErrInvalidDispatch
	}

	return &EmbeddingCfg{
		Weights:       *weights,
		TextDim:       textDim,
		VisualDim:     visualDim,
		LegacyDim:     legacyDim,
		ModelVersion:  getEnvOrDefault("MODEL_VERSION", defaultModelVersion),
		LegacyVersion: getEnvOrDefault("LEGACY_MODEL_VERSION", defaultLegacyVersion),
		Profile:       profile,
		DispatchTime:  dispatchTime,
	}, nil
}

// loadWeightConfig загружает веса модальностей и проверяет, что их сумма равна ровно 1.
// Сравнение выполняется в десятичной арифметике, чтобы исключить ошибки накопления float.
func loadWeightConfig(log logger.Logger, defText, defVisual, defEngagement string) (*WeightConfig, error) {
	textDec, err := decimal.NewFromString(getEnvOrDefault("TEXT_WEIGHT", defText))
	if err != nil {
		log.Errorf(err, "invalid TEXT_WEIGHT")
		return nil, err
	}

	visualDec, err := decimal.NewFromString(getEnvOrDefault("VISUAL_WEIGHT", defVisual))
	if err != nil {
		log.Errorf(err, "invalid VISUAL_WEIGHT")
		return nil, err
	}

	engagementDec, err := decimal.NewFromString(getEnvOrDefault("ENGAGEMENT_WEIGHT", defEngagement))
	if err != nil {
		log.Errorf(err, "invalid ENGAGEMENT_WEIGHT")
		return nil, err
	}

	one := decimal.NewFromInt(1)
	for _, w := range []decimal.Decimal{textDec, visualDec, engagementDec} {
		if w.LessThan(decimal.Zero) || w.GreaterThan(one) {
			return nil, e.ErrWeightsSum
		}
	}

	if !textDec.Add(visualDec).Add(engagementDec).Equal(one) {
		return nil, e.ErrWeightsSum
	}

	text, _ := textDec.Float64()
	visual, _ := visualDec.Float64()
	engagement, _ := engagementDec.Float64()

	return &WeightConfig{
		Text:       text,
		Visual:     visual,
		Engagement: engagement,
	}, nil
}

func loadQueueCfg() (*QueueCfg, error) {
	const (
		defaultCompressionWorkers = 4
		defaultEmbeddingWorkers   = 2
		defaultQueueCapacity      = 1024
	)

	compressionWorkers, err := parseIntEnv("COMPRESSION_WORKERS", defaultCompressionWorkers)
	if err != nil {
		return nil, e.Wrap("COMPRESSION_WORKERS", err)
	}

	embeddingWorkers, err := parseIntEnv("EMBEDDING_WORKERS", defaultEmbeddingWorkers)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_WORKERS", err)
	}

	capacity, err := parseIntEnv("QUEUE_CAPACITY", defaultQueueCapacity)
	if err != nil {
		return nil, e.Wrap("QUEUE_CAPACITY", err)
	}

	return &QueueCfg{
		CompressionWorkers: compressionWorkers,
		EmbeddingWorkers:   embeddingWorkers,
		QueueCapacity:      capacity,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
