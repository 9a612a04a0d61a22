package minio

import (
	"context"
	"io"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/pkg/e"
)

// MediaRepo отдаёт исходные видео моментов из MinIO.
type MediaRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewMediaRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *MediaRepo {
	return &MediaRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Download возвращает байты исходного видео по ключу объекта.
func (m *MediaRepo) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.mc.GetObject(ctx, m.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}
