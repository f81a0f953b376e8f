package minio

import (
	"context"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/mercalog/go-backend/internal/cfg"
	"github.com/mercalog/go-backend/pkg/e"
)

// ImageRepo реализует репозиторий изображений поверх MinIO.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// PresignedURL возвращает подписанную ссылку на чтение объекта с ограниченным временем жизни.
func (i *ImageRepo) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := i.mc.PresignedGetObject(ctx, i.cfg.BucketName, key, ttl, nil)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}
