package minio

import (
	"context"

	"github.com/mercalog/go-backend/internal/cfg"
	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/logger"
)

// MinioInfrastructure выдаёт временные подписанные ссылки на изображения товаров.
type MinioInfrastructure struct {
	minioRepo usecase.ImageRepository
	cfg       *cfg.MinIOCfg
	logger    logger.Logger
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo: minioRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// IssueURL возвращает подписанную ссылку на объект или nil.
// Пустой ключ и ненастроенный бакет отсекаются без сетевого вызова;
// любой сбой хранилища деградирует в nil — ответ о товаре не должен падать
// из-за недоступного объектного хранилища.
func (m *MinioInfrastructure) IssueURL(ctx context.Context, filename string) *string {
	if filename == "" || m.cfg.BucketName == "" || m.minioRepo == nil {
		return nil
	}

	url, err := m.minioRepo.PresignedURL(ctx, filename, m.cfg.URLTTL)
	if err != nil {
		m.logger.Warnf("Failed to presign image %s: %v", filename, err)
		return nil
	}

	return &url
}
