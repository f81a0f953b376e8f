package usecase

import (
	"context"
	"time"

	"github.com/mercalog/go-backend/internal/domain"
)

type ProductRepository interface {
	List(ctx context.Context, filter *ProductFilter) ([]domain.Product, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error)
	Delete(ctx context.Context, id int64) (*domain.Product, error)
	ToggleAvailability(ctx context.Context, id int64) (*domain.Product, error)
	SetComments(ctx context.Context, id int64, comments *string) (*domain.Product, error)
	DistinctBrands(ctx context.Context) ([]string, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

type ImageRepository interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetList(ctx context.Context, key string) ([]string, error)
	SetList(ctx context.Context, key string, values []string) error
	Invalidate(ctx context.Context, keys ...string) error
}
