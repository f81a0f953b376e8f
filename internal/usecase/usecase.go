package usecase

import "context"

type ProductUC interface {
	ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	GetProduct(ctx context.Context, id int64) (*ProductView, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductView, error)
	UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*ProductView, error)
	DeleteProduct(ctx context.Context, id int64) error
	ToggleAvailability(ctx context.Context, id int64) (*ProductView, error)
	SetComments(ctx context.Context, id int64, comments *string) (*ProductView, error)
	ListBrands(ctx context.Context) ([]string, error)
	ListCategories(ctx context.Context) ([]string, error)
}
