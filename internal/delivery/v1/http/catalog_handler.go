package http

import (
	"net/http"

	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/logger"
)

// CatalogHandler отдаёт справочники для фильтров каталога.
type CatalogHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
	exposeDetail   bool
}

func NewCatalogHandler(productUsecase usecase.ProductUC, logger logger.Logger, exposeDetail bool) *CatalogHandler {
	return &CatalogHandler{
		productUsecase: productUsecase,
		logger:         logger,
		exposeDetail:   exposeDetail,
	}
}

func (c *CatalogHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := c.productUsecase.ListBrands(r.Context())
	if err != nil {
		c.logger.Errorf(err, "Failed to list brands")
		WriteError(w, err, c.exposeDetail)
		return
	}

	WriteList(w, brands, len(brands), nil)
}

func (c *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.productUsecase.ListCategories(r.Context())
	if err != nil {
		c.logger.Errorf(err, "Failed to list categories")
		WriteError(w, err, c.exposeDetail)
		return
	}

	WriteList(w, categories, len(categories), nil)
}
