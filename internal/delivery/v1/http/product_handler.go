package http

import (
	"net/http"

	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
	exposeDetail   bool
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger, exposeDetail bool) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		logger:         logger,
		exposeDetail:   exposeDetail,
	}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Фильтры объединяются по И; "all" и пустое значение фильтр снимают
//	@Tags			products
//	@Produce		json
//	@Param			brand		query		string	false	"Бренд или all"
//	@Param			category	query		string	false	"Категория или all"
//	@Param			available	query		string	false	"true, false или all"
//	@Param			search		query		string	false	"Подстрока: name, original_name, brand, ean"
//	@Param			page		query		int		false	"Номер страницы (с 1)"
//	@Param			limit		query		int		false	"Размер страницы"
//	@Success		200			{object}	Response
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &usecase.ListProductsReq{
		Brand:     q.Get("brand"),
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		Available: q.Get("available"),
		Page:      parsePositiveInt(q.Get("page")),
		Limit:     parsePositiveInt(q.Get("limit")),
	}

	res, err := p.productUsecase.ListProducts(r.Context(), req)
	if err != nil {
		p.logger.Errorf(err, "Failed to list products")
		WriteError(w, err, p.exposeDetail)
		return
	}

	var pagination *Pagination
	if res.Paginated {
		pagination = &Pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		}
	}

	WriteList(w, res.Products, len(res.Products), pagination)
}

func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err, p.exposeDetail)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

// createProduct
//
//	@Summary		Создание товара
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			body	body		usecase.CreateProductReq	true	"Товар"
//	@Success		201		{object}	Response
//	@Failure		400		{object}	Response	"Нет обязательных полей или ean занят"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateProductReq
	if err := decodeJSON(r, &req); err != nil {
		p.logger.Warnf("%d malformed product body: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrMissingFields, p.exposeDetail)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), &req)
	if err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteSuccess(w, http.StatusCreated, product)
}

func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err, p.exposeDetail)
		return
	}

	var req usecase.UpdateProductReq
	if err := decodeJSON(r, &req); err != nil {
		p.logger.Warnf("%d malformed product body: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrMissingFields, p.exposeDetail)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err, p.exposeDetail)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteMessage(w, http.StatusOK, "product deleted")
}

func (p *ProductHandler) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err, p.exposeDetail)
		return
	}

	product, err := p.productUsecase.ToggleAvailability(r.Context(), id)
	if err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

type commentsReq struct {
	Comments *string `json:"comments"`
}

func (p *ProductHandler) setComments(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err, p.exposeDetail)
		return
	}

	var req commentsReq
	if err := decodeJSON(r, &req); err != nil {
		p.logger.Warnf("%d malformed comments body: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrMissingFields, p.exposeDetail)
		return
	}

	product, err := p.productUsecase.SetComments(r.Context(), id, req.Comments)
	if err != nil {
		p.logError(r, err)
		WriteError(w, err, p.exposeDetail)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

func (p *ProductHandler) logError(r *http.Request, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		p.logger.Errorf(err, "%s %s failed", r.Method, r.URL.Path)
		return
	}
	p.logger.Warnf("%d %s %s: %s", code, r.Method, r.URL.Path, err.Error())
}
