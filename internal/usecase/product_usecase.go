package usecase

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mercalog/go-backend/internal/domain"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	// placeholderImageKey подставляется вместо отсутствующего изображения;
	// заглушка проходит тот же путь подписанной ссылки, что и обычные ключи.
	placeholderImageKey = "placeholder.webp"

	// imageResolveLimit ограничивает параллельные запросы подписанных ссылок
	// в рамках одного списочного ответа.
	imageResolveLimit = 8

	brandsCacheKey     = "catalog:brands"
	categoriesCacheKey = "catalog:categories"
)

// ProductUseCase реализует бизнес-логику каталога товаров.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	dbPool      transaction.Transactional
	imagesInfra ImagesInfra
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	imagesInfra ImagesInfra,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		dbPool:      dbPool,
		imagesInfra: imagesInfra,
		logger:      logger,
	}
}

// ListProducts возвращает страницу каталога с применёнными фильтрами.
// Ссылки на изображения выдаются параллельно с ограничением параллелизма.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "ProductUseCase.ListProducts"

	filter := buildFilter(req)
	products, total, err := p.productRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = *NewProductView(&products[i])
	}
	p.resolveImages(ctx, views)

	res := &ListProductsRes{
		Products:  views,
		Total:     total,
		Paginated: req.Paginated(),
	}
	if res.Paginated {
		res.Page = req.Page
		res.Limit = req.Limit
		res.TotalPages = int(math.Ceil(float64(total) / float64(req.Limit)))
	}

	return res, nil
}

// GetProduct возвращает товар по идентификатору вместе со ссылкой на изображение.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductView, error) {
	const op = "ProductUseCase.GetProduct"

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	view := NewProductView(product)
	view.ImageURL = p.imagesInfra.IssueURL(ctx, displayKey(view.ImageFilename))

	return view, nil
}

// CreateProduct создаёт товар и в той же транзакции пишет событие в outbox.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductView, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := validateCreate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	product := domain.NewProduct(strings.TrimSpace(req.EAN), strings.TrimSpace(req.Name), strings.TrimSpace(req.Brand))
	product.OriginalName = req.OriginalName
	product.Page = req.Page
	product.URL = req.URL
	product.Description = req.Description
	product.Category = req.Category
	product.Type = req.Type
	product.Variety = req.Variety
	product.ImageFilename = req.ImageFilename
	product.Comments = normalizeComments(req.Comments)
	if req.Available != nil {
		product.Available = *req.Available
	}

	var created *domain.Product
	err := p.inTx(ctx, func(txCtx context.Context) error {
		var txErr error
		created, txErr = p.productRepo.Create(txCtx, product)
		if txErr != nil {
			return txErr
		}

		return p.writeOutboxEvent(txCtx, ProductCreated, created)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCatalogCache(ctx)

	view := NewProductView(created)
	view.ImageURL = p.imagesInfra.IssueURL(ctx, displayKey(view.ImageFilename))

	return view, nil
}

// UpdateProduct применяет частичное обновление товара.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*ProductView, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := validateUpdate(req); err != nil {
		return nil, e.Wrap(op, err)
	}
	req.Comments = normalizeComments(req.Comments)

	var updated *domain.Product
	err := p.inTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = p.productRepo.Update(txCtx, id, req)
		if txErr != nil {
			return txErr
		}

		return p.writeOutboxEvent(txCtx, ProductUpdated, updated)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCatalogCache(ctx)

	view := NewProductView(updated)
	view.ImageURL = p.imagesInfra.IssueURL(ctx, displayKey(view.ImageFilename))

	return view, nil
}

// DeleteProduct удаляет товар по идентификатору.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	err := p.inTx(ctx, func(txCtx context.Context) error {
		deleted, txErr := p.productRepo.Delete(txCtx, id)
		if txErr != nil {
			return txErr
		}

		return p.writeOutboxEvent(txCtx, ProductDeleted, deleted)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCatalogCache(ctx)
	return nil
}

// ToggleAvailability атомарно переключает флаг наличия товара.
func (p *ProductUseCase) ToggleAvailability(ctx context.Context, id int64) (*ProductView, error) {
	const op = "ProductUseCase.ToggleAvailability"

	var toggled *domain.Product
	err := p.inTx(ctx, func(txCtx context.Context) error {
		var txErr error
		toggled, txErr = p.productRepo.ToggleAvailability(txCtx, id)
		if txErr != nil {
			return txErr
		}

		return p.writeOutboxEvent(txCtx, ProductAvailabilityToggled, toggled)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	view := NewProductView(toggled)
	view.ImageURL = p.imagesInfra.IssueURL(ctx, displayKey(view.ImageFilename))

	return view, nil
}

// SetComments сохраняет комментарий; пустой ввод нормализуется в NULL.
func (p *ProductUseCase) SetComments(ctx context.Context, id int64, comments *string) (*ProductView, error) {
	const op = "ProductUseCase.SetComments"

	comments = normalizeComments(comments)

	var updated *domain.Product
	err := p.inTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = p.productRepo.SetComments(txCtx, id, comments)
		if txErr != nil {
			return txErr
		}

		return p.writeOutboxEvent(txCtx, ProductCommentsUpdated, updated)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	view := NewProductView(updated)
	view.ImageURL = p.imagesInfra.IssueURL(ctx, displayKey(view.ImageFilename))

	return view, nil
}

// ListBrands возвращает отсортированный список брендов, сквозь кэш.
func (p *ProductUseCase) ListBrands(ctx context.Context) ([]string, error) {
	return p.cachedList(ctx, brandsCacheKey, p.productRepo.DistinctBrands)
}

// ListCategories возвращает отсортированный список категорий без пустых значений.
func (p *ProductUseCase) ListCategories(ctx context.Context) ([]string, error) {
	return p.cachedList(ctx, categoriesCacheKey, p.productRepo.DistinctCategories)
}

// cachedList — cache-aside: промах идёт в БД, кэш пополняется в фоне.
func (p *ProductUseCase) cachedList(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	const op = "ProductUseCase.cachedList"

	if cached, err := p.cacheRepo.GetList(ctx, key); err == nil && cached != nil {
		return cached, nil
	}

	values, err := load(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое пополнение кэша
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetList(bgCtx, key, values); err != nil {
			p.logger.Warnf("Failed to cache %s in background: %v", key, e.Wrap(op, err))
		}
	}()

	return values, nil
}

// inTx выполняет fn в одной транзакции PostgreSQL; транзакция кладётся в контекст
// для репозиториев и откатывается при любой ошибке.
func (p *ProductUseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()

	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = fn(ctx); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// resolveImages параллельно выдаёт подписанные ссылки для элементов списка.
// Сбой подписи деградирует только свой элемент до nil.
func (p *ProductUseCase) resolveImages(ctx context.Context, views []ProductView) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(imageResolveLimit)

	for i := range views {
		g.Go(func() error {
			views[i].ImageURL = p.imagesInfra.IssueURL(gCtx, displayKey(views[i].ImageFilename))
			return nil
		})
	}

	_ = g.Wait()
}

// productEventPayload — JSON-содержимое события изменения товара.
// Снимок берётся до выдачи подписанной ссылки: она не должна попадать в события.
type productEventPayload struct {
	EventID    string       `json:"event_id"`
	EventType  string       `json:"event_type"`
	ProductID  int64        `json:"product_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Product    *ProductView `json:"product"`
}

func (p *ProductUseCase) writeOutboxEvent(ctx context.Context, eventType OutboxEventType, product *domain.Product) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(productEventPayload{
		EventID:    eventID,
		EventType:  string(eventType),
		ProductID:  product.ID,
		OccurredAt: time.Now().UTC(),
		Product:    NewProductView(product),
	})
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventID, eventType, product.ID, payload))
	return err
}

func (p *ProductUseCase) invalidateCatalogCache(ctx context.Context) {
	if err := p.cacheRepo.Invalidate(ctx, brandsCacheKey, categoriesCacheKey); err != nil {
		p.logger.Warnf("Failed to invalidate catalog cache: %v", err)
	}
}

// buildFilter нормализует параметры списка: сентинел "all" и пустые значения
// отключают фильтр, available разбирается как трёхзначный флаг.
func buildFilter(req *ListProductsReq) *ProductFilter {
	filter := &ProductFilter{
		Search: strings.TrimSpace(req.Search),
	}

	if brand := strings.TrimSpace(req.Brand); brand != "" && brand != FilterAll {
		filter.Brand = &brand
	}
	if category := strings.TrimSpace(req.Category); category != "" && category != FilterAll {
		filter.Category = &category
	}
	if avail := strings.TrimSpace(req.Available); avail != "" && avail != FilterAll {
		if parsed, err := strconv.ParseBool(avail); err == nil {
			filter.Available = &parsed
		}
	}

	if req.Paginated() {
		filter.Limit = req.Limit
		filter.Offset = (req.Page - 1) * req.Limit
	}

	return filter
}

// displayKey подставляет заглушку вместо отсутствующего имени файла.
func displayKey(filename *string) string {
	if filename != nil && *filename != "" {
		return *filename
	}

	return placeholderImageKey
}

func normalizeComments(comments *string) *string {
	if comments == nil || strings.TrimSpace(*comments) == "" {
		return nil
	}

	return comments
}

func validateCreate(req *CreateProductReq) error {
	if strings.TrimSpace(req.EAN) == "" ||
		strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Brand) == "" {
		return e.ErrMissingFields
	}

	return nil
}

func validateUpdate(req *UpdateProductReq) error {
	for _, field := range []*string{req.EAN, req.Name, req.Brand} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return e.ErrMissingFields
		}
	}

	return nil
}
