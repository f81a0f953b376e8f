package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mercalog/go-backend/internal/domain"
	"github.com/mercalog/go-backend/pkg/e"
)

// --- fakes ---

type fakeProductRepo struct {
	listFn    func(ctx context.Context, filter *ProductFilter) ([]domain.Product, int64, error)
	getFn     func(ctx context.Context, id int64) (*domain.Product, error)
	createFn  func(ctx context.Context, product *domain.Product) (*domain.Product, error)
	updateFn  func(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error)
	deleteFn  func(ctx context.Context, id int64) (*domain.Product, error)
	toggleFn  func(ctx context.Context, id int64) (*domain.Product, error)
	setCmtFn  func(ctx context.Context, id int64, comments *string) (*domain.Product, error)
	brandsFn  func(ctx context.Context) ([]string, error)
	catsFn    func(ctx context.Context) ([]string, error)
	lastInput *domain.Product
}

func (f *fakeProductRepo) List(ctx context.Context, filter *ProductFilter) ([]domain.Product, int64, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return f.getFn(ctx, id)
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	f.lastInput = product
	return f.createFn(ctx, product)
}

func (f *fakeProductRepo) Update(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error) {
	return f.updateFn(ctx, id, req)
}

func (f *fakeProductRepo) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	return f.deleteFn(ctx, id)
}

func (f *fakeProductRepo) ToggleAvailability(ctx context.Context, id int64) (*domain.Product, error) {
	return f.toggleFn(ctx, id)
}

func (f *fakeProductRepo) SetComments(ctx context.Context, id int64, comments *string) (*domain.Product, error) {
	return f.setCmtFn(ctx, id, comments)
}

func (f *fakeProductRepo) DistinctBrands(ctx context.Context) ([]string, error) {
	return f.brandsFn(ctx)
}

func (f *fakeProductRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return f.catsFn(ctx)
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

type fakeCacheRepo struct {
	mu          sync.Mutex
	lists       map[string][]string
	invalidated []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{lists: make(map[string][]string)}
}

func (f *fakeCacheRepo) GetList(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[key], nil
}

func (f *fakeCacheRepo) SetList(_ context.Context, key string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = values
	return nil
}

func (f *fakeCacheRepo) Invalidate(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, keys...)
	for _, key := range keys {
		delete(f.lists, key)
	}
	return nil
}

type fakeImages struct {
	mu        sync.Mutex
	requested []string
	url       *string
}

func (f *fakeImages) IssueURL(_ context.Context, filename string) *string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, filename)
	return f.url
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})        {}
func (nopLogger) Infof(string, ...interface{})         {}
func (nopLogger) Warnf(string, ...interface{})         {}
func (nopLogger) Errorf(error, string, ...interface{}) {}

// fakeTx удовлетворяет pgx.Tx ровно настолько, насколько нужно
// менеджеру транзакций: Commit и Rollback.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakePool struct {
	tx *fakeTx
}

func (p *fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	p.tx = &fakeTx{}
	return p.tx, nil
}

func strPtr(s string) *string { return &s }

func newTestUC(repo *fakeProductRepo, outbox *fakeOutboxRepo, cache *fakeCacheRepo, images *fakeImages) (*ProductUseCase, *fakePool) {
	pool := &fakePool{}
	return NewProductUC(repo, outbox, cache, pool, images, nopLogger{}), pool
}

// --- tests ---

func TestCreateProductRequiresMandatoryFields(t *testing.T) {
	repo := &fakeProductRepo{
		createFn: func(_ context.Context, _ *domain.Product) (*domain.Product, error) {
			t.Fatal("repo must not be called on validation failure")
			return nil, nil
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	_, err := uc.CreateProduct(context.Background(), &CreateProductReq{EAN: "123", Name: "  ", Brand: "Acme"})
	if !errors.Is(err, e.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestCreateProductDefaultsAndOutbox(t *testing.T) {
	repo := &fakeProductRepo{
		createFn: func(_ context.Context, p *domain.Product) (*domain.Product, error) {
			created := *p
			created.ID = 42
			return &created, nil
		},
	}
	outbox := &fakeOutboxRepo{}
	cache := newFakeCacheRepo()
	cache.lists[brandsCacheKey] = []string{"stale"}
	uc, pool := newTestUC(repo, outbox, cache, &fakeImages{})

	view, err := uc.CreateProduct(context.Background(), &CreateProductReq{
		EAN:      " 8412345678901 ",
		Name:     "Olive Oil",
		Brand:    "Hacendado",
		Comments: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.ID != 42 {
		t.Errorf("expected id 42, got %d", view.ID)
	}
	if view.EAN != "8412345678901" {
		t.Errorf("expected trimmed ean, got %q", view.EAN)
	}
	if !view.Available {
		t.Error("new product must be available by default")
	}
	if repo.lastInput.Comments != nil {
		t.Error("blank comments must be normalized to nil")
	}

	if len(outbox.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(outbox.events))
	}
	if outbox.events[0].EventType != ProductCreated {
		t.Errorf("expected %s event, got %s", ProductCreated, outbox.events[0].EventType)
	}
	if outbox.events[0].ProductID != 42 {
		t.Errorf("expected event for product 42, got %d", outbox.events[0].ProductID)
	}

	if pool.tx == nil || !pool.tx.committed {
		t.Error("create must commit the transaction")
	}
	if len(cache.invalidated) == 0 {
		t.Error("create must invalidate catalog cache")
	}
}

func TestCreateProductConflictRollsBack(t *testing.T) {
	repo := &fakeProductRepo{
		createFn: func(_ context.Context, _ *domain.Product) (*domain.Product, error) {
			return nil, e.ErrEANConflict
		},
	}
	uc, pool := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	_, err := uc.CreateProduct(context.Background(), &CreateProductReq{EAN: "1", Name: "n", Brand: "b"})
	if !errors.Is(err, e.ErrEANConflict) {
		t.Fatalf("expected ErrEANConflict, got %v", err)
	}
	if pool.tx == nil || !pool.tx.rolledBack {
		t.Error("conflict must roll the transaction back")
	}
	if pool.tx.committed {
		t.Error("conflict must not commit")
	}
}

func TestUpdateProductRejectsBlankMandatoryField(t *testing.T) {
	uc, _ := newTestUC(&fakeProductRepo{}, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	_, err := uc.UpdateProduct(context.Background(), 1, &UpdateProductReq{Name: strPtr("  ")})
	if !errors.Is(err, e.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestToggleAvailability(t *testing.T) {
	repo := &fakeProductRepo{
		toggleFn: func(_ context.Context, id int64) (*domain.Product, error) {
			return &domain.Product{ID: id, EAN: "1", Name: "n", Brand: "b", Available: false}, nil
		},
	}
	outbox := &fakeOutboxRepo{}
	uc, _ := newTestUC(repo, outbox, newFakeCacheRepo(), &fakeImages{})

	view, err := uc.ToggleAvailability(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Available {
		t.Error("expected toggled availability to be false")
	}
	if len(outbox.events) != 1 || outbox.events[0].EventType != ProductAvailabilityToggled {
		t.Errorf("expected %s event, got %+v", ProductAvailabilityToggled, outbox.events)
	}
}

func TestSetCommentsNormalizesEmptyToNil(t *testing.T) {
	var received *string
	sentinel := strPtr("set")
	received = sentinel

	repo := &fakeProductRepo{
		setCmtFn: func(_ context.Context, id int64, comments *string) (*domain.Product, error) {
			received = comments
			return &domain.Product{ID: id, EAN: "1", Name: "n", Brand: "b", Comments: comments}, nil
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	if _, err := uc.SetComments(context.Background(), 1, strPtr("  \t ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != nil {
		t.Errorf("blank comments must reach repo as nil, got %q", *received)
	}

	if _, err := uc.SetComments(context.Background(), 1, strPtr("fragile")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received == nil || *received != "fragile" {
		t.Errorf("expected comments to pass through, got %v", received)
	}
}

func TestGetProductNotFound(t *testing.T) {
	repo := &fakeProductRepo{
		getFn: func(_ context.Context, _ int64) (*domain.Product, error) {
			return nil, e.ErrNotFound
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	_, err := uc.GetProduct(context.Background(), 99)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProductUsesPlaceholderKey(t *testing.T) {
	repo := &fakeProductRepo{
		getFn: func(_ context.Context, id int64) (*domain.Product, error) {
			return &domain.Product{ID: id, EAN: "1", Name: "n", Brand: "b"}, nil
		},
	}
	images := &fakeImages{url: strPtr("https://cdn/img")}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), images)

	view, err := uc.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ImageURL == nil || *view.ImageURL != "https://cdn/img" {
		t.Errorf("expected image url, got %v", view.ImageURL)
	}
	if len(images.requested) != 1 || images.requested[0] != placeholderImageKey {
		t.Errorf("expected placeholder key for missing filename, got %v", images.requested)
	}
}

func TestListProductsPagination(t *testing.T) {
	var captured *ProductFilter
	repo := &fakeProductRepo{
		listFn: func(_ context.Context, filter *ProductFilter) ([]domain.Product, int64, error) {
			captured = filter
			return []domain.Product{
				{ID: 4, EAN: "4", Name: "d", Brand: "b"},
				{ID: 5, EAN: "5", Name: "e", Brand: "b"},
				{ID: 6, EAN: "6", Name: "f", Brand: "b"},
			}, 7, nil
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	res, err := uc.ListProducts(context.Background(), &ListProductsReq{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Limit != 3 || captured.Offset != 3 {
		t.Errorf("expected limit 3 offset 3, got limit %d offset %d", captured.Limit, captured.Offset)
	}
	if !res.Paginated || res.Page != 2 || res.Total != 7 {
		t.Errorf("unexpected pagination: %+v", res)
	}
	if res.TotalPages != 3 {
		t.Errorf("expected 3 total pages for 7/3, got %d", res.TotalPages)
	}
	if len(res.Products) != 3 {
		t.Errorf("expected 3 products, got %d", len(res.Products))
	}
}

func TestListProductsImageDegradation(t *testing.T) {
	repo := &fakeProductRepo{
		listFn: func(_ context.Context, _ *ProductFilter) ([]domain.Product, int64, error) {
			return []domain.Product{{ID: 1, EAN: "1", Name: "a", Brand: "b", ImageFilename: strPtr("a.webp")}}, 1, nil
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{url: nil})

	res, err := uc.ListProducts(context.Background(), &ListProductsReq{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Products[0].ImageURL != nil {
		t.Error("unresolvable image must degrade to nil URL")
	}
	if res.Paginated {
		t.Error("list without page/limit must not be paginated")
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		req       ListProductsReq
		wantBrand *string
		wantAvail *bool
	}{
		{name: "all sentinel drops brand", req: ListProductsReq{Brand: "all"}},
		{name: "empty drops brand", req: ListProductsReq{Brand: "  "}},
		{name: "brand kept", req: ListProductsReq{Brand: "Hacendado"}, wantBrand: strPtr("Hacendado")},
		{name: "available true", req: ListProductsReq{Available: "true"}, wantAvail: boolPtr(true)},
		{name: "available false", req: ListProductsReq{Available: "false"}, wantAvail: boolPtr(false)},
		{name: "available all", req: ListProductsReq{Available: "all"}},
		{name: "available garbage ignored", req: ListProductsReq{Available: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := buildFilter(&tt.req)

			switch {
			case tt.wantBrand == nil && filter.Brand != nil:
				t.Errorf("expected no brand filter, got %q", *filter.Brand)
			case tt.wantBrand != nil && (filter.Brand == nil || *filter.Brand != *tt.wantBrand):
				t.Errorf("expected brand %q, got %v", *tt.wantBrand, filter.Brand)
			}

			switch {
			case tt.wantAvail == nil && filter.Available != nil:
				t.Errorf("expected no available filter, got %v", *filter.Available)
			case tt.wantAvail != nil && (filter.Available == nil || *filter.Available != *tt.wantAvail):
				t.Errorf("expected available %v, got %v", *tt.wantAvail, filter.Available)
			}
		})
	}
}

func TestListBrandsServedFromCache(t *testing.T) {
	repo := &fakeProductRepo{
		brandsFn: func(_ context.Context) ([]string, error) {
			t.Fatal("db must not be hit on cache hit")
			return nil, nil
		},
	}
	cache := newFakeCacheRepo()
	cache.lists[brandsCacheKey] = []string{"Alipende", "Hacendado"}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, cache, &fakeImages{})

	brands, err := uc.ListBrands(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(brands) != 2 || brands[0] != "Alipende" {
		t.Errorf("unexpected brands: %v", brands)
	}
}

func TestListCategoriesFallsBackToRepo(t *testing.T) {
	repo := &fakeProductRepo{
		catsFn: func(_ context.Context) ([]string, error) {
			return []string{"aceites", "conservas"}, nil
		},
	}
	uc, _ := newTestUC(repo, &fakeOutboxRepo{}, newFakeCacheRepo(), &fakeImages{})

	categories, err := uc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("unexpected categories: %v", categories)
	}
}

func boolPtr(b bool) *bool { return &b }
