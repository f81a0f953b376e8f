package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/mercalog/go-backend/internal/domain"
	"github.com/mercalog/go-backend/internal/repository/pgdb/converter"
	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/tr"
)

const productColumns = `id, ean, name, original_name, brand, page, url, description,
		category, type, variety, image_filename, available, comments, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// List возвращает товары по пересечению фильтров и общее количество строк
// до пагинации. Сортировка всегда brand ASC, name ASC.
func (p *ProductRepo) List(ctx context.Context, filter *usecase.ProductFilter) ([]domain.Product, int64, error) {
	where, args := buildProductWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM products` + where
	if err := p.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY brand ASC, name ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := scanProduct(rows, &model); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), total, nil
}

// GetByID возвращает товар по идентификатору или e.ErrNotFound.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var model converter.ProductModel
	if err := scanProduct(p.pool.QueryRow(ctx, query, id), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Create вставляет товар; дубликат ean отображается в e.ErrEANConflict.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (
			ean, name, original_name, brand, page, url, description,
			category, type, variety, image_filename, available, comments
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + productColumns

	in := p.conv.ToModel(product)
	var model converter.ProductModel
	err = scanProduct(tx.QueryRow(ctx, query,
		in.EAN, in.Name, in.OriginalName, in.Brand, in.Page, in.URL, in.Description,
		in.Category, in.Type, in.Variety, in.ImageFilename, in.Available, in.Comments,
	), &model)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.ErrEANConflict
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Update применяет только переданные поля; правило уникальности ean то же, что в Create.
func (p *ProductRepo) Update(ctx context.Context, id int64, req *usecase.UpdateProductReq) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.EAN != nil {
		set("ean", *req.EAN)
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Brand != nil {
		set("brand", *req.Brand)
	}
	if req.OriginalName != nil {
		set("original_name", *req.OriginalName)
	}
	if req.Page != nil {
		set("page", *req.Page)
	}
	if req.URL != nil {
		set("url", *req.URL)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Category != nil {
		set("category", *req.Category)
	}
	if req.Type != nil {
		set("type", *req.Type)
	}
	if req.Variety != nil {
		set("variety", *req.Variety)
	}
	if req.ImageFilename != nil {
		set("image_filename", *req.ImageFilename)
	}
	if req.Available != nil {
		set("available", *req.Available)
	}
	if req.Comments != nil {
		set("comments", *req.Comments)
	}

	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + productColumns

	var model converter.ProductModel
	if err := scanProduct(tx.QueryRow(ctx, query, args...), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrNotFound
		}
		if postgresDuplicate(err) {
			return nil, e.ErrEANConflict
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Delete удаляет товар и возвращает удалённую запись.
func (p *ProductRepo) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	var model converter.ProductModel
	if err := scanProduct(tx.QueryRow(ctx, query, id), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// ToggleAvailability атомарно переворачивает флаг наличия одним UPDATE.
func (p *ProductRepo) ToggleAvailability(ctx context.Context, id int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET available = NOT available, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var model converter.ProductModel
	if err := scanProduct(tx.QueryRow(ctx, query, id), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// SetComments сохраняет комментарий; nil записывается как NULL.
func (p *ProductRepo) SetComments(ctx context.Context, id int64, comments *string) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET comments = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var model converter.ProductModel
	if err := scanProduct(tx.QueryRow(ctx, query, id, comments), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// DistinctBrands возвращает отсортированный список брендов.
func (p *ProductRepo) DistinctBrands(ctx context.Context) ([]string, error) {
	return p.distinctValues(ctx, `SELECT DISTINCT brand FROM products ORDER BY brand ASC`)
}

// DistinctCategories возвращает отсортированный список категорий без NULL и пустых значений.
func (p *ProductRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return p.distinctValues(ctx, `
		SELECT DISTINCT category FROM products
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category ASC`)
}

func (p *ProductRepo) distinctValues(ctx context.Context, query string) ([]string, error) {
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, value)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// buildProductWhere собирает условия WHERE (логическое И) и их аргументы.
func buildProductWhere(filter *usecase.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Brand != nil {
		args = append(args, *filter.Brand)
		conds = append(conds, fmt.Sprintf("brand = $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conds = append(conds, fmt.Sprintf("available = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR original_name ILIKE $%[1]d OR brand ILIKE $%[1]d OR ean ILIKE $%[1]d)",
			len(args),
		))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row, model *converter.ProductModel) error {
	return row.Scan(
		&model.ID, &model.EAN, &model.Name, &model.OriginalName, &model.Brand,
		&model.Page, &model.URL, &model.Description, &model.Category, &model.Type,
		&model.Variety, &model.ImageFilename, &model.Available, &model.Comments,
		&model.CreatedAt, &model.UpdatedAt,
	)
}
