package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fc-integration/inventory/types"
)

// ProductRepository handles persistence for the stock table.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, code, product_name, brand, model, product_type, quantity, description, image_url`

func scanProduct(row rowScanner) (types.Product, error) {
	var p types.Product
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.ProductName,
		&p.Brand,
		&p.Model,
		&p.ProductType,
		&p.Quantity,
		&p.Description,
		&p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return p, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]types.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM stock WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProductRepository) GetByCode(ctx context.Context, code string) (types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM stock WHERE code = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, code))
}

func (r *ProductRepository) GetByName(ctx context.Context, name string) (types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM stock WHERE LOWER(product_name) = LOWER($1) ORDER BY id LIMIT 1`
	return scanProduct(r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)))
}

func (r *ProductRepository) Create(ctx context.Context, p types.Product) (types.Product, error) {
	query := `
		INSERT INTO stock (code, product_name, brand, model, product_type, quantity, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns
	created, err := scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		p.Code,
		p.ProductName,
		p.Brand,
		p.Model,
		p.ProductType,
		p.Quantity.Int(),
		p.Description,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return types.Product{}, ErrConflict
		}
		return types.Product{}, err
	}
	return created, nil
}

// AssignCode sets the code of a product that has none. A product that
// already carries a code, or a code used elsewhere, yields ErrConflict.
func (r *ProductRepository) AssignCode(ctx context.Context, id int, code string) (types.Product, error) {
	query := `
		UPDATE stock
		SET code = $1, updated_at = NOW()
		WHERE id = $2 AND (code IS NULL OR code = '')
		RETURNING ` + productColumns
	updated, err := scanProduct(r.db.QueryRowContext(ctx, query, code, id))
	if err == nil {
		return updated, nil
	}
	if isUniqueViolation(err) {
		return types.Product{}, ErrConflict
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Product{}, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return types.Product{}, getErr
	}
	return types.Product{}, ErrConflict
}

// AdjustQuantity adds delta to the quantity, clamping at zero, and
// returns the quantity held before the change.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, id, delta int) (types.Product, int, error) {
	query := `
		UPDATE stock s
		SET quantity = GREATEST(0, old.quantity + $1), updated_at = NOW()
		FROM (SELECT id, quantity FROM stock WHERE id = $2 FOR UPDATE) old
		WHERE s.id = old.id
		RETURNING old.quantity, s.id, s.code, s.product_name, s.brand, s.model, s.product_type, s.quantity, s.description, s.image_url`
	var before int
	var p types.Product
	err := r.db.QueryRowContext(ctx, query, delta, id).Scan(
		&before,
		&p.ID,
		&p.Code,
		&p.ProductName,
		&p.Brand,
		&p.Model,
		&p.ProductType,
		&p.Quantity,
		&p.Description,
		&p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, 0, ErrNotFound
		}
		return types.Product{}, 0, err
	}
	return p, before, nil
}

func (r *ProductRepository) SetImage(ctx context.Context, id int, imageURL string) (types.Product, error) {
	query := `
		UPDATE stock
		SET image_url = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + productColumns
	return scanProduct(r.db.QueryRowContext(ctx, query, imageURL, id))
}

func (r *ProductRepository) List(ctx context.Context) ([]types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM stock ORDER BY product_name, id`
	return r.queryProducts(ctx, query)
}

func (r *ProductRepository) Models(ctx context.Context, brand, productType string) ([]types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM stock WHERE brand = $1 AND product_type = $2 ORDER BY model, id`
	return r.queryProducts(ctx, query, brand, productType)
}

func (r *ProductRepository) Brands(ctx context.Context) ([]types.BrandSummary, error) {
	const query = `
		SELECT brand, COUNT(1), COALESCE(SUM(quantity), 0)
		FROM stock
		GROUP BY brand
		ORDER BY brand`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	brands := make([]types.BrandSummary, 0)
	for rows.Next() {
		var b types.BrandSummary
		if err := rows.Scan(&b.Brand, &b.ProductCount, &b.TotalQuantity); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *ProductRepository) Types(ctx context.Context, brand string) ([]types.TypeSummary, error) {
	const query = `
		SELECT product_type, COUNT(1), COALESCE(SUM(quantity), 0)
		FROM stock
		WHERE brand = $1
		GROUP BY product_type
		ORDER BY product_type`
	rows, err := r.db.QueryContext(ctx, query, brand)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kinds := make([]types.TypeSummary, 0)
	for rows.Next() {
		var t types.TypeSummary
		if err := rows.Scan(&t.ProductType, &t.ProductCount, &t.TotalQuantity); err != nil {
			return nil, err
		}
		kinds = append(kinds, t)
	}
	return kinds, rows.Err()
}
