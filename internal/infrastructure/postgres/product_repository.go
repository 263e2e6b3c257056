package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un producto nuevo con stock agregado en 0.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, category, price, cost, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Category, product.Price, product.Cost,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return mapError("create product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID, o nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, name, category, price, cost, stock, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return &p, nil
}

// List lista el catálogo paginado por nombre.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT id, name, category, price, cost, stock, created_at, updated_at
		FROM products ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapError("scan product", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// IncrementStock suma delta al stock agregado. Incremento relativo en SQL: la
// serialización por clave del ledger ya linealiza a los escritores de cada
// variante, y el incremento relativo hace seguro el agregado entre variantes.
func (r *ProductRepo) IncrementStock(ctx context.Context, productID string, delta int64) error {
	query := `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, productID, delta)
	if err != nil {
		return mapError("increment product stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	query := `UPDATE products SET cost = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, productID, cost)
	if err != nil {
		return mapError("update product cost", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TotalStock suma el stock agregado del catálogo.
func (r *ProductRepo) TotalStock(ctx context.Context) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(stock), 0) FROM products`).Scan(&total)
	if err != nil {
		return 0, mapError("total stock", err)
	}
	return total, nil
}

// CountBelowStock cuenta productos con stock agregado menor al umbral.
func (r *ProductRepo) CountBelowStock(ctx context.Context, threshold int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE stock < $1`, threshold).Scan(&count)
	if err != nil {
		return 0, mapError("count below stock", err)
	}
	return count, nil
}
