package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste cabecera y líneas de la venta.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, status, total, note, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, sale.ID, sale.Status, sale.Total, sale.Note, sale.CreatedAt); err != nil {
		return mapError("create sale", err)
	}
	itemQuery := `
		INSERT INTO sale_items (id, sale_id, product_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range sale.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.SaleID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice,
		); err != nil {
			return mapError("create sale item", err)
		}
	}
	return nil
}

// GetByID devuelve la venta con sus líneas, o nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, status, total, note, created_at, reversed_at
		FROM sales WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.Status, &s.Total, &s.Note, &s.CreatedAt, &s.ReversedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get sale", err)
	}
	items, err := r.itemsBySale(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

// MarkReversed cambia el estado a reversed solo si la venta sigue completed.
func (r *SaleRepo) MarkReversed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE sales SET status = $3, reversed_at = $2
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(ctx, query, id, at, entity.SaleStatusReversed, entity.SaleStatusCompleted)
	if err != nil {
		return mapError("mark sale reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleAlreadyReversed
	}
	return nil
}

// List lista ventas por fecha descendente (con sus líneas).
func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	query := `
		SELECT id, status, total, note, created_at, reversed_at
		FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list sales", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.Status, &s.Total, &s.Note, &s.CreatedAt, &s.ReversedAt); err != nil {
			return nil, mapError("scan sale", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list sales", err)
	}
	for _, s := range list {
		items, err := r.itemsBySale(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.Items = items
	}
	return list, nil
}

func (r *SaleRepo) itemsBySale(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	query := `
		SELECT id, sale_id, product_id, variant_id, quantity, unit_price
		FROM sale_items WHERE sale_id = $1`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, mapError("list sale items", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, mapError("scan sale item", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
