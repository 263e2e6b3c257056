package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.InventoryHistoryRepository = (*InventoryHistoryRepo)(nil)

// InventoryHistoryRepo implementación sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee: la tabla es append-only.
type InventoryHistoryRepo struct {
	q Querier
}

// NewInventoryHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryHistoryRepository(q Querier) *InventoryHistoryRepo {
	return &InventoryHistoryRepo{q: q}
}

// Append persiste una entrada de historial.
func (r *InventoryHistoryRepo) Append(ctx context.Context, entry *entity.InventoryHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_history (id, product_id, variant_id, previous_stock, new_stock, delta, kind, reference_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	referenceID := (*string)(nil)
	if entry.ReferenceID != "" {
		referenceID = &entry.ReferenceID
	}
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.ProductID, entry.VariantID,
		entry.PreviousStock, entry.NewStock, entry.Delta,
		entry.Kind, referenceID, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return mapError("append inventory history", err)
	}
	return nil
}

// ListByProduct lista entradas de un producto por fecha descendente.
// variantID vacío incluye todas las variantes.
func (r *InventoryHistoryRepo) ListByProduct(ctx context.Context, productID, variantID string, limit int) ([]*entity.InventoryHistoryEntry, error) {
	query := `
		SELECT id, product_id, variant_id, previous_stock, new_stock, delta, kind, reference_id, note, created_at
		FROM inventory_history WHERE product_id = $1`
	args := []any{productID}
	if variantID != "" {
		query += " AND variant_id = $2"
		args = append(args, variantID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list inventory history", err)
	}
	defer rows.Close()
	var list []*entity.InventoryHistoryEntry
	for rows.Next() {
		var e entity.InventoryHistoryEntry
		var referenceID *string
		if err := rows.Scan(&e.ID, &e.ProductID, &e.VariantID, &e.PreviousStock, &e.NewStock,
			&e.Delta, &e.Kind, &referenceID, &e.Note, &e.CreatedAt); err != nil {
			return nil, mapError("scan inventory history", err)
		}
		if referenceID != nil {
			e.ReferenceID = *referenceID
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
