package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// InventoryHistoryRepository define el puerto del historial de stock (append-only).
// No existen Update ni Delete a propósito: el historial es inmutable.
type InventoryHistoryRepository interface {
	Append(ctx context.Context, entry *entity.InventoryHistoryEntry) error

	// ListByProduct devuelve entradas ordenadas por fecha descendente. variantID vacío
	// incluye todas las variantes del producto. limit lo acota el caller.
	ListByProduct(ctx context.Context, productID, variantID string, limit int) ([]*entity.InventoryHistoryEntry, error)
}
