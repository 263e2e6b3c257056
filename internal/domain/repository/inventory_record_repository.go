package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// InventoryRecordRepository define el puerto para el stock por (producto, variante).
// La serialización por clave se garantiza con escrituras condicionales (compare-and-set),
// no con bloqueo de fila: claves distintas avanzan en paralelo sin coordinación.
type InventoryRecordRepository interface {
	// Get devuelve el registro o nil si la combinación aún no existe.
	Get(ctx context.Context, productID, variantID string) (*entity.InventoryRecord, error)

	// Create inserta el registro solo si la combinación no existe todavía.
	// Devuelve domain.ErrConcurrentModification si otro escritor la creó primero.
	Create(ctx context.Context, record *entity.InventoryRecord) error

	// UpdateStock escribe newStock solo si el valor actual sigue siendo expected.
	// Devuelve domain.ErrConcurrentModification si la comparación falla.
	UpdateStock(ctx context.Context, productID, variantID string, expected, newStock int64) error

	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error)
}
