package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia de ventas (cabecera + líneas).
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error

	// GetByID devuelve la venta con sus líneas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)

	// MarkReversed cambia el estado a reversed solo si la venta sigue completed.
	// Devuelve domain.ErrSaleAlreadyReversed si ya fue revertida.
	MarkReversed(ctx context.Context, id string, at time.Time) error

	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
}
