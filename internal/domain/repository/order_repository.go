package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia de órdenes de compra.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error

	// GetByID devuelve la orden con sus líneas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)

	// MarkReceived cambia el estado a received solo si la orden sigue pending.
	// Devuelve domain.ErrOrderAlreadyReceived si ya fue recibida.
	MarkReceived(ctx context.Context, id string, at time.Time) error

	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)
}
