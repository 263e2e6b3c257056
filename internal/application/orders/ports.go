package orders

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
)

// TxRunner transacción de recepción de orden: todas las entradas de stock y el
// cambio de estado de la orden comparten unidad de trabajo.
type TxRunner interface {
	RunOrder(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error) error
}
