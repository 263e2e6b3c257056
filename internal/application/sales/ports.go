package sales

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
)

// TxRunner transacción de checkout: la venta y todas sus mutaciones de stock
// comparten unidad de trabajo; una línea que falla revierte todo.
type TxRunner interface {
	RunSale(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error) error
}
