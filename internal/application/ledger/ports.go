package ledger

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios y el publicador de cambios atados a esa tx. Garantiza que el
// stock, la entrada de historial y la notificación comparten unidad de trabajo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error) error
}
