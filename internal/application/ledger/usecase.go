// Package ledger es el único escritor del stock: aplica mutaciones que preservan
// el invariante stock >= 0 y deja exactamente una entrada de historial por
// mutación, en la misma transacción.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

// Tablas que emiten notificaciones de cambio al feed.
const (
	TableInventoryRecords = "inventory_records"
	TableProducts         = "products"
)

// maxRetries reintentos internos ante conflicto de escritura concurrente.
const defaultMaxRetries = 3

var validKinds = map[string]struct{}{
	entity.ChangeKindSale:            {},
	entity.ChangeKindPurchaseReceipt: {},
	entity.ChangeKindAdjustment:      {},
	entity.ChangeKindReturn:          {},
	entity.ChangeKindInitialStock:    {},
}

// Ledger caso de uso con las operaciones de mutación de stock. La serialización
// por clave (producto, variante) se logra con compare-and-set sobre la columna
// stock: si otro escritor ganó, la operación completa se rehace desde la lectura.
// Claves distintas no se coordinan entre sí.
type Ledger struct {
	txRunner   TxRunner
	log        *logger.Logger
	maxRetries int
}

// New construye el ledger. maxRetries <= 0 usa el valor por defecto.
func New(txRunner TxRunner, log *logger.Logger, maxRetries int) *Ledger {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Ledger{txRunner: txRunner, log: log, maxRetries: maxRetries}
}

// MutationInput entrada normalizada de una mutación de stock.
type MutationInput struct {
	ProductID   string
	VariantID   string // vacío = producto sin variantes
	Delta       int64  // con signo; NewStock = PreviousStock + Delta
	Kind        string
	ReferenceID string
	Note        string
}

// Adjust corrección manual; delta puede ser positivo o negativo.
// Devuelve el stock resultante.
func (l *Ledger) Adjust(ctx context.Context, productID, variantID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, domain.ErrInvalidInput
	}
	return l.apply(ctx, MutationInput{
		ProductID: productID,
		VariantID: variantID,
		Delta:     delta,
		Kind:      entity.ChangeKindAdjustment,
		Note:      reason,
	})
}

// RecordSale descuenta quantity unidades por una venta.
func (l *Ledger) RecordSale(ctx context.Context, productID, variantID string, quantity int64, saleRef string) (int64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return l.apply(ctx, MutationInput{
		ProductID:   productID,
		VariantID:   variantID,
		Delta:       -quantity,
		Kind:        entity.ChangeKindSale,
		ReferenceID: saleRef,
	})
}

// RecordPurchaseReceipt suma quantity unidades por la recepción de una orden.
// Si la combinación (producto, variante) no tiene registro aún, lo crea con
// previous_stock = 0.
func (l *Ledger) RecordPurchaseReceipt(ctx context.Context, productID, variantID string, quantity int64, orderRef string) (int64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return l.apply(ctx, MutationInput{
		ProductID:   productID,
		VariantID:   variantID,
		Delta:       quantity,
		Kind:        entity.ChangeKindPurchaseReceipt,
		ReferenceID: orderRef,
	})
}

// RecordReturn restituye quantity unidades revirtiendo lógicamente una venta previa.
// No verifica que la venta exista: solo exige cantidad y referencia (la capa de
// ventas valida la venta antes de llegar aquí).
func (l *Ledger) RecordReturn(ctx context.Context, productID, variantID string, quantity int64, saleRef string) (int64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return l.apply(ctx, MutationInput{
		ProductID:   productID,
		VariantID:   variantID,
		Delta:       quantity,
		Kind:        entity.ChangeKindReturn,
		ReferenceID: saleRef,
	})
}

// RecordInitialStock siembra el stock de una combinación recién creada por el
// catálogo. previous_stock queda en 0 y la entrada de historial es initial_stock.
func (l *Ledger) RecordInitialStock(ctx context.Context, productID, variantID string, quantity int64, productRef string) (int64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return l.apply(ctx, MutationInput{
		ProductID:   productID,
		VariantID:   variantID,
		Delta:       quantity,
		Kind:        entity.ChangeKindInitialStock,
		ReferenceID: productRef,
	})
}

// apply ejecuta la mutación en su propia transacción, reintentando ante
// conflicto de escritura concurrente hasta maxRetries veces. Los errores de
// negocio (stock insuficiente) nunca se reintentan.
func (l *Ledger) apply(ctx context.Context, in MutationInput) (int64, error) {
	if in.ProductID == "" || in.Delta == 0 {
		return 0, domain.ErrInvalidInput
	}
	if _, ok := validKinds[in.Kind]; !ok {
		return 0, domain.ErrInvalidInput
	}

	var newStock int64
	for attempt := 0; ; attempt++ {
		err := l.txRunner.Run(ctx, func(
			recordRepo repository.InventoryRecordRepository,
			historyRepo repository.InventoryHistoryRepository,
			productRepo repository.ProductRepository,
			publisher realtime.Publisher,
		) error {
			ns, err := l.ApplyInTx(ctx, recordRepo, historyRepo, productRepo, publisher, in)
			newStock = ns
			return err
		})
		if err == nil {
			return newStock, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) || attempt+1 >= l.maxRetries {
			return 0, err
		}
		l.log.Debug().
			Str("product_id", in.ProductID).
			Str("variant_id", in.VariantID).
			Int("attempt", attempt+1).
			Msg("conflicto de escritura en el ledger, reintentando")
	}
}

// ApplyInTx aplica una mutación usando los repositorios del caller (misma
// transacción). Lo usan ventas y órdenes para que varias líneas compartan una
// sola unidad de trabajo: si una línea falla, la transacción entera se revierte.
// Una vez pasada la escritura atómica, la operación no es cancelable.
func (l *Ledger) ApplyInTx(
	ctx context.Context,
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
	in MutationInput,
) (int64, error) {
	record, err := recordRepo.Get(ctx, in.ProductID, in.VariantID)
	if err != nil {
		return 0, err
	}

	var previous int64
	exists := record != nil
	if exists {
		previous = record.Stock
	}
	newStock := previous + in.Delta
	if newStock < 0 {
		return 0, fmt.Errorf("%w: producto %s variante %q (actual %d, delta %d)",
			domain.ErrInsufficientStock, in.ProductID, in.VariantID, previous, in.Delta)
	}

	now := time.Now()
	if exists {
		if err := recordRepo.UpdateStock(ctx, in.ProductID, in.VariantID, previous, newStock); err != nil {
			return 0, err
		}
	} else {
		// Creación perezosa: primer evento para esta combinación
		if err := recordRepo.Create(ctx, &entity.InventoryRecord{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Stock:     newStock,
			UpdatedAt: now,
		}); err != nil {
			return 0, err
		}
	}

	if err := productRepo.IncrementStock(ctx, in.ProductID, in.Delta); err != nil {
		return 0, err
	}

	entry := &entity.InventoryHistoryEntry{
		ID:            uuid.New().String(),
		ProductID:     in.ProductID,
		VariantID:     in.VariantID,
		PreviousStock: previous,
		NewStock:      newStock,
		Delta:         in.Delta,
		Kind:          in.Kind,
		ReferenceID:   in.ReferenceID,
		Note:          in.Note,
		CreatedAt:     now,
	}
	if err := historyRepo.Append(ctx, entry); err != nil {
		return 0, err
	}

	if err := l.publishChanges(ctx, publisher, in, newStock, exists); err != nil {
		return 0, err
	}
	return newStock, nil
}

// publishChanges emite las notificaciones de cambio de la mutación. Se publican
// dentro de la transacción: el backend las entrega recién en el commit.
func (l *Ledger) publishChanges(ctx context.Context, publisher realtime.Publisher, in MutationInput, newStock int64, existed bool) error {
	recordRow, err := json.Marshal(map[string]any{
		"product_id": in.ProductID,
		"variant_id": in.VariantID,
		"stock":      newStock,
	})
	if err != nil {
		return fmt.Errorf("serializar notificación: %w", err)
	}
	kind := realtime.EventUpdated
	if !existed {
		kind = realtime.EventCreated
	}
	if err := publisher.Publish(ctx, realtime.Notification{
		Table:  TableInventoryRecords,
		Kind:   kind,
		NewRow: recordRow,
	}); err != nil {
		return err
	}

	productRow, err := json.Marshal(map[string]any{"id": in.ProductID})
	if err != nil {
		return fmt.Errorf("serializar notificación: %w", err)
	}
	return publisher.Publish(ctx, realtime.Notification{
		Table:  TableProducts,
		Kind:   realtime.EventUpdated,
		NewRow: productRow,
	})
}

// History consulta read-only del historial, ordenado por fecha, acotado por limit.
type History struct {
	historyRepo repository.InventoryHistoryRepository
}

// NewHistory construye la consulta de historial.
func NewHistory(historyRepo repository.InventoryHistoryRepository) *History {
	return &History{historyRepo: historyRepo}
}

// ByProduct lista el historial de un producto (variante opcional). limit <= 0
// usa 50; el tope es 500.
func (h *History) ByProduct(ctx context.Context, productID, variantID string, limit int) ([]*entity.InventoryHistoryEntry, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return h.historyRepo.ListByProduct(ctx, productID, variantID, limit)
}
