// Package sales orquesta el checkout y las devoluciones sobre el ledger.
package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultMaxRetries = 3

// UseCase crea ventas descontando inventario en una sola transacción, y procesa
// devoluciones como reversa: la venta original se conserva marcada como
// reversed, nunca se borra (el rastro de auditoría de la transacción sobrevive).
type UseCase struct {
	txRunner    TxRunner
	ledger      *ledger.Ledger
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
	maxRetries  int
}

// New construye el caso de uso.
func New(
	txRunner TxRunner,
	ldg *ledger.Ledger,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		ledger:      ldg,
		saleRepo:    saleRepo,
		productRepo: productRepo,
		log:         log,
		maxRetries:  defaultMaxRetries,
	}
}

// SaleLineInput línea del request de venta. UnitPrice en cero toma el precio
// de catálogo del producto.
type SaleLineInput struct {
	ProductID string
	VariantID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CreateSaleInput entrada del checkout.
type CreateSaleInput struct {
	Note  string
	Items []SaleLineInput
}

// ledgerKey clave de mutación: el checkout emite exactamente una mutación del
// ledger por combinación (producto, variante) afectada, sin importar en cuántas
// líneas aparezca.
type ledgerKey struct {
	productID string
	variantID string
}

// CreateSale valida las líneas, descuenta el stock de cada combinación y
// persiste la venta, todo en una transacción. Si cualquier línea no tiene stock
// suficiente la venta completa se rechaza: no hay aplicación parcial.
func (uc *UseCase) CreateSale(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// Validar productos y resolver precios (fuera de la tx, solo lectura)
	prices := make(map[string]decimal.Decimal, len(in.Items))
	for i := range in.Items {
		item := &in.Items[i]
		if item.ProductID == "" || item.Quantity <= 0 || item.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if _, ok := prices[item.ProductID]; !ok {
			product, err := uc.productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, domain.ErrNotFound
			}
			prices[item.ProductID] = product.Price
		}
		if item.UnitPrice.IsZero() {
			item.UnitPrice = prices[item.ProductID]
		}
	}

	now := time.Now()
	sale := &entity.Sale{
		ID:        uuid.New().String(),
		Status:    entity.SaleStatusCompleted,
		Note:      in.Note,
		CreatedAt: now,
	}
	total := decimal.Zero
	for _, item := range in.Items {
		sale.Items = append(sale.Items, entity.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	sale.Total = total

	keys, quantities := aggregateByKey(sale.Items)
	err := uc.runWithRetry(ctx, func(
		saleRepo repository.SaleRepository,
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error {
		for _, key := range keys {
			_, err := uc.ledger.ApplyInTx(ctx, recordRepo, historyRepo, productRepo, publisher, ledger.MutationInput{
				ProductID:   key.productID,
				VariantID:   key.variantID,
				Delta:       -quantities[key],
				Kind:        entity.ChangeKindSale,
				ReferenceID: sale.ID,
			})
			if err != nil {
				return err
			}
		}
		return saleRepo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ReverseSale procesa una devolución: restituye las cantidades vendidas y marca
// la venta como reversed. Idempotencia: una segunda reversa devuelve
// domain.ErrSaleAlreadyReversed sin tocar el stock.
func (uc *UseCase) ReverseSale(ctx context.Context, saleID string) (*entity.Sale, error) {
	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.Status == entity.SaleStatusReversed {
		return nil, domain.ErrSaleAlreadyReversed
	}

	now := time.Now()
	keys, quantities := aggregateByKey(sale.Items)
	err = uc.runWithRetry(ctx, func(
		saleRepo repository.SaleRepository,
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error {
		// MarkReversed es condicional: si otra reversa ganó, aborta toda la tx
		if err := saleRepo.MarkReversed(ctx, sale.ID, now); err != nil {
			return err
		}
		for _, key := range keys {
			_, err := uc.ledger.ApplyInTx(ctx, recordRepo, historyRepo, productRepo, publisher, ledger.MutationInput{
				ProductID:   key.productID,
				VariantID:   key.variantID,
				Delta:       quantities[key],
				Kind:        entity.ChangeKindReturn,
				ReferenceID: sale.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sale.Status = entity.SaleStatusReversed
	sale.ReversedAt = &now
	return sale, nil
}

// GetSale devuelve una venta con sus líneas.
func (uc *UseCase) GetSale(ctx context.Context, saleID string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// runWithRetry rehace la transacción completa ante conflicto de escritura
// concurrente, un número acotado de veces. Errores de negocio no se reintentan.
func (uc *UseCase) runWithRetry(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	for attempt := 0; ; attempt++ {
		err := uc.txRunner.RunSale(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) || attempt+1 >= uc.maxRetries {
			return err
		}
		uc.log.Debug().Int("attempt", attempt+1).Msg("conflicto en checkout, reintentando transacción")
	}
}

func aggregateByKey(items []entity.SaleItem) ([]ledgerKey, map[ledgerKey]int64) {
	var keys []ledgerKey
	quantities := make(map[ledgerKey]int64, len(items))
	for _, item := range items {
		key := ledgerKey{productID: item.ProductID, variantID: item.VariantID}
		if _, seen := quantities[key]; !seen {
			keys = append(keys, key)
		}
		quantities[key] += item.Quantity
	}
	return keys, quantities
}
