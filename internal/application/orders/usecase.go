// Package orders gestiona órdenes de compra y su recepción contra el ledger.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appledger "github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	domledger "github.com/jhoicas/pos-sync/internal/domain/ledger"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultMaxRetries = 3

// UseCase crea órdenes de compra y las recibe: cada línea genera una entrada
// purchase_receipt en el ledger y actualiza el costo promedio ponderado del
// producto, todo en una transacción.
type UseCase struct {
	txRunner    TxRunner
	ledger      *appledger.Ledger
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
	maxRetries  int
}

// New construye el caso de uso.
func New(
	txRunner TxRunner,
	ldg *appledger.Ledger,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		ledger:      ldg,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		log:         log,
		maxRetries:  defaultMaxRetries,
	}
}

// OrderLineInput línea del request de orden de compra.
type OrderLineInput struct {
	ProductID string
	VariantID string
	Quantity  int64
	UnitCost  decimal.Decimal
}

// CreateOrderInput entrada para crear una orden pendiente.
type CreateOrderInput struct {
	Supplier string
	Items    []OrderLineInput
}

// CreateOrder valida y persiste una orden en estado pending. No toca el stock:
// eso ocurre recién en la recepción.
func (uc *UseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
	}

	order := &entity.Order{
		ID:        uuid.New().String(),
		Supplier:  in.Supplier,
		Status:    entity.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ReceiveOrder registra la recepción: por cada línea suma el stock (creando el
// registro de inventario si es la primera vez para esa combinación), recalcula
// el costo promedio del producto y marca la orden como received. Una segunda
// recepción devuelve domain.ErrOrderAlreadyReceived sin duplicar entradas.
func (uc *UseCase) ReceiveOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.Status == entity.OrderStatusReceived {
		return nil, domain.ErrOrderAlreadyReceived
	}

	now := time.Now()
	err = uc.runWithRetry(ctx, func(
		orderRepo repository.OrderRepository,
		recordRepo repository.InventoryRecordRepository,
		historyRepo repository.InventoryHistoryRepository,
		productRepo repository.ProductRepository,
		publisher realtime.Publisher,
	) error {
		// Condicional: si otra recepción ganó, aborta toda la tx
		if err := orderRepo.MarkReceived(ctx, order.ID, now); err != nil {
			return err
		}
		for _, item := range order.Items {
			// Costo promedio ponderado sobre el stock agregado previo a la entrada
			product, err := productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			newCost := domledger.WeightedAverageCost(product.Stock, product.Cost, item.Quantity, item.UnitCost)
			if err := productRepo.UpdateCost(ctx, item.ProductID, newCost); err != nil {
				return err
			}
			_, err = uc.ledger.ApplyInTx(ctx, recordRepo, historyRepo, productRepo, publisher, appledger.MutationInput{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				Delta:       item.Quantity,
				Kind:        entity.ChangeKindPurchaseReceipt,
				ReferenceID: order.ID,
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
	order.Status = entity.OrderStatusReceived
	order.ReceivedAt = &now
	return order, nil
}

// GetOrder devuelve una orden con sus líneas.
func (uc *UseCase) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (uc *UseCase) runWithRetry(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	for attempt := 0; ; attempt++ {
		err := uc.txRunner.RunOrder(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) || attempt+1 >= uc.maxRetries {
			return err
		}
		uc.log.Debug().Int("attempt", attempt+1).Msg("conflicto en recepción de orden, reintentando transacción")
	}
}
