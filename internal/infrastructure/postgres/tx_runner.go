package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/application/orders"
	"github.com/jhoicas/pos-sync/internal/application/sales"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
)

// TxRunner implementa los puertos transaccionales de cada caso de uso.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ sales.TxRunner = (*TxRunner)(nil)
var _ orders.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL, con los
// repositorios y el publicador de notificaciones atados a esa tx (pg_notify
// dentro de una transacción entrega recién en el commit).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción de una mutación suelta del ledger.
func (r *TxRunner) Run(ctx context.Context, fn func(
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewInventoryRecordRepository(tx),
		NewInventoryHistoryRepository(tx),
		NewProductRepository(tx),
		NewNotifier(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// RunSale transacción de checkout/devolución: repos de inventario + ventas.
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewSaleRepository(tx),
		NewInventoryRecordRepository(tx),
		NewInventoryHistoryRepository(tx),
		NewProductRepository(tx),
		NewNotifier(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// RunOrder transacción de recepción de orden: repos de inventario + órdenes.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewOrderRepository(tx),
		NewInventoryRecordRepository(tx),
		NewInventoryHistoryRepository(tx),
		NewProductRepository(tx),
		NewNotifier(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}
