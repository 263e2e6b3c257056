package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste cabecera y líneas de la orden.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO purchase_orders (id, supplier, status, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, order.ID, order.Supplier, order.Status, order.CreatedAt); err != nil {
		return mapError("create order", err)
	}
	itemQuery := `
		INSERT INTO purchase_order_items (id, order_id, product_id, variant_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range order.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.VariantID, item.Quantity, item.UnitCost,
		); err != nil {
			return mapError("create order item", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus líneas, o nil si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `
		SELECT id, supplier, status, created_at, received_at
		FROM purchase_orders WHERE id = $1`
	var o entity.Order
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.Supplier, &o.Status, &o.CreatedAt, &o.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get order", err)
	}
	items, err := r.itemsByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// MarkReceived cambia el estado a received solo si la orden sigue pending.
func (r *OrderRepo) MarkReceived(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE purchase_orders SET status = $3, received_at = $2
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(ctx, query, id, at, entity.OrderStatusReceived, entity.OrderStatusPending)
	if err != nil {
		return mapError("mark order received", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderAlreadyReceived
	}
	return nil
}

// List lista órdenes por fecha descendente (con sus líneas).
func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	query := `
		SELECT id, supplier, status, created_at, received_at
		FROM purchase_orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list orders", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.Supplier, &o.Status, &o.CreatedAt, &o.ReceivedAt); err != nil {
			return nil, mapError("scan order", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list orders", err)
	}
	for _, o := range list {
		items, err := r.itemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return list, nil
}

func (r *OrderRepo) itemsByOrder(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, variant_id, quantity, unit_cost
		FROM purchase_order_items WHERE order_id = $1`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, mapError("list order items", err)
	}
	defer rows.Close()
	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitCost); err != nil {
			return nil, mapError("scan order item", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
