package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	OrderStatusPending  = "pending"
	OrderStatusReceived = "received"
)

// Order orden de compra a proveedor. Al recibirse, cada línea genera exactamente
// una entrada (purchase_receipt) en el ledger por combinación (producto, variante).
type Order struct {
	ID         string
	Supplier   string
	Status     string
	Items      []OrderItem
	CreatedAt  time.Time
	ReceivedAt *time.Time
}

// OrderItem línea de orden de compra.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID string
	Quantity  int64
	UnitCost  decimal.Decimal
}
