package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea del request de orden de compra.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateOrderRequest request de creación de orden de compra.
type CreateOrderRequest struct {
	Supplier string             `json:"supplier"`
	Items    []OrderItemRequest `json:"items"`
}

// OrderItemResponse línea de orden.
type OrderItemResponse struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// OrderResponse orden con sus líneas.
type OrderResponse struct {
	ID         string              `json:"id"`
	Supplier   string              `json:"supplier,omitempty"`
	Status     string              `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
	ReceivedAt *time.Time          `json:"received_at,omitempty"`
}
