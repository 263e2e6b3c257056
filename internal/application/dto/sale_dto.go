package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea del request de venta. unit_price en cero usa el precio
// de catálogo.
type SaleItemRequest struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest request de checkout.
type CreateSaleRequest struct {
	Note  string            `json:"note"`
	Items []SaleItemRequest `json:"items"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	Note       string             `json:"note,omitempty"`
	Items      []SaleItemResponse `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
	ReversedAt *time.Time         `json:"reversed_at,omitempty"`
}
