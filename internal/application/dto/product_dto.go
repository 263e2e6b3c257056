package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest request de alta de producto.
type CreateProductRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	InitialStock int64           `json:"initial_stock"`
	VariantID    string          `json:"variant_id"`
}

// ProductResponse producto con su stock agregado.
type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Stock     int64           `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VariantStockResponse stock de una variante.
type VariantStockResponse struct {
	VariantID string `json:"variant_id"`
	Stock     int64  `json:"stock"`
}

// ProductDetailResponse producto con el desglose por variante.
type ProductDetailResponse struct {
	ProductResponse
	Variants []VariantStockResponse `json:"variants"`
}
