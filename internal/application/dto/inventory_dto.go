package dto

import "time"

// AdjustStockRequest request de ajuste manual de stock.
type AdjustStockRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason"`
}

// StockResponse stock resultante tras una mutación.
type StockResponse struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Stock     int64  `json:"stock"`
}

// HistoryEntryResponse entrada del historial de stock.
type HistoryEntryResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	VariantID     string    `json:"variant_id,omitempty"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Delta         int64     `json:"delta"`
	Kind          string    `json:"kind"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
