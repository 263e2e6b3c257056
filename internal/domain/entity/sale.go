package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta. Una devolución no borra la venta original: la marca
// como revertida para conservar el rastro de auditoría de la transacción.
const (
	SaleStatusCompleted = "completed"
	SaleStatusReversed  = "reversed"
)

// Sale representa una venta confirmada con sus líneas.
type Sale struct {
	ID         string
	Status     string
	Total      decimal.Decimal
	Note       string
	Items      []SaleItem
	CreatedAt  time.Time
	ReversedAt *time.Time
}

// SaleItem línea de venta: cantidad de una combinación (producto, variante).
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	VariantID string
	Quantity  int64
	UnitPrice decimal.Decimal
}
