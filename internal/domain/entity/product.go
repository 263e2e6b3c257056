package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Stock es el agregado denormalizado de todas sus variantes, cómodo para vistas de
// catálogo; solo lo escribe el ledger, nunca otro código directamente.
type Product struct {
	ID        string
	Name      string
	Category  string
	Price     decimal.Decimal // precio de venta
	Cost      decimal.Decimal // costo promedio ponderado (inicia en 0)
	Stock     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
