package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia del catálogo (DIP).
// El campo Stock del producto es un agregado denormalizado: solo se toca vía
// IncrementStock, dentro de la misma transacción que la mutación del ledger.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)

	// IncrementStock suma delta (puede ser negativo) al stock agregado del producto.
	IncrementStock(ctx context.Context, productID string, delta int64) error

	// UpdateCost actualiza el costo promedio ponderado tras una entrada.
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error

	// TotalStock suma el stock agregado de todo el catálogo (dashboard).
	TotalStock(ctx context.Context) (int64, error)

	// CountBelowStock cuenta productos con stock agregado menor al umbral (dashboard).
	CountBelowStock(ctx context.Context, threshold int64) (int64, error)
}
