// Package catalog casos de uso mínimos del catálogo de productos.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// UseCase alta y consulta de productos. El stock inicial no se escribe directo:
// pasa por el ledger con tipo initial_stock para que quede en el historial.
type UseCase struct {
	productRepo repository.ProductRepository
	recordRepo  repository.InventoryRecordRepository
	ledger      *ledger.Ledger
}

// New construye el caso de uso.
func New(productRepo repository.ProductRepository, recordRepo repository.InventoryRecordRepository, ldg *ledger.Ledger) *UseCase {
	return &UseCase{productRepo: productRepo, recordRepo: recordRepo, ledger: ldg}
}

// CreateProductInput entrada de alta de producto.
type CreateProductInput struct {
	Name         string
	Category     string
	Price        decimal.Decimal
	Cost         decimal.Decimal
	InitialStock int64
	VariantID    string // variante que recibe el stock inicial (opcional)
}

// CreateProduct persiste el producto y, si trae stock inicial, lo siembra vía ledger.
func (uc *UseCase) CreateProduct(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	if in.Name == "" || in.Price.LessThan(decimal.Zero) || in.Cost.LessThan(decimal.Zero) || in.InitialStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Category:  in.Category,
		Price:     in.Price,
		Cost:      in.Cost,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	if in.InitialStock > 0 {
		stock, err := uc.ledger.RecordInitialStock(ctx, product.ID, in.VariantID, in.InitialStock, product.ID)
		if err != nil {
			return nil, err
		}
		product.Stock = stock
	}
	return product, nil
}

// GetProduct devuelve el producto con el stock por variante.
func (uc *UseCase) GetProduct(ctx context.Context, id string) (*entity.Product, []*entity.InventoryRecord, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrNotFound
	}
	records, err := uc.recordRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return product, records, nil
}

// ListProducts lista el catálogo paginado.
func (uc *UseCase) ListProducts(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return uc.productRepo.List(ctx, limit, offset)
}
