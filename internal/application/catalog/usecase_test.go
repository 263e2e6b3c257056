package catalog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/catalog"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

func key(productID, variantID string) string { return productID + "|" + variantID }

type memStore struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	records  map[string]*entity.InventoryRecord
	history  []*entity.InventoryHistoryEntry
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]*entity.Product),
		records:  make(map[string]*entity.InventoryRecord),
	}
}

type productRepo struct{ store *memStore }

func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.products[product.ID]; exists {
		return domain.ErrConflict
	}
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, productID string, delta int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.products[productID]; ok {
		p.Stock += delta
	}
	return nil
}

func (r *productRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	return nil
}

func (r *productRepo) TotalStock(ctx context.Context) (int64, error)               { return 0, nil }
func (r *productRepo) CountBelowStock(ctx context.Context, t int64) (int64, error) { return 0, nil }

type recordRepo struct{ store *memStore }

func (r *recordRepo) Get(ctx context.Context, productID, variantID string) (*entity.InventoryRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[key(productID, variantID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *recordRepo) Create(ctx context.Context, record *entity.InventoryRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := key(record.ProductID, record.VariantID)
	if _, exists := r.store.records[k]; exists {
		return domain.ErrConcurrentModification
	}
	cp := *record
	r.store.records[k] = &cp
	return nil
}

func (r *recordRepo) UpdateStock(ctx context.Context, productID, variantID string, expected, newStock int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[key(productID, variantID)]
	if !ok || rec.Stock != expected {
		return domain.ErrConcurrentModification
	}
	rec.Stock = newStock
	return nil
}

func (r *recordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.InventoryRecord
	for _, rec := range r.store.records {
		if rec.ProductID == productID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type historyRepo struct{ store *memStore }

func (r *historyRepo) Append(ctx context.Context, entry *entity.InventoryHistoryEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *entry
	r.store.history = append(r.store.history, &cp)
	return nil
}

func (r *historyRepo) ListByProduct(ctx context.Context, productID, variantID string, limit int) ([]*entity.InventoryHistoryEntry, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, n realtime.Notification) error { return nil }

type fakeTxRunner struct{ store *memStore }

func (f *fakeTxRunner) Run(ctx context.Context, fn func(
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	return fn(&recordRepo{store: f.store}, &historyRepo{store: f.store}, &productRepo{store: f.store}, nopPublisher{})
}

func newTestUseCase(store *memStore) *catalog.UseCase {
	ldg := ledger.New(&fakeTxRunner{store: store}, logger.Nop(), 3)
	return catalog.New(&productRepo{store: store}, &recordRepo{store: store}, ldg)
}

func TestCreateProductSiembraStockInicialViaLedger(t *testing.T) {
	store := newMemStore()
	uc := newTestUseCase(store)

	product, err := uc.CreateProduct(context.Background(), catalog.CreateProductInput{
		Name:         "yerba 1kg",
		Price:        decimal.NewFromInt(35),
		Cost:         decimal.NewFromInt(20),
		InitialStock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), product.Stock)

	// El stock inicial no se escribe directo: queda como initial_stock en el historial
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.history, 1)
	assert.Equal(t, entity.ChangeKindInitialStock, store.history[0].Kind)
	assert.Equal(t, int64(0), store.history[0].PreviousStock)
	assert.Equal(t, int64(12), store.history[0].NewStock)
	assert.Equal(t, product.ID, store.history[0].ReferenceID)
}

func TestCreateProductSinStockInicial(t *testing.T) {
	store := newMemStore()
	uc := newTestUseCase(store)

	product, err := uc.CreateProduct(context.Background(), catalog.CreateProductInput{
		Name:  "fideos",
		Price: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Zero(t, product.Stock)
	store.mu.Lock()
	assert.Empty(t, store.history)
	store.mu.Unlock()
}

func TestCreateProductValidaEntrada(t *testing.T) {
	store := newMemStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, catalog.CreateProductInput{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateProduct(ctx, catalog.CreateProductInput{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateProduct(ctx, catalog.CreateProductInput{Name: "x", InitialStock: -3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetProductConVariantes(t *testing.T) {
	store := newMemStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, catalog.CreateProductInput{
		Name:         "remera",
		Price:        decimal.NewFromInt(10),
		InitialStock: 4,
		VariantID:    "talle-m",
	})
	require.NoError(t, err)

	product, records, err := uc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, product.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "talle-m", records[0].VariantID)
	assert.Equal(t, int64(4), records[0].Stock)

	_, _, err = uc.GetProduct(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
