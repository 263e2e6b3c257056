package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
// La serialización por clave se hace con escrituras condicionales: el UPDATE
// compara el stock leído y el INSERT exige que la fila no exista. Cero filas
// afectadas significa que otro escritor ganó.
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// Get devuelve el registro o nil si la combinación no existe aún.
func (r *InventoryRecordRepo) Get(ctx context.Context, productID, variantID string) (*entity.InventoryRecord, error) {
	query := `
		SELECT product_id, variant_id, stock, updated_at
		FROM inventory_records WHERE product_id = $1 AND variant_id = $2`
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx, query, productID, variantID).Scan(
		&rec.ProductID, &rec.VariantID, &rec.Stock, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get inventory record", err)
	}
	return &rec, nil
}

// Create inserta el registro; si otro escritor creó la combinación primero,
// devuelve domain.ErrConcurrentModification para que la operación se rehaga.
func (r *InventoryRecordRepo) Create(ctx context.Context, record *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (product_id, variant_id, stock, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, variant_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, record.ProductID, record.VariantID, record.Stock)
	if err != nil {
		return mapError("create inventory record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// UpdateStock compare-and-set: escribe newStock solo si el valor actual sigue
// siendo expected. Cero filas afectadas = conflicto.
func (r *InventoryRecordRepo) UpdateStock(ctx context.Context, productID, variantID string, expected, newStock int64) error {
	query := `
		UPDATE inventory_records
		SET stock = $4, updated_at = now()
		WHERE product_id = $1 AND variant_id = $2 AND stock = $3`
	tag, err := r.q.Exec(ctx, query, productID, variantID, expected, newStock)
	if err != nil {
		return mapError("update inventory record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// ListByProduct lista los registros de todas las variantes de un producto.
func (r *InventoryRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT product_id, variant_id, stock, updated_at
		FROM inventory_records WHERE product_id = $1
		ORDER BY variant_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, mapError("list inventory records", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		var rec entity.InventoryRecord
		if err := rows.Scan(&rec.ProductID, &rec.VariantID, &rec.Stock, &rec.UpdatedAt); err != nil {
			return nil, mapError("scan inventory record", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
