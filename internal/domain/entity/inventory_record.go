package entity

import "time"

// InventoryRecord stock actual por combinación (producto, variante).
// VariantID vacío significa producto sin variantes; el ledger lo trata como una
// clave más. Se crea perezosamente con el primer evento que afecte la combinación.
// Invariante: Stock >= 0, siempre.
type InventoryRecord struct {
	ProductID string
	VariantID string
	Stock     int64
	UpdatedAt time.Time
}
