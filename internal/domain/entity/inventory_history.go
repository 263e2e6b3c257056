package entity

import "time"

// Tipos de cambio de stock.
const (
	ChangeKindSale            = "sale"              // venta
	ChangeKindPurchaseReceipt = "purchase_receipt"  // recepción de orden de compra
	ChangeKindAdjustment      = "manual_adjustment" // ajuste manual
	ChangeKindReturn          = "return"            // devolución (reversa una venta)
	ChangeKindInitialStock    = "initial_stock"     // stock inicial al crear el producto
)

// InventoryHistoryEntry registro inmutable de una mutación de stock.
// Append-only: nunca se actualiza ni se borra. Se escribe exactamente una entrada
// por mutación, en la misma transacción que la escritura del stock.
// Delta == NewStock - PreviousStock.
type InventoryHistoryEntry struct {
	ID            string
	ProductID     string
	VariantID     string
	PreviousStock int64
	NewStock      int64
	Delta         int64
	Kind          string // uno de los ChangeKind*
	ReferenceID   string // venta, orden o ajuste que originó el cambio (opcional)
	Note          string
	CreatedAt     time.Time
}
