package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrInsufficientStock regla de negocio: la mutación dejaría el stock negativo.
	// Nunca se reintenta; siempre llega al caller.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrConcurrentModification la escritura condicional perdió contra otro escritor
	// sobre la misma clave (producto, variante). El ledger reintenta internamente
	// un número acotado de veces antes de propagarlo.
	ErrConcurrentModification = errors.New("modificación concurrente del stock")

	// ErrTransientStorage el almacenamiento no respondió (timeout, red). Reintentable.
	ErrTransientStorage = errors.New("almacenamiento no disponible temporalmente")

	ErrSaleAlreadyReversed  = errors.New("la venta ya fue revertida")
	ErrOrderAlreadyReceived = errors.New("la orden ya fue recibida")
)
