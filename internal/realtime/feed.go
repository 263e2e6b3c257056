package realtime

import (
	"context"
	"encoding/json"
)

// Tipos de evento de cambio sobre una fila.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventAny     EventKind = "*"
)

// Notification aviso de que una fila cambió. Entrega at-most-once y sin orden
// garantizado entre tablas: es una pista para releer el registro afectado, no un
// payload autoritativo (puede llegar tarde, o no llegar).
type Notification struct {
	Table  string          `json:"table"`
	Kind   EventKind       `json:"kind"`
	NewRow json.RawMessage `json:"new_row,omitempty"`
	OldRow json.RawMessage `json:"old_row,omitempty"`
}

// ChangeFeed abre canales de notificación por tabla (puerto hacia el backend).
type ChangeFeed interface {
	// Open establece la conexión para una tabla. Respeta el deadline de ctx:
	// el caller decide cuánto espera antes de declarar timeout.
	Open(ctx context.Context, table string) (FeedConn, error)
}

// FeedConn conexión viva a un canal de cambios.
type FeedConn interface {
	// Recv bloquea hasta la siguiente notificación o hasta que ctx se cancele.
	Recv(ctx context.Context) (Notification, error)
	Close() error
}

// Publisher publica notificaciones de cambio. El adaptador de postgres lo
// implementa dentro de la transacción de la mutación, de modo que la entrega
// ocurre recién en el commit.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}
