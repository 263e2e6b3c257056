package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jhoicas/pos-sync/internal/realtime"
)

var _ realtime.Publisher = (*Notifier)(nil)

// Notifier publica notificaciones de cambio vía pg_notify. Atado a la tx de la
// mutación, el servidor retiene los avisos y los entrega recién en el commit:
// un rollback no notifica nada.
type Notifier struct {
	q Querier
}

// NewNotifier construye el publicador. Pasar pool o tx (Querier).
func NewNotifier(q Querier) *Notifier {
	return &Notifier{q: q}
}

// Publish serializa la notificación y la emite por el canal de su tabla.
func (n *Notifier) Publish(ctx context.Context, note realtime.Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return mapError("serializar notificación", err)
	}
	if _, err := n.q.Exec(ctx, `SELECT pg_notify($1, $2)`, channelFor(note.Table), string(payload)); err != nil {
		return mapError("pg_notify", err)
	}
	return nil
}

// channelFor nombre del canal LISTEN/NOTIFY de una tabla. Solo identificadores
// seguros: minúsculas, dígitos y guión bajo.
func channelFor(table string) string {
	var b strings.Builder
	b.WriteString("changes_")
	for _, r := range strings.ToLower(table) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
