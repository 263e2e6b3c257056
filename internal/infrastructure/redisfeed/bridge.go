package redisfeed

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Bridge republica en Redis los cambios que emite PostgreSQL, tabla por tabla.
// Se usa cuando el feed de los consumidores es Redis: el origen de verdad sigue
// siendo pg_notify y el puente solo reexpide. Se apoya en el manager, así que
// hereda su reconexión con backoff.
type Bridge struct {
	client  *redis.Client
	prefix  string
	manager *realtime.Manager
	log     *logger.Logger
	subs    []*realtime.Subscription
}

// NewBridge construye el puente sobre un manager conectado al feed de PostgreSQL.
func NewBridge(client *redis.Client, prefix string, manager *realtime.Manager, log *logger.Logger) *Bridge {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &Bridge{client: client, prefix: prefix, manager: manager, log: log}
}

// Start reexpide los cambios de las tablas indicadas hacia Redis.
func (b *Bridge) Start(ctx context.Context, tables ...string) {
	for _, table := range tables {
		channel := b.prefix + table
		handler := func(n realtime.Notification) {
			payload, err := json.Marshal(n)
			if err != nil {
				b.log.Warn().Err(err).Str("table", n.Table).Msg("no se pudo serializar el cambio para redis")
				return
			}
			if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
				b.log.Warn().Err(err).Str("channel", channel).Msg("no se pudo republicar el cambio en redis")
			}
		}
		onError := func(err error) {
			b.log.Error().Err(err).Str("table", table).Msg("puente redis degradado")
		}
		b.subs = append(b.subs, b.manager.Subscribe(table, []realtime.EventKind{realtime.EventAny}, "", handler, onError))
	}
}

// Stop da de baja las suscripciones del puente.
func (b *Bridge) Stop() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
	b.subs = nil
}
