// Package redisfeed implementa el feed de cambios sobre pub/sub de Redis, para
// despliegues donde los consumidores no alcanzan directamente a PostgreSQL.
// Misma semántica que LISTEN/NOTIFY: entrega at-most-once, sin replay.
package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "changes."

var _ realtime.ChangeFeed = (*Feed)(nil)

// Feed abre canales pub/sub, uno por tabla.
type Feed struct {
	client *redis.Client
	prefix string
}

// New construye el feed. prefix vacío usa "changes.".
func New(client *redis.Client, prefix string) *Feed {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &Feed{client: client, prefix: prefix}
}

// Open suscribe al canal de la tabla. Espera la confirmación del SUBSCRIBE para
// que los fallos de conexión aparezcan acá y no recién en el primer Recv.
func (f *Feed) Open(ctx context.Context, table string) (realtime.FeedConn, error) {
	sub := f.client.Subscribe(ctx, f.prefix+table)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return &feedConn{sub: sub, ch: sub.Channel()}, nil
}

// feedConn canal pub/sub vivo.
type feedConn struct {
	sub       *redis.PubSub
	ch        <-chan *redis.Message
	closeOnce sync.Once
}

// Recv bloquea hasta el siguiente mensaje. Mensajes que no parsean se descartan.
func (c *feedConn) Recv(ctx context.Context) (realtime.Notification, error) {
	for {
		select {
		case <-ctx.Done():
			return realtime.Notification{}, ctx.Err()
		case msg, ok := <-c.ch:
			if !ok {
				return realtime.Notification{}, errors.New("canal redis cerrado")
			}
			var note realtime.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &note); err != nil {
				continue
			}
			return note, nil
		}
	}
}

// Close cierra la suscripción pub/sub. Idempotente.
func (c *feedConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.sub.Close()
	})
	return err
}
