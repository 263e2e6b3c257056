package postgres

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-sync/internal/realtime"
)

var _ realtime.ChangeFeed = (*ListenFeed)(nil)

// ListenFeed implementa el feed de cambios sobre LISTEN/NOTIFY de PostgreSQL.
// Cada conexión abierta dedica una conexión del pool al canal de su tabla
// mientras la suscripción viva.
type ListenFeed struct {
	pool *pgxpool.Pool
}

// NewListenFeed construye el feed sobre el pool.
func NewListenFeed(pool *pgxpool.Pool) *ListenFeed {
	return &ListenFeed{pool: pool}
}

// Open toma una conexión del pool y ejecuta LISTEN sobre el canal de la tabla.
// Respeta el deadline de ctx para la adquisición y el LISTEN.
func (f *ListenFeed) Open(ctx context.Context, table string) (realtime.FeedConn, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire listen conn", err)
	}
	channel := pgx.Identifier{channelFor(table)}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, mapError("listen "+channel, err)
	}
	return &listenConn{conn: conn}, nil
}

// listenConn conexión dedicada escuchando un canal.
type listenConn struct {
	conn      *pgxpool.Conn
	closeOnce sync.Once
}

// Recv bloquea hasta el siguiente aviso del canal. Avisos con payload que no
// parsea se descartan y se sigue esperando: el feed es una pista, no un log.
func (c *listenConn) Recv(ctx context.Context) (realtime.Notification, error) {
	for {
		pgn, err := c.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return realtime.Notification{}, mapError("wait for notification", err)
		}
		var note realtime.Notification
		if err := json.Unmarshal([]byte(pgn.Payload), &note); err != nil {
			continue
		}
		return note, nil
	}
}

// Close devuelve la conexión al pool. Idempotente.
func (c *listenConn) Close() error {
	c.closeOnce.Do(func() {
		// Una conexión con LISTEN activo no debe volver al pool
		c.conn.Conn().Close(context.Background())
		c.conn.Release()
	})
	return nil
}
