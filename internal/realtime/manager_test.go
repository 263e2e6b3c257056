package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/pkg/logger"
)

// fakeFeed feed de cambios en memoria con fallos programables en Open.
type fakeFeed struct {
	mu        sync.Mutex
	openCalls int
	failFirst int           // cuántos Open iniciales fallan
	openErr   error         // error a devolver en los fallos
	hangOpen  bool          // Open se cuelga hasta que ctx expire
	conns     []*fakeConn   // conexiones entregadas
	opened    chan struct{} // señal por cada Open exitoso
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{opened: make(chan struct{}, 16)}
}

func (f *fakeFeed) Open(ctx context.Context, table string) (FeedConn, error) {
	f.mu.Lock()
	f.openCalls++
	call := f.openCalls
	f.mu.Unlock()

	if f.hangOpen {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if call <= f.failFirst {
		if f.openErr != nil {
			return nil, f.openErr
		}
		return nil, fmt.Errorf("open %s: conexión rechazada", table)
	}
	conn := &fakeConn{ch: make(chan Notification, 16), closed: make(chan struct{})}
	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()
	select {
	case f.opened <- struct{}{}:
	default:
	}
	return conn, nil
}

func (f *fakeFeed) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls
}

func (f *fakeFeed) lastConn() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

type fakeConn struct {
	ch        chan Notification
	closeOnce sync.Once
	closed    chan struct{}
}

func (c *fakeConn) Recv(ctx context.Context) (Notification, error) {
	select {
	case <-ctx.Done():
		return Notification{}, ctx.Err()
	case <-c.closed:
		return Notification{}, errors.New("conexión cerrada")
	case n := <-c.ch:
		return n, nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// drop simula la caída del canal desde el lado del servidor.
func (c *fakeConn) drop() { _ = c.Close() }

func (c *fakeConn) push(n Notification) { c.ch <- n }

func testConfig() Config {
	return Config{
		ConnectTimeout: 200 * time.Millisecond,
		BackoffBase:    5 * time.Millisecond,
		BackoffCap:     20 * time.Millisecond,
		MaxRetries:     3,
	}
}

func waitState(t *testing.T, s *Subscription, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want },
		2*time.Second, 2*time.Millisecond, "esperaba estado %s, quedó en %s", want, s.State())
}

func rowJSON(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(fields)
	require.NoError(t, err)
	return b
}

func TestSubscribeEntregaNotificaciones(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	var mu sync.Mutex
	var got []Notification
	sub := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, nil)

	waitState(t, sub, StateConnected)
	conn := feed.lastConn()
	require.NotNil(t, conn)

	conn.push(Notification{Table: "inventory_records", Kind: EventUpdated})
	conn.push(Notification{Table: "inventory_records", Kind: EventCreated})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 2*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventUpdated, got[0].Kind)
	assert.Equal(t, EventCreated, got[1].Kind)
	mu.Unlock()
}

func TestSubscribeFiltraPorTipoDeEvento(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	var mu sync.Mutex
	var got []Notification
	sub := m.Subscribe("products", []EventKind{EventDeleted}, "", func(n Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, nil)

	waitState(t, sub, StateConnected)
	conn := feed.lastConn()
	conn.push(Notification{Table: "products", Kind: EventCreated})
	conn.push(Notification{Table: "products", Kind: EventUpdated})
	conn.push(Notification{Table: "products", Kind: EventDeleted})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 2*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventDeleted, got[0].Kind)
	mu.Unlock()
}

func TestSubscribeFiltraPorColumna(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	var mu sync.Mutex
	var got []Notification
	sub := m.Subscribe("inventory_records", nil, "product_id=p1", func(n Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, nil)

	waitState(t, sub, StateConnected)
	conn := feed.lastConn()
	conn.push(Notification{Kind: EventUpdated, NewRow: rowJSON(t, map[string]any{"product_id": "p2"})})
	conn.push(Notification{Kind: EventUpdated, NewRow: rowJSON(t, map[string]any{"product_id": "p1"})})
	// Un delete solo trae la fila vieja; el filtro también aplica sobre ella
	conn.push(Notification{Kind: EventDeleted, OldRow: rowJSON(t, map[string]any{"product_id": "p1"})})
	// Sin fila no hay contra qué evaluar el filtro: se descarta
	conn.push(Notification{Kind: EventUpdated})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 2*time.Millisecond)
}

func TestReconectaConBackoffTrasCaida(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	var delivered sync.WaitGroup
	delivered.Add(1)
	var once sync.Once
	sub := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		once.Do(delivered.Done)
	}, nil)

	waitState(t, sub, StateConnected)
	first := feed.lastConn()
	first.drop()

	// Tras la caída debe reconectar y volver a entregar
	require.Eventually(t, func() bool { return feed.calls() >= 2 }, 2*time.Second, 2*time.Millisecond)
	waitState(t, sub, StateConnected)

	second := feed.lastConn()
	require.NotSame(t, first, second)
	second.push(Notification{Kind: EventUpdated})
	delivered.Wait()
}

func TestAgotaReintentosYQuedaEnError(t *testing.T) {
	feed := newFakeFeed()
	feed.failFirst = 1 << 30 // todos los Open fallan
	cfg := testConfig()
	cfg.MaxRetries = 3
	m := NewManager(feed, cfg, logger.Nop())
	defer m.Close()

	errCh := make(chan error, 1)
	sub := m.Subscribe("inventory_records", nil, "", func(Notification) {}, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrRetriesExhausted)
	case <-time.After(5 * time.Second):
		t.Fatal("onError nunca recibió el agotamiento de reintentos")
	}
	waitState(t, sub, StateError)

	// intento inicial + MaxRetries reintentos, ni uno más
	assert.Equal(t, cfg.MaxRetries+1, feed.calls())
}

func TestOpenColgadoTerminaEnTimedOut(t *testing.T) {
	feed := newFakeFeed()
	feed.hangOpen = true
	cfg := testConfig()
	cfg.ConnectTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 2
	m := NewManager(feed, cfg, logger.Nop())
	defer m.Close()

	errCh := make(chan error, 1)
	sub := m.Subscribe("products", nil, "", func(Notification) {}, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrRetriesExhausted)
	case <-time.After(5 * time.Second):
		t.Fatal("onError nunca recibió el agotamiento de reintentos")
	}
	// El último fallo fue por timeout, pero el estado final es error terminal
	waitState(t, sub, StateError)
}

func TestPanicoEnHandlerNoTumbaElCanal(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	errCh := make(chan error, 1)
	var mu sync.Mutex
	var delivered int
	sub := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		mu.Lock()
		delivered++
		cur := delivered
		mu.Unlock()
		if cur == 1 {
			panic("handler roto")
		}
	}, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	waitState(t, sub, StateConnected)
	conn := feed.lastConn()
	conn.push(Notification{Kind: EventUpdated})

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "pánico")
	case <-time.After(2 * time.Second):
		t.Fatal("el pánico del handler no se reportó por onError")
	}

	// El canal sigue vivo y entrega la siguiente notificación
	assert.Equal(t, StateConnected, sub.State())
	conn.push(Notification{Kind: EventUpdated})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 2
	}, 2*time.Second, 2*time.Millisecond)
}

func TestUnaSuscripcionCaidaNoAfectaOtra(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	subA := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		panic("siempre falla")
	}, nil)
	var mu sync.Mutex
	var gotB int
	subB := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		mu.Lock()
		gotB++
		mu.Unlock()
	}, nil)

	waitState(t, subA, StateConnected)
	waitState(t, subB, StateConnected)

	// Cada suscripción tiene su propia conexión
	feed.mu.Lock()
	require.Len(t, feed.conns, 2)
	connA, connB := feed.conns[0], feed.conns[1]
	feed.mu.Unlock()

	connA.push(Notification{Kind: EventUpdated})
	connB.push(Notification{Kind: EventUpdated})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotB == 1
	}, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, StateConnected, subA.State())
}

func TestUnsubscribeEsIdempotenteYCortaLaEntrega(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())
	defer m.Close()

	var mu sync.Mutex
	var got int
	sub := m.Subscribe("inventory_records", nil, "", func(n Notification) {
		mu.Lock()
		got++
		mu.Unlock()
	}, nil)

	waitState(t, sub, StateConnected)
	conn := feed.lastConn()

	sub.Unsubscribe()
	sub.Unsubscribe() // segunda baja: no-op
	waitState(t, sub, StateClosed)

	conn.push(Notification{Kind: EventUpdated})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Zero(t, got, "no debe entregar tras la baja")
	mu.Unlock()
}

func TestUnsubscribeCancelaElBackoffPendiente(t *testing.T) {
	feed := newFakeFeed()
	feed.failFirst = 1 << 30
	cfg := testConfig()
	cfg.BackoffBase = 10 * time.Second // backoff largo: la baja no debe esperarlo
	cfg.BackoffCap = 10 * time.Second
	m := NewManager(feed, cfg, logger.Nop())
	defer m.Close()

	sub := m.Subscribe("inventory_records", nil, "", func(Notification) {}, nil)
	require.Eventually(t, func() bool { return feed.calls() >= 1 }, 2*time.Second, 2*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la baja quedó bloqueada por el backoff")
	}
	assert.Equal(t, StateClosed, sub.State())
}

func TestCloseDaDeBajaTodo(t *testing.T) {
	feed := newFakeFeed()
	m := NewManager(feed, testConfig(), logger.Nop())

	subA := m.Subscribe("inventory_records", nil, "", func(Notification) {}, nil)
	subB := m.Subscribe("products", nil, "", func(Notification) {}, nil)
	waitState(t, subA, StateConnected)
	waitState(t, subB, StateConnected)

	m.Close()
	assert.Equal(t, StateClosed, subA.State())
	assert.Equal(t, StateClosed, subB.State())

	// Subscribe sobre un manager cerrado devuelve un handle ya cerrado
	subC := m.Subscribe("products", nil, "", func(Notification) {}, nil)
	assert.Equal(t, StateClosed, subC.State())
}
