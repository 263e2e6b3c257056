// Package realtime mantiene suscripciones vivas a un feed de cambios fila a fila
// y las reparte a observadores en proceso. La entrega es at-most-once y sin
// replay: los consumidores releen el registro afectado en vez de confiar en el
// payload, y complementan con un refresh periódico para los huecos de red.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-sync/pkg/logger"
)

// Config parámetros de conexión y reintento del manager.
type Config struct {
	ConnectTimeout time.Duration // máximo para establecer el canal antes de timed_out
	BackoffBase    time.Duration // primer reintento
	BackoffCap     time.Duration // tope del backoff exponencial
	MaxRetries     int           // reintentos consecutivos antes de quedar en error
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return c
}

// Manager administra el ciclo de vida de las suscripciones. Es una instancia
// explícita que se inyecta donde se necesite: no hay conexión global compartida.
type Manager struct {
	feed ChangeFeed
	cfg  Config
	log  *logger.Logger

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

// NewManager construye el manager sobre un feed de cambios.
func NewManager(feed ChangeFeed, cfg Config, log *logger.Logger) *Manager {
	return &Manager{
		feed: feed,
		cfg:  cfg.withDefaults(),
		log:  log,
		subs: make(map[uint64]*Subscription),
	}
}

// Subscribe registra un observador para los eventos indicados de una tabla y
// devuelve el handle de inmediato; la conexión se establece de forma asíncrona.
// kinds vacío equivale a EventAny. filter opcional con forma "columna=valor".
// onError puede ser nil.
func (m *Manager) Subscribe(table string, kinds []EventKind, filter string, handler Handler, onError ErrorHandler) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())

	kindSet := make(map[EventKind]struct{}, len(kinds))
	for _, k := range kinds {
		kindSet[k] = struct{}{}
	}

	m.mu.Lock()
	m.nextID++
	s := &Subscription{
		id:      m.nextID,
		table:   table,
		kinds:   kindSet,
		filter:  parseFilter(filter),
		handler: handler,
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		mgr:     m,
		log:     logger.FromZerolog(m.log.With().Str("table", table).Uint64("subscription", m.nextID).Logger()),
	}
	if m.closed {
		m.mu.Unlock()
		cancel()
		close(s.done)
		s.state.Store(int32(StateClosed))
		return s
	}
	m.subs[s.id] = s
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		s.run(m.feed, m.cfg)
	}()
	return s
}

func (m *Manager) remove(id uint64) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

// Close da de baja todas las suscripciones y espera a que sus goroutines terminen.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	subs := make([]*Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	m.wg.Wait()
}
