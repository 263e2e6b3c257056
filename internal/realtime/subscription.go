package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/pos-sync/pkg/logger"
)

// Handler recibe una notificación. Corre en la goroutine de la suscripción:
// un handler lento retrasa solo su propio canal.
type Handler func(Notification)

// ErrorHandler recibe los errores visibles de la suscripción (pánico de handler,
// reintentos agotados). Nunca se invoca tras Unsubscribe.
type ErrorHandler func(error)

// ErrRetriesExhausted la suscripción agotó su presupuesto de reconexión y quedó
// en estado error. Se entrega vía ErrorHandler; no tumba el proceso.
var ErrRetriesExhausted = errors.New("suscripción agotó los reintentos de conexión")

// Subscription handle de una suscripción activa. Cada una es dueña de su propia
// conexión al feed: no hay cliente compartido mutable entre consumidores.
type Subscription struct {
	id      uint64
	table   string
	kinds   map[EventKind]struct{}
	filter  *rowFilter
	handler Handler
	onError ErrorHandler

	state     atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	mgr *Manager
	log *logger.Logger
}

// rowFilter filtro opcional "columna=valor" evaluado sobre la fila notificada.
type rowFilter struct {
	column string
	value  string
}

func parseFilter(s string) *rowFilter {
	col, val, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return nil
	}
	return &rowFilter{column: strings.TrimSpace(col), value: strings.TrimSpace(val)}
}

// State devuelve el estado actual de la suscripción.
func (s *Subscription) State() State {
	return State(s.state.Load())
}

// Table devuelve la tabla suscrita.
func (s *Subscription) Table() string {
	return s.table
}

// Unsubscribe libera la conexión y detiene la entrega. Idempotente; puede
// llamarse desde dentro del propio handler (cancela sin esperar).
// También cancela cualquier backoff de reconexión pendiente.
func (s *Subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mgr.remove(s.id)
	})
}

// setState aplica una transición del estado. closed es absorbente.
func (s *Subscription) setState(to State) {
	for {
		cur := State(s.state.Load())
		if cur == to {
			return
		}
		if cur == StateClosed {
			return
		}
		if !validTransition(cur, to) {
			s.log.Warn().Str("from", cur.String()).Str("to", to.String()).Msg("transición de estado inválida")
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(to)) {
			s.log.Debug().Str("from", cur.String()).Str("to", to.String()).Msg("suscripción cambió de estado")
			return
		}
	}
}

// run ciclo de vida de la suscripción: conectar (con timeout), consumir,
// y ante fallos reintentar con backoff exponencial acotado. Sale por
// Unsubscribe/Close o al agotar el presupuesto de reintentos.
func (s *Subscription) run(feed ChangeFeed, cfg Config) {
	defer close(s.done)

	attempts := 0
	var lastErr error
	for {
		if s.ctx.Err() != nil {
			s.setState(StateClosed)
			return
		}
		s.setState(StateConnecting)
		connCtx, cancel := context.WithTimeout(s.ctx, cfg.ConnectTimeout)
		conn, err := feed.Open(connCtx, s.table)
		cancel()
		if err != nil {
			if s.ctx.Err() != nil {
				s.setState(StateClosed)
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				s.setState(StateTimedOut)
			} else {
				s.setState(StateError)
			}
			lastErr = err
			attempts++
			s.log.Warn().Err(err).Int("attempt", attempts).Msg("no se pudo establecer el canal de cambios")
			if attempts > cfg.MaxRetries {
				s.giveUp(lastErr)
				return
			}
			if !s.sleep(backoffDelay(cfg.BackoffBase, cfg.BackoffCap, attempts)) {
				s.setState(StateClosed)
				return
			}
			continue
		}

		s.setState(StateConnected)
		attempts = 0
		err = s.consume(conn)
		_ = conn.Close()
		if s.ctx.Err() != nil {
			s.setState(StateClosed)
			return
		}
		s.setState(StateError)
		lastErr = err
		attempts++
		s.log.Warn().Err(err).Int("attempt", attempts).Msg("canal de cambios caído, reintentando")
		if attempts > cfg.MaxRetries {
			s.giveUp(lastErr)
			return
		}
		if !s.sleep(backoffDelay(cfg.BackoffBase, cfg.BackoffCap, attempts)) {
			s.setState(StateClosed)
			return
		}
	}
}

// consume entrega notificaciones hasta que la conexión falle o la suscripción cierre.
func (s *Subscription) consume(conn FeedConn) error {
	for {
		n, err := conn.Recv(s.ctx)
		if err != nil {
			return err
		}
		s.dispatch(n)
	}
}

// dispatch filtra por tipo de evento y filtro de fila, y ejecuta el handler.
// Un pánico dentro del handler se recupera, se loguea y se reporta por onError
// sin tumbar el canal ni afectar a otras suscripciones.
func (s *Subscription) dispatch(n Notification) {
	if s.ctx.Err() != nil {
		return
	}
	if !s.matches(n) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pánico en handler de %s: %v", s.table, r)
			s.log.Error().Err(err).Msg("handler de suscripción falló")
			s.reportError(err)
		}
	}()
	s.handler(n)
}

func (s *Subscription) matches(n Notification) bool {
	if len(s.kinds) > 0 {
		if _, any := s.kinds[EventAny]; !any {
			if _, ok := s.kinds[n.Kind]; !ok {
				return false
			}
		}
	}
	if s.filter == nil {
		return true
	}
	row := n.NewRow
	if len(row) == 0 {
		row = n.OldRow
	}
	if len(row) == 0 {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(row, &fields); err != nil {
		return false
	}
	v, ok := fields[s.filter.column]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == s.filter.value
}

// giveUp presupuesto de reintentos agotado: estado terminal error + onError.
func (s *Subscription) giveUp(lastErr error) {
	s.setState(StateError)
	err := fmt.Errorf("%w (tabla %s): %v", ErrRetriesExhausted, s.table, lastErr)
	s.log.Error().Err(err).Msg("suscripción en estado error")
	s.reportError(err)
}

func (s *Subscription) reportError(err error) {
	if s.onError == nil || s.ctx.Err() != nil {
		return
	}
	s.onError(err)
}

// sleep espera d o hasta que cierren la suscripción; false si cerró.
func (s *Subscription) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
