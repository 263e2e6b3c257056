// Package dashboard mantiene contadores en vivo del inventario para la UI.
//
// Es un consumidor del feed de cambios: cada notificación es solo una señal de
// invalidación y dispara una relectura de los agregados desde la base (el
// payload nunca se usa como fuente de verdad). Un refresh periódico cubre las
// notificaciones perdidas durante particiones de red.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

const (
	defaultLowStockThreshold = 5
	defaultRefreshEvery      = time.Minute
	refreshTimeout           = 5 * time.Second
)

// Summary foto de los contadores del dashboard.
type Summary struct {
	TotalUnits       int64     `json:"total_units"`
	LowStockProducts int64     `json:"low_stock_products"`
	RefreshedAt      time.Time `json:"refreshed_at"`
}

// UseCase observador en proceso: se suscribe a inventory_records y products,
// y ante cada cambio relee los agregados. No bloquea jamás la entrega del feed.
type UseCase struct {
	productRepo repository.ProductRepository
	manager     *realtime.Manager
	log         *logger.Logger

	lowStockThreshold int64
	refreshEvery      time.Duration

	mu      sync.RWMutex
	summary Summary

	kick   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	subs   []*realtime.Subscription
}

// New construye el caso de uso. threshold <= 0 y refreshEvery <= 0 usan defaults.
func New(productRepo repository.ProductRepository, manager *realtime.Manager, log *logger.Logger, threshold int64, refreshEvery time.Duration) *UseCase {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	if refreshEvery <= 0 {
		refreshEvery = defaultRefreshEvery
	}
	return &UseCase{
		productRepo:       productRepo,
		manager:           manager,
		log:               log,
		lowStockThreshold: threshold,
		refreshEvery:      refreshEvery,
		kick:              make(chan struct{}, 1),
	}
}

// Start hace el refresh inicial, registra las suscripciones y lanza la
// goroutine de refresco. Llamar Stop para liberar.
func (uc *UseCase) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	uc.cancel = cancel
	uc.done = make(chan struct{})

	uc.refresh(runCtx)

	onChange := func(realtime.Notification) { uc.invalidate() }
	onError := func(err error) {
		uc.log.Warn().Err(err).Msg("suscripción del dashboard degradada, queda el refresh periódico")
	}
	uc.subs = append(uc.subs,
		uc.manager.Subscribe(ledger.TableInventoryRecords, []realtime.EventKind{realtime.EventAny}, "", onChange, onError),
		uc.manager.Subscribe(ledger.TableProducts, []realtime.EventKind{realtime.EventAny}, "", onChange, onError),
	)

	go uc.loop(runCtx)
}

// Stop da de baja las suscripciones y detiene el refresco.
func (uc *UseCase) Stop() {
	for _, s := range uc.subs {
		s.Unsubscribe()
	}
	if uc.cancel != nil {
		uc.cancel()
		<-uc.done
	}
}

// Summary devuelve la última foto calculada.
func (uc *UseCase) Summary() Summary {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.summary
}

// invalidate marca que hay que releer; coalesce ráfagas de notificaciones.
func (uc *UseCase) invalidate() {
	select {
	case uc.kick <- struct{}{}:
	default:
	}
}

func (uc *UseCase) loop(ctx context.Context) {
	defer close(uc.done)
	ticker := time.NewTicker(uc.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-uc.kick:
			uc.refresh(ctx)
		case <-ticker.C:
			uc.refresh(ctx)
		}
	}
}

// refresh relee los agregados con timeout propio y publica la nueva foto.
func (uc *UseCase) refresh(ctx context.Context) {
	readCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	total, err := uc.productRepo.TotalStock(readCtx)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo releer el stock total")
		return
	}
	low, err := uc.productRepo.CountBelowStock(readCtx, uc.lowStockThreshold)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo releer los productos con stock bajo")
		return
	}

	uc.mu.Lock()
	uc.summary = Summary{TotalUnits: total, LowStockProducts: low, RefreshedAt: time.Now()}
	uc.mu.Unlock()
}
