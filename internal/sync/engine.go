package sync

import (
	"context"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/events"
	"blendresto/internal/infra"
	"blendresto/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Engine bundles the three sync loops. Local commands never wait on any of
// them: the outbox decouples writes from the hub, and merges arrive through
// their own goroutines.
type Engine struct {
	pusher     *Pusher
	inbox      *Inbox
	reconciler *Reconciler
	breaker    *infra.CircuitBreaker
}

func NewEngine(cfg *config.Config, db *gorm.DB, outbox repository.OutboxRepository, bus *events.Bus) *Engine {
	hub := infra.NewHubClient(cfg.HubURL, cfg.HubSecret)
	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	merger := NewMerger(db, bus)

	reconciler := NewReconciler(hub, merger, cfg.UnitID, time.Duration(cfg.PullIntervalSec)*time.Second)
	return &Engine{
		pusher:     NewPusher(outbox, hub, breaker, bus, 5*time.Second),
		inbox:      NewInbox(hub, merger, cfg.Perfil(), reconciler.Despertar),
		reconciler: reconciler,
		breaker:    breaker,
	}
}

// Start launches the sync loops. They stop when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	go e.pusher.Run(ctx)
	go e.inbox.Run(ctx)
	go e.reconciler.Run(ctx)
	log.Info().Msg("motor de sincronizacion iniciado")
}

// EstadoHub exposes the breaker state for the health endpoint.
func (e *Engine) EstadoHub() string {
	return e.breaker.State().String()
}
