package sync

import (
	"context"
	"time"

	"blendresto/internal/infra"

	"github.com/rs/zerolog/log"
)

// Reconciler periodically pulls the unit's full event listing from the hub
// and merges it. This is the safety net under the realtime channel: whatever
// a dropped websocket missed converges on the next pull.
type Reconciler struct {
	hub      *infra.HubClient
	merger   *Merger
	unitID   string
	interval time.Duration
	// ahora wakes the loop for an immediate pull (used right after
	// reconnecting the realtime channel).
	ahora chan struct{}
}

func NewReconciler(hub *infra.HubClient, merger *Merger, unitID string, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Reconciler{
		hub:      hub,
		merger:   merger,
		unitID:   unitID,
		interval: interval,
		ahora:    make(chan struct{}, 1),
	}
}

// Despertar requests an immediate reconciliation pull. Non-blocking.
func (r *Reconciler) Despertar() {
	select {
	case r.ahora <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ahora:
			r.reconciliar(ctx)
		case <-ticker.C:
			r.reconciliar(ctx)
		}
	}
}

func (r *Reconciler) reconciliar(ctx context.Context) {
	eventos, err := r.hub.Pull(ctx, r.unitID)
	if err != nil {
		log.Debug().Err(err).Msg("pull al hub fallido")
		return
	}
	if n := r.merger.Aplicar(ctx, eventos); n > 0 {
		log.Debug().Int("eventos", n).Msg("estado reconciliado desde el hub")
	}
}
