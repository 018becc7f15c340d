package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"blendresto/internal/events"
	"blendresto/internal/infra"
	"blendresto/internal/repository"

	"github.com/rs/zerolog/log"
)

const loteMaximo = 100

// Pusher drains the outbox towards the hub. It wakes on local commit
// notifications and on a steady tick, pushes pending events oldest first in
// batches, and marks them sent only after the hub acknowledges the batch.
// All hub calls go through the circuit breaker: with the hub down the drain
// fast-fails and the outbox simply keeps growing on disk.
type Pusher struct {
	outbox   repository.OutboxRepository
	hub      *infra.HubClient
	breaker  *infra.CircuitBreaker
	bus      *events.Bus
	interval time.Duration
}

func NewPusher(outbox repository.OutboxRepository, hub *infra.HubClient, breaker *infra.CircuitBreaker, bus *events.Bus, interval time.Duration) *Pusher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Pusher{outbox: outbox, hub: hub, breaker: breaker, bus: bus, interval: interval}
}

// Run blocks until ctx is cancelled.
func (p *Pusher) Run(ctx context.Context) {
	notif, cancel := p.bus.Subscribe()
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-notif:
			if !ok {
				return
			}
			// Merge notifications don't create outbox work
			if ev.Origen != events.OrigenLocal {
				continue
			}
			p.drenar(ctx)
		case <-ticker.C:
			p.drenar(ctx)
		}
	}
}

// drenar pushes pending batches until the outbox is empty or a push fails.
func (p *Pusher) drenar(ctx context.Context) {
	for {
		pendientes, err := p.outbox.Pendientes(ctx, loteMaximo)
		if err != nil {
			log.Error().Err(err).Msg("no se pudo leer el outbox")
			return
		}
		if len(pendientes) == 0 {
			return
		}

		lote := make([]infra.EventoHub, 0, len(pendientes))
		ids := make([]uint, 0, len(pendientes))
		for _, ev := range pendientes {
			lote = append(lote, infra.EventoHub{
				Table:  ev.Tabla,
				Row:    json.RawMessage(ev.Fila),
				UnitID: ev.UnitID,
			})
			ids = append(ids, ev.ID)
		}

		err = p.breaker.Execute(func() error {
			return p.hub.Push(ctx, lote)
		})
		if err != nil {
			if !errors.Is(err, infra.ErrCircuitOpen) {
				log.Warn().Err(err).Int("eventos", len(lote)).Msg("push al hub fallido, se reintenta")
			}
			return
		}

		if err := p.outbox.MarcarEnviados(ctx, ids); err != nil {
			// Worst case the batch is re-pushed; merges are idempotent
			log.Error().Err(err).Msg("no se pudo marcar eventos enviados")
			return
		}
		log.Debug().Int("eventos", len(ids)).Msg("outbox drenado")
	}
}
