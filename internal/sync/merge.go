// Package sync implements the terminal's hub synchronization engine: the
// outbox pusher, the realtime inbox, the periodic pull reconciler and the
// idempotent merge that applies remote rows to the local store.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/infra"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Merger applies remote sync events to the local store. Merges are
// last-write-wins full-row overwrites: applying the same event twice, or a
// stale event after a newer one arrived, converges to the sender's snapshot
// without errors.
type Merger struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewMerger(db *gorm.DB, bus *events.Bus) *Merger {
	return &Merger{db: db, bus: bus}
}

// strictDecode unmarshals rejecting unknown fields, so rows from a newer or
// foreign schema don't silently half-apply.
func strictDecode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Aplicar merges a batch of remote events. A malformed or unknown event is
// logged and skipped; it never blocks the rest of the batch. Returns the
// number of events applied.
func (m *Merger) Aplicar(ctx context.Context, eventos []infra.EventoHub) int {
	aplicados := 0
	for _, ev := range eventos {
		id, err := m.aplicarUno(ctx, ev)
		if err != nil {
			log.Warn().Err(err).Str("table", ev.Table).Msg("evento remoto rechazado")
			continue
		}
		aplicados++
		m.bus.Publish(events.Evento{Origen: events.OrigenMerge, Tabla: ev.Table, ID: id})
	}
	return aplicados
}

func (m *Merger) aplicarUno(ctx context.Context, ev infra.EventoHub) (uuid.UUID, error) {
	switch ev.Table {
	case "pedidos":
		return m.mergePedido(ctx, ev.Row)
	case "tickets_cocina":
		return m.mergeTicket(ctx, ev.Row)
	case "sesiones_caja":
		return m.mergeSesionCaja(ctx, ev.Row)
	case "movimientos_caja":
		return m.mergeMovimiento(ctx, ev.Row)
	case "productos":
		return m.mergeProducto(ctx, ev.Row)
	case "categorias":
		return m.mergeCategoria(ctx, ev.Row)
	case "sesiones_operativas":
		return m.mergeSesionOperativa(ctx, ev.Row)
	default:
		return uuid.Nil, fmt.Errorf("tabla desconocida %q", ev.Table)
	}
}

// mergePedido replaces the whole pedido graph with the remote snapshot.
func (m *Merger) mergePedido(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var p model.Pedido
	if err := strictDecode(row, &p); err != nil {
		return uuid.Nil, err
	}
	if p.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("pedido sin id")
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var itemIDs []uuid.UUID
		if err := tx.Model(&model.PedidoItem{}).Where("pedido_id = ?", p.ID).
			Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("pedido_item_id IN ?", itemIDs).
				Delete(&model.UnidadProduccion{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("pedido_id = ?", p.ID).Delete(&model.PedidoItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pedido_id = ?", p.ID).Delete(&model.Pago{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&p).Error
	})
	return p.ID, err
}

// mergeTicket upserts the ticket and re-derives the local pedido status from
// it, so a KDS-side transition refreshes counter screens even when the
// pedido event itself is still in flight.
func (m *Merger) mergeTicket(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var t model.TicketCocina
	if err := strictDecode(row, &t); err != nil {
		return uuid.Nil, err
	}
	if t.ID == uuid.Nil || t.PedidoID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("ticket sin id")
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&t).Error; err != nil {
			return err
		}

		var p model.Pedido
		if err := tx.Preload("Items.Unidades").First(&p, "id = ?", t.PedidoID).Error; err != nil {
			// Pedido not merged yet — its own event will carry the status
			return nil
		}
		estado := model.DerivarEstadoPedido(&p, &t)
		if estado == p.Estado {
			return nil
		}
		p.Estado = estado
		if estado == model.PedidoListo && p.ReadyAt == nil {
			p.ReadyAt = t.ReadyAt
		}
		if estado == model.PedidoEntregado && p.DeliveredAt == nil {
			p.DeliveredAt = t.DeliveredAt
		}
		return tx.Model(&model.Pedido{}).Where("id = ?", p.ID).
			Select("Estado", "ReadyAt", "DeliveredAt").
			Updates(&p).Error
	})
	return t.ID, err
}

func (m *Merger) mergeSesionCaja(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var s model.SesionCaja
	if err := strictDecode(row, &s); err != nil {
		return uuid.Nil, err
	}
	if s.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("sesion de caja sin id")
	}
	// Sessions of other devices merge as-is. Two open sessions from two
	// devices coexist: the open-session guard is per device, and the review
	// of cross-device duplicates belongs to the back office.
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Omit("Movimientos").
		Create(&s).Error
	return s.ID, err
}

// mergeMovimiento inserts the movement if absent. Movements are immutable,
// so a duplicate is dropped rather than overwritten.
func (m *Merger) mergeMovimiento(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var mov model.MovimientoCaja
	if err := strictDecode(row, &mov); err != nil {
		return uuid.Nil, err
	}
	if mov.ID == uuid.Nil || mov.SesionCajaID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("movimiento sin id")
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&mov).Error
	return mov.ID, err
}

func (m *Merger) mergeProducto(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var p model.Producto
	if err := strictDecode(row, &p); err != nil {
		return uuid.Nil, err
	}
	if p.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("producto sin id")
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var grupoIDs []uuid.UUID
		if err := tx.Model(&model.GrupoModificador{}).Where("producto_id = ?", p.ID).
			Pluck("id", &grupoIDs).Error; err != nil {
			return err
		}
		if len(grupoIDs) > 0 {
			if err := tx.Where("grupo_id IN ?", grupoIDs).
				Delete(&model.OpcionModificador{}).Error; err != nil {
				return err
			}
			if err := tx.Where("producto_id = ?", p.ID).
				Delete(&model.GrupoModificador{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&p).Error
	})
	return p.ID, err
}

func (m *Merger) mergeCategoria(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var c model.Categoria
	if err := strictDecode(row, &c); err != nil {
		return uuid.Nil, err
	}
	if c.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("categoria sin id")
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&c).Error
	return c.ID, err
}

func (m *Merger) mergeSesionOperativa(ctx context.Context, row json.RawMessage) (uuid.UUID, error) {
	var s model.SesionOperativa
	if err := strictDecode(row, &s); err != nil {
		return uuid.Nil, err
	}
	if s.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("sesion operativa sin id")
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&s).Error
	return s.ID, err
}
