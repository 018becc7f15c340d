package service

import (
	"context"
	"fmt"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CocinaService interface {
	// Cola returns pending tickets oldest first, each with the kitchen-routed
	// portion of its pedido.
	Cola(ctx context.Context) ([]dto.TicketResponse, error)
	// Encolar creates the queued ticket for a pedido with kitchen items that
	// doesn't have one yet. Checkout normally does this in its own
	// transaction; this covers recovery paths.
	Encolar(ctx context.Context, pedidoID uuid.UUID) (*dto.TicketResponse, error)
	// ActualizarTicket advances the ticket (forward-only), stamps the phase
	// time on first entry, cascades to the pedido's kitchen units, and
	// recomputes the pedido status.
	ActualizarTicket(ctx context.Context, pedidoID uuid.UUID, req dto.ActualizarTicketRequest) (*dto.TicketResponse, error)
	// ActualizarUnidad moves a single production unit, for per-unit kitchen
	// workflows.
	ActualizarUnidad(ctx context.Context, unidadID uuid.UUID, req dto.ActualizarUnidadRequest) error
	// CerrarPedidoDirecto delivers a pedido composed only of entrega directa
	// items in one step.
	CerrarPedidoDirecto(ctx context.Context, pedidoID uuid.UUID) error
}

type cocinaService struct {
	ticketRepo repository.TicketRepository
	pedidoRepo repository.PedidoRepository
	outbox     repository.OutboxRepository
	bus        *events.Bus
	perfil     config.PerfilDispositivo
}

func NewCocinaService(ticketRepo repository.TicketRepository, pedidoRepo repository.PedidoRepository, outbox repository.OutboxRepository, bus *events.Bus, perfil config.PerfilDispositivo) CocinaService {
	return &cocinaService{ticketRepo: ticketRepo, pedidoRepo: pedidoRepo, outbox: outbox, bus: bus, perfil: perfil}
}

func (s *cocinaService) Cola(ctx context.Context) ([]dto.TicketResponse, error) {
	tickets, err := s.ticketRepo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		pedido, err := s.pedidoRepo.FindByID(ctx, t.PedidoID)
		if err != nil {
			return nil, err
		}
		if pedido.Estado == model.PedidoCancelado {
			continue
		}
		out = append(out, ticketToResponse(t, pedido))
	}
	return out, nil
}

func (s *cocinaService) Encolar(ctx context.Context, pedidoID uuid.UUID) (*dto.TicketResponse, error) {
	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("pedido no encontrado: %w", err)
	}
	if !pedido.TieneCocina() {
		return nil, ErrPedidoConCocina
	}
	if existente, err := s.ticketRepo.FindByPedido(ctx, pedidoID); err == nil {
		resp := ticketToResponse(existente, pedido)
		return &resp, nil
	}

	ticket := &model.TicketCocina{
		ID:       uuid.New(),
		PedidoID: pedidoID,
		Estado:   model.TicketQueued,
	}
	txErr := runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		if err := s.ticketRepo.CreateTx(tx, ticket); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "tickets_cocina", ticket, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "tickets_cocina", ID: ticket.ID})
	resp := ticketToResponse(ticket, pedido)
	return &resp, nil
}

func (s *cocinaService) ActualizarTicket(ctx context.Context, pedidoID uuid.UUID, req dto.ActualizarTicketRequest) (*dto.TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByPedido(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("ticket no encontrado: %w", err)
	}
	if !model.TransicionTicketValida(ticket.Estado, req.Estado) {
		return nil, ErrTransicionTicket
	}
	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, err
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, ErrPedidoTerminal
	}

	ahora := time.Now()
	if ticket.Estado != req.Estado {
		ticket.Estado = req.Estado
		// Phase timestamps stick to the first entry into each phase
		switch req.Estado {
		case model.TicketPrep:
			if ticket.PreparingStart == nil {
				ticket.PreparingStart = &ahora
			}
		case model.TicketReady:
			if ticket.ReadyAt == nil {
				ticket.ReadyAt = &ahora
			}
		case model.TicketDone:
			if ticket.DeliveredAt == nil {
				ticket.DeliveredAt = &ahora
			}
		}
	}

	txErr := runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		if err := s.ticketRepo.UpdateTx(tx, ticket); err != nil {
			return err
		}

		// Cascade to kitchen units that haven't moved past the new phase
		for i := range pedido.Items {
			item := &pedido.Items[i]
			if item.EntregaDirecta {
				continue
			}
			for j := range item.Unidades {
				u := &item.Unidades[j]
				cambiado := false
				switch req.Estado {
				case model.TicketPrep:
					if u.Estado == model.UnidadPendiente {
						u.Estado = model.UnidadEnPreparacion
						cambiado = true
					}
				case model.TicketReady:
					if u.Estado == model.UnidadPendiente || u.Estado == model.UnidadEnPreparacion {
						u.Estado = model.UnidadLista
						cambiado = true
					}
				case model.TicketDone:
					if u.Estado != model.UnidadEntregada {
						u.Estado = model.UnidadEntregada
						u.DeliveredAt = &ahora
						cambiado = true
					}
				}
				if cambiado {
					if err := s.pedidoRepo.UpdateUnidadTx(tx, u); err != nil {
						return err
					}
				}
			}
		}

		pedido.Estado = model.DerivarEstadoPedido(pedido, ticket)
		if pedido.Estado == model.PedidoListo && pedido.ReadyAt == nil {
			pedido.ReadyAt = ticket.ReadyAt
		}
		if pedido.Estado == model.PedidoEntregado && pedido.DeliveredAt == nil {
			pedido.DeliveredAt = &ahora
		}
		if err := s.pedidoRepo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}

		if err := s.outbox.AppendTx(tx, "tickets_cocina", ticket, s.perfil.UnitID); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "tickets_cocina", ID: ticket.ID})
	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	resp := ticketToResponse(ticket, pedido)
	return &resp, nil
}

// ordenUnidad defines the forward-only progression of unit states.
var ordenUnidad = map[string]int{
	model.UnidadPendiente:     0,
	model.UnidadEnPreparacion: 1,
	model.UnidadLista:         2,
	model.UnidadEntregada:     3,
}

func (s *cocinaService) ActualizarUnidad(ctx context.Context, unidadID uuid.UUID, req dto.ActualizarUnidadRequest) error {
	item, unidad, err := s.buscarUnidad(ctx, unidadID)
	if err != nil {
		return err
	}
	pedido, err := s.pedidoRepo.FindByID(ctx, item.PedidoID)
	if err != nil {
		return err
	}
	if pedido.Estado == model.PedidoCancelado || pedido.Estado == model.PedidoEntregado {
		return ErrPedidoTerminal
	}
	if ordenUnidad[req.Estado] < ordenUnidad[unidad.Estado] {
		return ErrTransicionTicket
	}

	ahora := time.Now()
	unidad.Estado = req.Estado
	if req.Operador != nil {
		unidad.Operador = req.Operador
	}
	if req.Estado == model.UnidadEntregada && unidad.DeliveredAt == nil {
		unidad.DeliveredAt = &ahora
	}

	// Reflect the change in the loaded graph before deriving
	for i := range pedido.Items {
		for j := range pedido.Items[i].Unidades {
			if pedido.Items[i].Unidades[j].ID == unidadID {
				pedido.Items[i].Unidades[j] = *unidad
			}
		}
	}

	ticket, _ := s.ticketRepo.FindByPedido(ctx, pedido.ID)

	txErr := runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		if err := s.pedidoRepo.UpdateUnidadTx(tx, unidad); err != nil {
			return err
		}
		pedido.Estado = model.DerivarEstadoPedido(pedido, ticket)
		if pedido.Estado == model.PedidoEntregado && pedido.DeliveredAt == nil {
			pedido.DeliveredAt = &ahora
		}
		if err := s.pedidoRepo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return nil
}

func (s *cocinaService) CerrarPedidoDirecto(ctx context.Context, pedidoID uuid.UUID) error {
	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return fmt.Errorf("pedido no encontrado: %w", err)
	}
	if pedido.TieneCocina() {
		return ErrPedidoConCocina
	}
	if pedido.Estado == model.PedidoCancelado {
		return ErrPedidoTerminal
	}
	if pedido.Estado == model.PedidoEntregado {
		return nil
	}

	ahora := time.Now()
	txErr := runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		for i := range pedido.Items {
			item := &pedido.Items[i]
			if item.EntregadoAt == nil {
				item.EntregadoAt = &ahora
				if err := s.pedidoRepo.UpdateItemTx(tx, item); err != nil {
					return err
				}
			}
		}
		pedido.Estado = model.PedidoEntregado
		pedido.DeliveredAt = &ahora
		if err := s.pedidoRepo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return nil
}

func (s *cocinaService) buscarUnidad(ctx context.Context, unidadID uuid.UUID) (*model.PedidoItem, *model.UnidadProduccion, error) {
	item, unidad, err := s.pedidoRepo.FindUnidadByID(ctx, unidadID)
	if err != nil {
		return nil, nil, fmt.Errorf("unidad no encontrada: %w", err)
	}
	return item, unidad, nil
}

// ticketToResponse projects the kitchen-routed slice of the pedido onto the
// KDS queue entry.
func ticketToResponse(t *model.TicketCocina, pedido *model.Pedido) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:             t.ID.String(),
		PedidoID:       t.PedidoID.String(),
		Pin:            pedido.Pin,
		Estado:         t.Estado,
		CreatedAt:      fmtTime(t.CreatedAt),
		PreparingStart: fmtTimePtr(t.PreparingStart),
		ReadyAt:        fmtTimePtr(t.ReadyAt),
		DeliveredAt:    fmtTimePtr(t.DeliveredAt),
	}
	full := pedidoToResponse(pedido)
	for _, item := range full.Items {
		if !item.EntregaDirecta {
			resp.Items = append(resp.Items, item)
		}
	}
	return resp
}
