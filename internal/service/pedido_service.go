package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// tolerancia is the money comparison tolerance used across payments and the
// cash reconciliation (one cent).
var tolerancia = decimal.New(1, -2)

type PedidoService interface {
	// Confirmar validates the cart and payments and creates the pedido
	// atomically, with one pending production unit per quantity of each
	// kitchen-routed item. Kitchen orders get a ticket enqueued in the same
	// transaction; direct-delivery-only orders close immediately.
	Confirmar(ctx context.Context, req dto.ConfirmarPedidoRequest) (*dto.PedidoResponse, error)
	// AjustarCantidad resizes an item. Only units still pendientes can be
	// removed.
	AjustarCantidad(ctx context.Context, itemID uuid.UUID, cantidad int) (*dto.PedidoResponse, error)
	// ConfirmarEntrega marks the selected units / direct items delivered,
	// preserving previously-set timestamps, and closes the pedido once
	// everything is delivered.
	ConfirmarEntrega(ctx context.Context, pedidoID uuid.UUID, req dto.ConfirmarEntregaRequest) (*dto.PedidoResponse, error)
	// DesmarcarEntrega un-checks delivered units / direct items, clearing
	// their timestamps.
	DesmarcarEntrega(ctx context.Context, pedidoID uuid.UUID, req dto.ConfirmarEntregaRequest) (*dto.PedidoResponse, error)
	Cancelar(ctx context.Context, pedidoID uuid.UUID) error
	Obtener(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error)
	ListActivos(ctx context.Context) ([]dto.PedidoResponse, error)
}

type pedidoService struct {
	repo         repository.PedidoRepository
	catalogoRepo repository.CatalogoRepository
	cajaRepo     repository.CajaRepository
	ticketRepo   repository.TicketRepository
	sesionRepo   repository.SesionOperativaRepository
	outbox       repository.OutboxRepository
	bus          *events.Bus
	perfil       config.PerfilDispositivo
}

func NewPedidoService(
	repo repository.PedidoRepository,
	catalogoRepo repository.CatalogoRepository,
	cajaRepo repository.CajaRepository,
	ticketRepo repository.TicketRepository,
	sesionRepo repository.SesionOperativaRepository,
	outbox repository.OutboxRepository,
	bus *events.Bus,
	perfil config.PerfilDispositivo,
) PedidoService {
	return &pedidoService{
		repo:         repo,
		catalogoRepo: catalogoRepo,
		cajaRepo:     cajaRepo,
		ticketRepo:   ticketRepo,
		sesionRepo:   sesionRepo,
		outbox:       outbox,
		bus:          bus,
		perfil:       perfil,
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode with in-memory repos).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Confirmar ─────────────────────────────────────────────────────────────────
// Command path: validate everything up front, then a single ACID commit.
// Nothing here suspends on network I/O — sync happens after the fact.

func (s *pedidoService) Confirmar(ctx context.Context, req dto.ConfirmarPedidoRequest) (*dto.PedidoResponse, error) {
	sesionOp, err := s.sesionRepo.FindAbierta(ctx)
	if err != nil {
		return nil, ErrSinSesionOperativa
	}

	if strings.TrimSpace(req.Password) == "" {
		return nil, ErrSinPassword
	}

	// Resolve products and validate modifier selections (pre-flight, outside TX)
	type itemResuelto struct {
		producto *model.Producto
		precio   decimal.Decimal
		req      dto.ItemCarritoRequest
	}

	var resueltos []itemResuelto
	total := decimal.Zero

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id invalido: %w", err)
		}
		p, err := s.catalogoRepo.FindProductoByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", item.ProductoID)
		}
		if !p.Activo {
			return nil, fmt.Errorf("el producto %s esta inactivo", p.Nombre)
		}

		precio, err := precioConModificadores(p, item.Selecciones)
		if err != nil {
			return nil, err
		}

		total = total.Add(precio.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		resueltos = append(resueltos, itemResuelto{producto: p, precio: precio, req: item})
	}

	// Validate payment sufficiency: components must sum to the total within
	// one cent, and cash components must be covered by the tendered amount.
	sumaPagos := decimal.Zero
	vuelto := decimal.Zero
	for _, pago := range req.Pagos {
		sumaPagos = sumaPagos.Add(pago.Monto)
		if pago.Metodo == model.PagoEfectivo && pago.Recibido != nil {
			if pago.Recibido.LessThan(pago.Monto) {
				return nil, &PagoInsuficienteError{Requerido: total}
			}
			vuelto = vuelto.Add(pago.Recibido.Sub(pago.Monto))
		}
	}
	if sumaPagos.Sub(total).Abs().GreaterThan(tolerancia) {
		return nil, &PagoInsuficienteError{Requerido: total}
	}

	metodoPago := req.Pagos[0].Metodo
	if len(req.Pagos) > 1 {
		metodoPago = model.PagoMultiplo
	}

	// A closed drawer does not block checkout (availability first); the sale
	// simply leaves no drawer movement behind.
	sesionCaja, errCaja := s.cajaRepo.FindSesionAbierta(ctx, s.perfil.DeviceID)
	if errCaja != nil {
		sesionCaja = nil
		log.Warn().Msg("pedido confirmado sin sesion de caja abierta")
	}

	ahora := time.Now()
	pedido := &model.Pedido{
		ID:                uuid.New(),
		Password:          req.Password,
		Estado:            model.PedidoNuevo,
		Total:             total,
		MetodoPago:        metodoPago,
		Vuelto:            vuelto,
		SesionOperativaID: sesionOp.ID,
	}
	if sesionCaja != nil {
		pedido.SesionCajaID = &sesionCaja.ID
	}

	for _, r := range resueltos {
		item := model.PedidoItem{
			ID:             uuid.New(),
			PedidoID:       pedido.ID,
			ProductoID:     r.producto.ID,
			Nombre:         r.producto.Nombre,
			CategoriaID:    &r.producto.CategoriaID,
			Cantidad:       r.req.Cantidad,
			PrecioUnitario: r.precio,
			Observaciones:  r.req.Observaciones,
			EntregaDirecta: r.producto.EntregaDirecta,
		}
		if !item.EntregaDirecta {
			for n := 1; n <= item.Cantidad; n++ {
				item.Unidades = append(item.Unidades, model.UnidadProduccion{
					ID:           uuid.New(),
					PedidoItemID: item.ID,
					Numero:       n,
					Estado:       model.UnidadPendiente,
				})
			}
		}
		pedido.Items = append(pedido.Items, item)
	}

	for _, pago := range req.Pagos {
		pedido.Pagos = append(pedido.Pagos, model.Pago{
			ID:       uuid.New(),
			PedidoID: pedido.ID,
			Metodo:   pago.Metodo,
			Monto:    pago.Monto,
			Recibido: pago.Recibido,
		})
	}

	// No kitchen-routed items: the order closes immediately.
	tieneCocina := pedido.TieneCocina()
	if !tieneCocina {
		pedido.Estado = model.PedidoEntregado
		pedido.DeliveredAt = &ahora
		for i := range pedido.Items {
			pedido.Items[i].EntregadoAt = &ahora
		}
	}

	var ticket *model.TicketCocina
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		pin, err := s.sesionRepo.SiguientePinTx(tx, sesionOp)
		if err != nil {
			return err
		}
		pedido.Pin = fmt.Sprintf("%03d", pin)

		if err := s.repo.CreateTx(tx, pedido); err != nil {
			return err
		}

		if tieneCocina {
			ticket = &model.TicketCocina{
				ID:       uuid.New(),
				PedidoID: pedido.ID,
				Estado:   model.TicketQueued,
			}
			if err := s.ticketRepo.CreateTx(tx, ticket); err != nil {
				return err
			}
		}

		// One drawer movement per payment component
		if sesionCaja != nil {
			for _, pago := range pedido.Pagos {
				mov := &model.MovimientoCaja{
					ID:           uuid.New(),
					SesionCajaID: sesionCaja.ID,
					Tipo:         model.MovimientoVenta,
					Monto:        pago.Monto,
					Descripcion:  fmt.Sprintf("Pedido %s (%s)", pedido.Pin, pago.Metodo),
					ReferenciaID: &pedido.ID,
				}
				if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
					return err
				}
				if err := s.outbox.AppendTx(tx, "movimientos_caja", mov, s.perfil.UnitID); err != nil {
					return err
				}
			}
		}

		if ticket != nil {
			if err := s.outbox.AppendTx(tx, "tickets_cocina", ticket, s.perfil.UnitID); err != nil {
				return err
			}
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return pedidoToResponse(pedido), nil
}

// precioConModificadores validates the obligatory-group rule for one item and
// returns the unit price including selected option extras.
func precioConModificadores(p *model.Producto, selecciones []dto.SeleccionModificadorRequest) (decimal.Decimal, error) {
	precio := p.Precio
	for _, grupo := range p.Grupos {
		if !grupo.Activo {
			continue
		}
		elegidas := 0
		for _, sel := range selecciones {
			if sel.GrupoID != grupo.ID.String() {
				continue
			}
			for _, op := range grupo.Opciones {
				if sel.OpcionID == op.ID.String() {
					elegidas++
					precio = precio.Add(op.PrecioExtra)
				}
			}
		}
		if grupo.Obligatorio && elegidas != 1 {
			return decimal.Zero, &SeleccionRequeridaError{Item: p.Nombre, Grupo: grupo.Nombre}
		}
	}
	return precio, nil
}

// ── AjustarCantidad ───────────────────────────────────────────────────────────

func (s *pedidoService) AjustarCantidad(ctx context.Context, itemID uuid.UUID, cantidad int) (*dto.PedidoResponse, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item no encontrado: %w", err)
	}
	pedido, err := s.repo.FindByID(ctx, item.PedidoID)
	if err != nil {
		return nil, err
	}
	if pedido.Estado == model.PedidoEntregado || pedido.Estado == model.PedidoCancelado {
		return nil, ErrPedidoTerminal
	}

	var quitar []uuid.UUID
	var agregar []model.UnidadProduccion

	if !item.EntregaDirecta {
		enCurso := 0
		var pendientes []model.UnidadProduccion
		for _, u := range item.Unidades {
			if u.Estado == model.UnidadPendiente {
				pendientes = append(pendientes, u)
			} else {
				enCurso++
			}
		}
		if cantidad < enCurso {
			return nil, &ReduccionUnidadesError{EnCurso: enCurso}
		}
		if cantidad < len(item.Unidades) {
			// Drop the newest pendientes first
			sobran := len(item.Unidades) - cantidad
			for i := len(pendientes) - 1; i >= 0 && sobran > 0; i-- {
				quitar = append(quitar, pendientes[i].ID)
				sobran--
			}
		}
		for n := len(item.Unidades) + 1; n <= cantidad; n++ {
			agregar = append(agregar, model.UnidadProduccion{
				ID:           uuid.New(),
				PedidoItemID: item.ID,
				Numero:       n,
				Estado:       model.UnidadPendiente,
			})
		}
	}

	item.Cantidad = cantidad

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if len(quitar) > 0 {
			if err := s.repo.EliminarUnidadesTx(tx, quitar); err != nil {
				return err
			}
		}
		if len(agregar) > 0 {
			if err := s.repo.AgregarUnidadesTx(tx, agregar); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return err
		}

		// Recompute the order total from the surviving quantities
		total := decimal.Zero
		for _, it := range pedido.Items {
			qty := it.Cantidad
			if it.ID == item.ID {
				qty = cantidad
			}
			total = total.Add(it.PrecioUnitario.Mul(decimal.NewFromInt(int64(qty))))
		}
		pedido.Total = total
		if err := s.repo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		return s.appendPedidoTx(tx, pedido.ID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return s.Obtener(ctx, pedido.ID)
}

// ── ConfirmarEntrega ──────────────────────────────────────────────────────────

func (s *pedidoService) ConfirmarEntrega(ctx context.Context, pedidoID uuid.UUID, req dto.ConfirmarEntregaRequest) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("pedido no encontrado: %w", err)
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, ErrPedidoTerminal
	}

	unidades := make(map[uuid.UUID]bool, len(req.UnidadIDs))
	for _, raw := range req.UnidadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("unidad_id invalido: %w", err)
		}
		unidades[id] = true
	}
	directos := make(map[uuid.UUID]bool, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("item_id invalido: %w", err)
		}
		directos[id] = true
	}

	ahora := time.Now()
	ticket, _ := s.ticketRepo.FindByPedido(ctx, pedidoID)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range pedido.Items {
			item := &pedido.Items[i]
			if item.EntregaDirecta && directos[item.ID] && item.EntregadoAt == nil {
				item.EntregadoAt = &ahora
				if err := s.repo.UpdateItemTx(tx, item); err != nil {
					return err
				}
			}
			for j := range item.Unidades {
				u := &item.Unidades[j]
				// Already-delivered units keep their original timestamp
				if unidades[u.ID] && u.Estado != model.UnidadEntregada {
					u.Estado = model.UnidadEntregada
					u.DeliveredAt = &ahora
					if err := s.repo.UpdateUnidadTx(tx, u); err != nil {
						return err
					}
				}
			}
		}

		// All kitchen units out: the ticket is done even if the KDS never
		// flipped it (counter-side delivery wins).
		if ticket != nil && ticket.Estado != model.TicketDone && unidadesCocinaEntregadas(pedido) {
			ticket.Estado = model.TicketDone
			if ticket.DeliveredAt == nil {
				ticket.DeliveredAt = &ahora
			}
			if err := s.ticketRepo.UpdateTx(tx, ticket); err != nil {
				return err
			}
			if err := s.outbox.AppendTx(tx, "tickets_cocina", ticket, s.perfil.UnitID); err != nil {
				return err
			}
		}

		pedido.Estado = model.DerivarEstadoPedido(pedido, ticket)
		if pedido.Estado == model.PedidoEntregado && pedido.DeliveredAt == nil {
			pedido.DeliveredAt = &ahora
		}
		if err := s.repo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return pedidoToResponse(pedido), nil
}

// ── DesmarcarEntrega ──────────────────────────────────────────────────────────

func (s *pedidoService) DesmarcarEntrega(ctx context.Context, pedidoID uuid.UUID, req dto.ConfirmarEntregaRequest) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("pedido no encontrado: %w", err)
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, ErrPedidoTerminal
	}

	unidades := make(map[uuid.UUID]bool, len(req.UnidadIDs))
	for _, raw := range req.UnidadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("unidad_id invalido: %w", err)
		}
		unidades[id] = true
	}
	directos := make(map[uuid.UUID]bool, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("item_id invalido: %w", err)
		}
		directos[id] = true
	}

	ticket, _ := s.ticketRepo.FindByPedido(ctx, pedidoID)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range pedido.Items {
			item := &pedido.Items[i]
			if item.EntregaDirecta && directos[item.ID] && item.EntregadoAt != nil {
				item.EntregadoAt = nil
				if err := s.repo.UpdateItemTx(tx, item); err != nil {
					return err
				}
			}
			for j := range item.Unidades {
				u := &item.Unidades[j]
				if unidades[u.ID] && u.Estado == model.UnidadEntregada {
					u.Estado = model.UnidadLista
					u.DeliveredAt = nil
					if err := s.repo.UpdateUnidadTx(tx, u); err != nil {
						return err
					}
				}
			}
		}

		pedido.Estado = model.DerivarEstadoPedido(pedido, ticket)
		if pedido.Estado != model.PedidoEntregado {
			pedido.DeliveredAt = nil
		}
		if err := s.repo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return pedidoToResponse(pedido), nil
}

// ── Cancelar ──────────────────────────────────────────────────────────────────

func (s *pedidoService) Cancelar(ctx context.Context, pedidoID uuid.UUID) error {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return fmt.Errorf("pedido no encontrado: %w", err)
	}
	if pedido.Estado == model.PedidoEntregado || pedido.Estado == model.PedidoCancelado {
		return ErrPedidoTerminal
	}

	ticket, _ := s.ticketRepo.FindByPedido(ctx, pedidoID)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		pedido.Estado = model.PedidoCancelado
		if err := s.repo.UpdatePedidoTx(tx, pedido); err != nil {
			return err
		}
		// The ticket leaves the KDS queue with the order
		if ticket != nil && ticket.Estado != model.TicketDone {
			ticket.Estado = model.TicketDone
			if err := s.ticketRepo.UpdateTx(tx, ticket); err != nil {
				return err
			}
			if err := s.outbox.AppendTx(tx, "tickets_cocina", ticket, s.perfil.UnitID); err != nil {
				return err
			}
		}
		return s.outbox.AppendTx(tx, "pedidos", pedido, s.perfil.UnitID)
	})
	if txErr != nil {
		return txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "pedidos", ID: pedido.ID})
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *pedidoService) Obtener(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("pedido no encontrado: %w", err)
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) ListActivos(ctx context.Context) ([]dto.PedidoResponse, error) {
	sesionOp, err := s.sesionRepo.FindAbierta(ctx)
	if err != nil {
		return nil, ErrSinSesionOperativa
	}
	pedidos, err := s.repo.ListActivos(ctx, sesionOp.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		out = append(out, *pedidoToResponse(&pedidos[i]))
	}
	return out, nil
}

// appendPedidoTx re-reads the full pedido graph inside the transaction and
// records it as an outbox event.
func (s *pedidoService) appendPedidoTx(tx *gorm.DB, pedidoID uuid.UUID) error {
	if tx == nil {
		return nil
	}
	var p model.Pedido
	if err := tx.Preload("Items.Unidades").Preload("Pagos").First(&p, "id = ?", pedidoID).Error; err != nil {
		return err
	}
	return s.outbox.AppendTx(tx, "pedidos", &p, s.perfil.UnitID)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func unidadesCocinaEntregadas(p *model.Pedido) bool {
	for _, item := range p.Items {
		for _, u := range item.Unidades {
			if u.Estado != model.UnidadEntregada {
				return false
			}
		}
	}
	return true
}

func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	items := make([]dto.ItemPedidoResponse, 0, len(p.Items))
	for _, item := range p.Items {
		unidades := make([]dto.UnidadResponse, 0, len(item.Unidades))
		for _, u := range item.Unidades {
			unidades = append(unidades, dto.UnidadResponse{
				ID:          u.ID.String(),
				Numero:      u.Numero,
				Estado:      u.Estado,
				Operador:    u.Operador,
				DeliveredAt: fmtTimePtr(u.DeliveredAt),
			})
		}
		items = append(items, dto.ItemPedidoResponse{
			ID:             item.ID.String(),
			Producto:       item.Nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Observaciones:  item.Observaciones,
			EntregaDirecta: item.EntregaDirecta,
			EntregadoAt:    fmtTimePtr(item.EntregadoAt),
			Unidades:       unidades,
		})
	}
	pagos := make([]dto.PagoResponse, 0, len(p.Pagos))
	for _, pago := range p.Pagos {
		pagos = append(pagos, dto.PagoResponse{Metodo: pago.Metodo, Monto: pago.Monto, Recibido: pago.Recibido})
	}
	return &dto.PedidoResponse{
		ID:          p.ID.String(),
		Pin:         p.Pin,
		Password:    p.Password,
		Estado:      p.Estado,
		Total:       p.Total,
		Vuelto:      p.Vuelto,
		MetodoPago:  p.MetodoPago,
		Items:       items,
		Pagos:       pagos,
		CreatedAt:   fmtTime(p.CreatedAt),
		ReadyAt:     fmtTimePtr(p.ReadyAt),
		DeliveredAt: fmtTimePtr(p.DeliveredAt),
	}
}
