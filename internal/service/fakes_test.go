package service_test

import (
	"context"
	"encoding/json"
	"time"

	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. DB() returns nil so the services run their
// transaction bodies directly (fn(nil)).

// ── PedidoRepository ─────────────────────────────────────────────────────────

type fakePedidoRepo struct {
	pedidos map[uuid.UUID]*model.Pedido
}

func newFakePedidoRepo() *fakePedidoRepo {
	return &fakePedidoRepo{pedidos: make(map[uuid.UUID]*model.Pedido)}
}

func (r *fakePedidoRepo) DB() *gorm.DB { return nil }

func (r *fakePedidoRepo) CreateTx(_ *gorm.DB, p *model.Pedido) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.pedidos[p.ID] = p
	return nil
}

func (r *fakePedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePedidoRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.PedidoItem, error) {
	for _, p := range r.pedidos {
		for i := range p.Items {
			if p.Items[i].ID == id {
				return &p.Items[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePedidoRepo) FindUnidadByID(_ context.Context, id uuid.UUID) (*model.PedidoItem, *model.UnidadProduccion, error) {
	for _, p := range r.pedidos {
		for i := range p.Items {
			for j := range p.Items[i].Unidades {
				if p.Items[i].Unidades[j].ID == id {
					return &p.Items[i], &p.Items[i].Unidades[j], nil
				}
			}
		}
	}
	return nil, nil, gorm.ErrRecordNotFound
}

func (r *fakePedidoRepo) UpdatePedidoTx(_ *gorm.DB, p *model.Pedido) error {
	stored, ok := r.pedidos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Estado = p.Estado
	stored.Total = p.Total
	stored.Vuelto = p.Vuelto
	stored.ReadyAt = p.ReadyAt
	stored.DeliveredAt = p.DeliveredAt
	return nil
}

func (r *fakePedidoRepo) UpdateItemTx(_ *gorm.DB, item *model.PedidoItem) error {
	for _, p := range r.pedidos {
		for i := range p.Items {
			if p.Items[i].ID == item.ID {
				p.Items[i].Cantidad = item.Cantidad
				p.Items[i].EntregadoAt = item.EntregadoAt
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePedidoRepo) UpdateUnidadTx(_ *gorm.DB, u *model.UnidadProduccion) error {
	for _, p := range r.pedidos {
		for i := range p.Items {
			for j := range p.Items[i].Unidades {
				if p.Items[i].Unidades[j].ID == u.ID {
					p.Items[i].Unidades[j].Estado = u.Estado
					p.Items[i].Unidades[j].Operador = u.Operador
					p.Items[i].Unidades[j].DeliveredAt = u.DeliveredAt
					return nil
				}
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePedidoRepo) AgregarUnidadesTx(_ *gorm.DB, unidades []model.UnidadProduccion) error {
	for _, u := range unidades {
		for _, p := range r.pedidos {
			for i := range p.Items {
				if p.Items[i].ID == u.PedidoItemID {
					p.Items[i].Unidades = append(p.Items[i].Unidades, u)
				}
			}
		}
	}
	return nil
}

func (r *fakePedidoRepo) EliminarUnidadesTx(_ *gorm.DB, ids []uuid.UUID) error {
	borrar := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		borrar[id] = true
	}
	for _, p := range r.pedidos {
		for i := range p.Items {
			keep := p.Items[i].Unidades[:0]
			for _, u := range p.Items[i].Unidades {
				if !borrar[u.ID] {
					keep = append(keep, u)
				}
			}
			p.Items[i].Unidades = keep
		}
	}
	return nil
}

func (r *fakePedidoRepo) ListActivos(_ context.Context, sesionOperativaID uuid.UUID) ([]model.Pedido, error) {
	var out []model.Pedido
	for _, p := range r.pedidos {
		if p.SesionOperativaID == sesionOperativaID &&
			p.Estado != model.PedidoEntregado && p.Estado != model.PedidoCancelado {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePedidoRepo) PurgarActivosTx(_ *gorm.DB, sesionOperativaID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.pedidos {
		if p.SesionOperativaID == sesionOperativaID &&
			p.Estado != model.PedidoEntregado && p.Estado != model.PedidoCancelado {
			p.Estado = model.PedidoCancelado
			n++
		}
	}
	return n, nil
}

var _ repository.PedidoRepository = (*fakePedidoRepo)(nil)

// ── CajaRepository ───────────────────────────────────────────────────────────

type fakeCajaRepo struct {
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (r *fakeCajaRepo) DB() *gorm.DB { return nil }

func (r *fakeCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeCajaRepo) CreateSesionTx(_ *gorm.DB, s *model.SesionCaja) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeCajaRepo) FindSesionAbierta(_ context.Context, deviceID string) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.DeviceID == deviceID && s.Estado == model.CajaAbierta {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Movimientos = nil
	for _, m := range r.movimientos {
		if m.SesionCajaID == id {
			s.Movimientos = append(s.Movimientos, m)
		}
	}
	return s, nil
}

func (r *fakeCajaRepo) UpdateSesionTx(_ *gorm.DB, s *model.SesionCaja) error {
	stored, ok := r.sesiones[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Estado = s.Estado
	stored.MontoEsperado = s.MontoEsperado
	stored.MontoDeclarado = s.MontoDeclarado
	stored.Desvio = s.Desvio
	stored.Justificacion = s.Justificacion
	stored.ClosedAt = s.ClosedAt
	return nil
}

func (r *fakeCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	return r.CreateMovimientoTx(nil, m)
}

func (r *fakeCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *fakeCajaRepo) ListMovimientos(_ context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionCajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeCajaRepo) ListSesiones(_ context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	all := make([]model.SesionCaja, 0, len(r.sesiones))
	for _, s := range r.sesiones {
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// ── TicketRepository ─────────────────────────────────────────────────────────

type fakeTicketRepo struct {
	tickets map[uuid.UUID]*model.TicketCocina // keyed by PedidoID
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uuid.UUID]*model.TicketCocina)}
}

func (r *fakeTicketRepo) CreateTx(_ *gorm.DB, t *model.TicketCocina) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.tickets[t.PedidoID] = t
	return nil
}

func (r *fakeTicketRepo) FindByPedido(_ context.Context, pedidoID uuid.UUID) (*model.TicketCocina, error) {
	t, ok := r.tickets[pedidoID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTicketRepo) UpdateTx(_ *gorm.DB, t *model.TicketCocina) error {
	stored, ok := r.tickets[t.PedidoID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Estado = t.Estado
	stored.PreparingStart = t.PreparingStart
	stored.ReadyAt = t.ReadyAt
	stored.DeliveredAt = t.DeliveredAt
	return nil
}

func (r *fakeTicketRepo) ListActivos(_ context.Context) ([]model.TicketCocina, error) {
	var out []model.TicketCocina
	for _, t := range r.tickets {
		if t.Estado != model.TicketDone {
			out = append(out, *t)
		}
	}
	return out, nil
}

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)

// ── SesionOperativaRepository ────────────────────────────────────────────────

type fakeSesionOperativaRepo struct {
	sesiones map[uuid.UUID]*model.SesionOperativa
}

func newFakeSesionOperativaRepo() *fakeSesionOperativaRepo {
	return &fakeSesionOperativaRepo{sesiones: make(map[uuid.UUID]*model.SesionOperativa)}
}

func (r *fakeSesionOperativaRepo) DB() *gorm.DB { return nil }

func (r *fakeSesionOperativaRepo) Create(_ context.Context, s *model.SesionOperativa) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeSesionOperativaRepo) CreateTx(_ *gorm.DB, s *model.SesionOperativa) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeSesionOperativaRepo) FindAbierta(_ context.Context) (*model.SesionOperativa, error) {
	for _, s := range r.sesiones {
		if s.Estado == model.OperativaAbierta {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSesionOperativaRepo) UpdateTx(_ *gorm.DB, s *model.SesionOperativa) error {
	stored, ok := r.sesiones[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Estado = s.Estado
	stored.PinSeq = s.PinSeq
	stored.ClosedAt = s.ClosedAt
	return nil
}

func (r *fakeSesionOperativaRepo) SiguientePinTx(_ *gorm.DB, s *model.SesionOperativa) (int, error) {
	stored, ok := r.sesiones[s.ID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	stored.PinSeq++
	s.PinSeq = stored.PinSeq
	return stored.PinSeq, nil
}

var _ repository.SesionOperativaRepository = (*fakeSesionOperativaRepo)(nil)

// ── CatalogoRepository ───────────────────────────────────────────────────────

type fakeCatalogoRepo struct {
	productos  map[uuid.UUID]*model.Producto
	categorias map[uuid.UUID]*model.Categoria
}

func newFakeCatalogoRepo() *fakeCatalogoRepo {
	return &fakeCatalogoRepo{
		productos:  make(map[uuid.UUID]*model.Producto),
		categorias: make(map[uuid.UUID]*model.Categoria),
	}
}

func (r *fakeCatalogoRepo) DB() *gorm.DB { return nil }

func (r *fakeCatalogoRepo) ListProductos(_ context.Context, soloActivos bool) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if soloActivos && !p.Activo {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeCatalogoRepo) FindProductoByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeCatalogoRepo) BuscarProductos(_ context.Context, q string) ([]model.Producto, error) {
	return r.ListProductos(context.Background(), true)
}

func (r *fakeCatalogoRepo) UpsertProductoTx(_ *gorm.DB, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *fakeCatalogoRepo) ListCategorias(_ context.Context) ([]model.Categoria, error) {
	var out []model.Categoria
	for _, c := range r.categorias {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCatalogoRepo) FindCategoriaByID(_ context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.categorias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

var _ repository.CatalogoRepository = (*fakeCatalogoRepo)(nil)

// ── OutboxRepository ─────────────────────────────────────────────────────────

type fakeOutbox struct {
	eventos []model.EventoSync
}

func (r *fakeOutbox) AppendTx(_ *gorm.DB, tabla string, fila any, unitID string) error {
	data, err := json.Marshal(fila)
	if err != nil {
		return err
	}
	r.eventos = append(r.eventos, model.EventoSync{
		ID:     uint(len(r.eventos) + 1),
		Tabla:  tabla,
		Fila:   string(data),
		UnitID: unitID,
	})
	return nil
}

func (r *fakeOutbox) Pendientes(_ context.Context, limit int) ([]model.EventoSync, error) {
	var out []model.EventoSync
	for _, ev := range r.eventos {
		if !ev.Enviado {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutbox) MarcarEnviados(_ context.Context, ids []uint) error {
	for i := range r.eventos {
		for _, id := range ids {
			if r.eventos[i].ID == id {
				r.eventos[i].Enviado = true
			}
		}
	}
	return nil
}

// tablas returns the table names of the recorded events, in append order.
func (r *fakeOutbox) tablas() []string {
	out := make([]string, 0, len(r.eventos))
	for _, ev := range r.eventos {
		out = append(out, ev.Tabla)
	}
	return out
}

var _ repository.OutboxRepository = (*fakeOutbox)(nil)
