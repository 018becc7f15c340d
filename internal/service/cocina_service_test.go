package service_test

import (
	"context"
	"testing"

	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCocinaSvc(e *entorno) service.CocinaService {
	return service.NewCocinaService(e.ticketRepo, e.pedidoRepo, e.outbox, events.NewBus(), perfilPrueba)
}

func TestTicketFlujoCompleto(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 2)
	pedidoID := uuid.MustParse(resp.ID)

	// queued → prep: units start, the pedido follows
	ticket, err := cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketPrep})
	require.NoError(t, err)
	assert.Equal(t, model.TicketPrep, ticket.Estado)
	assert.NotNil(t, ticket.PreparingStart)
	pedido := e.pedidoRepo.pedidos[pedidoID]
	assert.Equal(t, model.PedidoEnPreparacion, pedido.Estado)
	for _, u := range pedido.Items[0].Unidades {
		assert.Equal(t, model.UnidadEnPreparacion, u.Estado)
	}

	// prep → ready
	ticket, err = cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketReady})
	require.NoError(t, err)
	assert.NotNil(t, ticket.ReadyAt)
	assert.Equal(t, model.PedidoListo, pedido.Estado)
	assert.NotNil(t, pedido.ReadyAt)
	for _, u := range pedido.Items[0].Unidades {
		assert.Equal(t, model.UnidadLista, u.Estado)
	}

	// ready → done delivers everything
	ticket, err = cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketDone})
	require.NoError(t, err)
	assert.NotNil(t, ticket.DeliveredAt)
	assert.Equal(t, model.PedidoEntregado, pedido.Estado)
	assert.NotNil(t, pedido.DeliveredAt)
	for _, u := range pedido.Items[0].Unidades {
		assert.Equal(t, model.UnidadEntregada, u.Estado)
		assert.NotNil(t, u.DeliveredAt)
	}
}

func TestTicketTransicionInvalida(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)
	pedidoID := uuid.MustParse(resp.ID)

	_, err := cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketReady})
	require.NoError(t, err)

	// Backwards is rejected
	_, err = cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketPrep})
	assert.ErrorIs(t, err, service.ErrTransicionTicket)
}

func TestTicketRepetirEstadoNoPisaTimestamps(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)
	pedidoID := uuid.MustParse(resp.ID)

	_, err := cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketPrep})
	require.NoError(t, err)
	primera := *e.ticketRepo.tickets[pedidoID].PreparingStart

	// Same state again is idempotent
	_, err = cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketPrep})
	require.NoError(t, err)
	assert.Equal(t, primera, *e.ticketRepo.tickets[pedidoID].PreparingStart)
}

func TestTicketPedidoCancelado(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)
	pedidoID := uuid.MustParse(resp.ID)

	require.NoError(t, e.svc.Cancelar(context.Background(), pedidoID))

	// Cancel already forced the ticket done, so only done itself remains legal
	// and the pedido guard still rejects it.
	_, err := cocina.ActualizarTicket(context.Background(), pedidoID, dto.ActualizarTicketRequest{Estado: model.TicketDone})
	assert.ErrorIs(t, err, service.ErrPedidoTerminal)
}

func TestActualizarUnidad(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 2)
	pedidoID := uuid.MustParse(resp.ID)
	unidadID := uuid.MustParse(resp.Items[0].Unidades[0].ID)

	err := cocina.ActualizarUnidad(context.Background(), unidadID, dto.ActualizarUnidadRequest{
		Estado: model.UnidadEnPreparacion, Operador: ptr("Marcos"),
	})
	require.NoError(t, err)

	pedido := e.pedidoRepo.pedidos[pedidoID]
	u := pedido.Items[0].Unidades[0]
	assert.Equal(t, model.UnidadEnPreparacion, u.Estado)
	require.NotNil(t, u.Operador)
	assert.Equal(t, "Marcos", *u.Operador)
	// One unit moving puts the whole order in preparation
	assert.Equal(t, model.PedidoEnPreparacion, pedido.Estado)
	// The second unit stays put
	assert.Equal(t, model.UnidadPendiente, pedido.Items[0].Unidades[1].Estado)
}

func TestActualizarUnidadRetrocesoRechazado(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)
	unidadID := uuid.MustParse(resp.Items[0].Unidades[0].ID)

	err := cocina.ActualizarUnidad(context.Background(), unidadID, dto.ActualizarUnidadRequest{Estado: model.UnidadLista})
	require.NoError(t, err)

	err = cocina.ActualizarUnidad(context.Background(), unidadID, dto.ActualizarUnidadRequest{Estado: model.UnidadEnPreparacion})
	assert.ErrorIs(t, err, service.ErrTransicionTicket)
}

func TestActualizarUnidadEntregaTimestampInmutable(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp, err := e.svc.Confirmar(context.Background(), dto.ConfirmarPedidoRequest{
		Items:    []dto.ItemCarritoRequest{e.itemBurger(2)},
		Pagos:    []dto.PagoComponenteRequest{pagoEfectivo(9000, 9000)},
		Password: "clave",
	})
	require.NoError(t, err)
	pedidoID := uuid.MustParse(resp.ID)
	unidadID := uuid.MustParse(resp.Items[0].Unidades[0].ID)

	require.NoError(t, cocina.ActualizarUnidad(context.Background(), unidadID, dto.ActualizarUnidadRequest{Estado: model.UnidadEntregada}))
	primera := *e.pedidoRepo.pedidos[pedidoID].Items[0].Unidades[0].DeliveredAt

	require.NoError(t, cocina.ActualizarUnidad(context.Background(), unidadID, dto.ActualizarUnidadRequest{Estado: model.UnidadEntregada}))
	assert.Equal(t, primera, *e.pedidoRepo.pedidos[pedidoID].Items[0].Unidades[0].DeliveredAt)
}

func TestColaFiltraCancelados(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)

	activo := confirmarBurger(t, e, 1)
	cancelado := confirmarBurger(t, e, 1)
	require.NoError(t, e.svc.Cancelar(context.Background(), uuid.MustParse(cancelado.ID)))

	cola, err := cocina.Cola(context.Background())
	require.NoError(t, err)
	require.Len(t, cola, 1)
	assert.Equal(t, activo.ID, cola[0].PedidoID)
	assert.Equal(t, activo.Pin, cola[0].Pin)
	// Only the kitchen-routed items reach the KDS
	require.Len(t, cola[0].Items, 1)
	assert.False(t, cola[0].Items[0].EntregaDirecta)
}

func TestEncolarIdempotente(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)
	pedidoID := uuid.MustParse(resp.ID)

	existente := e.ticketRepo.tickets[pedidoID]
	ticket, err := cocina.Encolar(context.Background(), pedidoID)
	require.NoError(t, err)
	assert.Equal(t, existente.ID.String(), ticket.ID)
}

func TestEncolarPedidoSinCocina(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp, err := e.svc.Confirmar(context.Background(), dto.ConfirmarPedidoRequest{
		Items:    []dto.ItemCarritoRequest{e.itemSoda(1)},
		Pagos:    []dto.PagoComponenteRequest{{Metodo: model.PagoQR, Monto: d(1500)}},
		Password: "clave",
	})
	require.NoError(t, err)

	_, err = cocina.Encolar(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, service.ErrPedidoConCocina)
}

func TestCerrarPedidoDirecto(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)

	// A direct-only pedido seeded still open (as if synced in from another
	// terminal before its closing event arrived)
	pedido := &model.Pedido{
		ID: uuid.New(), Pin: "042", Password: "gato-gris", Estado: model.PedidoNuevo,
		Total: d(1500), MetodoPago: model.PagoQR,
		Items: []model.PedidoItem{{
			ID: uuid.New(), ProductoID: e.sodaID, Nombre: "Gaseosa 500ml",
			Cantidad: 1, PrecioUnitario: d(1500), EntregaDirecta: true,
		}},
	}
	pedido.Items[0].PedidoID = pedido.ID
	require.NoError(t, e.pedidoRepo.CreateTx(nil, pedido))

	require.NoError(t, cocina.CerrarPedidoDirecto(context.Background(), pedido.ID))
	assert.Equal(t, model.PedidoEntregado, pedido.Estado)
	assert.NotNil(t, pedido.DeliveredAt)
	assert.NotNil(t, pedido.Items[0].EntregadoAt)

	// Closing again is a no-op
	require.NoError(t, cocina.CerrarPedidoDirecto(context.Background(), pedido.ID))
}

func TestCerrarPedidoDirectoConCocina(t *testing.T) {
	e := newEntorno(t, true)
	cocina := newCocinaSvc(e)
	resp := confirmarBurger(t, e, 1)

	err := cocina.CerrarPedidoDirecto(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, service.ErrPedidoConCocina)
}
