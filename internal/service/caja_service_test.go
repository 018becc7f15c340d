package service_test

import (
	"context"
	"testing"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var perfilPrueba = config.PerfilDispositivo{UnitID: "local-1", DeviceID: "caja-1", Rol: "caja"}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func ptr[T any](v T) *T { return &v }

func newCajaSvc() (service.CajaService, *fakeCajaRepo, *fakeOutbox) {
	repo := newFakeCajaRepo()
	outbox := &fakeOutbox{}
	svc := service.NewCajaService(repo, outbox, events.NewBus(), perfilPrueba)
	return svc, repo, outbox
}

func TestAbrirCaja(t *testing.T) {
	svc, _, outbox := newCajaSvc()

	resp, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{
		Operador:     "Lucia",
		MontoInicial: ptr(d(5000)),
	})

	require.NoError(t, err)
	assert.Equal(t, model.CajaAbierta, resp.Estado)
	assert.Equal(t, "5000", resp.MontoInicial.String())
	assert.Equal(t, []string{"sesiones_caja"}, outbox.tablas())
}

func TestAbrirCajaConDenominaciones(t *testing.T) {
	svc, _, _ := newCajaSvc()

	// 4×1000 + 10×500 + 20×100 = 11000; the breakdown wins over MontoInicial
	resp, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{
		Operador:     "Lucia",
		MontoInicial: ptr(d(99)),
		Denominaciones: []dto.DenominacionRequest{
			{Valor: d(1000), Cantidad: 4},
			{Valor: d(500), Cantidad: 10},
			{Valor: d(100), Cantidad: 20},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "11000", resp.MontoInicial.String())
}

func TestAbrirCajaDuplicada(t *testing.T) {
	svc, _, _ := newCajaSvc()

	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(5000))})
	require.NoError(t, err)

	_, err = svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Marcos", MontoInicial: ptr(d(2000))})
	assert.ErrorIs(t, err, service.ErrCajaYaAbierta)
}

func TestRegistrarMovimientoSinCaja(t *testing.T) {
	svc, _, _ := newCajaSvc()

	_, err := svc.RegistrarMovimiento(context.Background(), dto.MovimientoCajaRequest{
		Tipo: model.MovimientoIngreso, Monto: d(500), Descripcion: "Fondo de cambio",
	})
	assert.ErrorIs(t, err, service.ErrSinSesionCaja)
}

func TestRegistrarMovimientoMontoInvalido(t *testing.T) {
	svc, _, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(1000))})
	require.NoError(t, err)

	_, err = svc.RegistrarMovimiento(context.Background(), dto.MovimientoCajaRequest{
		Tipo: model.MovimientoEgreso, Monto: d(-50), Descripcion: "Propina",
	})
	assert.ErrorIs(t, err, service.ErrMontoInvalido)
}

func TestCerrarCajaSinDesvio(t *testing.T) {
	svc, repo, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(5000))})
	require.NoError(t, err)

	sesion, err := repo.FindSesionAbierta(context.Background(), perfilPrueba.DeviceID)
	require.NoError(t, err)

	// venta 10000, ingreso 500, egreso 200 → esperado = 5000+10000+500−200
	repo.movimientos = append(repo.movimientos,
		model.MovimientoCaja{ID: uuid.New(), SesionCajaID: sesion.ID, Tipo: model.MovimientoVenta, Monto: d(10000), Descripcion: "Pedido 001"},
		model.MovimientoCaja{ID: uuid.New(), SesionCajaID: sesion.ID, Tipo: model.MovimientoIngreso, Monto: d(500), Descripcion: "Fondo"},
		model.MovimientoCaja{ID: uuid.New(), SesionCajaID: sesion.ID, Tipo: model.MovimientoEgreso, Monto: d(200), Descripcion: "Proveedor hielo"},
	)

	resp, err := svc.Cerrar(context.Background(), dto.CerrarCajaRequest{Declarado: ptr(d(15300))})
	require.NoError(t, err)
	assert.Equal(t, model.CajaCerrada, resp.Estado)
	assert.Equal(t, "15300", resp.MontoEsperado.String())
	assert.True(t, resp.Desvio.IsZero())
	assert.Nil(t, resp.Justificacion)
}

func TestCerrarCajaDesvioRequiereJustificacion(t *testing.T) {
	svc, _, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(10000))})
	require.NoError(t, err)

	// esperado 10000, declarado 9000 → |desvio| > 0.01
	_, err = svc.Cerrar(context.Background(), dto.CerrarCajaRequest{Declarado: ptr(d(9000))})
	assert.ErrorIs(t, err, service.ErrJustificacionCorta)

	// A justification under 10 characters does not count
	_, err = svc.Cerrar(context.Background(), dto.CerrarCajaRequest{
		Declarado: ptr(d(9000)), Justificacion: ptr("faltante"),
	})
	assert.ErrorIs(t, err, service.ErrJustificacionCorta)

	resp, err := svc.Cerrar(context.Background(), dto.CerrarCajaRequest{
		Declarado: ptr(d(9000)), Justificacion: ptr("Faltante detectado en turno nocturno"),
	})
	require.NoError(t, err)
	assert.Equal(t, "-1000", resp.Desvio.String())
	require.NotNil(t, resp.Justificacion)
}

func TestCerrarCajaDentroDeTolerancia(t *testing.T) {
	svc, _, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(1000))})
	require.NoError(t, err)

	// One cent off closes without justification
	resp, err := svc.Cerrar(context.Background(), dto.CerrarCajaRequest{Declarado: ptr(d(1000.01))})
	require.NoError(t, err)
	assert.Equal(t, "0.01", resp.Desvio.String())
}

func TestCerrarCajaConDenominaciones(t *testing.T) {
	svc, _, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(1500))})
	require.NoError(t, err)

	resp, err := svc.Cerrar(context.Background(), dto.CerrarCajaRequest{
		Denominaciones: []dto.DenominacionRequest{
			{Valor: d(1000), Cantidad: 1},
			{Valor: d(500), Cantidad: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1500", resp.MontoDeclarado.String())
	assert.True(t, resp.Desvio.IsZero())
}

func TestCerrarCajaYaCerrada(t *testing.T) {
	svc, _, _ := newCajaSvc()
	_, err := svc.Abrir(context.Background(), dto.AbrirCajaRequest{Operador: "Lucia", MontoInicial: ptr(d(1000))})
	require.NoError(t, err)
	_, err = svc.Cerrar(context.Background(), dto.CerrarCajaRequest{Declarado: ptr(d(1000))})
	require.NoError(t, err)

	_, err = svc.Cerrar(context.Background(), dto.CerrarCajaRequest{Declarado: ptr(d(1000))})
	assert.ErrorIs(t, err, service.ErrSinSesionCaja)
}
