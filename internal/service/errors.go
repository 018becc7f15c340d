package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain validation errors. All of these are synchronous, block the
// triggering operation, and commit nothing.

// SeleccionRequeridaError: an active obligatory modifier group has no
// selected option (or more than one) for the item.
type SeleccionRequeridaError struct {
	Item  string
	Grupo string
}

func (e *SeleccionRequeridaError) Error() string {
	return fmt.Sprintf("el item %q requiere una seleccion en el grupo %q", e.Item, e.Grupo)
}

// PagoInsuficienteError: the payment components do not cover the order total
// (or the cash tendered does not cover its component).
type PagoInsuficienteError struct {
	Requerido decimal.Decimal
}

func (e *PagoInsuficienteError) Error() string {
	return fmt.Sprintf("el pago no cubre el total del pedido: se requiere %s", e.Requerido.StringFixed(2))
}

// ReduccionUnidadesError: a quantity adjustment would remove units the
// kitchen already started.
type ReduccionUnidadesError struct {
	EnCurso int
}

func (e *ReduccionUnidadesError) Error() string {
	return fmt.Sprintf("no se puede reducir por debajo de %d unidades ya en curso", e.EnCurso)
}

var (
	ErrSinPassword         = errors.New("el pedido requiere una contraseña de retiro")
	ErrPedidoTerminal      = errors.New("el pedido ya esta en un estado terminal")
	ErrSinSesionOperativa  = errors.New("no hay una sesion operativa abierta")
	ErrCajaYaAbierta       = errors.New("ya existe una caja abierta en esta terminal")
	ErrSinSesionCaja       = errors.New("no hay sesion de caja abierta")
	ErrJustificacionCorta  = errors.New("el desvio supera la tolerancia: se requiere una justificacion de al menos 10 caracteres")
	ErrMontoInvalido       = errors.New("el monto debe ser mayor a cero")
	ErrSesionOperativaDup  = errors.New("ya existe una sesion operativa abierta")
	ErrTransicionTicket    = errors.New("transicion de ticket invalida")
	ErrPedidoConCocina     = errors.New("el pedido tiene items de cocina: debe pasar por el ticket")
)
