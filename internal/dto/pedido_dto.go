package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SeleccionModificadorRequest struct {
	GrupoID  string `json:"grupo_id"  validate:"required,uuid"`
	OpcionID string `json:"opcion_id" validate:"required,uuid"`
}

// ItemCarritoRequest is one cart line as assembled by the register UI.
type ItemCarritoRequest struct {
	ProductoID    string                        `json:"producto_id" validate:"required,uuid"`
	Cantidad      int                           `json:"cantidad"    validate:"required,min=1"`
	Observaciones *string                       `json:"observaciones"`
	Selecciones   []SeleccionModificadorRequest `json:"selecciones" validate:"dive"`
}

// PagoComponenteRequest is one payment component. Recibido only applies to
// efectivo: the tendered amount, from which the change is computed.
type PagoComponenteRequest struct {
	Metodo   string           `json:"metodo"   validate:"required,oneof=efectivo debito credito qr"`
	Monto    decimal.Decimal  `json:"monto"    validate:"required"`
	Recibido *decimal.Decimal `json:"recibido"`
}

type ConfirmarPedidoRequest struct {
	Items    []ItemCarritoRequest    `json:"items"    validate:"required,min=1,dive"`
	Pagos    []PagoComponenteRequest `json:"pagos"    validate:"required,min=1,dive"`
	Password string                  `json:"password" validate:"required"`
}

type AjustarCantidadRequest struct {
	Cantidad int `json:"cantidad" validate:"min=0"`
}

// ConfirmarEntregaRequest selects what is being handed over: production units
// by id, and entrega directa items by item id.
type ConfirmarEntregaRequest struct {
	UnidadIDs []string `json:"unidad_ids" validate:"dive,uuid"`
	ItemIDs   []string `json:"item_ids"   validate:"dive,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UnidadResponse struct {
	ID          string  `json:"id"`
	Numero      int     `json:"numero"`
	Estado      string  `json:"estado"`
	Operador    *string `json:"operador,omitempty"`
	DeliveredAt *string `json:"delivered_at,omitempty"`
}

type ItemPedidoResponse struct {
	ID             string           `json:"id"`
	Producto       string           `json:"producto"`
	Cantidad       int              `json:"cantidad"`
	PrecioUnitario decimal.Decimal  `json:"precio_unitario"`
	Observaciones  *string          `json:"observaciones,omitempty"`
	EntregaDirecta bool             `json:"entrega_directa"`
	EntregadoAt    *string          `json:"entregado_at,omitempty"`
	Unidades       []UnidadResponse `json:"unidades"`
}

type PagoResponse struct {
	Metodo   string           `json:"metodo"`
	Monto    decimal.Decimal  `json:"monto"`
	Recibido *decimal.Decimal `json:"recibido,omitempty"`
}

type PedidoResponse struct {
	ID          string               `json:"id"`
	Pin         string               `json:"pin"`
	Password    string               `json:"password"`
	Estado      string               `json:"estado"`
	Total       decimal.Decimal      `json:"total"`
	Vuelto      decimal.Decimal      `json:"vuelto"`
	MetodoPago  string               `json:"metodo_pago"`
	Items       []ItemPedidoResponse `json:"items"`
	Pagos       []PagoResponse       `json:"pagos"`
	CreatedAt   string               `json:"created_at"`
	ReadyAt     *string              `json:"ready_at,omitempty"`
	DeliveredAt *string              `json:"delivered_at,omitempty"`
}
