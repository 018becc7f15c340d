package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpcionModificadorRequest struct {
	ID          string          `json:"id"     validate:"omitempty,uuid"`
	Nombre      string          `json:"nombre" validate:"required"`
	PrecioExtra decimal.Decimal `json:"precio_extra"`
}

type GrupoModificadorRequest struct {
	ID          string                     `json:"id"     validate:"omitempty,uuid"`
	Nombre      string                     `json:"nombre" validate:"required"`
	Obligatorio bool                       `json:"obligatorio"`
	Activo      bool                       `json:"activo"`
	Opciones    []OpcionModificadorRequest `json:"opciones" validate:"dive"`
}

// UpsertProductoRequest creates or fully replaces a product (id present =
// replace). The write syncs to every terminal of the unit like any other row.
type UpsertProductoRequest struct {
	ID             string                    `json:"id"           validate:"omitempty,uuid"`
	Nombre         string                    `json:"nombre"       validate:"required"`
	Descripcion    *string                   `json:"descripcion"`
	CategoriaID    string                    `json:"categoria_id" validate:"required,uuid"`
	Precio         decimal.Decimal           `json:"precio"       validate:"required"`
	EntregaDirecta bool                      `json:"entrega_directa"`
	Activo         bool                      `json:"activo"`
	Grupos         []GrupoModificadorRequest `json:"grupos" validate:"dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OpcionModificadorResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	PrecioExtra decimal.Decimal `json:"precio_extra"`
}

type GrupoModificadorResponse struct {
	ID          string                      `json:"id"`
	Nombre      string                      `json:"nombre"`
	Obligatorio bool                        `json:"obligatorio"`
	Activo      bool                        `json:"activo"`
	Opciones    []OpcionModificadorResponse `json:"opciones"`
}

type ProductoResponse struct {
	ID             string                     `json:"id"`
	Nombre         string                     `json:"nombre"`
	Descripcion    *string                    `json:"descripcion,omitempty"`
	CategoriaID    string                     `json:"categoria_id"`
	Precio         decimal.Decimal            `json:"precio"`
	EntregaDirecta bool                       `json:"entrega_directa"`
	Activo         bool                       `json:"activo"`
	Grupos         []GrupoModificadorResponse `json:"grupos"`
}

type CategoriaResponse struct {
	ID     string  `json:"id"`
	Nombre string  `json:"nombre"`
	Icono  *string `json:"icono,omitempty"`
}
