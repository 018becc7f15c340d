package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// DenominacionRequest is one bill/coin line of a drawer count:
// counted = Σ(valor × cantidad).
type DenominacionRequest struct {
	Valor    decimal.Decimal `json:"valor"    validate:"required"`
	Cantidad int             `json:"cantidad" validate:"min=0"`
}

// AbrirCajaRequest opens the drawer with either a flat amount or a
// denomination breakdown (the breakdown wins when both are present).
type AbrirCajaRequest struct {
	Operador       string                `json:"operador" validate:"required"`
	MontoInicial   *decimal.Decimal      `json:"monto_inicial"`
	Denominaciones []DenominacionRequest `json:"denominaciones" validate:"dive"`
}

type MovimientoCajaRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
}

// CerrarCajaRequest seals the session with the counted amount (flat or by
// denominations). Justificacion is mandatory when the deviation exceeds the
// 0.01 tolerance.
type CerrarCajaRequest struct {
	Declarado      *decimal.Decimal      `json:"declarado"`
	Denominaciones []DenominacionRequest `json:"denominaciones" validate:"dive"`
	Justificacion  *string               `json:"justificacion"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoCajaResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	CreatedAt   string          `json:"created_at"`
}

type SesionCajaResponse struct {
	ID             string                   `json:"id"`
	Operador       string                   `json:"operador"`
	Estado         string                   `json:"estado"`
	MontoInicial   decimal.Decimal          `json:"monto_inicial"`
	MontoEsperado  *decimal.Decimal         `json:"monto_esperado,omitempty"`
	MontoDeclarado *decimal.Decimal         `json:"monto_declarado,omitempty"`
	Desvio         *decimal.Decimal         `json:"desvio,omitempty"`
	Justificacion  *string                  `json:"justificacion,omitempty"`
	Movimientos    []MovimientoCajaResponse `json:"movimientos,omitempty"`
	OpenedAt       string                   `json:"opened_at"`
	ClosedAt       *string                  `json:"closed_at,omitempty"`
}
