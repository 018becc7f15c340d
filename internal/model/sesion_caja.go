package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de sesion de caja. Cerrada is terminal — no reopening.
const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Tipos de movimiento. Monto is always positive; the type determines the
// sign in the expected-amount formula (venta/ingreso add, egreso subtracts).
const (
	MovimientoVenta   = "venta"
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
)

// SesionCaja represents the lifecycle of a cash drawer session.
// At most one sesion abierta per terminal at a time.
type SesionCaja struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Operador string    `gorm:"not null"`
	// DeviceID is the terminal that opened the drawer. The one-open-session
	// guard applies per device: two offline terminals can legitimately hold
	// independent open sessions that surface as duplicates after reconnection.
	DeviceID string `gorm:"type:varchar(40);index;not null"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Closing data — computed on Cerrar: esperado = inicial + Σventa + Σingreso − Σegreso
	MontoEsperado  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoDeclarado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Desvio         *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Justificacion  *string
	Estado         string     `gorm:"type:varchar(20);not null;default:'abierta'"`
	SesionOperativaID *uuid.UUID `gorm:"type:uuid;index"`
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

// MovimientoCaja is an immutable event in the cash drawer ledger.
// Movements are NEVER modified or deleted once written.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating Pedido for venta movements.
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

// CalcularEsperado folds the movement list into the expected drawer amount.
// The result is identical whether computed in one pass or incrementally
// after each movement.
func CalcularEsperado(inicial decimal.Decimal, movimientos []MovimientoCaja) decimal.Decimal {
	esperado := inicial
	for _, m := range movimientos {
		switch m.Tipo {
		case MovimientoVenta, MovimientoIngreso:
			esperado = esperado.Add(m.Monto)
		case MovimientoEgreso:
			esperado = esperado.Sub(m.Monto)
		}
	}
	return esperado
}
