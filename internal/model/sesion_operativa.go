package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados de sesion operativa.
const (
	OperativaAbierta = "abierta"
	OperativaCerrada = "cerrada"
)

// SesionOperativa groups pedidos and sesiones de caja for a shift. Closing
// it is the cleanup boundary: non-terminal pedidos are purged from active
// views (history is kept) and the pin sequence restarts.
type SesionOperativa struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Estado   string    `gorm:"type:varchar(20);not null;default:'abierta'"`
	PinSeq   int       `gorm:"not null;default:0"`
	OpenedAt time.Time
	ClosedAt *time.Time
}
