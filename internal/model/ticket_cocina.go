package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados de ticket de cocina. Wire states shared with the KDS terminal:
// queued → prep → ready → done (terminal). Transitions are forward-only.
const (
	TicketQueued = "queued"
	TicketPrep   = "prep"
	TicketReady  = "ready"
	TicketDone   = "done"
)

// TicketCocina is the kitchen-facing work order derived from a pedido's
// kitchen-routed items. Phase timestamps feed preparation-time reporting
// on the KDS side.
type TicketCocina struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PedidoID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Estado   string    `gorm:"type:varchar(20);not null;default:'queued'"`

	PreparingStart *time.Time
	ReadyAt        *time.Time
	DeliveredAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ticketOrden defines the forward-only progression of ticket states.
var ticketOrden = map[string]int{
	TicketQueued: 0,
	TicketPrep:   1,
	TicketReady:  2,
	TicketDone:   3,
}

// TransicionTicketValida reports whether moving desde → hacia advances the
// ticket. Repeating the current state is allowed (idempotent merges).
func TransicionTicketValida(desde, hacia string) bool {
	d, okD := ticketOrden[desde]
	h, okH := ticketOrden[hacia]
	return okD && okH && h >= d
}

// EstadoPedidoPorTicket maps a ticket state onto the order status it implies.
func EstadoPedidoPorTicket(estado string) string {
	switch estado {
	case TicketDone:
		return PedidoEntregado
	case TicketReady:
		return PedidoListo
	case TicketPrep:
		return PedidoEnPreparacion
	default:
		return PedidoNuevo
	}
}
