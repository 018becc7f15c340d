package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de pedido. The order status is DERIVED from ticket/unit state —
// see DerivarEstadoPedido. It is persisted only as a committed snapshot.
const (
	PedidoNuevo         = "nuevo"
	PedidoEnPreparacion = "en_preparacion"
	PedidoListo         = "listo"
	PedidoEntregado     = "entregado"
	PedidoCancelado     = "cancelado"
)

// Estados de unidad de produccion.
const (
	UnidadPendiente     = "pendiente"
	UnidadEnPreparacion = "en_preparacion"
	UnidadLista         = "lista"
	UnidadEntregada     = "entregada"
)

// Metodos de pago. "multiplo" marks a split payment across methods.
const (
	PagoEfectivo = "efectivo"
	PagoDebito   = "debito"
	PagoCredito  = "credito"
	PagoQR       = "qr"
	PagoMultiplo = "multiplo"
)

// Pedido is created atomically at checkout confirmation and mutated only by
// ticket/unit transitions until a terminal state.
type Pedido struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// Pin is the short display code shown on the counter screen.
	Pin string `gorm:"type:varchar(10);index;not null"`
	// Password is the pickup code the customer quotes at the counter.
	Password   string          `gorm:"type:varchar(20);not null"`
	Estado     string          `gorm:"type:varchar(20);not null;default:'nuevo'"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago string          `gorm:"type:varchar(20);not null"`
	Vuelto     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	SesionOperativaID uuid.UUID  `gorm:"type:uuid;index;not null"`
	SesionCajaID      *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ReadyAt     *time.Time
	DeliveredAt *time.Time

	Items []PedidoItem `gorm:"foreignKey:PedidoID"`
	Pagos []Pago       `gorm:"foreignKey:PedidoID"`
}

// PedidoItem belongs to exactly one Pedido. EntregaDirecta items are never
// routed to the kitchen: they carry zero production units and are delivered
// by confirming the item itself (EntregadoAt).
type PedidoItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Nombre         string          `gorm:"not null"`
	CategoriaID    *uuid.UUID      `gorm:"type:uuid"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Observaciones  *string
	EntregaDirecta bool       `gorm:"not null;default:false"`
	EntregadoAt    *time.Time // delivery confirmation for entrega directa items

	Unidades []UnidadProduccion `gorm:"foreignKey:PedidoItemID"`
}

// UnidadProduccion is one deliverable instance of an item's quantity, tracked
// independently to support partial kitchen fulfillment. Once entregada, its
// timestamp is immutable until explicitly un-checked.
type UnidadProduccion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	PedidoItemID uuid.UUID `gorm:"type:uuid;index;not null"`
	Numero       int       `gorm:"not null"`
	Estado       string    `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Operador     *string
	DeliveredAt  *time.Time
}

// Pago is one payment component of a Pedido. Recibido holds the tendered
// amount for cash components (>= Monto; the difference is the change).
type Pago struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey"`
	PedidoID uuid.UUID        `gorm:"type:uuid;index;not null"`
	Metodo   string           `gorm:"type:varchar(20);not null"`
	Monto    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Recibido *decimal.Decimal `gorm:"type:decimal(12,2)"`
}

// TodoEntregado reports whether every production unit AND every entrega
// directa item of the pedido has been confirmed delivered.
func (p *Pedido) TodoEntregado() bool {
	if len(p.Items) == 0 {
		return false
	}
	for _, item := range p.Items {
		if item.EntregaDirecta {
			if item.EntregadoAt == nil {
				return false
			}
			continue
		}
		for _, u := range item.Unidades {
			if u.Estado != UnidadEntregada {
				return false
			}
		}
	}
	return true
}

// TieneCocina reports whether any item of the pedido is kitchen-routed.
func (p *Pedido) TieneCocina() bool {
	for _, item := range p.Items {
		if !item.EntregaDirecta {
			return true
		}
	}
	return false
}

// DerivarEstadoPedido computes the order status from ticket and unit state.
// Cancelado is sticky (explicit terminal transition); otherwise:
// entregado once everything is delivered, listo once the ticket reports
// ready, en_preparacion once the ticket or any unit is in progress, nuevo
// before any activity. ticket may be nil for direct-delivery-only orders.
func DerivarEstadoPedido(p *Pedido, ticket *TicketCocina) string {
	if p.Estado == PedidoCancelado {
		return PedidoCancelado
	}
	if p.TodoEntregado() {
		return PedidoEntregado
	}
	if ticket != nil {
		switch ticket.Estado {
		case TicketReady, TicketDone:
			return PedidoListo
		case TicketPrep:
			return PedidoEnPreparacion
		}
	}
	for _, item := range p.Items {
		for _, u := range item.Unidades {
			if u.Estado != UnidadPendiente {
				return PedidoEnPreparacion
			}
		}
	}
	return PedidoNuevo
}
