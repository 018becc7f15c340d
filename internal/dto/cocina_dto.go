package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ActualizarTicketRequest struct {
	Estado string `json:"estado" validate:"required,oneof=prep ready done"`
}

type ActualizarUnidadRequest struct {
	Estado   string  `json:"estado" validate:"required,oneof=en_preparacion lista entregada"`
	Operador *string `json:"operador"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// TicketResponse is one KDS queue entry: the ticket plus the kitchen-routed
// portion of its pedido.
type TicketResponse struct {
	ID             string               `json:"id"`
	PedidoID       string               `json:"pedido_id"`
	Pin            string               `json:"pin"`
	Estado         string               `json:"estado"`
	Items          []ItemPedidoResponse `json:"items"`
	CreatedAt      string               `json:"created_at"`
	PreparingStart *string              `json:"preparing_start,omitempty"`
	ReadyAt        *string              `json:"ready_at,omitempty"`
	DeliveredAt    *string              `json:"delivered_at,omitempty"`
}
