package dto

type SesionOperativaResponse struct {
	ID       string  `json:"id"`
	Estado   string  `json:"estado"`
	PinSeq   int     `json:"pin_seq"`
	OpenedAt string  `json:"opened_at"`
	ClosedAt *string `json:"closed_at,omitempty"`
	// PedidosPurgados only appears on the close response.
	PedidosPurgados *int64 `json:"pedidos_purgados,omitempty"`
}
