package handler

import (
	"net/http"

	"blendresto/internal/dto"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
)

type CocinaHandler struct{ svc service.CocinaService }

func NewCocinaHandler(svc service.CocinaService) *CocinaHandler { return &CocinaHandler{svc: svc} }

// Cola returns the KDS queue: pending tickets oldest first with their
// kitchen-routed items.
func (h *CocinaHandler) Cola(c *gin.Context) {
	resp, err := h.svc.Cola(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Encolar (re)creates the queued ticket for a pedido with kitchen items.
func (h *CocinaHandler) Encolar(c *gin.Context) {
	pedidoID, ok := parseID(c, "pedido_id")
	if !ok {
		return
	}
	resp, err := h.svc.Encolar(c.Request.Context(), pedidoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ActualizarTicket advances the ticket through queued → prep → ready → done.
func (h *CocinaHandler) ActualizarTicket(c *gin.Context) {
	pedidoID, ok := parseID(c, "pedido_id")
	if !ok {
		return
	}
	var req dto.ActualizarTicketRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarTicket(c.Request.Context(), pedidoID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarUnidad moves one production unit for per-unit kitchen flows.
func (h *CocinaHandler) ActualizarUnidad(c *gin.Context) {
	unidadID, ok := parseID(c, "unidad_id")
	if !ok {
		return
	}
	var req dto.ActualizarUnidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ActualizarUnidad(c.Request.Context(), unidadID, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CerrarDirecto closes a direct-delivery-only pedido in one step.
func (h *CocinaHandler) CerrarDirecto(c *gin.Context) {
	pedidoID, ok := parseID(c, "pedido_id")
	if !ok {
		return
	}
	if err := h.svc.CerrarPedidoDirecto(c.Request.Context(), pedidoID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
