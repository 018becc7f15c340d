package handler

import (
	"net/http"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/infra"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PedidosHandler struct {
	svc          service.PedidoService
	pedidoRepo   repository.PedidoRepository
	catalogoRepo repository.CatalogoRepository
	cfg          *config.Config
}

func NewPedidosHandler(svc service.PedidoService, pedidoRepo repository.PedidoRepository, catalogoRepo repository.CatalogoRepository, cfg *config.Config) *PedidosHandler {
	return &PedidosHandler{svc: svc, pedidoRepo: pedidoRepo, catalogoRepo: catalogoRepo, cfg: cfg}
}

// Confirmar creates the pedido from the register's cart: validates modifier
// selections and payments, assigns the pickup pin, and routes kitchen items.
func (h *PedidosHandler) Confirmar(c *gin.Context) {
	var req dto.ConfirmarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Confirmar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar returns the non-terminal pedidos of the open shift.
func (h *PedidosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListActivos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PedidosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AjustarCantidad resizes an item of a live pedido. Units the kitchen
// already started cannot be removed.
func (h *PedidosHandler) AjustarCantidad(c *gin.Context) {
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	var req dto.AjustarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarCantidad(c.Request.Context(), itemID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmarEntrega checks off units / direct items handed to the customer.
func (h *PedidosHandler) ConfirmarEntrega(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmarEntregaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ConfirmarEntrega(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DesmarcarEntrega reverts delivery checks made in error.
func (h *PedidosHandler) DesmarcarEntrega(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmarEntregaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DesmarcarEntrega(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PedidosHandler) Cancelar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recibo renders the thermal receipt PDF for the pedido and serves it.
func (h *PedidosHandler) Recibo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pedido, err := h.pedidoRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	nombreCategoria := func(categoriaID uuid.UUID) string {
		cat, err := h.catalogoRepo.FindCategoriaByID(c.Request.Context(), categoriaID)
		if err != nil {
			return ""
		}
		return cat.Nombre
	}

	path, err := infra.GenerarReciboPDF(pedido, nombreCategoria, h.cfg.NombreComercio, h.cfg.ReciboStoragePath)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "recibo_"+pedido.Pin+".pdf")
}
