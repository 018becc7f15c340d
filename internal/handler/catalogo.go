package handler

import (
	"net/http"

	"blendresto/internal/dto"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogoHandler struct{ svc service.CatalogoService }

func NewCatalogoHandler(svc service.CatalogoService) *CatalogoHandler {
	return &CatalogoHandler{svc: svc}
}

// ListarProductos returns the menu. ?todos=true includes inactive products
// (back-office view); the register only sees active ones.
func (h *CatalogoHandler) ListarProductos(c *gin.Context) {
	soloActivos := c.Query("todos") != "true"
	if q := c.Query("q"); q != "" {
		resp, err := h.svc.Buscar(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}
	resp, err := h.svc.ListProductos(c.Request.Context(), soloActivos)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpsertProducto creates or replaces a product with its modifier groups.
func (h *CatalogoHandler) UpsertProducto(c *gin.Context) {
	var req dto.UpsertProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogoHandler) ListarCategorias(c *gin.Context) {
	resp, err := h.svc.ListCategorias(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
