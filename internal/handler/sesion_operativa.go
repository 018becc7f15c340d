package handler

import (
	"net/http"

	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
)

type SesionOperativaHandler struct{ svc service.SesionOperativaService }

func NewSesionOperativaHandler(svc service.SesionOperativaService) *SesionOperativaHandler {
	return &SesionOperativaHandler{svc: svc}
}

func (h *SesionOperativaHandler) Abrir(c *gin.Context) {
	resp, err := h.svc.Abrir(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar ends the shift; pending pedidos drain from the active views but
// stay in history.
func (h *SesionOperativaHandler) Cerrar(c *gin.Context) {
	resp, err := h.svc.Cerrar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SesionOperativaHandler) Actual(c *gin.Context) {
	resp, err := h.svc.Actual(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
