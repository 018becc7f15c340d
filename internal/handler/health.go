package handler

import (
	"context"
	"net/http"
	"time"

	"blendresto/internal/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EstadoHub is implemented by the sync engine: the current hub circuit
// breaker state, for operator diagnostics.
type EstadoHub interface {
	EstadoHub() string
}

// Health reports local store connectivity, hub reachability (as seen by the
// breaker) and the terminal identity. The terminal is healthy as long as the
// local store answers — the hub being down is degraded, not broken.
func Health(db *gorm.DB, hub EstadoHub, perfil config.PerfilDispositivo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"hub":       hub.EstadoHub(),
			"unit_id":   perfil.UnitID,
			"device_id": perfil.DeviceID,
			"rol":       perfil.Rol,
		})
	}
}
