package router

import (
	"blendresto/internal/config"
	"blendresto/internal/events"
	"blendresto/internal/handler"
	"blendresto/internal/middleware"
	"blendresto/internal/repository"
	"blendresto/internal/service"
	syncengine "blendresto/internal/sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB. The API is bound to
// the loopback/LAN interface and consumed only by this terminal's screens,
// so there is no auth layer; the hub secret lives in the sync engine.
func New(cfg *config.Config, db *gorm.DB, bus *events.Bus, engine *syncengine.Engine) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	pedidoRepo := repository.NewPedidoRepository(db)
	catalogoRepo := repository.NewCatalogoRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	sesionRepo := repository.NewSesionOperativaRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	perfil := cfg.Perfil()

	// ── Services ─────────────────────────────────────────────────────────────
	pedidoSvc := service.NewPedidoService(pedidoRepo, catalogoRepo, cajaRepo, ticketRepo, sesionRepo, outboxRepo, bus, perfil)
	cajaSvc := service.NewCajaService(cajaRepo, outboxRepo, bus, perfil)
	cocinaSvc := service.NewCocinaService(ticketRepo, pedidoRepo, outboxRepo, bus, perfil)
	catalogoSvc := service.NewCatalogoService(catalogoRepo, outboxRepo, bus, perfil)
	sesionSvc := service.NewSesionOperativaService(sesionRepo, pedidoRepo, outboxRepo, bus, perfil)

	// ── Handlers ─────────────────────────────────────────────────────────────
	pedidosH := handler.NewPedidosHandler(pedidoSvc, pedidoRepo, catalogoRepo, cfg)
	cajaH := handler.NewCajaHandler(cajaSvc)
	cocinaH := handler.NewCocinaHandler(cocinaSvc)
	catalogoH := handler.NewCatalogoHandler(catalogoSvc)
	sesionH := handler.NewSesionOperativaHandler(sesionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, engine, perfil))

	v1 := r.Group("/v1")
	{
		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", pedidosH.Confirmar)
			pedidos.GET("", pedidosH.Listar)
			pedidos.GET("/:id", pedidosH.Obtener)
			pedidos.DELETE("/:id", pedidosH.Cancelar)
			pedidos.PATCH("/items/:item_id/cantidad", pedidosH.AjustarCantidad)
			pedidos.POST("/:id/entregas", pedidosH.ConfirmarEntrega)
			pedidos.DELETE("/:id/entregas", pedidosH.DesmarcarEntrega)
			pedidos.GET("/:id/recibo", pedidosH.Recibo)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/cerrar", cajaH.Cerrar)
			caja.POST("/movimiento", cajaH.RegistrarMovimiento)
			caja.GET("/activa", cajaH.Activa)
			caja.GET("/:id/reporte", cajaH.Reporte)
			caja.GET("/historial", cajaH.Historial)
		}

		cocina := v1.Group("/cocina")
		{
			cocina.GET("/cola", cocinaH.Cola)
			cocina.POST("/tickets/:pedido_id", cocinaH.Encolar)
			cocina.PATCH("/tickets/:pedido_id", cocinaH.ActualizarTicket)
			cocina.PATCH("/unidades/:unidad_id", cocinaH.ActualizarUnidad)
			cocina.POST("/pedidos/:pedido_id/cerrar", cocinaH.CerrarDirecto)
		}

		v1.GET("/productos", catalogoH.ListarProductos)
		v1.PUT("/productos", catalogoH.UpsertProducto)
		v1.GET("/categorias", catalogoH.ListarCategorias)

		sesion := v1.Group("/sesion-operativa")
		{
			sesion.POST("/abrir", sesionH.Abrir)
			sesion.POST("/cerrar", sesionH.Cerrar)
			sesion.GET("/actual", sesionH.Actual)
		}
	}

	return r
}
