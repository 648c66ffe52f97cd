package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pump_control/internal/audit"
	"pump_control/internal/logger"
	"pump_control/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
	stream   *audit.Broadcaster
}

// Option customizes optional parts of the router.
type Option func(*Handler)

// WithMetrics exposes h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(hd *Handler) { hd.metrics = h }
}

// WithStream pushes finished cycles to WebSocket clients.
func WithStream(b *audit.Broadcaster) Option {
	return func(hd *Handler) { hd.stream = b }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, o := range opts {
		o(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerSiteRoutes(api)
		api.POST("/alarms", h.routeAlarm)
		api.GET("/snapshot", h.getSnapshot)
		api.GET("/audit", h.getAudit)
	}
}

func (h *Handler) registerSiteRoutes(api *gin.RouterGroup) {
	sites := api.Group("/sites/:site")
	{
		// Body example: {"pump":"off","reason":{"type":"manual"}}; empty body runs the thresholds
		sites.POST("/cycle", h.runCycle)
		sites.GET("/policy", h.getPolicy)
		sites.PUT("/policy", h.setPolicy)
	}
}
