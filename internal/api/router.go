package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mockforge/mockforge/internal/logs"
	"github.com/mockforge/mockforge/internal/models"
	"github.com/mockforge/mockforge/internal/routes"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
	"github.com/mockforge/mockforge/internal/version"
)

// Router wires the admin API and mounts the dynamic route engine behind
// the framework's NoRoute fallback, so reloading mock routes never
// touches the admin surface.
type Router struct {
	engine     *gin.Engine
	mockEngine *routes.Engine
	handler    *Handler
	logService *logs.Service
}

// NewRouter creates the full HTTP router.
func NewRouter(mockEngine *routes.Engine, store *storage.Manager, logService *logs.Service, statsCollector *stats.Collector, versions *version.Controller, routesFile string) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:     gin.New(),
		mockEngine: mockEngine,
		logService: logService,
	}

	r.handler = NewHandler(mockEngine, store, logService, statsCollector, versions, routesFile)

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(r.requestLogMiddleware())

	r.setupRoutes()

	return r
}

// setupRoutes configures the admin API routes.
func (r *Router) setupRoutes() {
	admin := r.engine.Group("/api/admin")
	{
		// Route set
		admin.GET("/routes", r.handler.GetRoutes)
		admin.PUT("/routes", r.handler.SaveRoutes)
		admin.POST("/routes", r.handler.SaveRoutes)
		admin.POST("/routes/validate", r.handler.ValidateRoute)
		admin.POST("/load-samples", r.handler.LoadSamples)
		admin.GET("/registered", r.handler.GetRegisteredRoutes)

		// Storage
		admin.GET("/storage", r.handler.ListStorage)
		admin.GET("/storage/:resource", r.handler.GetStorage)
		admin.POST("/reset/:resource", r.handler.ResetStorage)
		admin.POST("/reset", r.handler.ResetAllStorage)

		// Logs
		admin.GET("/logs", r.handler.GetLogs)
		admin.DELETE("/logs", r.handler.ClearLogs)

		// Statistics
		admin.GET("/stats", r.handler.GetStats)
		admin.POST("/stats/reset", r.handler.ResetStats)

		// Version control
		admin.GET("/versions", r.handler.GetVersions)
		admin.POST("/versions/:hash/rollback", r.handler.RollbackVersion)

		// Documentation
		admin.GET("/openapi.json", r.handler.GetOpenAPISpec)

		// Health
		admin.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live request logs
	wsHandler := logs.NewWebSocketHandler(r.logService)
	r.engine.GET("/api/admin/logs/stream", gin.WrapH(wsHandler))

	// Everything else is a dynamic mock route
	r.engine.NoRoute(func(c *gin.Context) {
		r.mockEngine.ServeHTTP(c.Writer, c.Request)
	})
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// requestLogMiddleware records every handled request into the log ring,
// except the live stream socket itself.
func (r *Router) requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasSuffix(c.Request.URL.Path, "/logs/stream") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		query := make(map[string]string)
		for key, values := range c.Request.URL.Query() {
			if len(values) > 0 {
				query[key] = values[0]
			}
		}

		r.logService.Record(&models.LogEntry{
			Timestamp:  start,
			Method:     c.Request.Method,
			URL:        c.Request.URL.String(),
			Status:     c.Writer.Status(),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   c.ClientIP(),
			Query:      query,
		})
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
