// Package api implements the admin HTTP API: route management, storage
// browsing, request logs, statistics, version control and the generated
// OpenAPI document.
package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mockforge/mockforge/internal/logs"
	"github.com/mockforge/mockforge/internal/models"
	"github.com/mockforge/mockforge/internal/openapi"
	"github.com/mockforge/mockforge/internal/routes"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
	"github.com/mockforge/mockforge/internal/version"
)

// Handler provides the admin API endpoints.
type Handler struct {
	mockEngine *routes.Engine
	store      *storage.Manager
	logService *logs.Service
	statsC     *stats.Collector
	versions   *version.Controller
	routesFile string
	startTime  time.Time
}

// NewHandler creates an admin API handler.
func NewHandler(mockEngine *routes.Engine, store *storage.Manager, logService *logs.Service, statsC *stats.Collector, versions *version.Controller, routesFile string) *Handler {
	return &Handler{
		mockEngine: mockEngine,
		store:      store,
		logService: logService,
		statsC:     statsC,
		versions:   versions,
		routesFile: routesFile,
		startTime:  time.Now(),
	}
}

// GetRoutes returns the active route set.
func (h *Handler) GetRoutes(c *gin.Context) {
	defs := h.mockEngine.Routes()
	c.JSON(http.StatusOK, gin.H{
		"routes": defs,
		"count":  len(defs),
	})
}

// SaveRoutes replaces the whole route set. The batch is approved or
// rejected as a unit; a rejected batch leaves the active set, the routes
// file and the version history untouched.
func (h *Handler) SaveRoutes(c *gin.Context) {
	var defs []models.RouteDefinition
	if err := c.ShouldBindJSON(&defs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON array of route definitions"})
		return
	}

	if err := routes.ValidateRoutes(defs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := routes.SaveFile(h.routesFile, defs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	v, err := h.versions.Save(defs, c.Query("description"))
	if err != nil {
		log.Printf("Failed to snapshot route version: %v", err)
	}

	report := h.mockEngine.Load(defs)

	resp := gin.H{
		"message": "Routes saved successfully",
		"loaded":  report.Loaded,
	}
	if v != nil {
		resp["version"] = v.ShortHash
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateRoute checks a candidate route against the active set without
// registering it.
func (h *Handler) ValidateRoute(c *gin.Context) {
	var candidate models.RouteDefinition
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON route definition"})
		return
	}

	if err := routes.ValidateNewRoute(h.mockEngine.Routes(), &candidate); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// LoadSamples merges the built-in sample routes into the active set,
// skipping samples that collide with existing routes.
func (h *Handler) LoadSamples(c *gin.Context) {
	defs := h.mockEngine.Routes()

	added := 0
	for _, sample := range routes.SampleRoutes() {
		s := sample
		if routes.IsDuplicate(defs, &s) {
			continue
		}
		defs = append(defs, s)
		added++
	}

	if added == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Sample routes already loaded", "added": 0})
		return
	}

	if err := routes.SaveFile(h.routesFile, defs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.versions.Save(defs, "Loaded sample routes"); err != nil {
		log.Printf("Failed to snapshot route version: %v", err)
	}
	report := h.mockEngine.Load(defs)

	c.JSON(http.StatusOK, gin.H{
		"message": "Sample routes loaded",
		"added":   added,
		"loaded":  report.Loaded,
	})
}

// GetRegisteredRoutes returns the method -> path view of the live table.
func (h *Handler) GetRegisteredRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, h.mockEngine.RegisteredRoutes())
}

// ListStorage lists every collection key with its record count.
func (h *Handler) ListStorage(c *gin.Context) {
	keys := h.store.Keys()
	counts := make(map[string]int, len(keys))
	for _, key := range keys {
		counts[key] = h.store.Count("/" + key)
	}
	c.JSON(http.StatusOK, gin.H{"collections": counts})
}

// GetStorage returns the contents of one collection.
func (h *Handler) GetStorage(c *gin.Context) {
	resource := c.Param("resource")
	c.JSON(http.StatusOK, h.store.GetAll("/"+resource))
}

// ResetStorage clears a collection and regenerates its seed data from
// the route template that owns it.
func (h *Handler) ResetStorage(c *gin.Context) {
	resource := storage.ResourceKey("/" + c.Param("resource"))

	count, ok := h.mockEngine.Reseed(resource)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "No persisted route serves resource: " + resource,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Storage reset",
		"resource": resource,
		"count":    count,
	})
}

// ResetAllStorage clears every collection and registered schema, then
// re-registers schemas from the active route set.
func (h *Handler) ResetAllStorage(c *gin.Context) {
	h.store.ResetAll()
	for _, def := range h.mockEngine.Routes() {
		if def.Schema != nil {
			h.store.SetSchema(def.Path, def.Schema)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "All storage reset"})
}

// GetLogs returns buffered request logs, newest first.
func (h *Handler) GetLogs(c *gin.Context) {
	filter := &models.LogFilter{
		Method: strings.ToUpper(c.Query("method")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("minStatus"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinStatus = n
		}
	}

	entries := h.logService.GetLogs(filter)
	c.JSON(http.StatusOK, gin.H{
		"logs":  entries,
		"count": len(entries),
		"total": h.logService.Len(),
	})
}

// ClearLogs empties the log buffer.
func (h *Handler) ClearLogs(c *gin.Context) {
	h.logService.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Logs cleared"})
}

// GetStats returns global and per-route request statistics.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.statsC.GlobalStats(len(h.mockEngine.Routes())))
}

// ResetStats zeroes all request statistics.
func (h *Handler) ResetStats(c *gin.Context) {
	h.statsC.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Statistics reset"})
}

// GetVersions returns the route-set version history, newest first.
func (h *Handler) GetVersions(c *gin.Context) {
	history := h.versions.History()
	c.JSON(http.StatusOK, gin.H{
		"versions": history,
		"count":    len(history),
	})
}

// RollbackVersion restores the route set recorded under a version hash.
func (h *Handler) RollbackVersion(c *gin.Context) {
	hash := c.Param("hash")

	defs, err := h.versions.Rollback(hash)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := routes.SaveFile(h.routesFile, defs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	report := h.mockEngine.Load(defs)

	c.JSON(http.StatusOK, gin.H{
		"message": "Rolled back to version " + hash[:8],
		"loaded":  report.Loaded,
	})
}

// GetOpenAPISpec returns an OpenAPI 3 document for the active route set.
func (h *Handler) GetOpenAPISpec(c *gin.Context) {
	c.JSON(http.StatusOK, openapi.BuildSpec(h.mockEngine.Routes(), "MockForge API"))
}

// HealthCheck returns server health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
		"routes": len(h.mockEngine.Routes()),
		"time":   time.Now().Format(time.RFC3339),
	})
}
