package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health  *Service
	dbCheck *DatabaseChecker
}

// NewHandlers creates new health handlers. dbCheck may be nil.
func NewHandlers(health *Service, dbCheck *DatabaseChecker) *Handlers {
	return &Handlers{health: health, dbCheck: dbCheck}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/database/test", h.TestDatabase)
}

// GetAll returns all health items grouped by category.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns summary counts.
// GET /api/v1/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns all items in a category.
// GET /api/v1/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	if !IsValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(category))
}

// TestDatabase runs the database check now.
// POST /api/v1/health/database/test
func (h *Handlers) TestDatabase(c echo.Context) error {
	if h.dbCheck == nil {
		return echo.NewHTTPError(http.StatusNotFound, "database check not configured")
	}
	if err := h.dbCheck.Check(c.Request().Context()); err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "Database reachable"})
}
