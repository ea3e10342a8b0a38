package profiles

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metadex/metadex/internal/metadata"
)

// Handlers provides HTTP handlers for profile management.
type Handlers struct {
	service *Service
}

// NewHandlers creates new profile handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the profile routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List returns profiles, optionally filtered by media type.
// GET /api/v1/profiles?mediaType=...
func (h *Handlers) List(c echo.Context) error {
	profiles, err := h.service.List(c.Request().Context(), metadata.MediaType(c.QueryParam("mediaType")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profiles)
}

// Get returns a single profile.
// GET /api/v1/profiles/:id
func (h *Handlers) Get(c echo.Context) error {
	profile, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Create creates a profile.
// POST /api/v1/profiles
func (h *Handlers) Create(c echo.Context) error {
	var input metadata.Profile
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	profile, err := h.service.Create(c.Request().Context(), &input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, profile)
}

// Update replaces a profile.
// PUT /api/v1/profiles/:id
func (h *Handlers) Update(c echo.Context) error {
	var input metadata.Profile
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	profile, err := h.service.Update(c.Request().Context(), c.Param("id"), &input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Delete removes a profile.
// DELETE /api/v1/profiles/:id
func (h *Handlers) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, metadata.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateProfile):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrUnknownSearchProvider),
		errors.Is(err, metadata.ErrInvalidSlot), errors.Is(err, metadata.ErrInvalidMediaType),
		errors.Is(err, metadata.ErrProfileMediaType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
