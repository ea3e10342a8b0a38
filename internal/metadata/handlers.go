package metadata

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for metadata operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/:mediaType/search", h.Search)
	g.POST("/:mediaType/lookup", h.Lookup)
	g.POST("/:mediaType/providers/:providerId/images/:slot", h.ProviderImages)
}

// RegisterProviderRoutes registers the provider management routes.
func (h *Handlers) RegisterProviderRoutes(g *echo.Group) {
	g.GET("", h.ListProviders)
	g.DELETE("/:id", h.UnregisterProvider)
}

// LookupRequest is the body of a lookup or provider images request.
type LookupRequest struct {
	ProfileID      string       `json:"profileId"`
	Name           string       `json:"name"`
	KnownIDs       []ExternalID `json:"knownIds"`
	Locale         string       `json:"locale"`
	SkipValidation bool         `json:"skipValidation"`
}

func (r LookupRequest) lookup() Lookup {
	return Lookup{Name: r.Name, KnownIDs: r.KnownIDs, Locale: r.Locale}
}

// Search searches with the profile's search provider.
// GET /api/v1/metadata/:mediaType/search?profileId=...&query=...
func (h *Handlers) Search(c echo.Context) error {
	query := c.QueryParam("query")
	if strings.TrimSpace(query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}
	profileID := c.QueryParam("profileId")
	if profileID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "profileId parameter is required")
	}

	results, err := h.service.Search(c.Request().Context(), MediaType(c.Param("mediaType")), profileID, query)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, results)
}

// Lookup aggregates the metadata of one entity.
// POST /api/v1/metadata/:mediaType/lookup
func (h *Handlers) Lookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProfileID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "profileId is required")
	}
	if strings.TrimSpace(req.Name) == "" && len(req.KnownIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name or knownIds is required")
	}

	record, err := h.service.GetMetadata(c.Request().Context(), MediaType(c.Param("mediaType")), req.ProfileID, req.lookup(),
		GetOptions{SkipValidation: req.SkipValidation})
	if err != nil {
		return httpError(err)
	}
	if record == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, record)
}

// ProviderImages returns one provider's raw images for an image slot.
// POST /api/v1/metadata/:mediaType/providers/:providerId/images/:slot
func (h *Handlers) ProviderImages(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	images, err := h.service.GetProviderImages(c.Request().Context(), MediaType(c.Param("mediaType")),
		c.Param("providerId"), req.lookup(), Slot(c.Param("slot")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, images)
}

// ListProviders lists the registered providers.
// GET /api/v1/providers
func (h *Handlers) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Providers())
}

// UnregisterProvider removes a provider and reports the affected profiles.
// DELETE /api/v1/providers/:id
func (h *Handlers) UnregisterProvider(c echo.Context) error {
	outcomes, err := h.service.UnregisterProvider(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, outcomes)
}

// httpError maps engine errors to HTTP errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrProviderNotRegistered):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrProfileDeleted):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, ErrProviderAlreadyRegistered):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidMediaType), errors.Is(err, ErrInvalidSlot),
		errors.Is(err, ErrProfileMediaType), errors.Is(err, ErrSearchUnsupported),
		errors.Is(err, ErrSlotUnsupported):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
