package handlers

import (
	"strconv"

	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MapHandler serves the interactive map
type MapHandler struct {
	mapService *services.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(mapService *services.MapService) *MapHandler {
	return &MapHandler{mapService: mapService}
}

// DraftRequest is the clicked map position
type DraftRequest struct {
	Latitude  float64 `json:"location_lat"`
	Longitude float64 `json:"location_lng"`
}

// viewerLocation parses the optional lat/lng query pair
func viewerLocation(c *fiber.Ctx) (*geo.Coordinate, error) {
	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, err
	}
	return &geo.Coordinate{Lat: lat, Lng: lng}, nil
}

// Snapshot returns markers for open requests
// @Summary Map snapshot
// @Description Open requests with privacy-offset positions. exact is honored for admins only.
// @Tags Map
// @Produce json
// @Param lat query number false "Viewer latitude"
// @Param lng query number false "Viewer longitude"
// @Param local query bool false "Only requests near the viewer's neighborhood"
// @Param exact query bool false "Exact positions (admin)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /map [get]
func (h *MapHandler) Snapshot(c *fiber.Ctx) error {
	location, err := viewerLocation(c)
	if err != nil {
		return response.BadRequest(c, "lat and lng must be numbers")
	}

	viewer := services.Viewer{UserID: middleware.UserID(c), Location: location}
	opts := services.MapOptions{
		ExactLocations: c.QueryBool("exact") && middleware.IsAdmin(c),
		LocalOnly:      c.QueryBool("local"),
	}

	state, err := h.mapService.Snapshot(c.Context(), viewer, opts)
	if err != nil {
		return fail(c, err, "Failed to load map")
	}
	return response.Success(c, "Map loaded", state)
}

// BeginPost answers a click on the map with a pre-filled post form
// @Summary Start a post from the map
// @Tags Map
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DraftRequest true "Clicked position"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /map/draft [post]
func (h *MapHandler) BeginPost(c *fiber.Ctx) error {
	var req DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	draft, err := h.mapService.BeginPost(c.Context(), middleware.UserID(c), req.Latitude, req.Longitude)
	if err != nil {
		return fail(c, err, "Failed to start post")
	}
	return response.Success(c, "Draft ready", draft)
}

// Detail returns the read-only panel for one request
// @Summary Request detail
// @Tags Map
// @Produce json
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /map/requests/{id} [get]
func (h *MapHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.mapService.Detail(c.Context(), middleware.UserID(c), middleware.IsAdmin(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get request")
	}
	return response.Success(c, "Request retrieved successfully", detail)
}
