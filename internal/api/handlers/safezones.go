package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/safezones"
	"github.com/geosafe-net/geosafe/internal/sources"
)

// timeNow is a seam for deterministic response timestamps in tests.
var timeNow = time.Now

func toSafeZoneResponses(zones []safezones.Zone) []models.SafeZoneResponse {
	out := make([]models.SafeZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, models.SafeZoneResponse{
			Name:      z.Name,
			Type:      z.Type,
			Lat:       z.Lat,
			Lng:       z.Lng,
			Address:   z.Address,
			Capacity:  z.Capacity,
			Available: z.Available,
		})
	}
	return out
}

// SafeZones godoc
// @Summary Bundled static safe-zones list
// @Tags safe-zones
// @Produce json
// @Success 200 {object} models.SafeZonesResponse
// @Router /api/safe-zones [get]
func (h *Handler) SafeZones(c *gin.Context) {
	c.JSON(http.StatusOK, models.SafeZonesResponse{SafeZones: toSafeZoneResponses(h.safeZones)})
}

// sourceDescriptors is the static metadata for GET /api/sources.
var sourceDescriptors = []models.SourceDescriptor{
	{ID: sources.USGS, Name: "USGS Earthquake Hazards Program", Description: "Global earthquake feed, daily-all and significant-month GeoJSON summaries", Format: "GeoJSON"},
	{ID: sources.NASAEonet, Name: "NASA EONET", Description: "Earth Observatory Natural Event Tracker", Format: "JSON"},
	{ID: sources.GDACS, Name: "GDACS", Description: "Global Disaster Alert and Coordination System RSS feed", Format: "RSS/XML"},
	{ID: sources.ReliefWeb, Name: "ReliefWeb", Description: "UN OCHA humanitarian crisis disasters API", Format: "JSON"},
	{ID: sources.NWS, Name: "National Weather Service", Description: "US active weather alerts feed", Format: "GeoJSON"},
}

// Sources godoc
// @Summary Static descriptor of the five upstream providers
// @Tags sources
// @Produce json
// @Success 200 {object} models.SourcesResponse
// @Router /api/sources [get]
func (h *Handler) Sources(c *gin.Context) {
	c.JSON(http.StatusOK, models.SourcesResponse{Sources: sourceDescriptors})
}
