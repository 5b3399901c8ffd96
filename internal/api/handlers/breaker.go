package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geosafe-net/geosafe/internal/api/models"
)

// ResetCircuitBreakers godoc
// @Summary Reset every upstream circuit breaker to CLOSED
// @Tags circuit-breaker
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /api/circuit-breaker/reset [post]
func (h *Handler) ResetCircuitBreakers(c *gin.Context) {
	h.agg.ResetAllBreakers()
	c.JSON(http.StatusOK, models.StatusResponse{Status: "reset"})
}

// ResetCircuitBreakerOne godoc
// @Summary Reset one upstream's circuit breaker to CLOSED
// @Tags circuit-breaker
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ValidAPIsResponse
// @Router /api/circuit-breaker/reset/{api} [post]
func (h *Handler) ResetCircuitBreakerOne(c *gin.Context) {
	id, ok := h.resolveAPIParam(c)
	if !ok {
		return
	}
	h.agg.ResetBreaker(id)
	c.JSON(http.StatusOK, models.StatusResponse{Status: "reset"})
}
