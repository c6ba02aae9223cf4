package handler

import (
	"errors"
	"net/http"

	"propertyops/internal/middleware"
	"propertyops/internal/service"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	metricsService service.MetricsService
}

func NewMetricsHandler(metricsService service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metricsService: metricsService}
}

func (h *MetricsHandler) RegisterRoutes(router *gin.RouterGroup) {
	metrics := router.Group("/api/metrics")
	{
		metrics.GET("/:ownerId/:metric", middleware.RequirePermission("metrics.read"), h.GetRollup)
	}
}

// GetRollup computes a metric rollup over the owner's tracking snapshot
// @Summary      Compute metric rollup
// @Description  Derives occupancy_rate or collection_rate from the current tracking records. Read-only and repeatable.
// @Tags         metrics
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true  "Owner ID"
// @Param        metric   path      string  true  "Metric name (occupancy_rate, collection_rate)"
// @Success      200      {object}  response.Response{data=model.RollupResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/metrics/{ownerId}/{metric} [get]
func (h *MetricsHandler) GetRollup(c *gin.Context) {
	rollup, err := h.metricsService.ComputeRollup(c.Request.Context(), c.Param("ownerId"), c.Param("metric"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownMetric) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rollup))
}
