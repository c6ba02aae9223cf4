package handler

import (
	"errors"
	"net/http"

	"propertyops/internal/middleware"
	"propertyops/internal/service"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	trackingService service.TrackingService
}

func NewTrackingHandler(trackingService service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	tracking := router.Group("/api/tracking")
	{
		tracking.GET("/owner/:ownerId", middleware.RequirePermission("tracking.read"), h.ListByOwner)
		tracking.GET("/:subjectType/:subjectId", middleware.RequirePermission("tracking.read"), h.GetRecord)
	}
}

// ListByOwner returns an owner's tracking records
// @Summary      List tracking records
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId      path      string  true   "Owner ID"
// @Param        subjectType  query     string  false  "Filter by subject type (LEASE, MAINTENANCE, FINANCIAL)"
// @Success      200          {object}  response.Response{data=[]service.TrackingResponse}
// @Router       /api/tracking/owner/{ownerId} [get]
func (h *TrackingHandler) ListByOwner(c *gin.Context) {
	records, err := h.trackingService.ListByOwner(c.Request.Context(), c.Param("ownerId"), c.Query("subjectType"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// GetRecord returns one tracking record with its full history
// @Summary      Get tracking record
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        subjectType  path      string  true  "Subject type (LEASE, MAINTENANCE, FINANCIAL)"
// @Param        subjectId    path      string  true  "Subject ID"
// @Success      200          {object}  response.Response{data=service.TrackingResponse}
// @Failure      404          {object}  response.Response
// @Router       /api/tracking/{subjectType}/{subjectId} [get]
func (h *TrackingHandler) GetRecord(c *gin.Context) {
	record, err := h.trackingService.Get(c.Request.Context(), c.Param("subjectType"), c.Param("subjectId"))
	if err != nil {
		if errors.Is(err, service.ErrTrackingNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
