package handler

import (
	"net/http"

	"propertyops/internal/middleware"
	"propertyops/internal/service"
	"propertyops/pkg/pagination"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type PropertyHandler struct {
	propertyService service.PropertyService
}

func NewPropertyHandler(propertyService service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

func (h *PropertyHandler) RegisterRoutes(router *gin.RouterGroup) {
	properties := router.Group("/api/properties")
	{
		properties.POST("", middleware.RequirePermission("properties.write"), h.CreateProperty)
		properties.GET("/owner/:ownerId", middleware.RequirePermission("properties.read"), h.ListProperties)
		properties.POST("/units", middleware.RequirePermission("properties.write"), h.CreateUnit)
		properties.GET("/:propertyId/units", middleware.RequirePermission("properties.read"), h.ListUnits)
	}

	leases := router.Group("/api/leases")
	{
		leases.POST("", middleware.RequirePermission("properties.write"), h.CreateLease)
		leases.PUT("/:id/end", middleware.RequirePermission("properties.write"), h.EndLease)
		leases.GET("/owner/:ownerId", middleware.RequirePermission("properties.read"), h.ListLeases)
	}
}

// CreateProperty registers a property under an owner
// @Summary      Create property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePropertyRequest  true  "Property"
// @Success      201      {object}  response.Response{data=model.Property}
// @Failure      400      {object}  response.Response
// @Router       /api/properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req service.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, property))
}

// ListProperties returns an owner's properties
// @Summary      List properties
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true   "Owner ID"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=response.Page}
// @Router       /api/properties/owner/{ownerId} [get]
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	params := pagination.Parse(c)

	properties, total, err := h.propertyService.ListProperties(c.Request.Context(), c.Param("ownerId"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, properties, total, params.Page, params.Limit))
}

// CreateUnit adds a rentable unit to a property
// @Summary      Create unit
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUnitRequest  true  "Unit"
// @Success      201      {object}  response.Response{data=model.Unit}
// @Failure      400      {object}  response.Response
// @Router       /api/properties/units [post]
func (h *PropertyHandler) CreateUnit(c *gin.Context) {
	var req service.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.propertyService.CreateUnit(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// ListUnits returns a property's units
// @Summary      List units
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        propertyId  path      string  true  "Property ID"
// @Success      200         {object}  response.Response{data=[]model.Unit}
// @Router       /api/properties/{propertyId}/units [get]
func (h *PropertyHandler) ListUnits(c *gin.Context) {
	units, err := h.propertyService.ListUnits(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, units))
}

// CreateLease starts a lease on a unit and mirrors it into tracking
// @Summary      Create lease
// @Tags         leases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLeaseRequest  true  "Lease"
// @Success      201      {object}  response.Response{data=model.Lease}
// @Failure      400      {object}  response.Response
// @Router       /api/leases [post]
func (h *PropertyHandler) CreateLease(c *gin.Context) {
	var req service.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	lease, err := h.propertyService.CreateLease(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, lease))
}

// EndLease ends an active lease
// @Summary      End lease
// @Tags         leases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lease ID"
// @Success      200  {object}  response.Response{data=model.Lease}
// @Failure      400  {object}  response.Response
// @Router       /api/leases/{id}/end [put]
func (h *PropertyHandler) EndLease(c *gin.Context) {
	userID, _ := c.Get("userID")
	actor, _ := userID.(string)

	lease, err := h.propertyService.EndLease(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, lease))
}

// ListLeases returns an owner's leases
// @Summary      List leases
// @Tags         leases
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true  "Owner ID"
// @Success      200      {object}  response.Response{data=[]model.Lease}
// @Router       /api/leases/owner/{ownerId} [get]
func (h *PropertyHandler) ListLeases(c *gin.Context) {
	leases, err := h.propertyService.ListLeases(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leases))
}
