package handler

import (
	"net/http"

	"propertyops/internal/middleware"
	"propertyops/internal/service"
	"propertyops/pkg/pagination"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("/owner/:ownerId", middleware.RequirePermission("notifications.read"), h.ListForOwner)
		notifications.PUT("/:id/read", middleware.RequirePermission("notifications.read"), h.MarkRead)
	}
}

// ListForOwner returns an owner's notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true   "Owner ID"
// @Param        unread   query     bool    false  "Only unread notifications"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=response.Page}
// @Router       /api/notifications/owner/{ownerId} [get]
func (h *NotificationHandler) ListForOwner(c *gin.Context) {
	params := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListForOwner(c.Request.Context(), c.Param("ownerId"), unreadOnly, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, notifications, total, params.Page, params.Limit))
}

// MarkRead marks a notification as read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked read"))
}
