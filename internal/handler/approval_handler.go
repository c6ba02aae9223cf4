package handler

import (
	"context"
	"errors"
	"net/http"

	"propertyops/internal/middleware"
	"propertyops/internal/service"
	"propertyops/pkg/pagination"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("/owner/:ownerId/pending", middleware.RequirePermission("approvals.read"), h.ListPending)
		approvals.GET("/owner/:ownerId", middleware.RequirePermission("approvals.read"), h.ListApprovals)
		approvals.PUT("/:id/approve", middleware.RequirePermission("approvals.decide"), h.Approve)
		approvals.PUT("/:id/deny", middleware.RequirePermission("approvals.decide"), h.Deny)
	}
}

type decisionRequest struct {
	Note string `json:"note"`
}

// ListPending returns an owner's pending queue, oldest first
// @Summary      List pending approvals
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true  "Owner ID"
// @Success      200      {object}  response.Response{data=[]service.ApprovalEntryResponse}
// @Router       /api/approvals/owner/{ownerId}/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	entries, err := h.approvalService.ListPending(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// ListApprovals returns an owner's queue entries, optionally filtered by status
// @Summary      List approvals
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        ownerId  path      string  true   "Owner ID"
// @Param        status   query     string  false  "Filter by status (PENDING, APPROVED, DENIED)"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=response.Page}
// @Router       /api/approvals/owner/{ownerId} [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.approvalService.List(c.Request.Context(), c.Param("ownerId"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, entries, total, params.Page, params.Limit))
}

// Approve marks a pending entry APPROVED
// @Summary      Approve a queue entry
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string           true   "Approval Entry ID"
// @Param        payload  body      decisionRequest  false  "Optional decision note"
// @Success      200      {object}  response.Response{data=service.ApprovalEntryResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/approve [put]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.approvalService.Approve)
}

// Deny marks a pending entry DENIED
// @Summary      Deny a queue entry
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string           true   "Approval Entry ID"
// @Param        payload  body      decisionRequest  false  "Optional decision note"
// @Success      200      {object}  response.Response{data=service.ApprovalEntryResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/deny [put]
func (h *ApprovalHandler) Deny(c *gin.Context) {
	h.decide(c, h.approvalService.Deny)
}

func (h *ApprovalHandler) decide(c *gin.Context, fn func(ctx context.Context, id, userID, note string) (service.ApprovalEntryResponse, error)) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — note is optional
		req.Note = ""
	}

	result, err := fn(c.Request.Context(), id, userIDStr, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrApprovalNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrAlreadyDecided):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
