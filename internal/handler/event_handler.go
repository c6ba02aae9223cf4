package handler

import (
	"errors"
	"net/http"

	"propertyops/internal/event"
	"propertyops/internal/middleware"
	"propertyops/pkg/pagination"
	"propertyops/pkg/response"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	ingestor *event.Ingestor
}

func NewEventHandler(ingestor *event.Ingestor) *EventHandler {
	return &EventHandler{ingestor: ingestor}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	events := router.Group("/api/events")
	{
		events.POST("", middleware.RequirePermission("events.submit"), h.SubmitEvent)
		events.GET("", middleware.RequirePermission("events.read"), h.ListEvents)
		events.GET("/:id", middleware.RequirePermission("events.read"), h.GetEvent)
	}
}

// SubmitEvent accepts a domain event and dispatches it
// @Summary      Submit domain event
// @Description  Persists an event envelope and routes it to the registered handler. Handler failures leave the event queued for retry.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      event.SubmitEventRequest  true  "Event Envelope"
// @Success      202      {object}  response.Response{data=event.EventResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/events [post]
func (h *EventHandler) SubmitEvent(c *gin.Context) {
	var req event.SubmitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.SubmittedBy == "" {
		if userID, ok := c.Get("userID"); ok {
			if s, ok := userID.(string); ok {
				req.SubmittedBy = s
			}
		}
	}

	ev, err := h.ingestor.Submit(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrUnknownEventType):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			var handlerErr *event.HandlerFailedError
			if errors.As(err, &handlerErr) && ev != nil {
				// Accepted but not yet processed; the relay retries it.
				c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, event.ToEventResponse(*ev)))
}

// ListEvents pages through stored event envelopes
// @Summary      List events
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (RECEIVED, PROCESSED, FAILED, DEAD)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	events, total, err := h.ingestor.List(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	results := make([]event.EventResponse, 0, len(events))
	for _, ev := range events {
		results = append(results, event.ToEventResponse(ev))
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, results, total, params.Page, params.Limit))
}

// GetEvent returns one event envelope by id
// @Summary      Get event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  response.Response{data=event.EventResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	ev, err := h.ingestor.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Event not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, event.ToEventResponse(*ev)))
}
