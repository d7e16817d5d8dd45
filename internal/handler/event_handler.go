package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

type eventService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req service.CreateEventRequest) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req service.UpdateEventRequest) (*models.Event, error)
	UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req service.UpdateEventStatusRequest) (*models.Event, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	ListByFaculty(ctx context.Context, facultyID string, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Statistics(ctx context.Context, facultyID string) (*models.EventStatistics, error)
}

// EventHandler exposes event lifecycle endpoints.
type EventHandler struct {
	service   eventService
	metrics   *service.MetricsService
	analytics *service.AnalyticsService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService, metrics *service.MetricsService, analytics *service.AnalyticsService) *EventHandler {
	return &EventHandler{service: svc, metrics: metrics, analytics: analytics}
}

// Create godoc
// @Summary Create a new event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordEventCreated(event.EventType)
	h.analytics.InvalidateFaculty(c.Request.Context(), event.FacultyID)
	response.Created(c, event)
}

// Get godoc
// @Summary Fetch one event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Update godoc
// @Summary Update an event's details
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Updated event"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.analytics.InvalidateFaculty(c.Request.Context(), event.FacultyID)
	response.JSON(c, http.StatusOK, event, nil)
}

// UpdateStatus godoc
// @Summary Apply an explicit lifecycle transition
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventStatusRequest true "Requested status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/status [patch]
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	event, err := h.service.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.analytics.InvalidateFaculty(c.Request.Context(), event.FacultyID)
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete an event with no attendance that has not started
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.analytics.InvalidateFaculty(c.Request.Context(), claims.UserID)
	response.NoContent(c)
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param status query string false "Status filter"
// @Param from query string false "From timestamp"
// @Param to query string false "To timestamp"
// @Param search query string false "Title search"
// @Param upcoming query bool false "Only upcoming events"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter, err := eventFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// ListMine godoc
// @Summary List the caller's own events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/mine [get]
func (h *EventHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter, err := eventFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, pagination, err := h.service.ListByFaculty(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Statistics godoc
// @Summary Count the caller's events by lifecycle state
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/statistics [get]
func (h *EventHandler) Statistics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

func eventFilterFromQuery(c *gin.Context) (models.EventFilter, error) {
	filter := models.EventFilter{
		Search:   c.Query("search"),
		Upcoming: c.Query("upcoming") == "true",
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "limit", 50),
	}
	if status := c.Query("status"); status != "" {
		st := models.EventStatus(strings.ToUpper(status))
		if !st.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid event status")
		}
		filter.Status = &st
	}
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		return filter, err
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		return filter, err
	}
	filter.From = from
	filter.To = to
	return filter, nil
}
