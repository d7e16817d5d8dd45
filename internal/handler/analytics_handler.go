package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

type analyticsService interface {
	FacultyOverview(ctx context.Context, facultyID string) (*models.FacultyAnalytics, error)
	SystemMetrics() models.SystemMetrics
}

// AnalyticsHandler exposes cached dashboard aggregates.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(svc analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// FacultyOverview godoc
// @Summary Event counts and mean attendance rate for the caller
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/faculty [get]
func (h *AnalyticsHandler) FacultyOverview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	facultyID := claims.UserID
	if claims.IsAdmin() {
		if id := c.Query("facultyId"); id != "" {
			facultyID = id
		}
	}
	overview, err := h.service.FacultyOverview(c.Request.Context(), facultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// SystemMetrics godoc
// @Summary Runtime counter snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/system [get]
func (h *AnalyticsHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}
