package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

type reportService interface {
	EventAttendanceSheet(ctx context.Context, claims *models.JWTClaims, eventID string, format service.ReportFormat) (*service.Report, error)
}

// ReportHandler streams rendered attendance sheets.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// EventSheet godoc
// @Summary Download an event's attendance sheet
// @Tags Reports
// @Produce octet-stream
// @Param eventId path string true "Event ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/events/{eventId} [get]
func (h *ReportHandler) EventSheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ReportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	report, err := h.service.EventAttendanceSheet(c.Request.Context(), claims, c.Param("eventId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
