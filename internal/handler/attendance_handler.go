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

type attendanceService interface {
	Mark(ctx context.Context, claims *models.JWTClaims, req service.MarkAttendanceRequest) (*service.MarkAttendanceResponse, error)
	Update(ctx context.Context, claims *models.JWTClaims, attendanceID string, req service.UpdateAttendanceRequest) (*models.Attendance, error)
	Delete(ctx context.Context, claims *models.JWTClaims, attendanceID string) error
	ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceDetail, *models.Pagination, error)
	ListByStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error)
	StudentStatistics(ctx context.Context, studentID string) (*service.AttendanceStatistics, error)
	EventStatistics(ctx context.Context, eventID string) (*service.AttendanceStatistics, error)
	FacultyStatistics(ctx context.Context, facultyID string) (*service.AttendanceStatistics, error)
}

// AttendanceHandler exposes the attendance marking and statistics endpoints.
type AttendanceHandler struct {
	service   attendanceService
	metrics   *service.MetricsService
	analytics *service.AnalyticsService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService, metrics *service.MetricsService, analytics *service.AnalyticsService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, metrics: metrics, analytics: analytics}
}

// Mark godoc
// @Summary Mark attendance for a batch of students at one event
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Marking payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.Mark(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAttendanceMarked(len(result.Records))
	h.analytics.InvalidateFaculty(c.Request.Context(), claims.UserID)
	response.JSON(c, http.StatusOK, result, nil)
}

// Update godoc
// @Summary Update one attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.UpdateAttendanceRequest true "Updated record"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.analytics.InvalidateFaculty(c.Request.Context(), record.MarkedByFacultyID)
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete an attendance record within the 24h window
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 204
// @Security BearerAuth
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
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

// ListByEvent godoc
// @Summary List attendance records for an event
// @Tags Attendance
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/event/{eventId} [get]
func (h *AttendanceHandler) ListByEvent(c *gin.Context) {
	rows, pagination, err := h.service.ListByEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// ListByStudent godoc
// @Summary List a student's attendance history
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Param status query string false "Attendance status filter"
// @Param from query string false "From timestamp (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "To timestamp"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/student/{studentId} [get]
func (h *AttendanceHandler) ListByStudent(c *gin.Context) {
	filter := models.AttendanceFilter{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "limit", 50),
	}
	if status := c.Query("status"); status != "" {
		st := models.AttendanceStatus(strings.ToUpper(status))
		if !st.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status"))
			return
		}
		filter.Status = &st
	}
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.From = from
	filter.To = to

	rows, pagination, err := h.service.ListByStudent(c.Request.Context(), c.Param("studentId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// StudentStatistics godoc
// @Summary Attendance summary for one student
// @Tags Statistics
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/student/{studentId}/statistics [get]
func (h *AttendanceHandler) StudentStatistics(c *gin.Context) {
	stats, err := h.service.StudentStatistics(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// EventStatistics godoc
// @Summary Attendance summary for one event
// @Tags Statistics
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/event/{eventId}/statistics [get]
func (h *AttendanceHandler) EventStatistics(c *gin.Context) {
	stats, err := h.service.EventStatistics(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// FacultyStatistics godoc
// @Summary Attendance summary across the caller's events
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/faculty/statistics [get]
func (h *AttendanceHandler) FacultyStatistics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.FacultyStatistics(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
