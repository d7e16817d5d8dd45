package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
)

// Handlers bundles every HTTP handler mounted by the API.
type Handlers struct {
	Auth       *AuthHandler
	Events     *EventHandler
	Attendance *AttendanceHandler
	Students   *StudentHandler
	Analytics  *AnalyticsHandler
	Reports    *ReportHandler
}

// Register mounts all routes under the given prefix. Everything except login
// requires a valid token; mutating event and attendance routes additionally
// require the faculty role.
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	root := r.Group(prefix)

	root.POST("/auth/login", h.Auth.Login)

	authed := root.Group("")
	authed.Use(middleware.JWT(auth))

	authed.GET("/auth/me", h.Auth.Me)

	faculty := middleware.RequireRoles(models.RoleFaculty)

	events := authed.Group("/events")
	{
		events.GET("", h.Events.List)
		events.GET("/mine", faculty, h.Events.ListMine)
		events.GET("/statistics", faculty, h.Events.Statistics)
		events.GET("/:id", h.Events.Get)
		events.POST("", faculty, h.Events.Create)
		events.PUT("/:id", faculty, h.Events.Update)
		events.PATCH("/:id/status", faculty, h.Events.UpdateStatus)
		events.DELETE("/:id", faculty, h.Events.Delete)
	}

	attendance := authed.Group("/attendance")
	{
		attendance.POST("/mark", faculty, h.Attendance.Mark)
		attendance.PUT("/:id", faculty, h.Attendance.Update)
		attendance.DELETE("/:id", faculty, h.Attendance.Delete)
		attendance.GET("/event/:eventId", h.Attendance.ListByEvent)
		attendance.GET("/event/:eventId/statistics", h.Attendance.EventStatistics)
		attendance.GET("/student/:studentId", h.Attendance.ListByStudent)
		attendance.GET("/student/:studentId/statistics", h.Attendance.StudentStatistics)
		attendance.GET("/faculty/statistics", faculty, h.Attendance.FacultyStatistics)
	}

	students := authed.Group("/students")
	{
		students.GET("", faculty, h.Students.List)
		students.GET("/:id", h.Students.Get)
	}

	analytics := authed.Group("/analytics")
	{
		analytics.GET("/faculty", faculty, h.Analytics.FacultyOverview)
		analytics.GET("/system", middleware.RequireRoles(models.RoleAdmin), h.Analytics.SystemMetrics)
	}

	reports := authed.Group("/reports")
	{
		reports.GET("/events/:eventId", faculty, h.Reports.EventSheet)
	}
}
