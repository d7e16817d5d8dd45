package service

import (
	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

// authorizeEventWrite enforces event ownership for faculty callers.
// Administrative callers bypass the check entirely.
func authorizeEventWrite(claims *models.JWTClaims, event *models.Event) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.IsAdmin() {
		return nil
	}
	if claims.Role != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrForbidden, "only faculty members can manage events")
	}
	if event.FacultyID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "you do not own this event")
	}
	return nil
}

// authorizeAttendanceWrite allows the marking faculty or an admin to modify
// an existing attendance record.
func authorizeAttendanceWrite(claims *models.JWTClaims, record *models.Attendance) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.IsAdmin() {
		return nil
	}
	if record.MarkedByFacultyID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "you did not mark this attendance record")
	}
	return nil
}
