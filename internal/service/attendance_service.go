package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

// attendanceDeleteWindow bounds how long after marking a record may still be
// removed.
const attendanceDeleteWindow = 24 * time.Hour

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	ExistsByEvent(ctx context.Context, eventID string) (bool, error)
	MarkBatch(ctx context.Context, eventID string, records []models.Attendance, newStatus *models.EventStatus) ([]models.Attendance, error)
	Update(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	Delete(ctx context.Context, id string) error
	CountsByStatus(ctx context.Context, filter models.AttendanceFilter) (map[models.AttendanceStatus]int, error)
	AverageMarks(ctx context.Context, filter models.AttendanceFilter) (*float64, error)
}

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// AttendanceService owns the attendance marking workflow and the derived
// statistics views.
type AttendanceService struct {
	repo      attendanceRepository
	events    eventReader
	students  studentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, events eventReader, students studentLookup, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, events: events, students: students, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// AttendanceRecordRequest is one student's entry in a marking payload.
type AttendanceRecordRequest struct {
	StudentID     string   `json:"student_id" validate:"required"`
	Status        string   `json:"status" validate:"required,attendance_status"`
	MarksObtained *float64 `json:"marks_obtained"`
	MaxMarks      *float64 `json:"max_marks"`
	Remarks       *string  `json:"remarks"`
}

// MarkAttendanceRequest is the batch marking payload for one event.
type MarkAttendanceRequest struct {
	EventID              string                    `json:"event_id" validate:"required"`
	MarkEventAsCompleted bool                      `json:"mark_event_as_completed"`
	Records              []AttendanceRecordRequest `json:"records" validate:"required,min=1,dive"`
}

// UpdateAttendanceRequest mutates a single existing record.
type UpdateAttendanceRequest struct {
	Status        string   `json:"status" validate:"required,attendance_status"`
	MarksObtained *float64 `json:"marks_obtained"`
	MaxMarks      *float64 `json:"max_marks"`
	Remarks       *string  `json:"remarks"`
}

// MarkedRecord is one stored record as echoed back to the caller.
type MarkedRecord struct {
	ID            string                  `json:"id"`
	StudentID     string                  `json:"student_id"`
	StudentName   string                  `json:"student_name"`
	Status        models.AttendanceStatus `json:"status"`
	MarksObtained *float64                `json:"marks_obtained,omitempty"`
	MaxMarks      *float64                `json:"max_marks,omitempty"`
	Percentage    *float64                `json:"percentage,omitempty"`
	Remarks       *string                 `json:"remarks,omitempty"`
	MarkedAt      time.Time               `json:"marked_at"`
}

// EventSummary reports the event's lifecycle outcome of a marking call.
type EventSummary struct {
	EventID        string             `json:"event_id"`
	EventTitle     string             `json:"event_title"`
	PreviousStatus models.EventStatus `json:"previous_status"`
	CurrentStatus  models.EventStatus `json:"current_status"`
	StatusChanged  bool               `json:"status_changed"`
	MarkedAt       time.Time          `json:"marked_at"`
}

// MarkAttendanceResponse is the full result of a batch marking call.
type MarkAttendanceResponse struct {
	Success           bool                     `json:"success"`
	Message           string                   `json:"message"`
	AttendanceSummary models.AttendanceSummary `json:"attendance_summary"`
	EventSummary      EventSummary             `json:"event_summary"`
	Records           []MarkedRecord           `json:"attendance_records"`
}

// AttendanceStatistics is a summary plus its qualitative band.
type AttendanceStatistics struct {
	Summary models.AttendanceSummary `json:"summary"`
	Band    models.AttendanceBand    `json:"band"`
}

// Mark records attendance for a batch of students at one event. Records are
// upserted per (student, event); re-marking updates in place and preserves
// the original marked timestamp. When the caller asks for completion the
// event status advances inside the same transaction: a first-ever batch on
// a SCHEDULED event moves it to ONGOING, later batches move it to COMPLETED.
func (s *AttendanceService) Mark(ctx context.Context, claims *models.JWTClaims, req MarkAttendanceRequest) (*MarkAttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := authorizeEventWrite(claims, event); err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrTerminalState, "cannot mark attendance for a cancelled event")
	}

	ids := make([]string, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	for _, rec := range req.Records {
		if _, ok := seen[rec.StudentID]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once in payload", rec.StudentID))
		}
		seen[rec.StudentID] = struct{}{}
		ids = append(ids, rec.StudentID)
		if err := validateMarks(rec.StudentID, rec.MarksObtained, rec.MaxMarks); err != nil {
			return nil, err
		}
	}

	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
		}
	}

	hadPrior, err := s.repo.ExistsByEvent(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect event history")
	}

	var newStatus *models.EventStatus
	current := event.Status
	if req.MarkEventAsCompleted && !current.Terminal() {
		next := models.EventStatusCompleted
		if current == models.EventStatusScheduled && !hadPrior {
			next = models.EventStatusOngoing
		}
		newStatus = &next
	}

	records := make([]models.Attendance, len(req.Records))
	for i, rec := range req.Records {
		records[i] = models.Attendance{
			StudentID:         rec.StudentID,
			EventID:           event.ID,
			Status:            models.AttendanceStatus(strings.ToUpper(rec.Status)),
			MarksObtained:     rec.MarksObtained,
			MaxMarks:          rec.MaxMarks,
			Remarks:           rec.Remarks,
			MarkedByFacultyID: claims.UserID,
		}
	}

	stored, err := s.repo.MarkBatch(ctx, event.ID, records, newStatus)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	resp := &MarkAttendanceResponse{
		Success:           true,
		Message:           "attendance marked successfully",
		AttendanceSummary: Summarize(stored),
		EventSummary: EventSummary{
			EventID:        event.ID,
			EventTitle:     event.Title,
			PreviousStatus: current,
			CurrentStatus:  current,
			MarkedAt:       time.Now().UTC(),
		},
		Records: make([]MarkedRecord, len(stored)),
	}
	if newStatus != nil {
		resp.EventSummary.CurrentStatus = *newStatus
		resp.EventSummary.StatusChanged = *newStatus != current
		if resp.EventSummary.StatusChanged {
			resp.Message = fmt.Sprintf("attendance marked successfully, event moved to %s", *newStatus)
		}
	}
	for i, rec := range stored {
		resp.Records[i] = MarkedRecord{
			ID:            rec.ID,
			StudentID:     rec.StudentID,
			StudentName:   names[rec.StudentID],
			Status:        rec.Status,
			MarksObtained: rec.MarksObtained,
			MaxMarks:      rec.MaxMarks,
			Percentage:    rec.MarkPercentage(),
			Remarks:       rec.Remarks,
			MarkedAt:      rec.MarkedAt,
		}
	}

	s.logger.Info("attendance batch marked",
		zap.String("event_id", event.ID),
		zap.String("faculty_id", claims.UserID),
		zap.Int("records", len(stored)),
		zap.Bool("status_changed", resp.EventSummary.StatusChanged))
	return resp, nil
}

// Update mutates one existing attendance record. Only the faculty who
// marked it (or an admin) may change it.
func (s *AttendanceService) Update(ctx context.Context, claims *models.JWTClaims, attendanceID string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	record, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := authorizeAttendanceWrite(claims, record); err != nil {
		return nil, err
	}
	if err := validateMarks(record.StudentID, req.MarksObtained, req.MaxMarks); err != nil {
		return nil, err
	}

	record.Status = models.AttendanceStatus(strings.ToUpper(req.Status))
	record.MarksObtained = req.MarksObtained
	record.MaxMarks = req.MaxMarks
	record.Remarks = req.Remarks
	record.MarkedByFacultyID = claims.UserID
	stored, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return stored, nil
}

// Delete removes an attendance record. Allowed only within 24 hours of the
// original marking, by the marking faculty or an admin.
func (s *AttendanceService) Delete(ctx context.Context, claims *models.JWTClaims, attendanceID string) error {
	record, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := authorizeAttendanceWrite(claims, record); err != nil {
		return err
	}
	if time.Since(record.MarkedAt) > attendanceDeleteWindow {
		return appErrors.Clone(appErrors.ErrTerminalState, "attendance records can only be deleted within 24 hours of marking")
	}
	if err := s.repo.Delete(ctx, attendanceID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.logger.Info("attendance record deleted",
		zap.String("attendance_id", attendanceID),
		zap.String("caller_id", claims.UserID))
	return nil
}

// List returns attendance rows matching the filter with paging metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// ListByEvent returns every attendance row for an event.
func (s *AttendanceService) ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceDetail, *models.Pagination, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return s.List(ctx, models.AttendanceFilter{EventID: eventID})
}

// ListByStudent returns a student's attendance history.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	filter.StudentID = studentID
	return s.List(ctx, filter)
}

// StudentStatistics aggregates one student's attendance across all events.
func (s *AttendanceService) StudentStatistics(ctx context.Context, studentID string) (*AttendanceStatistics, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.statistics(ctx, models.AttendanceFilter{StudentID: studentID})
}

// EventStatistics aggregates attendance for a single event.
func (s *AttendanceService) EventStatistics(ctx context.Context, eventID string) (*AttendanceStatistics, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return s.statistics(ctx, models.AttendanceFilter{EventID: eventID})
}

// FacultyStatistics aggregates attendance across every event owned by the
// given faculty.
func (s *AttendanceService) FacultyStatistics(ctx context.Context, facultyID string) (*AttendanceStatistics, error) {
	return s.statistics(ctx, models.AttendanceFilter{FacultyID: facultyID})
}

func (s *AttendanceService) statistics(ctx context.Context, filter models.AttendanceFilter) (*AttendanceStatistics, error) {
	counts, err := s.repo.CountsByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	summary := summaryFromCounts(counts)
	avg, err := s.repo.AverageMarks(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate marks")
	}
	if avg != nil {
		summary.AverageMarks = round2(*avg)
	}
	return &AttendanceStatistics{Summary: summary, Band: Classify(summary.AttendancePercentage)}, nil
}

// validateMarks enforces the marks invariants: both sides present or both
// absent, non-negative obtained, positive maximum, obtained within maximum.
func validateMarks(studentID string, obtained, max *float64) error {
	if obtained == nil && max == nil {
		return nil
	}
	if obtained == nil || max == nil {
		return appErrors.Clone(appErrors.ErrInvalidMarks, fmt.Sprintf("marks and max marks must be supplied together for student %s", studentID))
	}
	if *obtained < 0 {
		return appErrors.Clone(appErrors.ErrInvalidMarks, fmt.Sprintf("marks cannot be negative for student %s", studentID))
	}
	if *max <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidMarks, fmt.Sprintf("max marks must be positive for student %s", studentID))
	}
	if *obtained > *max {
		return appErrors.Clone(appErrors.ErrInvalidMarks, fmt.Sprintf("marks exceed max marks for student %s", studentID))
	}
	return nil
}
