package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type eventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ExistsDuplicate(ctx context.Context, facultyID, title string, startTime time.Time) (bool, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	CountByStatus(ctx context.Context, facultyID string) (*models.EventStatistics, error)
}

type attendanceExistence interface {
	ExistsByEvent(ctx context.Context, eventID string) (bool, error)
}

type activeStudentLister interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

// notifier receives fire-and-forget notification intents. Enqueue failures
// are logged, never returned to the event-creation caller.
type notifier interface {
	NotifyNewEvent(ctx context.Context, event *models.Event, students []models.Student)
}

// EventService owns the event lifecycle: creation, mutation, explicit
// status transitions and deletion.
type EventService struct {
	repo       eventRepository
	attendance attendanceExistence
	students   activeStudentLister
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEventService constructs the event service. The notifier may be nil when
// notifications are disabled.
func NewEventService(repo eventRepository, attendance attendanceExistence, students activeStudentLister, notifier notifier, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EventService{repo: repo, attendance: attendance, students: students, notifier: notifier, validator: validate, logger: logger}
	svc.validator.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return models.EventType(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("event_status", func(fl validator.FieldLevel) bool {
		return models.EventStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description *string   `json:"description"`
	EventType   string    `json:"event_type" validate:"required,event_type"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Location    *string   `json:"location"`
}

// UpdateEventRequest mutates an existing event. The owning faculty and the
// lifecycle status are not updatable through this payload.
type UpdateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description *string   `json:"description"`
	EventType   string    `json:"event_type" validate:"required,event_type"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Location    *string   `json:"location"`
}

// UpdateEventStatusRequest asks for an explicit lifecycle transition.
type UpdateEventStatusRequest struct {
	Status string `json:"status" validate:"required,event_status"`
}

// Create stores a new SCHEDULED event owned by the caller and fans out a
// new-event notification intent to every active student.
func (s *EventService) Create(ctx context.Context, claims *models.JWTClaims, req CreateEventRequest) (*models.Event, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleFaculty && !claims.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty members can create events")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	duplicate, err := s.repo.ExistsDuplicate(ctx, claims.UserID, req.Title, req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicate events")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEvent, "an event with the same title and start time already exists")
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		EventType:   models.EventType(strings.ToUpper(req.EventType)),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		FacultyID:   claims.UserID,
		Status:      models.EventStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("faculty_id", event.FacultyID),
		zap.String("event_type", string(event.EventType)))

	if s.notifier != nil {
		students, err := s.students.ListActive(ctx)
		if err != nil {
			s.logger.Warn("skipping event notifications, student lookup failed",
				zap.String("event_id", event.ID), zap.Error(err))
		} else {
			s.notifier.NotifyNewEvent(ctx, event, students)
		}
	}
	return event, nil
}

// Get returns one event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Update rewrites an event's details. Cancelled and completed events cannot
// be edited; the owning faculty never changes.
func (s *EventService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeEventWrite(claims, event); err != nil {
		return nil, err
	}
	if event.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalState, fmt.Sprintf("cannot edit a %s event", strings.ToLower(string(event.Status))))
	}
	if req.Title != event.Title || !req.StartTime.Equal(event.StartTime) {
		duplicate, err := s.repo.ExistsDuplicate(ctx, event.FacultyID, req.Title, req.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicate events")
		}
		if duplicate {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEvent, "an event with the same title and start time already exists")
		}
	}

	event.Title = req.Title
	event.Description = req.Description
	event.EventType = models.EventType(strings.ToUpper(req.EventType))
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime
	event.Location = req.Location
	event.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// UpdateStatus applies an explicit lifecycle transition. Only the moves
// SCHEDULED→ONGOING, SCHEDULED→CANCELLED, ONGOING→COMPLETED and
// ONGOING→CANCELLED are legal.
func (s *EventService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req UpdateEventStatusRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeEventWrite(claims, event); err != nil {
		return nil, err
	}

	next := models.EventStatus(strings.ToUpper(req.Status))
	if !event.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition event from %s to %s", event.Status, next))
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event status")
	}
	s.logger.Info("event status changed",
		zap.String("event_id", id),
		zap.String("from", string(event.Status)),
		zap.String("to", string(next)))
	event.Status = next
	event.UpdatedAt = time.Now().UTC()
	return event, nil
}

// Delete removes an event. Allowed only while the event has zero attendance
// records and its start time is still in the future.
func (s *EventService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeEventWrite(claims, event); err != nil {
		return err
	}
	hasAttendance, err := s.attendance.ExistsByEvent(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect event attendance")
	}
	if hasAttendance {
		return appErrors.Clone(appErrors.ErrTerminalState, "cannot delete an event that has attendance records")
	}
	if !event.StartTime.After(time.Now()) {
		return appErrors.Clone(appErrors.ErrTerminalState, "cannot delete an event that has already started")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.logger.Info("event deleted", zap.String("event_id", id), zap.String("caller_id", claims.UserID))
	return nil
}

// List returns events matching the filter with paging metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// ListByFaculty returns the events owned by one faculty.
func (s *EventService) ListByFaculty(ctx context.Context, facultyID string, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	filter.FacultyID = facultyID
	return s.List(ctx, filter)
}

// Statistics counts a faculty's events by lifecycle state.
func (s *EventService) Statistics(ctx context.Context, facultyID string) (*models.EventStatistics, error) {
	stats, err := s.repo.CountByStatus(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate events")
	}
	return stats, nil
}
