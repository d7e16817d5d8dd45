package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type eventServiceMock struct {
	createErr error
	statusErr error
	event     *models.Event
}

func (m *eventServiceMock) Create(ctx context.Context, claims *models.JWTClaims, req service.CreateEventRequest) (*models.Event, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.event, nil
}

func (m *eventServiceMock) Get(ctx context.Context, id string) (*models.Event, error) {
	return m.event, nil
}

func (m *eventServiceMock) Update(ctx context.Context, claims *models.JWTClaims, id string, req service.UpdateEventRequest) (*models.Event, error) {
	return m.event, nil
}

func (m *eventServiceMock) UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req service.UpdateEventStatusRequest) (*models.Event, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.event, nil
}

func (m *eventServiceMock) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	return nil
}

func (m *eventServiceMock) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	return nil, nil, nil
}

func (m *eventServiceMock) ListByFaculty(ctx context.Context, facultyID string, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	return nil, nil, nil
}

func (m *eventServiceMock) Statistics(ctx context.Context, facultyID string) (*models.EventStatistics, error) {
	return &models.EventStatistics{}, nil
}

func TestEventHandlerCreateDuplicateConflict(t *testing.T) {
	mock := &eventServiceMock{createErr: appErrors.Clone(appErrors.ErrDuplicateEvent, "an event with the same title and start time already exists")}
	h := NewEventHandler(mock, nil, nil)
	c, w := testContext(t, http.MethodPost, "/events", service.CreateEventRequest{Title: "Lab"})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty})

	h.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "DUPLICATE_EVENT")
}

func TestEventHandlerUpdateStatusInvalidTransition(t *testing.T) {
	mock := &eventServiceMock{statusErr: appErrors.Clone(appErrors.ErrInvalidTransition, "cannot transition event from COMPLETED to ONGOING")}
	h := NewEventHandler(mock, nil, nil)
	c, w := testContext(t, http.MethodPatch, "/events/ev-1/status", service.UpdateEventStatusRequest{Status: "ONGOING"})
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty})

	h.UpdateStatus(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_TRANSITION")
}

func TestEventHandlerListRejectsBadStatus(t *testing.T) {
	h := NewEventHandler(&eventServiceMock{}, nil, nil)
	c, w := testContext(t, http.MethodGet, "/events?status=BOGUS", nil)

	h.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
