package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockEventRepo struct {
	events     map[string]models.Event
	duplicates bool
	created    *models.Event
	statusSet  map[string]models.EventStatus
	deleted    []string
	stats      *models.EventStatistics
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]models.Event), statusSet: make(map[string]models.EventStatus)}
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if ev, ok := m.events[id]; ok {
		return &ev, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) ExistsDuplicate(ctx context.Context, facultyID, title string, startTime time.Time) (bool, error) {
	return m.duplicates, nil
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	m.events[event.ID] = *event
	m.created = event
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	m.events[event.ID] = *event
	return nil
}

func (m *mockEventRepo) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	ev := m.events[id]
	ev.Status = status
	m.events[id] = ev
	m.statusSet[id] = status
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var list []models.Event
	for _, ev := range m.events {
		list = append(list, ev)
	}
	return list, len(list), nil
}

func (m *mockEventRepo) CountByStatus(ctx context.Context, facultyID string) (*models.EventStatistics, error) {
	if m.stats != nil {
		return m.stats, nil
	}
	return &models.EventStatistics{}, nil
}

type mockAttendanceExistence struct {
	has bool
}

func (m *mockAttendanceExistence) ExistsByEvent(ctx context.Context, eventID string) (bool, error) {
	return m.has, nil
}

type mockActiveStudents struct {
	students []models.Student
}

func (m *mockActiveStudents) ListActive(ctx context.Context) ([]models.Student, error) {
	return m.students, nil
}

type recordingNotifier struct {
	event    *models.Event
	students []models.Student
	calls    int
}

func (n *recordingNotifier) NotifyNewEvent(ctx context.Context, event *models.Event, students []models.Student) {
	n.calls++
	n.event = event
	n.students = students
}

func validCreateRequest() CreateEventRequest {
	return CreateEventRequest{
		Title:     "Compiler Design Lab",
		EventType: "LAB",
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(26 * time.Hour),
	}
}

func newEventFixture() (*EventService, *mockEventRepo, *mockAttendanceExistence, *recordingNotifier) {
	repo := newMockEventRepo()
	attendance := &mockAttendanceExistence{}
	notifier := &recordingNotifier{}
	students := &mockActiveStudents{students: []models.Student{
		{ID: "s1", Name: "Asha Verma", PhoneNumber: "+911111111111", Active: true},
		{ID: "s2", Name: "Rahul Nair", PhoneNumber: "+912222222222", Active: true},
	}}
	svc := NewEventService(repo, attendance, students, notifier, nil, zap.NewNop())
	return svc, repo, attendance, notifier
}

func TestCreateEventStartsScheduledAndNotifies(t *testing.T) {
	svc, repo, _, notifier := newEventFixture()

	event, err := svc.Create(context.Background(), facultyClaims("f1"), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.EventStatusScheduled, event.Status)
	assert.Equal(t, "f1", event.FacultyID)
	assert.NotEmpty(t, event.ID)
	require.NotNil(t, repo.created)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, event.ID, notifier.event.ID)
	assert.Len(t, notifier.students, 2)
}

func TestCreateEventRejectsDuplicate(t *testing.T) {
	svc, repo, _, notifier := newEventFixture()
	repo.duplicates = true

	_, err := svc.Create(context.Background(), facultyClaims("f1"), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEvent.Code, appErrors.FromError(err).Code)
	assert.Zero(t, notifier.calls)
}

func TestCreateEventRejectsInvertedTimeRange(t *testing.T) {
	svc, _, _, _ := newEventFixture()
	req := validCreateRequest()
	req.EndTime = req.StartTime.Add(-time.Hour)

	_, err := svc.Create(context.Background(), facultyClaims("f1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateEventRejectsStudents(t *testing.T) {
	svc, _, _, _ := newEventFixture()
	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}

	_, err := svc.Create(context.Background(), claims, validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusTransitionMatrix(t *testing.T) {
	cases := []struct {
		from    models.EventStatus
		to      models.EventStatus
		allowed bool
	}{
		{models.EventStatusScheduled, models.EventStatusOngoing, true},
		{models.EventStatusScheduled, models.EventStatusCancelled, true},
		{models.EventStatusScheduled, models.EventStatusCompleted, false},
		{models.EventStatusOngoing, models.EventStatusCompleted, true},
		{models.EventStatusOngoing, models.EventStatusCancelled, true},
		{models.EventStatusOngoing, models.EventStatusScheduled, false},
		{models.EventStatusCompleted, models.EventStatusOngoing, false},
		{models.EventStatusCompleted, models.EventStatusCancelled, false},
		{models.EventStatusCancelled, models.EventStatusScheduled, false},
		{models.EventStatusCancelled, models.EventStatusOngoing, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			svc, repo, _, _ := newEventFixture()
			repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: tc.from}

			event, err := svc.UpdateStatus(context.Background(), facultyClaims("f1"), "ev-1", UpdateEventStatusRequest{Status: string(tc.to)})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, event.Status)
				assert.Equal(t, tc.to, repo.statusSet["ev-1"])
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
				assert.Equal(t, tc.from, repo.events["ev-1"].Status)
			}
		})
	}
}

func TestUpdateStatusRejectsNonOwner(t *testing.T) {
	svc, repo, _, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusScheduled}

	_, err := svc.UpdateStatus(context.Background(), facultyClaims("f2"), "ev-1", UpdateEventStatusRequest{Status: "ONGOING"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusAdminBypass(t *testing.T) {
	svc, repo, _, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusScheduled}

	event, err := svc.UpdateStatus(context.Background(), adminClaims(), "ev-1", UpdateEventStatusRequest{Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCancelled, event.Status)
}

func TestUpdateRejectsTerminalEvent(t *testing.T) {
	svc, repo, _, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusCompleted, Title: "Old", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}

	req := UpdateEventRequest{Title: "New Title", EventType: "LECTURE", StartTime: time.Now().Add(time.Hour), EndTime: time.Now().Add(2 * time.Hour)}
	_, err := svc.Update(context.Background(), facultyClaims("f1"), "ev-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)
}

func TestDeleteEventWithAttendanceRejected(t *testing.T) {
	svc, repo, attendance, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusScheduled, StartTime: time.Now().Add(time.Hour)}
	attendance.has = true

	err := svc.Delete(context.Background(), facultyClaims("f1"), "ev-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestDeleteStartedEventRejected(t *testing.T) {
	svc, repo, _, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusScheduled, StartTime: time.Now().Add(-time.Minute)}

	err := svc.Delete(context.Background(), facultyClaims("f1"), "ev-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)
}

func TestDeleteFutureEventWithoutAttendance(t *testing.T) {
	svc, repo, _, _ := newEventFixture()
	repo.events["ev-1"] = models.Event{ID: "ev-1", FacultyID: "f1", Status: models.EventStatusScheduled, StartTime: time.Now().Add(time.Hour)}

	err := svc.Delete(context.Background(), facultyClaims("f1"), "ev-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "ev-1")
}

func TestGetUnknownEvent(t *testing.T) {
	svc, _, _, _ := newEventFixture()
	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
