package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records       map[string]models.Attendance
	byPair        map[string]string
	hasRecords    bool
	statusWritten *models.EventStatus
	batchCalls    int
	deleted       []string
	counts        map[models.AttendanceStatus]int
	avgMarks      *float64
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]models.Attendance),
		byPair:  make(map[string]string),
	}
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if rec, ok := m.records[id]; ok {
		return &rec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ExistsByEvent(ctx context.Context, eventID string) (bool, error) {
	return m.hasRecords || len(m.byPair) > 0, nil
}

func (m *mockAttendanceRepo) MarkBatch(ctx context.Context, eventID string, records []models.Attendance, newStatus *models.EventStatus) ([]models.Attendance, error) {
	m.batchCalls++
	now := time.Now().UTC()
	stored := make([]models.Attendance, len(records))
	for i, rec := range records {
		key := rec.StudentID + "|" + eventID
		if existingID, ok := m.byPair[key]; ok {
			prev := m.records[existingID]
			rec.ID = prev.ID
			rec.MarkedAt = prev.MarkedAt
		} else {
			rec.ID = fmt.Sprintf("att-%d", len(m.records)+1)
			rec.MarkedAt = now
			m.byPair[key] = rec.ID
		}
		rec.UpdatedAt = now
		m.records[rec.ID] = rec
		stored[i] = rec
	}
	m.statusWritten = newStatus
	return stored, nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	record.UpdatedAt = time.Now().UTC()
	m.records[record.ID] = *record
	return record, nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	var rows []models.AttendanceDetail
	for _, rec := range m.records {
		rows = append(rows, models.AttendanceDetail{Attendance: rec})
	}
	return rows, len(rows), nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAttendanceRepo) CountsByStatus(ctx context.Context, filter models.AttendanceFilter) (map[models.AttendanceStatus]int, error) {
	if m.counts != nil {
		return m.counts, nil
	}
	counts := make(map[models.AttendanceStatus]int)
	for _, rec := range m.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func (m *mockAttendanceRepo) AverageMarks(ctx context.Context, filter models.AttendanceFilter) (*float64, error) {
	return m.avgMarks, nil
}

type mockEventReader struct {
	events map[string]models.Event
}

func (m *mockEventReader) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if ev, ok := m.events[id]; ok {
		return &ev, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentLookup struct {
	students map[string]models.Student
}

func (m *mockStudentLookup) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := m.students[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentLookup) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	var found []models.Student
	for _, id := range ids {
		if st, ok := m.students[id]; ok {
			found = append(found, st)
		}
	}
	return found, nil
}

func facultyClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleFaculty}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func scheduledEvent(facultyID string) models.Event {
	return models.Event{
		ID:        "ev-1",
		Title:     "Distributed Systems Lecture",
		EventType: models.EventTypeLecture,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
		FacultyID: facultyID,
		Status:    models.EventStatusScheduled,
	}
}

func twoStudents() *mockStudentLookup {
	return &mockStudentLookup{students: map[string]models.Student{
		"s1": {ID: "s1", Name: "Asha Verma", PhoneNumber: "+911111111111", Active: true},
		"s2": {ID: "s2", Name: "Rahul Nair", PhoneNumber: "+912222222222", Active: true},
	}}
}

func newAttendanceFixture(event models.Event) (*AttendanceService, *mockAttendanceRepo) {
	repo := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]models.Event{event.ID: event}}
	svc := NewAttendanceService(repo, events, twoStudents(), nil, zap.NewNop())
	return svc, repo
}

func TestMarkFirstBatchMovesScheduledToOngoing(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))

	resp, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID:              "ev-1",
		MarkEventAsCompleted: true,
		Records: []AttendanceRecordRequest{
			{StudentID: "s1", Status: "PRESENT", MarksObtained: floatPtr(18), MaxMarks: floatPtr(20)},
			{StudentID: "s2", Status: "ABSENT"},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, models.EventStatusScheduled, resp.EventSummary.PreviousStatus)
	assert.Equal(t, models.EventStatusOngoing, resp.EventSummary.CurrentStatus)
	assert.True(t, resp.EventSummary.StatusChanged)
	require.NotNil(t, repo.statusWritten)
	assert.Equal(t, models.EventStatusOngoing, *repo.statusWritten)

	assert.Len(t, resp.Records, 2)
	assert.Equal(t, "Asha Verma", resp.Records[0].StudentName)
	require.NotNil(t, resp.Records[0].Percentage)
	assert.InDelta(t, 90.0, *resp.Records[0].Percentage, 0.001)
	assert.Equal(t, "f1", repo.records[resp.Records[0].ID].MarkedByFacultyID)
	assert.InDelta(t, 50.0, resp.AttendanceSummary.AttendancePercentage, 0.001)
}

func TestMarkLaterBatchCompletesScheduledEvent(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))
	repo.hasRecords = true

	resp, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID:              "ev-1",
		MarkEventAsCompleted: true,
		Records:              []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, resp.EventSummary.CurrentStatus)
}

func TestMarkOngoingEventCompletes(t *testing.T) {
	event := scheduledEvent("f1")
	event.Status = models.EventStatusOngoing
	svc, _ := newAttendanceFixture(event)

	resp, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID:              "ev-1",
		MarkEventAsCompleted: true,
		Records:              []AttendanceRecordRequest{{StudentID: "s1", Status: "LATE"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, resp.EventSummary.CurrentStatus)
}

func TestMarkWithoutCompletionFlagLeavesStatus(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))

	resp, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.NoError(t, err)
	assert.False(t, resp.EventSummary.StatusChanged)
	assert.Equal(t, models.EventStatusScheduled, resp.EventSummary.CurrentStatus)
	assert.Nil(t, repo.statusWritten)
}

func TestMarkIsIdempotentPerStudentEventPair(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))

	first, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "ABSENT"}},
	})
	require.NoError(t, err)

	second, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.NoError(t, err)

	assert.Len(t, repo.records, 1)
	assert.Equal(t, first.Records[0].ID, second.Records[0].ID)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records[first.Records[0].ID].Status)
	assert.Equal(t, first.Records[0].MarkedAt, second.Records[0].MarkedAt)
}

func TestMarkCompletedEventProceedsWithoutTransition(t *testing.T) {
	event := scheduledEvent("f1")
	event.Status = models.EventStatusCompleted
	svc, repo := newAttendanceFixture(event)

	resp, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID:              "ev-1",
		MarkEventAsCompleted: true,
		Records:              []AttendanceRecordRequest{{StudentID: "s1", Status: "LATE"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.batchCalls)
	assert.Len(t, repo.records, 1)
	assert.Nil(t, repo.statusWritten)
	assert.False(t, resp.EventSummary.StatusChanged)
	assert.Equal(t, models.EventStatusCompleted, resp.EventSummary.PreviousStatus)
	assert.Equal(t, models.EventStatusCompleted, resp.EventSummary.CurrentStatus)
}

func TestMarkCancelledEventRejected(t *testing.T) {
	event := scheduledEvent("f1")
	event.Status = models.EventStatusCancelled
	svc, repo := newAttendanceFixture(event)

	_, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.batchCalls)
}

func TestMarkRejectsNonOwner(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))

	_, err := svc.Mark(context.Background(), facultyClaims("f2"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.batchCalls)
}

func TestMarkAdminBypassesOwnership(t *testing.T) {
	svc, _ := newAttendanceFixture(scheduledEvent("f1"))

	_, err := svc.Mark(context.Background(), adminClaims(), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.NoError(t, err)
}

func TestMarkUnknownStudentAbortsBatch(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))

	_, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{
			{StudentID: "s1", Status: "PRESENT"},
			{StudentID: "ghost", Status: "PRESENT"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.batchCalls)
}

func TestMarkRejectsDuplicateStudentInPayload(t *testing.T) {
	svc, _ := newAttendanceFixture(scheduledEvent("f1"))

	_, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
		EventID: "ev-1",
		Records: []AttendanceRecordRequest{
			{StudentID: "s1", Status: "PRESENT"},
			{StudentID: "s1", Status: "ABSENT"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkInvalidMarksAbortBatch(t *testing.T) {
	cases := []struct {
		name   string
		record AttendanceRecordRequest
	}{
		{"only obtained", AttendanceRecordRequest{StudentID: "s1", Status: "PRESENT", MarksObtained: floatPtr(10)}},
		{"only max", AttendanceRecordRequest{StudentID: "s1", Status: "PRESENT", MaxMarks: floatPtr(10)}},
		{"negative obtained", AttendanceRecordRequest{StudentID: "s1", Status: "PRESENT", MarksObtained: floatPtr(-1), MaxMarks: floatPtr(10)}},
		{"zero max", AttendanceRecordRequest{StudentID: "s1", Status: "PRESENT", MarksObtained: floatPtr(0), MaxMarks: floatPtr(0)}},
		{"obtained above max", AttendanceRecordRequest{StudentID: "s1", Status: "PRESENT", MarksObtained: floatPtr(11), MaxMarks: floatPtr(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newAttendanceFixture(scheduledEvent("f1"))
			_, err := svc.Mark(context.Background(), facultyClaims("f1"), MarkAttendanceRequest{
				EventID: "ev-1",
				Records: []AttendanceRecordRequest{{StudentID: "s2", Status: "PRESENT"}, tc.record},
			})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidMarks.Code, appErrors.FromError(err).Code)
			assert.Zero(t, repo.batchCalls, "no record may persist when one is invalid")
		})
	}
}

func TestUpdateRejectsNonMarker(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))
	repo.records["att-1"] = models.Attendance{ID: "att-1", StudentID: "s1", EventID: "ev-1", Status: models.AttendanceStatusPresent, MarkedByFacultyID: "f1", MarkedAt: time.Now()}

	_, err := svc.Update(context.Background(), facultyClaims("f2"), "att-1", UpdateAttendanceRequest{Status: "LATE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeleteWithinRecencyWindow(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))
	repo.records["att-1"] = models.Attendance{ID: "att-1", MarkedByFacultyID: "f1", MarkedAt: time.Now().Add(-23 * time.Hour)}

	err := svc.Delete(context.Background(), facultyClaims("f1"), "att-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "att-1")
}

func TestDeleteAfterRecencyWindowRejected(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))
	repo.records["att-1"] = models.Attendance{ID: "att-1", MarkedByFacultyID: "f1", MarkedAt: time.Now().Add(-25 * time.Hour)}

	err := svc.Delete(context.Background(), facultyClaims("f1"), "att-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestStudentStatisticsUsesCountsAndBand(t *testing.T) {
	svc, repo := newAttendanceFixture(scheduledEvent("f1"))
	repo.counts = map[models.AttendanceStatus]int{
		models.AttendanceStatusPresent: 8,
		models.AttendanceStatusLate:    1,
		models.AttendanceStatusAbsent:  1,
	}
	repo.avgMarks = floatPtr(72.5)

	stats, err := svc.StudentStatistics(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Summary.TotalStudents)
	assert.InDelta(t, 90.0, stats.Summary.AttendancePercentage, 0.001)
	assert.Equal(t, models.BandExcellent, stats.Band)
	assert.InDelta(t, 72.5, stats.Summary.AverageMarks, 0.001)
}

func TestStudentStatisticsUnknownStudent(t *testing.T) {
	svc, _ := newAttendanceFixture(scheduledEvent("f1"))
	_, err := svc.StudentStatistics(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
