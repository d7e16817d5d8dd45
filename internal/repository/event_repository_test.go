package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/models"
)

func TestEventRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{
		Title:     "Database Systems Lecture",
		EventType: models.EventTypeLecture,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
		FacultyID: "f1",
		Status:    models.EventStatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	require.NotEmpty(t, event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryExistsDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	start := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("f1", "Database Systems Lecture", start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsDuplicate(context.Background(), "f1", "Database Systems Lecture", start)
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET status = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "ev-1", models.EventStatusOngoing))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "event_type", "start_time", "end_time", "location", "faculty_id", "status", "created_at", "updated_at"}).
		AddRow("ev-1", "Lab", nil, "LAB", time.Now(), time.Now().Add(time.Hour), nil, "f1", "SCHEDULED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, event_type")).
		WithArgs("ev-1").
		WillReturnRows(rows)

	event, err := repo.FindByID(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Equal(t, "ev-1", event.ID)
	require.Equal(t, models.EventStatusScheduled, event.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
