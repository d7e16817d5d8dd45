package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "student_id", "event_id", "status", "marks_obtained", "max_marks", "remarks", "marked_by_faculty_id", "marked_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "s-"+id, "ev-1", "PRESENT", nil, nil, nil, "f1", time.Now(), time.Now())
	}
	return rows
}

func TestMarkBatchCommitsUpsertsAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	upsert := regexp.QuoteMeta("INSERT INTO attendance")

	mock.ExpectBegin()
	mock.ExpectQuery(upsert).WillReturnRows(attendanceRows("a1"))
	mock.ExpectQuery(upsert).WillReturnRows(attendanceRows("a2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status := models.EventStatusOngoing
	stored, err := repo.MarkBatch(context.Background(), "ev-1", []models.Attendance{
		{StudentID: "s1", Status: models.AttendanceStatusPresent, MarkedByFacultyID: "f1"},
		{StudentID: "s2", Status: models.AttendanceStatusAbsent, MarkedByFacultyID: "f1"},
	}, &status)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBatchWithoutStatusSkipsEventWrite(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).WillReturnRows(attendanceRows("a1"))
	mock.ExpectCommit()

	stored, err := repo.MarkBatch(context.Background(), "ev-1", []models.Attendance{
		{StudentID: "s1", Status: models.AttendanceStatusPresent, MarkedByFacultyID: "f1"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	upsert := regexp.QuoteMeta("INSERT INTO attendance")

	mock.ExpectBegin()
	mock.ExpectQuery(upsert).WillReturnRows(attendanceRows("a1"))
	mock.ExpectQuery(upsert).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.MarkBatch(context.Background(), "ev-1", []models.Attendance{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s2", Status: models.AttendanceStatusPresent},
	}, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEvent(context.Background(), "ev-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"status", "cnt"}).
		AddRow("PRESENT", 7).
		AddRow("ABSENT", 2).
		AddRow("LATE", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.status, COUNT(*) AS cnt")).
		WithArgs("s1").
		WillReturnRows(rows)

	counts, err := repo.CountsByStatus(context.Background(), models.AttendanceFilter{StudentID: "s1"})
	require.NoError(t, err)
	require.Equal(t, 7, counts[models.AttendanceStatusPresent])
	require.Equal(t, 2, counts[models.AttendanceStatusAbsent])
	require.Equal(t, 1, counts[models.AttendanceStatusLate])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAttendance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE id = $1")).
		WithArgs("att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "att-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
