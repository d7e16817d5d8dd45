package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitrack/attendance-api/internal/models"
)

// AttendanceRepository handles persistence for attendance records. The
// attendance table carries UNIQUE (student_id, event_id); every write goes
// through an ON CONFLICT upsert so concurrent submissions can never produce
// duplicate rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, event_id, status, marks_obtained, max_marks, remarks, marked_by_faculty_id, marked_at, updated_at`

// FindByID returns the attendance record with the given id.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE id = $1`, attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsByEvent reports whether any attendance has been recorded for the event.
func (r *AttendanceRepository) ExistsByEvent(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE event_id = $1)`, eventID); err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

// MarkBatch upserts every record and optionally writes the event status, all
// inside a single transaction. Either the whole batch lands or none of it
// does. marked_at is preserved for rows that already exist; updated_at is
// refreshed on every write.
func (r *AttendanceRepository) MarkBatch(ctx context.Context, eventID string, records []models.Attendance, newStatus *models.EventStatus) ([]models.Attendance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mark batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO attendance (id, student_id, event_id, status, marks_obtained, max_marks, remarks, marked_by_faculty_id, marked_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (student_id, event_id)
DO UPDATE SET status = EXCLUDED.status,
	marks_obtained = EXCLUDED.marks_obtained,
	max_marks = EXCLUDED.max_marks,
	remarks = EXCLUDED.remarks,
	marked_by_faculty_id = EXCLUDED.marked_by_faculty_id,
	updated_at = EXCLUDED.updated_at
RETURNING %s`, attendanceColumns)

	now := time.Now().UTC()
	stored := make([]models.Attendance, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.EventID = eventID
		rec.MarkedAt = now
		rec.UpdatedAt = now
		var row models.Attendance
		if err := tx.GetContext(ctx, &row, query,
			rec.ID, rec.StudentID, rec.EventID, rec.Status, rec.MarksObtained,
			rec.MaxMarks, rec.Remarks, rec.MarkedByFacultyID, rec.MarkedAt, rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("upsert attendance for student %s: %w", rec.StudentID, err)
		}
		stored = append(stored, row)
	}

	if newStatus != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`,
			eventID, *newStatus, now); err != nil {
			return nil, fmt.Errorf("update event status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mark batch: %w", err)
	}
	committed = true
	return stored, nil
}

// Update rewrites the mutable fields of an attendance record in place.
// marked_at is never touched.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	record.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE attendance
SET status = $2, marks_obtained = $3, max_marks = $4, remarks = $5, marked_by_faculty_id = $6, updated_at = $7
WHERE id = $1
RETURNING %s`, attendanceColumns)
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.Status, record.MarksObtained, record.MaxMarks,
		record.Remarks, record.MarkedByFacultyID, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	return &stored, nil
}

// List returns attendance rows with student and event metadata.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	base := `FROM attendance a
JOIN students s ON s.id = a.student_id
JOIN events e ON e.id = a.event_id`
	where, args := attendanceWhere(filter)
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.event_id, a.status, a.marks_obtained, a.max_marks, a.remarks,
	a.marked_by_faculty_id, a.marked_at, a.updated_at,
	s.name AS student_name, e.title AS event_title, e.event_type, e.start_time AS event_start, e.status AS event_status
	%s WHERE %s
	ORDER BY a.marked_at DESC
	LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s WHERE %s`, base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// Delete removes an attendance row.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// CountsByStatus aggregates record counts per status for the filter's scope
// (event, student or marking faculty).
func (r *AttendanceRepository) CountsByStatus(ctx context.Context, filter models.AttendanceFilter) (map[models.AttendanceStatus]int, error) {
	where, args := attendanceWhere(filter)
	query := fmt.Sprintf(`SELECT a.status, COUNT(*) AS cnt
FROM attendance a
WHERE %s
GROUP BY a.status`, strings.Join(where, " AND "))
	rows := []struct {
		Status models.AttendanceStatus `db:"status"`
		Count  int                     `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	counts := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// AverageMarks returns the mean of non-null marks within the filter's scope,
// or nil when no record carries marks.
func (r *AttendanceRepository) AverageMarks(ctx context.Context, filter models.AttendanceFilter) (*float64, error) {
	where, args := attendanceWhere(filter)
	query := fmt.Sprintf(`SELECT AVG(a.marks_obtained)
FROM attendance a
WHERE %s AND a.marks_obtained IS NOT NULL`, strings.Join(where, " AND "))
	var avg *float64
	if err := r.db.GetContext(ctx, &avg, query, args...); err != nil {
		return nil, fmt.Errorf("average marks: %w", err)
	}
	return avg, nil
}

// FacultyEventRates returns per-event present totals for every event owned
// by the faculty that has at least one attendance record.
func (r *AttendanceRepository) FacultyEventRates(ctx context.Context, facultyID string) ([]models.EventAttendanceRate, error) {
	query := `SELECT a.event_id,
	COUNT(*) AS total_records,
	COUNT(*) FILTER (WHERE a.status = 'PRESENT') AS present_count
FROM attendance a
JOIN events e ON e.id = a.event_id
WHERE e.faculty_id = $1
GROUP BY a.event_id`
	var rows []models.EventAttendanceRate
	if err := r.db.SelectContext(ctx, &rows, query, facultyID); err != nil {
		return nil, fmt.Errorf("faculty event rates: %w", err)
	}
	return rows, nil
}

func attendanceWhere(filter models.AttendanceFilter) ([]string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EventID != "" {
		where = append(where, fmt.Sprintf("a.event_id = $%d", len(args)+1))
		args = append(args, filter.EventID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.FacultyID != "" {
		where = append(where, fmt.Sprintf("a.marked_by_faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("a.marked_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("a.marked_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	return where, args
}
