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

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, event_type, start_time, end_time, location, faculty_id, status, created_at, updated_at`

// FindByID returns the event with the given id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ExistsDuplicate reports whether the faculty already has an event with the
// same title and start time.
func (r *EventRepository) ExistsDuplicate(ctx context.Context, facultyID, title string, startTime time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM events WHERE faculty_id = $1 AND title = $2 AND start_time = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, facultyID, title, startTime); err != nil {
		return false, fmt.Errorf("check duplicate event: %w", err)
	}
	return exists, nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = now
	event.UpdatedAt = now
	query := `INSERT INTO events (id, title, description, event_type, start_time, end_time, location, faculty_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.EventType, event.StartTime,
		event.EndTime, event.Location, event.FacultyID, event.Status, event.CreatedAt, event.UpdatedAt); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an event. The owning faculty column
// is never touched.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE events
SET title = $2, description = $3, event_type = $4, start_time = $5, end_time = $6, location = $7, status = $8, updated_at = $9
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.EventType, event.StartTime,
		event.EndTime, event.Location, event.Status, event.UpdatedAt); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// UpdateStatus writes only the status column.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	query := `UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return nil
}

// Delete removes an event row.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// List returns events matching the provided filter with a total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.FacultyID != "" {
		where = append(where, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("start_time <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Upcoming {
		where = append(where, fmt.Sprintf("start_time > $%d", len(args)+1))
		args = append(args, time.Now().UTC())
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
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

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY start_time DESC LIMIT %d OFFSET %d`,
		eventColumns, whereClause, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM events WHERE %s`, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// CountByStatus aggregates a faculty's events per lifecycle state.
func (r *EventRepository) CountByStatus(ctx context.Context, facultyID string) (*models.EventStatistics, error) {
	query := `SELECT status, COUNT(*) AS cnt FROM events WHERE faculty_id = $1 GROUP BY status`
	rows := []struct {
		Status models.EventStatus `db:"status"`
		Count  int                `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, facultyID); err != nil {
		return nil, fmt.Errorf("count events by status: %w", err)
	}
	stats := &models.EventStatistics{}
	for _, row := range rows {
		switch row.Status {
		case models.EventStatusScheduled:
			stats.ScheduledEvents += row.Count
		case models.EventStatusOngoing:
			stats.OngoingEvents += row.Count
		case models.EventStatusCompleted:
			stats.CompletedEvents += row.Count
		case models.EventStatusCancelled:
			stats.CancelledEvents += row.Count
		}
		stats.TotalEvents += row.Count
	}
	return stats, nil
}
