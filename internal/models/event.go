package models

import "time"

// EventType enumerates the kinds of trackable academic events.
type EventType string

const (
	EventTypeLecture      EventType = "LECTURE"
	EventTypeLab          EventType = "LAB"
	EventTypeSeminar      EventType = "SEMINAR"
	EventTypeExam         EventType = "EXAM"
	EventTypeWorkshop     EventType = "WORKSHOP"
	EventTypeAssignment   EventType = "ASSIGNMENT"
	EventTypeMeeting      EventType = "MEETING"
	EventTypePresentation EventType = "PRESENTATION"
)

// Valid returns true when the type is a supported value.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeLecture, EventTypeLab, EventTypeSeminar, EventTypeExam,
		EventTypeWorkshop, EventTypeAssignment, EventTypeMeeting, EventTypePresentation:
		return true
	default:
		return false
	}
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status has no outgoing transitions.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// CanTransitionTo reports whether the explicit status change is legal.
// SCHEDULED may move to ONGOING or CANCELLED, ONGOING to COMPLETED or
// CANCELLED; terminal states have no outgoing transitions.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case EventStatusScheduled:
		return next == EventStatusOngoing || next == EventStatusCancelled
	case EventStatusOngoing:
		return next == EventStatusCompleted || next == EventStatusCancelled
	default:
		return false
	}
}

// Event is a faculty-owned trackable occurrence. The owning faculty never
// changes after creation; status only moves per the transition rules above.
type Event struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description *string     `db:"description" json:"description,omitempty"`
	EventType   EventType   `db:"event_type" json:"event_type"`
	StartTime   time.Time   `db:"start_time" json:"start_time"`
	EndTime     time.Time   `db:"end_time" json:"end_time"`
	Location    *string     `db:"location" json:"location,omitempty"`
	FacultyID   string      `db:"faculty_id" json:"faculty_id"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// EventFilter scopes event listing queries.
type EventFilter struct {
	FacultyID string
	Status    *EventStatus
	From      *time.Time
	To        *time.Time
	Search    string
	Upcoming  bool
	Page      int
	PageSize  int
}

// EventStatistics counts a faculty's events by lifecycle state.
type EventStatistics struct {
	TotalEvents     int `json:"total_events"`
	ScheduledEvents int `json:"scheduled_events"`
	OngoingEvents   int `json:"ongoing_events"`
	CompletedEvents int `json:"completed_events"`
	CancelledEvents int `json:"cancelled_events"`
}
