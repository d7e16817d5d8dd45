package models

import "time"

// AttendanceStatus represents the outcome recorded for a student at an event.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
	AttendanceStatusPartial AttendanceStatus = "PARTIAL"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate,
		AttendanceStatusExcused, AttendanceStatusPartial:
		return true
	default:
		return false
	}
}

// Attendance is one student's recorded outcome for one event. The
// (student_id, event_id) pair is unique; re-submission updates in place.
// MarkedAt is set on first creation and preserved by later writes.
type Attendance struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	EventID           string           `db:"event_id" json:"event_id"`
	Status            AttendanceStatus `db:"status" json:"status"`
	MarksObtained     *float64         `db:"marks_obtained" json:"marks_obtained,omitempty"`
	MaxMarks          *float64         `db:"max_marks" json:"max_marks,omitempty"`
	Remarks           *string          `db:"remarks" json:"remarks,omitempty"`
	MarkedByFacultyID string           `db:"marked_by_faculty_id" json:"marked_by_faculty_id"`
	MarkedAt          time.Time        `db:"marked_at" json:"marked_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// MarkPercentage returns marks as a percentage of the maximum, or nil when
// either side is missing or the maximum is zero.
func (a Attendance) MarkPercentage() *float64 {
	if a.MarksObtained == nil || a.MaxMarks == nil || *a.MaxMarks <= 0 {
		return nil
	}
	pct := *a.MarksObtained / *a.MaxMarks * 100
	return &pct
}

// AttendanceDetail extends an attendance row with student and event metadata.
type AttendanceDetail struct {
	Attendance
	StudentName string      `db:"student_name" json:"student_name"`
	EventTitle  string      `db:"event_title" json:"event_title"`
	EventType   EventType   `db:"event_type" json:"event_type"`
	EventStart  time.Time   `db:"event_start" json:"event_start"`
	EventStatus EventStatus `db:"event_status" json:"event_status"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	EventID   string
	StudentID string
	FacultyID string
	Status    *AttendanceStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// AttendanceSummary aggregates a set of attendance records. Present and late
// both count toward the percentage; late arrivals are not penalized.
type AttendanceSummary struct {
	TotalStudents        int     `json:"total_students"`
	PresentCount         int     `json:"present_count"`
	AbsentCount          int     `json:"absent_count"`
	LateCount            int     `json:"late_count"`
	ExcusedCount         int     `json:"excused_count"`
	PartialCount         int     `json:"partial_count"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	AverageMarks         float64 `json:"average_marks"`
}

// AttendanceBand is the qualitative label derived from a percentage.
type AttendanceBand string

const (
	BandExcellent AttendanceBand = "Excellent"
	BandGood      AttendanceBand = "Good"
	BandAverage   AttendanceBand = "Average"
	BandPoor      AttendanceBand = "Poor"
)

// EventAttendanceRate is one event's present-rate used by faculty analytics.
type EventAttendanceRate struct {
	EventID      string `db:"event_id" json:"event_id"`
	TotalRecords int    `db:"total_records" json:"total_records"`
	PresentCount int    `db:"present_count" json:"present_count"`
}
