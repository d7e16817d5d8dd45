package models

import "time"

// SystemMetrics is a lightweight snapshot of runtime counters exposed on the
// analytics surface alongside the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AttendanceMarked         uint64    `json:"attendance_marked"`
	EventsCreated            uint64    `json:"events_created"`
	NotificationsSent        uint64    `json:"notifications_sent"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// FacultyAnalytics is the aggregated attendance view across one faculty's
// events. AverageAttendanceRate is the mean present-rate over events that
// have at least one record.
type FacultyAnalytics struct {
	FacultyID             string  `json:"faculty_id"`
	TotalEvents           int     `json:"total_events"`
	EventsWithAttendance  int     `json:"events_with_attendance"`
	AverageAttendanceRate float64 `json:"average_attendance_rate"`
}
