package models

import "time"

// NotificationKind labels the reason a notification intent was emitted.
type NotificationKind string

const (
	NotificationNewEvent NotificationKind = "new-event"
)

// NotificationIntent is the (student, event, kind) tuple handed to the
// dispatcher. Delivery is best-effort and never observed by the producer.
type NotificationIntent struct {
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	PhoneNumber string           `json:"phone_number"`
	EventID     string           `json:"event_id"`
	EventTitle  string           `json:"event_title"`
	EventStart  time.Time        `json:"event_start"`
	Kind        NotificationKind `json:"kind"`
}
