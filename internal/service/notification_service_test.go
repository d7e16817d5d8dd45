package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/pkg/config"
)

func TestNotifyNewEventFansOutToStudentsWithPhones(t *testing.T) {
	var delivered int64
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("X-API-Key"))
		atomic.AddInt64(&delivered, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	svc := NewNotificationService(config.NotificationsConfig{
		Enabled:       true,
		Workers:       2,
		SMSGatewayURL: gateway.URL,
		SMSAPIKey:     "secret",
		SMSSenderID:   "UNITRACK",
	}, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	event := &models.Event{ID: "ev-1", Title: "Guest Lecture", StartTime: time.Now().Add(time.Hour)}
	students := []models.Student{
		{ID: "s1", Name: "Ada", PhoneNumber: "+4915200000001"},
		{ID: "s2", Name: "Ben"},
		{ID: "s3", Name: "Cleo", PhoneNumber: "+4915200000003"},
	}

	svc.NotifyNewEvent(context.Background(), event, students)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&delivered) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotifyNewEventDisabledIsNoop(t *testing.T) {
	svc := NewNotificationService(config.NotificationsConfig{Enabled: false}, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	event := &models.Event{ID: "ev-1", Title: "Lab"}
	svc.NotifyNewEvent(context.Background(), event, []models.Student{{ID: "s1", PhoneNumber: "+4915200000001"}})
}

func TestAnnouncementTextIncludesStudentAndEvent(t *testing.T) {
	text := announcementText(models.NotificationIntent{
		StudentName: "Ada",
		EventTitle:  "Guest Lecture",
		EventStart:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	require.Contains(t, text, "Ada")
	require.Contains(t, text, `"Guest Lecture"`)
	require.Contains(t, text, "Sat, 14 Mar 2026 10:00")
}
