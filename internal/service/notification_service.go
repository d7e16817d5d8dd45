package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/pkg/config"
	"github.com/unitrack/attendance-api/pkg/jobs"
)

// Sender delivers one notification intent over a single channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, intent models.NotificationIntent) error
}

// NotificationService fans out event announcements to students through a
// bounded in-memory work queue. Producers only enqueue; delivery outcome is
// logged and counted, never surfaced to the caller.
type NotificationService struct {
	queue   *jobs.Queue
	senders []Sender
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService wires the configured channels into a worker queue.
func NewNotificationService(cfg config.NotificationsConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{metrics: metrics, logger: logger, enabled: cfg.Enabled}
	if !cfg.Enabled {
		return svc
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if cfg.SMSGatewayURL != "" {
		svc.senders = append(svc.senders, &smsSender{
			client:     client,
			gatewayURL: cfg.SMSGatewayURL,
			apiKey:     cfg.SMSAPIKey,
			senderID:   cfg.SMSSenderID,
		})
	}
	if cfg.WhatsAppURL != "" {
		svc.senders = append(svc.senders, &whatsappSender{
			client: client,
			url:    cfg.WhatsAppURL,
			apiKey: cfg.WhatsAppAPIKey,
		})
	}

	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop drains the queue and waits for in-flight deliveries.
func (s *NotificationService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// NotifyNewEvent enqueues one announcement intent per student. Students
// without a phone number are skipped; enqueue failures are logged only.
func (s *NotificationService) NotifyNewEvent(_ context.Context, event *models.Event, students []models.Student) {
	if !s.enabled || s.queue == nil {
		return
	}
	enqueued := 0
	for _, student := range students {
		if student.PhoneNumber == "" {
			continue
		}
		intent := models.NotificationIntent{
			StudentID:   student.ID,
			StudentName: student.Name,
			PhoneNumber: student.PhoneNumber,
			EventID:     event.ID,
			EventTitle:  event.Title,
			EventStart:  event.StartTime,
			Kind:        models.NotificationNewEvent,
		}
		job := jobs.Job{ID: uuid.NewString(), Kind: string(intent.Kind), Payload: intent}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("notification enqueue failed",
				zap.String("event_id", event.ID),
				zap.String("student_id", student.ID),
				zap.Error(err))
			continue
		}
		enqueued++
	}
	s.logger.Info("event notifications enqueued",
		zap.String("event_id", event.ID),
		zap.Int("enqueued", enqueued),
		zap.Int("students", len(students)))
}

// deliver pushes one intent through every configured channel. A failing
// channel fails the job so the queue retries it.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	intent, ok := job.Payload.(models.NotificationIntent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	var firstErr error
	for _, sender := range s.senders {
		err := sender.Send(ctx, intent)
		s.metrics.RecordNotification(sender.Channel(), err == nil)
		if err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("channel", sender.Channel()),
				zap.String("student_id", intent.StudentID),
				zap.String("event_id", intent.EventID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func announcementText(intent models.NotificationIntent) string {
	return fmt.Sprintf("Hi %s, a new event %q is scheduled for %s.",
		intent.StudentName, intent.EventTitle, intent.EventStart.Format("Mon, 02 Jan 2006 15:04"))
}

type smsSender struct {
	client     *http.Client
	gatewayURL string
	apiKey     string
	senderID   string
}

func (s *smsSender) Channel() string { return "sms" }

func (s *smsSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	payload := map[string]string{
		"to":        intent.PhoneNumber,
		"message":   announcementText(intent),
		"sender_id": s.senderID,
	}
	return postJSON(ctx, s.client, s.gatewayURL, s.apiKey, payload)
}

type whatsappSender struct {
	client *http.Client
	url    string
	apiKey string
}

func (s *whatsappSender) Channel() string { return "whatsapp" }

func (s *whatsappSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	payload := map[string]string{
		"phone": intent.PhoneNumber,
		"body":  announcementText(intent),
	}
	return postJSON(ctx, s.client, s.url, s.apiKey, payload)
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}
