package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/observability/metrics"
	"github.com/mediwrap/platform/pkg/logging"
)

// Notifier publishes user-facing notifications.
type Notifier interface {
	Publish(ctx context.Context, identityID string, n Notification)
}

// StreamPublisher pushes serialized notifications onto an identity's
// private stream (the realtime fan-out).
type StreamPublisher interface {
	PublishNotification(ctx context.Context, identityID string, payload []byte) error
}

// EmailQueue carries asynchronous email jobs to the events worker.
type EmailQueue interface {
	Send(ctx context.Context, body string) error
}

// Service publishes notifications to the identity's stream and, for flows
// that warrant it, enqueues an email job. Publishing is best-effort: a
// broken stream must never fail the operation that produced the
// notification, so errors are logged and swallowed here.
type Service struct {
	stream  StreamPublisher
	queue   EmailQueue
	metrics *metrics.StoreMetrics
	logger  *logging.Logger
}

// NewService creates a notification service. stream and queue may be nil;
// the corresponding delivery path is then skipped.
func NewService(stream StreamPublisher, queue EmailQueue, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{stream: stream, queue: queue, logger: logger}
}

// WithMetrics attaches the notification counters. m may be nil.
func (s *Service) WithMetrics(m *metrics.StoreMetrics) *Service {
	s.metrics = m
	return s
}

// Publish delivers one notification to the identity's stream.
func (s *Service) Publish(ctx context.Context, identityID string, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.metrics.ObserveNotification(string(n.Severity))
	s.logger.Info("notification",
		"identity_id", identityID,
		"title", n.Title,
		"severity", string(n.Severity),
	)
	if s.stream == nil || identityID == "" {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("notify: marshal notification", "error", err)
		return
	}
	if err := s.stream.PublishNotification(ctx, identityID, payload); err != nil {
		s.logger.Error("notify: stream publish failed", "identity_id", identityID, "error", err)
	}
}

// EnqueueEmail hands an email job to the worker queue.
func (s *Service) EnqueueEmail(ctx context.Context, msg EmailMessage) error {
	if s.queue == nil {
		s.logger.Debug("notify: email queue not configured, dropping email", "to", msg.To)
		return nil
	}
	job := events.NotificationEmailV1{
		EventID:     uuid.NewString(),
		To:          msg.To,
		ToName:      msg.ToName,
		Subject:     msg.Subject,
		Body:        msg.Body,
		HTML:        msg.HTML,
		RequestedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("notify: marshal email job: %w", err)
	}
	if err := s.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("notify: enqueue email: %w", err)
	}
	return nil
}

// WelcomeEmail is sent after a successful signup.
func WelcomeEmail(to, name string) EmailMessage {
	return EmailMessage{
		To:      to,
		ToName:  name,
		Subject: "Welcome to MediWrap",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour MediWrap account has been created. You can now book consultations, order pharmacy products, and join the community.\n\nThe MediWrap team",
			name,
		),
	}
}

// AppointmentConfirmedEmail is sent when a doctor confirms a booking.
func AppointmentConfirmedEmail(to, name, doctorName, date, timeOfDay string) EmailMessage {
	return EmailMessage{
		To:      to,
		ToName:  name,
		Subject: "Your appointment is confirmed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with %s on %s at %s has been confirmed.\n\nThe MediWrap team",
			name, doctorName, date, timeOfDay,
		),
	}
}
