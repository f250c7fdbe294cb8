package emailworker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/notify"
)

type fakeQueue struct {
	messages []events.QueueMessage
	deleted  []string
}

func (q *fakeQueue) Send(_ context.Context, body string) error {
	q.messages = append(q.messages, events.QueueMessage{
		ID:            "msg",
		Body:          body,
		ReceiptHandle: "rh",
	})
	return nil
}

func (q *fakeQueue) Receive(_ context.Context, _ int, _ int) ([]events.QueueMessage, error) {
	out := q.messages
	q.messages = nil
	return out, nil
}

func (q *fakeQueue) Delete(_ context.Context, receiptHandle string) error {
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

type captureSender struct {
	sent []notify.EmailMessage
	err  error
}

func (s *captureSender) Send(_ context.Context, msg notify.EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func enqueueJob(t *testing.T, q *fakeQueue, job events.NotificationEmailV1) {
	t.Helper()
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	q.messages = append(q.messages, events.QueueMessage{
		ID:            job.EventID,
		Body:          string(body),
		ReceiptHandle: "rh-" + job.EventID,
	})
}

func TestDispatcherDeliversAndDeletes(t *testing.T) {
	queue := &fakeQueue{}
	sender := &captureSender{}
	enqueueJob(t, queue, events.NotificationEmailV1{
		EventID:     "evt-1",
		To:          "ana@example.com",
		ToName:      "Ana",
		Subject:     "Welcome to MediWrap",
		Body:        "Hi Ana",
		RequestedAt: time.Now().UTC(),
	})

	NewDispatcher(queue, sender, nil).drain(context.Background())

	if len(sender.sent) != 1 || sender.sent[0].To != "ana@example.com" {
		t.Fatalf("expected one delivered email, got %+v", sender.sent)
	}
	if len(queue.deleted) != 1 || queue.deleted[0] != "rh-evt-1" {
		t.Fatalf("expected message deleted, got %v", queue.deleted)
	}
}

func TestDispatcherKeepsMessageOnSendFailure(t *testing.T) {
	queue := &fakeQueue{}
	sender := &captureSender{err: errors.New("smtp down")}
	enqueueJob(t, queue, events.NotificationEmailV1{EventID: "evt-2", To: "a@example.com", Subject: "x"})

	NewDispatcher(queue, sender, nil).drain(context.Background())

	if len(queue.deleted) != 0 {
		t.Fatalf("failed sends must stay queued, deleted=%v", queue.deleted)
	}
}

func TestDispatcherDropsMalformedJobs(t *testing.T) {
	queue := &fakeQueue{}
	queue.messages = append(queue.messages, events.QueueMessage{
		ID:            "bad",
		Body:          "{not json",
		ReceiptHandle: "rh-bad",
	})
	sender := &captureSender{}

	NewDispatcher(queue, sender, nil).drain(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("malformed jobs must not be sent")
	}
	if len(queue.deleted) != 1 || queue.deleted[0] != "rh-bad" {
		t.Fatalf("malformed jobs must be deleted, got %v", queue.deleted)
	}
}
