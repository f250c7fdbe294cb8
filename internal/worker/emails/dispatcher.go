package emailworker

import (
	"context"
	"encoding/json"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/pkg/logging"
)

// Dispatcher drains the notification email queue and hands each job to
// the configured email sender. Malformed jobs are deleted rather than
// retried forever; send failures leave the message on the queue for the
// next receive.
type Dispatcher struct {
	queue       events.Queue
	sender      notify.EmailSender
	logger      *logging.Logger
	maxMessages int
	waitSeconds int
}

func NewDispatcher(queue events.Queue, sender notify.EmailSender, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		maxMessages: 10,
		waitSeconds: 10,
	}
}

func (d *Dispatcher) WithMaxMessages(n int) *Dispatcher {
	if n > 0 {
		d.maxMessages = n
	}
	return d
}

func (d *Dispatcher) WithWaitSeconds(n int) *Dispatcher {
	if n >= 0 {
		d.waitSeconds = n
	}
	return d
}

// Run blocks until ctx is canceled, delivering queued email jobs.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.drain(ctx)
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	msgs, err := d.queue.Receive(ctx, d.maxMessages, d.waitSeconds)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.logger.Error("email worker: receive failed", "error", err)
		return
	}

	for _, msg := range msgs {
		var job events.NotificationEmailV1
		if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
			d.logger.Warn("email worker: dropping malformed job", "message_id", msg.ID, "error", err)
			_ = d.queue.Delete(ctx, msg.ReceiptHandle)
			continue
		}

		err := d.sender.Send(ctx, notify.EmailMessage{
			To:      job.To,
			ToName:  job.ToName,
			Subject: job.Subject,
			Body:    job.Body,
			HTML:    job.HTML,
		})
		if err != nil {
			d.logger.Error("email worker: send failed", "event_id", job.EventID, "to", job.To, "error", err)
			continue
		}

		if err := d.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			d.logger.Error("email worker: delete failed", "event_id", job.EventID, "error", err)
			continue
		}
		d.logger.Info("email worker: delivered", "event_id", job.EventID, "to", job.To)
	}
}
