package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediwrap/platform/pkg/logging"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DeliveryHandler emits pending events to downstream transports.
type DeliveryHandler interface {
	Handle(ctx context.Context, evt ChangeEvent) error
}

// DeliveryHandlerFunc adapts a function to DeliveryHandler.
type DeliveryHandlerFunc func(ctx context.Context, evt ChangeEvent) error

func (f DeliveryHandlerFunc) Handle(ctx context.Context, evt ChangeEvent) error {
	return f(ctx, evt)
}

// OutboxStore persists change events alongside the row mutations that
// produced them, for reliable delivery by the events worker.
type OutboxStore struct {
	db DB
}

func NewOutboxStore(db DB) *OutboxStore {
	if db == nil {
		panic("events: db required")
	}
	return &OutboxStore{db: db}
}

// Insert records a pending change event.
func (s *OutboxStore) Insert(ctx context.Context, evt ChangeEvent) (uuid.UUID, error) {
	if evt.Collection == "" {
		return uuid.Nil, fmt.Errorf("events: change event missing collection")
	}
	keys, err := json.Marshal(evt.Keys)
	if err != nil {
		return uuid.Nil, fmt.Errorf("events: marshal keys: %w", err)
	}
	id := uuid.New()
	query := `
		INSERT INTO outbox (id, collection, keys)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.Exec(ctx, query, id, evt.Collection, keys); err != nil {
		return uuid.Nil, fmt.Errorf("events: insert outbox: %w", err)
	}
	return id, nil
}

// PublishChange satisfies Publisher so stores can swap the outbox in for
// the direct bus without caring which transport backs it.
func (s *OutboxStore) PublishChange(ctx context.Context, evt ChangeEvent) error {
	_, err := s.Insert(ctx, evt)
	return err
}

// FetchPending returns undelivered events in creation order.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32) ([]ChangeEvent, error) {
	query := `
		SELECT id, collection, keys, created_at
		FROM outbox
		WHERE delivered_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []ChangeEvent
	for rows.Next() {
		var (
			id      uuid.UUID
			evt     ChangeEvent
			rawKeys []byte
		)
		if err := rows.Scan(&id, &evt.Collection, &rawKeys, &evt.OccurredAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		evt.EventID = id.String()
		if len(rawKeys) > 0 {
			if err := json.Unmarshal(rawKeys, &evt.Keys); err != nil {
				return nil, fmt.Errorf("events: unmarshal keys: %w", err)
			}
		}
		entries = append(entries, evt)
	}
	return entries, rows.Err()
}

// MarkDelivered stamps an event as delivered exactly once.
func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`
	ct, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// Deliverer polls the outbox and invokes the handler.
type Deliverer struct {
	store     *OutboxStore
	handler   DeliveryHandler
	logger    *logging.Logger
	batchSize int32
	interval  time.Duration
}

func NewDeliverer(store *OutboxStore, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		store:     store,
		handler:   handler,
		logger:    logger,
		batchSize: 25,
		interval:  2 * time.Second,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Start blocks until ctx is canceled, draining the outbox on each tick.
func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil || d.handler == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Deliverer) drain(ctx context.Context) {
	entries, err := d.store.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return
	}
	for _, evt := range entries {
		if err := d.handler.Handle(ctx, evt); err != nil {
			d.logger.Error("outbox delivery failed", "event_id", evt.EventID, "collection", evt.Collection, "error", err)
			continue
		}
		id, err := uuid.Parse(evt.EventID)
		if err != nil {
			d.logger.Error("outbox entry has malformed id", "event_id", evt.EventID)
			continue
		}
		marked, err := d.store.MarkDelivered(ctx, id)
		if err != nil {
			d.logger.Error("outbox mark delivered failed", "event_id", evt.EventID, "error", err)
			continue
		}
		if !marked {
			d.logger.Warn("outbox entry already delivered", "event_id", evt.EventID)
		}
	}
}
