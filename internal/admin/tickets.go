package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/pkg/logging"
)

// TicketStatus is the support ticket lifecycle state.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketClosed     TicketStatus = "closed"
)

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case TicketOpen:
		return TicketOpen, nil
	case TicketInProgress:
		return TicketInProgress, nil
	case TicketClosed:
		return TicketClosed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTicketStatus, raw)
	}
}

// allowedTransitions encodes the ticket state machine: tickets move
// forward through in_progress to closed, and a closed ticket can only be
// reopened, never worked directly.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:       {TicketInProgress, TicketClosed},
	TicketInProgress: {TicketOpen, TicketClosed},
	TicketClosed:     {TicketOpen},
}

func transitionAllowed(from, to TicketStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Ticket is a support request raised by a user.
type Ticket struct {
	ID         int64        `json:"id"`
	Subject    string       `json:"subject"`
	Body       string       `json:"body,omitempty"`
	FromName   string       `json:"from_name"`
	FromEmail  string       `json:"from_email"`
	IdentityID string       `json:"identity_id,omitempty"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

var (
	// ErrTicketNotFound is returned when a ticket id does not exist.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrInvalidTicketStatus is returned for strings outside the known set.
	ErrInvalidTicketStatus = errors.New("invalid ticket status")

	// ErrInvalidTransition is returned when the state machine forbids the
	// requested move.
	ErrInvalidTransition = errors.New("ticket status transition not allowed")

	// ErrInvalidSubject is returned when the subject is missing.
	ErrInvalidSubject = errors.New("subject is required")
)

const ticketsCollection = "support-tickets"

// seedTickets is the first-run bootstrap dataset.
func seedTickets() []Ticket {
	created := time.Date(2025, 1, 17, 9, 30, 0, 0, time.UTC)
	return []Ticket{
		{
			ID:        1,
			Subject:   "Cannot reschedule my appointment",
			Body:      "The reschedule button does nothing on my confirmed appointment.",
			FromName:  "James P.",
			FromEmail: "james.p@example.com",
			Status:    TicketOpen,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:        2,
			Subject:   "Prescription upload fails",
			Body:      "Uploading a prescription photo errors out every time.",
			FromName:  "Maria K.",
			FromEmail: "maria.k@example.com",
			Status:    TicketInProgress,
			CreatedAt: created.Add(26 * time.Hour),
			UpdatedAt: created.Add(30 * time.Hour),
		},
	}
}

const seedTicketsMaxID = 2

// TicketStore persists support tickets in the local persistent store.
type TicketStore struct {
	store  *localstore.Store
	logger *logging.Logger
}

// NewTicketStore registers the tickets seed and returns the store.
func NewTicketStore(store *localstore.Store, logger *logging.Logger) (*TicketStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(ticketsCollection, seedTickets(), seedTicketsMaxID); err != nil {
		return nil, err
	}
	return &TicketStore{store: store, logger: logger}, nil
}

func (s *TicketStore) load(ctx context.Context) ([]Ticket, error) {
	payload, err := s.store.Load(ctx, ticketsCollection)
	if err != nil {
		return nil, fmt.Errorf("admin: load tickets: %w", err)
	}
	var tickets []Ticket
	if err := json.Unmarshal(payload, &tickets); err != nil {
		return nil, fmt.Errorf("admin: decode tickets: %w", err)
	}
	return tickets, nil
}

func (s *TicketStore) save(ctx context.Context, tickets []Ticket) error {
	payload, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("admin: encode tickets: %w", err)
	}
	if err := s.store.Save(ctx, ticketsCollection, payload); err != nil {
		return fmt.Errorf("admin: save tickets: %w", err)
	}
	return nil
}

// List returns tickets, optionally narrowed to one status.
func (s *TicketStore) List(ctx context.Context, rawStatus string) ([]Ticket, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if rawStatus == "" {
		return tickets, nil
	}
	status, err := ParseTicketStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	matching := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == status {
			matching = append(matching, t)
		}
	}
	return matching, nil
}

// Create opens a new ticket.
func (s *TicketStore) Create(ctx context.Context, t Ticket) (*Ticket, error) {
	if strings.TrimSpace(t.Subject) == "" {
		return nil, ErrInvalidSubject
	}
	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.store.NextID(ctx, ticketsCollection)
	if err != nil {
		return nil, fmt.Errorf("admin: allocate ticket id: %w", err)
	}
	t.ID = id
	t.Status = TicketOpen
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.save(ctx, append(tickets, t)); err != nil {
		return nil, err
	}
	s.logger.Info("support ticket opened", "ticket_id", t.ID, "subject", t.Subject)
	return &t, nil
}

// Transition moves a ticket through the state machine.
func (s *TicketStore) Transition(ctx context.Context, id int64, rawStatus string) (*Ticket, error) {
	to, err := ParseTicketStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if !transitionAllowed(tickets[i].Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tickets[i].Status, to)
		}
		tickets[i].Status = to
		tickets[i].UpdatedAt = time.Now().UTC()
		if err := s.save(ctx, tickets); err != nil {
			return nil, err
		}
		updated := tickets[i]
		s.logger.Info("support ticket moved", "ticket_id", id, "status", string(to))
		return &updated, nil
	}
	return nil, ErrTicketNotFound
}
