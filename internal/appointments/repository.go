package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/pkg/logging"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Appointment, error)
	Get(ctx context.Context, id int64) (*Appointment, error)
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error)
}

// LocalRepository serves the appointments collection from the local
// persistent store. Mutations rewrite the whole collection and publish a
// scoped change event on the appointments feed.
type LocalRepository struct {
	store  *localstore.Store
	feed   events.Publisher
	logger *logging.Logger
}

// NewLocalRepository registers an empty appointments seed and returns the
// repository.
func NewLocalRepository(store *localstore.Store, feed events.Publisher, logger *logging.Logger) (*LocalRepository, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(events.CollectionAppointments, []Appointment{}, 0); err != nil {
		return nil, err
	}
	return &LocalRepository{store: store, feed: feed, logger: logger}, nil
}

func (r *LocalRepository) load(ctx context.Context) ([]Appointment, error) {
	payload, err := r.store.Load(ctx, events.CollectionAppointments)
	if err != nil {
		return nil, fmt.Errorf("appointments: load collection: %w", err)
	}
	var list []Appointment
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("appointments: decode collection: %w", err)
	}
	return list, nil
}

func (r *LocalRepository) save(ctx context.Context, list []Appointment) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("appointments: encode collection: %w", err)
	}
	if err := r.store.Save(ctx, events.CollectionAppointments, payload); err != nil {
		return fmt.Errorf("appointments: save collection: %w", err)
	}
	return nil
}

func publishChange(ctx context.Context, feed events.Publisher, logger *logging.Logger, appt *Appointment) {
	if feed == nil {
		return
	}
	evt := events.ChangeEvent{
		Collection: events.CollectionAppointments,
		Keys: map[string]string{
			"patient_id": appt.PatientID,
			"doctor_id":  strconv.FormatInt(appt.DoctorID, 10),
		},
	}
	if err := feed.PublishChange(ctx, evt); err != nil {
		logger.Error("appointments: publish change failed", "error", err)
	}
}

func (r *LocalRepository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Appointment, 0, len(list))
	for _, a := range list {
		if a.matches(filter) {
			results = append(results, a)
		}
	}
	return results, nil
}

func (r *LocalRepository) Get(ctx context.Context, id int64) (*Appointment, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *LocalRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := r.store.NextID(ctx, events.CollectionAppointments)
	if err != nil {
		return nil, fmt.Errorf("appointments: allocate id: %w", err)
	}
	created := *appt
	created.ID = id
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if err := r.save(ctx, append(list, created)); err != nil {
		return nil, err
	}
	publishChange(ctx, r.feed, r.logger, &created)
	return &created, nil
}

func (r *LocalRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Status = status
		if err := r.save(ctx, list); err != nil {
			return nil, err
		}
		updated := list[i]
		publishChange(ctx, r.feed, r.logger, &updated)
		return &updated, nil
	}
	return nil, ErrAppointmentNotFound
}
