package appointments

import (
	"context"
	"sync"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/pkg/logging"
)

// Feed is the change-feed surface the view subscribes to. *events.Bus
// satisfies it.
type Feed interface {
	Subscribe(ctx context.Context, collection string, filter map[string]string) *events.Subscription
}

// View is a live, filtered appointment list. Confirmed mutations are
// folded in by id. A pushed change event triggers an unconditional full
// refetch of the list: events carry no payload, so there is nothing to
// merge incrementally.
type View struct {
	repo   Repository
	feed   Feed
	filter Filter
	logger *logging.Logger

	mu   sync.RWMutex
	list []Appointment

	closeOnce sync.Once
	sub       *events.Subscription
}

// NewView creates a view over the filtered appointment list.
func NewView(repo Repository, feed Feed, filter Filter, logger *logging.Logger) *View {
	if logger == nil {
		logger = logging.Default()
	}
	return &View{repo: repo, feed: feed, filter: filter, logger: logger}
}

func (v *View) feedFilter() map[string]string {
	if v.filter.PatientID != "" {
		return map[string]string{"patient_id": v.filter.PatientID}
	}
	return nil
}

// Start performs the initial fetch and begins following the feed. It
// returns once the initial list is loaded.
func (v *View) Start(ctx context.Context) error {
	if err := v.refetch(ctx); err != nil {
		return err
	}
	if v.feed == nil {
		return nil
	}

	sub := v.feed.Subscribe(ctx, events.CollectionAppointments, v.feedFilter())
	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()

	go func() {
		for range sub.C {
			if err := v.refetch(ctx); err != nil {
				v.logger.Error("appointments view: refetch failed", "error", err)
			}
		}
	}()
	return nil
}

func (v *View) refetch(ctx context.Context) error {
	list, err := v.repo.List(ctx, v.filter)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.list = list
	v.mu.Unlock()
	return nil
}

// Snapshot returns the current list copy.
func (v *View) Snapshot() []Appointment {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Appointment, len(v.list))
	copy(out, v.list)
	return out
}

// Apply folds one confirmed mutation into the list: a matching id is
// replaced in place, an unknown id is prepended. Entries that no longer
// match the filter are dropped.
func (v *View) Apply(appt Appointment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !appt.matches(v.filter) {
		kept := v.list[:0]
		for _, a := range v.list {
			if a.ID != appt.ID {
				kept = append(kept, a)
			}
		}
		v.list = kept
		return
	}
	for i := range v.list {
		if v.list[i].ID == appt.ID {
			v.list[i] = appt
			return
		}
	}
	v.list = append([]Appointment{appt}, v.list...)
}

// Close stops following the feed.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.mu.RLock()
		sub := v.sub
		v.mu.RUnlock()
		if sub != nil {
			sub.Close()
		}
	})
}
