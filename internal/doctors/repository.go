package doctors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/pkg/logging"
)

// Repository defines the interface for doctor storage.
type Repository interface {
	List(ctx context.Context) ([]Doctor, error)
	Get(ctx context.Context, id int64) (*Doctor, error)
	Search(ctx context.Context, term string) ([]Doctor, error)
	Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error)
	Update(ctx context.Context, id int64, req *UpdateDoctorRequest) (*Doctor, error)
}

// LocalRepository serves the doctors collection from the local persistent
// store. Every mutation rewrites the whole collection and publishes a
// change event on the doctors feed.
type LocalRepository struct {
	store  *localstore.Store
	feed   events.Publisher
	logger *logging.Logger
}

// NewLocalRepository registers the doctors seed and returns the repository.
func NewLocalRepository(store *localstore.Store, feed events.Publisher, logger *logging.Logger) (*LocalRepository, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(events.CollectionDoctors, Seed(), SeedMaxID); err != nil {
		return nil, err
	}
	return &LocalRepository{store: store, feed: feed, logger: logger}, nil
}

func (r *LocalRepository) load(ctx context.Context) ([]Doctor, error) {
	payload, err := r.store.Load(ctx, events.CollectionDoctors)
	if err != nil {
		return nil, fmt.Errorf("doctors: load collection: %w", err)
	}
	var list []Doctor
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("doctors: decode collection: %w", err)
	}
	return list, nil
}

func (r *LocalRepository) save(ctx context.Context, list []Doctor) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("doctors: encode collection: %w", err)
	}
	if err := r.store.Save(ctx, events.CollectionDoctors, payload); err != nil {
		return fmt.Errorf("doctors: save collection: %w", err)
	}
	return nil
}

func (r *LocalRepository) publishChange(ctx context.Context) {
	if r.feed == nil {
		return
	}
	evt := events.ChangeEvent{Collection: events.CollectionDoctors}
	if err := r.feed.PublishChange(ctx, evt); err != nil {
		r.logger.Error("doctors: publish change failed", "error", err)
	}
}

func (r *LocalRepository) List(ctx context.Context) ([]Doctor, error) {
	return r.load(ctx)
}

func (r *LocalRepository) Get(ctx context.Context, id int64) (*Doctor, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *LocalRepository) Search(ctx context.Context, term string) ([]Doctor, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Doctor, 0, len(list))
	for _, d := range list {
		if d.matches(term) {
			results = append(results, d)
		}
	}
	return results, nil
}

func (r *LocalRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := r.store.NextID(ctx, events.CollectionDoctors)
	if err != nil {
		return nil, fmt.Errorf("doctors: allocate id: %w", err)
	}
	doc := Doctor{
		ID:              id,
		Name:            req.Name,
		Specialty:       req.Specialty,
		Hospital:        req.Hospital,
		Fee:             req.Fee,
		Location:        req.Location,
		Education:       req.Education,
		Experience:      req.Experience,
		ImageRef:        req.ImageRef,
		Online:          req.Online,
		Available:       req.Available,
		NextAvailableAt: req.NextAvailableAt,
	}
	list = append(list, doc)
	if err := r.save(ctx, list); err != nil {
		return nil, err
	}
	r.publishChange(ctx)
	return &doc, nil
}

func (r *LocalRepository) Update(ctx context.Context, id int64, req *UpdateDoctorRequest) (*Doctor, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		req.apply(&list[i])
		if err := r.save(ctx, list); err != nil {
			return nil, err
		}
		r.publishChange(ctx)
		updated := list[i]
		return &updated, nil
	}
	return nil, ErrDoctorNotFound
}
