package products

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/pkg/logging"
)

// Repository defines the interface for product storage.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Add(ctx context.Context, req *AddProductRequest) (*Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) (*Product, error)
}

// LocalRepository serves the products collection from the local persistent
// store. Mutations rewrite the whole collection and publish a change
// event on the products feed.
type LocalRepository struct {
	store  *localstore.Store
	feed   events.Publisher
	logger *logging.Logger
}

// NewLocalRepository registers the products seed and returns the repository.
func NewLocalRepository(store *localstore.Store, feed events.Publisher, logger *logging.Logger) (*LocalRepository, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(events.CollectionProducts, Seed(), SeedMaxID); err != nil {
		return nil, err
	}
	return &LocalRepository{store: store, feed: feed, logger: logger}, nil
}

func (r *LocalRepository) load(ctx context.Context) ([]Product, error) {
	payload, err := r.store.Load(ctx, events.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("products: load collection: %w", err)
	}
	var list []Product
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("products: decode collection: %w", err)
	}
	return list, nil
}

func (r *LocalRepository) save(ctx context.Context, list []Product) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("products: encode collection: %w", err)
	}
	if err := r.store.Save(ctx, events.CollectionProducts, payload); err != nil {
		return fmt.Errorf("products: save collection: %w", err)
	}
	return nil
}

func (r *LocalRepository) publishChange(ctx context.Context) {
	if r.feed == nil {
		return
	}
	evt := events.ChangeEvent{Collection: events.CollectionProducts}
	if err := r.feed.PublishChange(ctx, evt); err != nil {
		r.logger.Error("products: publish change failed", "error", err)
	}
}

func (r *LocalRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Product, 0, len(list))
	for _, p := range list {
		if p.matches(filter) {
			results = append(results, p)
		}
	}
	return results, nil
}

func (r *LocalRepository) Get(ctx context.Context, id int64) (*Product, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *LocalRepository) Add(ctx context.Context, req *AddProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := r.store.NextID(ctx, events.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("products: allocate id: %w", err)
	}
	product := Product{
		ID:                   id,
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Price:                req.Price,
		ImageRef:             req.ImageRef,
		RequiresPrescription: req.RequiresPrescription,
		Stock:                req.Stock,
	}
	if err := r.save(ctx, append(list, product)); err != nil {
		return nil, err
	}
	r.publishChange(ctx)
	return &product, nil
}

func (r *LocalRepository) UpdateStock(ctx context.Context, id int64, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Stock = stock
		if err := r.save(ctx, list); err != nil {
			return nil, err
		}
		r.publishChange(ctx)
		updated := list[i]
		return &updated, nil
	}
	return nil, ErrProductNotFound
}
