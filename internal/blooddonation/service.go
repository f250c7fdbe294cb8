package blooddonation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

const (
	donorsCollection   = "blood-donors"
	centersCollection  = "blood-centers"
	requestsCollection = "blood-requests"
)

// Service owns donor registration, the donation center directory, and
// open blood requests.
type Service struct {
	store    *localstore.Store
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewService registers the blood donation collections and returns the
// service. notifier may be nil.
func NewService(store *localstore.Store, notifier notify.Notifier, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(donorsCollection, []Donor{}, 0); err != nil {
		return nil, err
	}
	if err := store.RegisterSeed(centersCollection, SeedCenters(), seedCentersMaxID); err != nil {
		return nil, err
	}
	if err := store.RegisterSeed(requestsCollection, SeedRequests(), seedRequestsMaxID); err != nil {
		return nil, err
	}
	return &Service{store: store, notifier: notifier, logger: logger}, nil
}

func load[T any](ctx context.Context, store *localstore.Store, collection string) ([]T, error) {
	payload, err := store.Load(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("blooddonation: load %s: %w", collection, err)
	}
	var list []T
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("blooddonation: decode %s: %w", collection, err)
	}
	return list, nil
}

func save[T any](ctx context.Context, store *localstore.Store, collection string, list []T) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("blooddonation: encode %s: %w", collection, err)
	}
	if err := store.Save(ctx, collection, payload); err != nil {
		return fmt.Errorf("blooddonation: save %s: %w", collection, err)
	}
	return nil
}

// RegisterDonor validates and stores a donor record bound to the
// session's identity.
func (s *Service) RegisterDonor(ctx context.Context, sess *session.Session, req *RegisterDonorRequest) (*Donor, error) {
	bloodType, err := req.Validate()
	if err != nil {
		return nil, err
	}
	donors, err := load[Donor](ctx, s.store, donorsCollection)
	if err != nil {
		return nil, err
	}
	id, err := s.store.NextID(ctx, donorsCollection)
	if err != nil {
		return nil, fmt.Errorf("blooddonation: allocate id: %w", err)
	}
	donor := Donor{
		ID:           id,
		Name:         req.Name,
		BloodType:    bloodType,
		Phone:        req.Phone,
		City:         req.City,
		LastDonation: req.LastDonation,
		RegisteredAt: time.Now().UTC(),
	}
	if sess != nil {
		donor.IdentityID = sess.IdentityID
	}
	if err := save(ctx, s.store, donorsCollection, append(donors, donor)); err != nil {
		if s.notifier != nil && donor.IdentityID != "" {
			s.notifier.Publish(ctx, donor.IdentityID, notify.Destructive("Registration failed", "Your donor registration could not be saved"))
		}
		return nil, err
	}

	s.logger.Info("donor registered", "donor_id", donor.ID, "blood_type", string(donor.BloodType))
	if s.notifier != nil && donor.IdentityID != "" {
		s.notifier.Publish(ctx, donor.IdentityID,
			notify.Info("Donor registration complete", fmt.Sprintf("You are registered as a %s donor", donor.BloodType)))
	}
	return &donor, nil
}

// ListDonors returns registered donors, optionally narrowed to one blood
// type.
func (s *Service) ListDonors(ctx context.Context, rawType string) ([]Donor, error) {
	donors, err := load[Donor](ctx, s.store, donorsCollection)
	if err != nil {
		return nil, err
	}
	if rawType == "" {
		return donors, nil
	}
	bloodType, err := ParseBloodType(rawType)
	if err != nil {
		return nil, err
	}
	matching := make([]Donor, 0, len(donors))
	for _, d := range donors {
		if d.BloodType == bloodType {
			matching = append(matching, d)
		}
	}
	return matching, nil
}

// ListCenters returns the donation center directory.
func (s *Service) ListCenters(ctx context.Context) ([]Center, error) {
	return load[Center](ctx, s.store, centersCollection)
}

// ListRequests returns open blood requests.
func (s *Service) ListRequests(ctx context.Context) ([]Request, error) {
	return load[Request](ctx, s.store, requestsCollection)
}

// NotifyMe subscribes the session's identity to a blood request; a
// notification confirms the subscription.
func (s *Service) NotifyMe(ctx context.Context, sess *session.Session, requestID int64) (*Request, error) {
	requests, err := load[Request](ctx, s.store, requestsCollection)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ID != requestID {
			continue
		}
		for _, id := range requests[i].NotifyIDs {
			if id == sess.IdentityID {
				updated := requests[i]
				return &updated, nil
			}
		}
		requests[i].NotifyIDs = append(requests[i].NotifyIDs, sess.IdentityID)
		if err := save(ctx, s.store, requestsCollection, requests); err != nil {
			return nil, err
		}
		updated := requests[i]

		if s.notifier != nil {
			s.notifier.Publish(ctx, sess.IdentityID,
				notify.Info("You're on the list", fmt.Sprintf("We'll reach out about the %s request at %s", updated.BloodType, updated.Hospital)))
		}
		return &updated, nil
	}
	return nil, ErrRequestNotFound
}
