package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediwrap/platform/internal/localstore"
)

// IdentityStore persists credential records.
type IdentityStore interface {
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	Create(ctx context.Context, identity *Identity) error
	Delete(ctx context.Context, id string) error
}

// ProfileStore persists user-facing profile records.
type ProfileStore interface {
	Get(ctx context.Context, identityID string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
}

const (
	identitiesCollection = "identities"
	profilesCollection   = "profiles"
)

// LocalIdentityStore keeps identities in the local persistent store.
type LocalIdentityStore struct {
	store *localstore.Store
}

// NewLocalIdentityStore registers the identities collection and returns a
// store over it. The seed is an empty list; accounts only exist once
// someone signs up.
func NewLocalIdentityStore(store *localstore.Store) (*LocalIdentityStore, error) {
	if err := store.RegisterSeed(identitiesCollection, []Identity{}, 0); err != nil {
		return nil, err
	}
	return &LocalIdentityStore{store: store}, nil
}

func (s *LocalIdentityStore) load(ctx context.Context) ([]Identity, error) {
	payload, err := s.store.Load(ctx, identitiesCollection)
	if err != nil {
		return nil, fmt.Errorf("session: load identities: %w", err)
	}
	var identities []Identity
	if err := json.Unmarshal(payload, &identities); err != nil {
		return nil, fmt.Errorf("session: decode identities: %w", err)
	}
	return identities, nil
}

func (s *LocalIdentityStore) save(ctx context.Context, identities []Identity) error {
	payload, err := json.Marshal(identities)
	if err != nil {
		return fmt.Errorf("session: encode identities: %w", err)
	}
	if err := s.store.Save(ctx, identitiesCollection, payload); err != nil {
		return fmt.Errorf("session: save identities: %w", err)
	}
	return nil
}

// GetByEmail returns the identity registered for an email address.
func (s *LocalIdentityStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	identities, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range identities {
		if identities[i].Email == email {
			return &identities[i], nil
		}
	}
	return nil, ErrIdentityNotFound
}

// Create appends a new identity record.
func (s *LocalIdentityStore) Create(ctx context.Context, identity *Identity) error {
	identities, err := s.load(ctx)
	if err != nil {
		return err
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	return s.save(ctx, append(identities, *identity))
}

// Delete removes an identity record. Missing records are not an error so
// compensation paths can call it unconditionally.
func (s *LocalIdentityStore) Delete(ctx context.Context, id string) error {
	identities, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := identities[:0]
	for _, identity := range identities {
		if identity.ID != id {
			kept = append(kept, identity)
		}
	}
	return s.save(ctx, kept)
}

// LocalProfileStore keeps profiles in the local persistent store.
type LocalProfileStore struct {
	store *localstore.Store
}

// NewLocalProfileStore registers the profiles collection and returns a
// store over it.
func NewLocalProfileStore(store *localstore.Store) (*LocalProfileStore, error) {
	if err := store.RegisterSeed(profilesCollection, []Profile{}, 0); err != nil {
		return nil, err
	}
	return &LocalProfileStore{store: store}, nil
}

func (s *LocalProfileStore) load(ctx context.Context) ([]Profile, error) {
	payload, err := s.store.Load(ctx, profilesCollection)
	if err != nil {
		return nil, fmt.Errorf("session: load profiles: %w", err)
	}
	var profiles []Profile
	if err := json.Unmarshal(payload, &profiles); err != nil {
		return nil, fmt.Errorf("session: decode profiles: %w", err)
	}
	return profiles, nil
}

// Get returns the profile joined to an identity.
func (s *LocalProfileStore) Get(ctx context.Context, identityID string) (*Profile, error) {
	profiles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].IdentityID == identityID {
			return &profiles[i], nil
		}
	}
	return nil, ErrProfileNotFound
}

// Create appends a new profile record.
func (s *LocalProfileStore) Create(ctx context.Context, profile *Profile) error {
	profiles, err := s.load(ctx)
	if err != nil {
		return err
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(append(profiles, *profile))
	if err != nil {
		return fmt.Errorf("session: encode profiles: %w", err)
	}
	if err := s.store.Save(ctx, profilesCollection, payload); err != nil {
		return fmt.Errorf("session: save profiles: %w", err)
	}
	return nil
}
