package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool this package uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresIdentityStore keeps identities in Postgres.
type PostgresIdentityStore struct {
	db DB
}

// NewPostgresIdentityStore creates an identity store backed by Postgres.
func NewPostgresIdentityStore(db DB) *PostgresIdentityStore {
	return &PostgresIdentityStore{db: db}
}

// GetByEmail returns the identity registered for an email address.
func (s *PostgresIdentityStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	query := `SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`
	var identity Identity
	err := s.db.QueryRow(ctx, query, email).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return &identity, nil
}

// Create inserts a new identity record.
func (s *PostgresIdentityStore) Create(ctx context.Context, identity *Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO identities (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.Exec(ctx, query, identity.ID, identity.Email, identity.PasswordHash, identity.CreatedAt); err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// Delete removes an identity record. Missing records are not an error.
func (s *PostgresIdentityStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// PostgresProfileStore keeps profiles in Postgres.
type PostgresProfileStore struct {
	db DB
}

// NewPostgresProfileStore creates a profile store backed by Postgres.
func NewPostgresProfileStore(db DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

// Get returns the profile joined to an identity.
func (s *PostgresProfileStore) Get(ctx context.Context, identityID string) (*Profile, error) {
	query := `SELECT identity_id, email, name, role, created_at FROM profiles WHERE identity_id = $1`
	var profile Profile
	err := s.db.QueryRow(ctx, query, identityID).Scan(&profile.IdentityID, &profile.Email, &profile.Name, &profile.Role, &profile.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &profile, nil
}

// Create inserts a new profile record.
func (s *PostgresProfileStore) Create(ctx context.Context, profile *Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO profiles (identity_id, email, name, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.Exec(ctx, query, profile.IdentityID, profile.Email, profile.Name, profile.Role, profile.CreatedAt); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}
