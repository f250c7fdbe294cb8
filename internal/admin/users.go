package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/session"
)

// UserDirectory lists and searches user profiles for the admin panel.
type UserDirectory interface {
	List(ctx context.Context) ([]session.Profile, error)
	Search(ctx context.Context, term string) ([]session.Profile, error)
}

// LocalUserDirectory reads the profiles collection from the local
// persistent store.
type LocalUserDirectory struct {
	store *localstore.Store
}

// NewLocalUserDirectory creates a directory over the local store. The
// profiles collection itself is registered by the session stores.
func NewLocalUserDirectory(store *localstore.Store) *LocalUserDirectory {
	return &LocalUserDirectory{store: store}
}

func (d *LocalUserDirectory) load(ctx context.Context) ([]session.Profile, error) {
	payload, err := d.store.Load(ctx, "profiles")
	if err != nil {
		return nil, fmt.Errorf("admin: load profiles: %w", err)
	}
	var profiles []session.Profile
	if err := json.Unmarshal(payload, &profiles); err != nil {
		return nil, fmt.Errorf("admin: decode profiles: %w", err)
	}
	return profiles, nil
}

// List returns every profile.
func (d *LocalUserDirectory) List(ctx context.Context) ([]session.Profile, error) {
	return d.load(ctx)
}

// Search matches a case-insensitive substring against name and email.
func (d *LocalUserDirectory) Search(ctx context.Context, term string) ([]session.Profile, error) {
	profiles, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return profiles, nil
	}
	term = strings.ToLower(term)
	matching := make([]session.Profile, 0, len(profiles))
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Email), term) {
			matching = append(matching, p)
		}
	}
	return matching, nil
}

// PostgresUserDirectory reads profiles from the remote row store.
type PostgresUserDirectory struct {
	db interface {
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	}
}

// NewPostgresUserDirectory creates a directory backed by pgx.
func NewPostgresUserDirectory(db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

func (d *PostgresUserDirectory) query(ctx context.Context, sql string, args ...any) ([]session.Profile, error) {
	rows, err := d.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("admin: query profiles: %w", err)
	}
	defer rows.Close()
	var profiles []session.Profile
	for rows.Next() {
		var p session.Profile
		if err := rows.Scan(&p.IdentityID, &p.Email, &p.Name, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("admin: scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// List returns every profile ordered by creation time.
func (d *PostgresUserDirectory) List(ctx context.Context) ([]session.Profile, error) {
	return d.query(ctx, `SELECT identity_id, email, name, role, created_at FROM profiles ORDER BY created_at`)
}

// Search matches name or email case-insensitively.
func (d *PostgresUserDirectory) Search(ctx context.Context, term string) ([]session.Profile, error) {
	return d.query(ctx,
		`SELECT identity_id, email, name, role, created_at FROM profiles WHERE name ILIKE $1 OR email ILIKE $1 ORDER BY created_at`,
		"%"+term+"%")
}
