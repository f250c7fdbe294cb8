package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/pkg/logging"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores doctors in the remote row store.
type PostgresRepository struct {
	db     DB
	feed   events.Publisher
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB, feed events.Publisher, logger *logging.Logger) *PostgresRepository {
	if db == nil {
		panic("doctors: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, feed: feed, logger: logger}
}

const doctorColumns = `id, name, specialty, hospital, rating, review_count, fee, location, education, experience, image_ref, online, available, next_available_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Hospital,
		&d.Rating,
		&d.ReviewCount,
		&d.Fee,
		&d.Location,
		&d.Education,
		&d.Experience,
		&d.ImageRef,
		&d.Online,
		&d.Available,
		&d.NextAvailableAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresRepository) collect(rows pgx.Rows) ([]Doctor, error) {
	defer rows.Close()
	var list []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan row: %w", err)
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) publishChange(ctx context.Context) {
	if r.feed == nil {
		return
	}
	evt := events.ChangeEvent{Collection: events.CollectionDoctors}
	if err := r.feed.PublishChange(ctx, evt); err != nil {
		r.logger.Error("doctors: publish change failed", "error", err)
	}
}

// List returns all doctors ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	return r.collect(rows)
}

// Get fetches one doctor by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	d, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctors: get: %w", err)
	}
	return d, nil
}

// Search matches the term case-insensitively against name, specialty, or
// hospital as a substring.
func (r *PostgresRepository) Search(ctx context.Context, term string) ([]Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE name ILIKE $1 OR specialty ILIKE $1 OR hospital ILIKE $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("doctors: search: %w", err)
	}
	return r.collect(rows)
}

// Create inserts a new doctor row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO doctors (name, specialty, hospital, fee, location, education, experience, image_ref, online, available, next_available_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, rating, review_count
	`
	doc := Doctor{
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
	err := r.db.QueryRow(ctx, query,
		req.Name,
		req.Specialty,
		req.Hospital,
		req.Fee,
		req.Location,
		req.Education,
		req.Experience,
		req.ImageRef,
		req.Online,
		req.Available,
		req.NextAvailableAt,
	).Scan(&doc.ID, &doc.Rating, &doc.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("doctors: insert: %w", err)
	}
	r.publishChange(ctx)
	return &doc, nil
}

// Update applies a partial update and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, id int64, req *UpdateDoctorRequest) (*Doctor, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(current)

	query := `
		UPDATE doctors
		SET name = $2, specialty = $3, hospital = $4, fee = $5, location = $6,
		    education = $7, experience = $8, image_ref = $9, online = $10,
		    available = $11, next_available_at = $12
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query,
		id,
		current.Name,
		current.Specialty,
		current.Hospital,
		current.Fee,
		current.Location,
		current.Education,
		current.Experience,
		current.ImageRef,
		current.Online,
		current.Available,
		current.NextAvailableAt,
	)
	if err != nil {
		return nil, fmt.Errorf("doctors: update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrDoctorNotFound
	}
	r.publishChange(ctx)
	return current, nil
}
