package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// PostgresRepository stores appointments in the remote row store.
type PostgresRepository struct {
	db     DB
	feed   events.Publisher
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB, feed events.Publisher, logger *logging.Logger) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, feed: feed, logger: logger}
}

const apptColumns = `id, doctor_id, doctor_name, patient_id, patient_name, date, time, type, status, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.DoctorName,
		&a.PatientID,
		&a.PatientName,
		&a.Date,
		&a.Time,
		&a.Type,
		&a.Status,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) collect(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var list []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan row: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// List returns appointments narrowed by the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments
		WHERE ($1 = '' OR patient_id = $1)
		  AND ($2 = 0 OR doctor_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, filter.PatientID, filter.DoctorID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return r.collect(rows)
}

// Get fetches one appointment by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	created := *appt
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO appointments (doctor_id, doctor_name, patient_id, patient_name, date, time, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		created.DoctorID,
		created.DoctorName,
		created.PatientID,
		created.PatientName,
		created.Date,
		created.Time,
		string(created.Type),
		string(created.Status),
		created.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	publishChange(ctx, r.feed, r.logger, &created)
	return &created, nil
}

// UpdateStatus sets the status and returns the updated row.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	query := `UPDATE appointments SET status = $2 WHERE id = $1`
	ct, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}
	updated, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	publishChange(ctx, r.feed, r.logger, updated)
	return updated, nil
}
