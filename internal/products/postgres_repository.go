package products

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

// PostgresRepository stores products in the remote row store.
type PostgresRepository struct {
	db     DB
	feed   events.Publisher
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB, feed events.Publisher, logger *logging.Logger) *PostgresRepository {
	if db == nil {
		panic("products: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, feed: feed, logger: logger}
}

const productColumns = `id, name, description, category, price, image_ref, requires_prescription, stock, rating, review_count`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ImageRef,
		&p.RequiresPrescription,
		&p.Stock,
		&p.Rating,
		&p.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var list []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("products: scan row: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) publishChange(ctx context.Context) {
	if r.feed == nil {
		return
	}
	evt := events.ChangeEvent{Collection: events.CollectionProducts}
	if err := r.feed.PublishChange(ctx, evt); err != nil {
		r.logger.Error("products: publish change failed", "error", err)
	}
}

// List returns the catalog, optionally narrowed by category and a search
// term matched against name and description.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category ILIKE $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, filter.Category, filter.Term)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return r.collect(rows)
}

// Get fetches one product by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

// Add inserts a new catalog row.
func (r *PostgresRepository) Add(ctx context.Context, req *AddProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO products (name, description, category, price, image_ref, requires_prescription, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, rating, review_count
	`
	product := Product{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Price:                req.Price,
		ImageRef:             req.ImageRef,
		RequiresPrescription: req.RequiresPrescription,
		Stock:                req.Stock,
	}
	err := r.db.QueryRow(ctx, query,
		req.Name,
		req.Description,
		req.Category,
		req.Price,
		req.ImageRef,
		req.RequiresPrescription,
		req.Stock,
	).Scan(&product.ID, &product.Rating, &product.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("products: insert: %w", err)
	}
	r.publishChange(ctx)
	return &product, nil
}

// UpdateStock sets the stock level for a product.
func (r *PostgresRepository) UpdateStock(ctx context.Context, id int64, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	query := `UPDATE products SET stock = $2 WHERE id = $1`
	ct, err := r.db.Exec(ctx, query, id, stock)
	if err != nil {
		return nil, fmt.Errorf("products: update stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrProductNotFound
	}
	r.publishChange(ctx)
	return r.Get(ctx, id)
}
