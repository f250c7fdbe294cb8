package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/mediwrap/platform/internal/appointments"
	"github.com/mediwrap/platform/internal/localstore"
)

// requestLatencyMetric is the histogram family the dashboard summarizes.
// It is registered by the observability package and labeled by route and
// status class.
const requestLatencyMetric = "mediwrap_http_request_duration_seconds"

// Stats is the admin dashboard payload.
type Stats struct {
	Doctors        int64            `json:"doctors"`
	Products       int64            `json:"products"`
	Users          int64            `json:"users"`
	Appointments   int64            `json:"appointments"`
	ByStatus       map[string]int64 `json:"appointments_by_status"`
	RequestLatency LatencySnapshot  `json:"request_latency"`
}

// LatencySnapshot summarizes the request duration histogram at gather
// time.
type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// StatsSource counts platform records for the dashboard.
type StatsSource interface {
	Counts(ctx context.Context) (Stats, error)
}

// LocalStatsSource builds counts from the local persistent store by
// decoding each collection wholesale.
type LocalStatsSource struct {
	store *localstore.Store
}

func NewLocalStatsSource(store *localstore.Store) *LocalStatsSource {
	return &LocalStatsSource{store: store}
}

func (s *LocalStatsSource) collectionLen(ctx context.Context, collection string) (int64, error) {
	payload, err := s.store.Load(ctx, collection)
	if err != nil {
		if errors.Is(err, localstore.ErrUnknownCollection) {
			return 0, nil
		}
		return 0, fmt.Errorf("admin stats: load %s: %w", collection, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return 0, fmt.Errorf("admin stats: decode %s: %w", collection, err)
	}
	return int64(len(records)), nil
}

func (s *LocalStatsSource) Counts(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: map[string]int64{}}

	var err error
	if stats.Doctors, err = s.collectionLen(ctx, "doctors"); err != nil {
		return Stats{}, err
	}
	if stats.Products, err = s.collectionLen(ctx, "products"); err != nil {
		return Stats{}, err
	}
	if stats.Users, err = s.collectionLen(ctx, "profiles"); err != nil {
		return Stats{}, err
	}

	payload, err := s.store.Load(ctx, "appointments")
	if err != nil {
		if errors.Is(err, localstore.ErrUnknownCollection) {
			return stats, nil
		}
		return Stats{}, fmt.Errorf("admin stats: load appointments: %w", err)
	}
	var appts []appointments.Appointment
	if err := json.Unmarshal(payload, &appts); err != nil {
		return Stats{}, fmt.Errorf("admin stats: decode appointments: %w", err)
	}
	stats.Appointments = int64(len(appts))
	for _, appt := range appts {
		stats.ByStatus[string(appt.Status)]++
	}
	return stats, nil
}

type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStatsSource counts records straight from the tables.
type PostgresStatsSource struct {
	db statsDB
}

func NewPostgresStatsSource(db statsDB) *PostgresStatsSource {
	return &PostgresStatsSource{db: db}
}

func (s *PostgresStatsSource) Counts(ctx context.Context) (Stats, error) {
	query := `
		SELECT 'doctors' AS kind, '' AS status, COUNT(*) FROM doctors
		UNION ALL
		SELECT 'products', '', COUNT(*) FROM products
		UNION ALL
		SELECT 'profiles', '', COUNT(*) FROM profiles
		UNION ALL
		SELECT 'appointments', status, COUNT(*) FROM appointments GROUP BY status
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return Stats{}, fmt.Errorf("admin stats: query counts: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByStatus: map[string]int64{}}
	for rows.Next() {
		var kind, status string
		var count int64
		if err := rows.Scan(&kind, &status, &count); err != nil {
			return Stats{}, fmt.Errorf("admin stats: scan counts: %w", err)
		}
		switch kind {
		case "doctors":
			stats.Doctors = count
		case "products":
			stats.Products = count
		case "profiles":
			stats.Users = count
		case "appointments":
			stats.Appointments += count
			stats.ByStatus[status] = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("admin stats: iterate counts: %w", err)
	}
	return stats, nil
}

func snapshotRequestLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == requestLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	// Aggregate across routes and status classes.
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		if math.IsInf(upper, 1) {
			overflow := int64(0)
			if cum >= prev {
				overflow = int64(cum - prev)
			} else {
				overflow = int64(cum)
			}
			if overflow > 0 {
				buckets = append(buckets, LatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     fmt.Sprintf(">%gs", lastFiniteUpper),
					Count:     overflow,
				})
			}
			prev = cum
			continue
		}

		lastFiniteUpper = upper
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		} else {
			count = int64(cum)
		}
		buckets = append(buckets, LatencyBucket{
			LeSeconds: upper,
			Count:     count,
		})
		prev = cum
	}

	p90 := histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper)
	p95 := histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper)

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   p90 * 1000.0,
		P95Ms:   p95 * 1000.0,
		Buckets: buckets,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}

	return uppers[len(uppers)-1]
}
