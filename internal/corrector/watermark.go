package corrector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onnwee/lodestone/internal/tracing"
)

// WatermarkStore persists the exclusive processing watermark: the
// point up to which ledger events have already been consumed by the
// corrector. Events at or before the watermark are never re-read, which
// is what makes overlapping correction windows safe to schedule.
type WatermarkStore interface {
	// Watermark returns the current watermark, or the zero time when no
	// run has completed yet.
	Watermark(ctx context.Context) (time.Time, error)

	// SetWatermark advances the watermark. Implementations must never
	// move it backward.
	SetWatermark(ctx context.Context, t time.Time) error
}

// MemoryWatermarkStore is an in-memory WatermarkStore for tests and
// single-process deployments.
type MemoryWatermarkStore struct {
	mu        sync.Mutex
	watermark time.Time
}

// NewMemoryWatermarkStore creates an empty in-memory watermark store.
func NewMemoryWatermarkStore() *MemoryWatermarkStore {
	return &MemoryWatermarkStore{}
}

// Watermark returns the current watermark.
func (s *MemoryWatermarkStore) Watermark(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark, nil
}

// SetWatermark advances the watermark; earlier values are ignored.
func (s *MemoryWatermarkStore) SetWatermark(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.watermark) {
		s.watermark = t
	}
	return nil
}

// PostgresWatermarkStore persists the watermark in a single upserted
// row keyed by job name.
type PostgresWatermarkStore struct {
	db *sql.DB
}

// NewPostgresWatermarkStore creates a PostgreSQL-backed watermark store.
func NewPostgresWatermarkStore(db *sql.DB) *PostgresWatermarkStore {
	return &PostgresWatermarkStore{db: db}
}

// Watermark returns the current watermark for the correction job.
func (s *PostgresWatermarkStore) Watermark(ctx context.Context) (t time.Time, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "correction_watermarks", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	err = s.db.QueryRowContext(ctx,
		`SELECT watermark FROM correction_watermarks WHERE job_name = $1`, JobType,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to load correction watermark: %w", err)
	}
	return t, nil
}

// SetWatermark upserts the watermark, keeping the greatest value so a
// stale writer can never move it backward.
func (s *PostgresWatermarkStore) SetWatermark(ctx context.Context, t time.Time) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "correction_watermarks", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO correction_watermarks (job_name, watermark)
		VALUES ($1, $2)
		ON CONFLICT (job_name)
		DO UPDATE SET watermark = GREATEST(correction_watermarks.watermark, EXCLUDED.watermark)`,
		JobType, t)
	if err != nil {
		return fmt.Errorf("failed to save correction watermark: %w", err)
	}
	return nil
}
