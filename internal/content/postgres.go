package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/onnwee/lodestone/internal/tracing"
)

// PostgresStore implements Store using PostgreSQL. Counter mutations
// are single-statement relative adjustments so concurrent online
// increments and batch corrections never lose updates.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed content store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Create inserts a new content record.
func (s *PostgresStore) Create(ctx context.Context, rec *Record) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_records", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	lastActive := rec.LastActive
	if lastActive.IsZero() {
		lastActive = createdAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_records (
			id, content_type,
			trust_grade, accuracy_grade, relevance_grade,
			view_count, like_count, impressions, clicks, comment_count, report_count,
			content_length, readability_score,
			title, description, tags,
			created_at, last_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, string(rec.Type),
		string(rec.TrustGrade), string(rec.AccuracyGrade), string(rec.RelevanceGrade),
		rec.ViewCount, rec.LikeCount, rec.Impressions, rec.Clicks, rec.CommentCount, rec.ReportCount,
		rec.ContentLength, rec.ReadabilityScore,
		rec.Title, rec.Description, pq.Array(rec.Tags),
		createdAt, lastActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrRecordExists
		}
		return fmt.Errorf("failed to insert content record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (rec *Record, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_records", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rec = &Record{}
	var contentType, trustGrade, accuracyGrade, relevanceGrade string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, content_type,
			trust_grade, accuracy_grade, relevance_grade,
			view_count, like_count, impressions, clicks, comment_count, report_count,
			content_length, readability_score,
			title, description, tags,
			created_at, last_active
		FROM content_records
		WHERE id = $1`, id,
	).Scan(
		&rec.ID, &contentType,
		&trustGrade, &accuracyGrade, &relevanceGrade,
		&rec.ViewCount, &rec.LikeCount, &rec.Impressions, &rec.Clicks, &rec.CommentCount, &rec.ReportCount,
		&rec.ContentLength, &rec.ReadabilityScore,
		&rec.Title, &rec.Description, pq.Array(&rec.Tags),
		&rec.CreatedAt, &rec.LastActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load content record: %w", err)
	}

	rec.Type = ContentType(contentType)
	rec.TrustGrade = Grade(trustGrade)
	rec.AccuracyGrade = Grade(accuracyGrade)
	rec.RelevanceGrade = Grade(relevanceGrade)
	return rec, nil
}

// IncrementClicks atomically adds one to the record's click counter.
func (s *PostgresStore) IncrementClicks(ctx context.Context, id string) error {
	return s.increment(ctx, id, "clicks")
}

// IncrementImpressions atomically adds one to the record's impressions.
func (s *PostgresStore) IncrementImpressions(ctx context.Context, id string) error {
	return s.increment(ctx, id, "impressions")
}

// increment applies a single-round-trip relative increment. The column
// name is restricted to known counters; it is never caller-supplied.
func (s *PostgresStore) increment(ctx context.Context, id, column string) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_records", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE content_records SET %s = %s + 1 WHERE id = $1`, column, column), id)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ApplyCorrection applies both correction fields in one update. The
// decrement is relative and clamped at zero in SQL so online increments
// landing between the corrector's read and write are never overwritten,
// and the WHERE clause skips rows the correction would not change.
func (s *PostgresStore) ApplyCorrection(ctx context.Context, id string, lastActive time.Time, clickDecrement int64) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_records", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	if clickDecrement < 0 {
		clickDecrement = 0
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE content_records
		SET clicks = GREATEST(0, clicks - $2),
			last_active = GREATEST(last_active, $3)
		WHERE id = $1
		  AND ((clicks > 0 AND $2 > 0) OR last_active < $3)`,
		id, clickDecrement, lastActive)
	if err != nil {
		return fmt.Errorf("failed to apply correction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		// Either a no-op correction or a missing record; distinguish so
		// the corrector can log deleted content and move on.
		var exists bool
		if scanErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM content_records WHERE id = $1)`, id,
		).Scan(&exists); scanErr != nil {
			return fmt.Errorf("failed to verify content record: %w", scanErr)
		}
		if !exists {
			return ErrRecordNotFound
		}
	}
	return nil
}
