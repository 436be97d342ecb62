package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/lodestone/internal/tracing"
)

// PostgresLedger implements Ledger using PostgreSQL. Rows are insert-only;
// there is no update or delete path by design.
type PostgresLedger struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresLedger creates a new PostgreSQL-backed ledger.
func NewPostgresLedger(db *sql.DB, logger *slog.Logger) *PostgresLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLedger{db: db, logger: logger}
}

// Append validates and inserts one immutable event row.
func (l *PostgresLedger) Append(ctx context.Context, event *Event) (err error) {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "interaction_events", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var userID sql.NullString
	if event.UserID != "" {
		userID = sql.NullString{String: event.UserID, Valid: true}
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO interaction_events (id, content_id, user_id, event_type, dwell_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.ContentID, userID, string(event.Type), event.DwellTime, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append interaction event: %w", err)
	}
	return nil
}

// SelectWindow returns one page of events inside [start, end), ordered
// by (created_at, id) ascending for keyset pagination.
func (l *PostgresLedger) SelectWindow(ctx context.Context, start, end time.Time, cursor *Cursor, limit int) (events []Event, next *Cursor, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "interaction_events", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, content_id, COALESCE(user_id, ''), event_type, dwell_time, created_at
		FROM interaction_events
		WHERE created_at >= $1 AND created_at < $2`
	args := []interface{}{start, end}

	if cursor != nil {
		query += ` AND (created_at, id) > ($3, $4)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC, id ASC LIMIT %d`, limit+1)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query interaction window: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			l.logger.Error("failed to close interaction rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		var ev Event
		var eventType string
		if err = rows.Scan(&ev.ID, &ev.ContentID, &ev.UserID, &eventType, &ev.DwellTime, &ev.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan interaction event: %w", err)
		}
		ev.Type = EventType(eventType)
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate interaction events: %w", err)
	}

	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		next = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return events, next, nil
}
