package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cursor marks a position in the (created_at, id) keyset ordering used
// for paginated window reads. The zero value starts from the beginning
// of the window.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Ledger defines the append-only interaction log. SelectWindow uses
// keyset pagination so callers can bound memory on high-traffic
// windows instead of loading an unbounded result set.
type Ledger interface {
	// Append validates and writes one immutable event. The event id is
	// generated when empty; CreatedAt defaults to now.
	Append(ctx context.Context, event *Event) error

	// SelectWindow returns up to limit events with
	// start <= created_at < end, ordered by (created_at, id) ascending,
	// strictly after the cursor position. A nil cursor starts from the
	// beginning of the window. Returns the events and the cursor for
	// the next page (nil when the window is exhausted).
	SelectWindow(ctx context.Context, start, end time.Time, cursor *Cursor, limit int) ([]Event, *Cursor, error)
}

// MemoryLedger is an in-memory Ledger implementation. Thread-safe via
// RWMutex.
type MemoryLedger struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Append validates and stores one event.
func (l *MemoryLedger) Append(ctx context.Context, event *Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ev := *event
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	l.events = append(l.events, ev)

	// Reflect generated fields back to the caller.
	event.ID = ev.ID
	event.CreatedAt = ev.CreatedAt
	return nil
}

// SelectWindow returns one page of events inside [start, end).
func (l *MemoryLedger) SelectWindow(ctx context.Context, start, end time.Time, cursor *Cursor, limit int) ([]Event, *Cursor, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var candidates []Event
	for _, ev := range l.events {
		if ev.CreatedAt.Before(start) || !ev.CreatedAt.Before(end) {
			continue
		}
		if cursor != nil {
			if ev.CreatedAt.Before(cursor.CreatedAt) {
				continue
			}
			if ev.CreatedAt.Equal(cursor.CreatedAt) && ev.ID <= cursor.ID {
				continue
			}
		}
		candidates = append(candidates, ev)
	}

	// Sort by (created_at, id) ascending for stable pagination.
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})

	if limit > 0 && len(candidates) > limit {
		page := candidates[:limit]
		last := page[len(page)-1]
		return page, &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return candidates, nil, nil
}

// Len returns the number of stored events.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
