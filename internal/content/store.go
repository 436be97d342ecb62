package content

import (
	"context"
	"sync"
	"time"
)

// Store defines the persistence operations the ranking subsystem needs
// for content records. All counter mutations are expressed as relative
// adjustments so concurrent writers never lose updates; implementations
// must apply them atomically, never via application-level
// read-modify-write.
type Store interface {
	// Create inserts a new record. Returns ErrRecordExists on duplicate id.
	Create(ctx context.Context, rec *Record) error

	// GetByID retrieves a record by id. Returns ErrRecordNotFound if absent.
	GetByID(ctx context.Context, id string) (*Record, error)

	// IncrementClicks atomically adds one to the record's click counter.
	IncrementClicks(ctx context.Context, id string) error

	// IncrementImpressions atomically adds one to the record's impressions.
	IncrementImpressions(ctx context.Context, id string) error

	// ApplyCorrection applies a batch correction in a single atomic
	// update: clicks is decremented by clickDecrement and clamped at
	// zero, and lastActive is advanced to the given time if it is newer
	// than the stored value. A correction that would change nothing must
	// not touch the row. Returns ErrRecordNotFound if the record is gone.
	ApplyCorrection(ctx context.Context, id string, lastActive time.Time, clickDecrement int64) error
}

// MemoryStore is an in-memory Store implementation. Thread-safe via
// RWMutex; reads return deep copies to prevent external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Create inserts a new record.
func (s *MemoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return ErrRecordExists
	}

	cp := cloneRecord(rec)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if cp.LastActive.IsZero() {
		cp.LastActive = cp.CreatedAt
	}
	s.records[rec.ID] = cp
	return nil
}

// GetByID retrieves a record by id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// IncrementClicks atomically adds one to the record's click counter.
func (s *MemoryStore) IncrementClicks(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Clicks++
	return nil
}

// IncrementImpressions atomically adds one to the record's impressions.
func (s *MemoryStore) IncrementImpressions(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Impressions++
	return nil
}

// ApplyCorrection applies a batch correction under the store lock.
// Clicks never go below zero and lastActive never moves backward.
func (s *MemoryStore) ApplyCorrection(ctx context.Context, id string, lastActive time.Time, clickDecrement int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}

	if clickDecrement > 0 && rec.Clicks > 0 {
		rec.Clicks -= clickDecrement
		if rec.Clicks < 0 {
			rec.Clicks = 0
		}
	}
	if lastActive.After(rec.LastActive) {
		rec.LastActive = lastActive
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec *Record) *Record {
	cp := *rec
	if rec.Tags != nil {
		cp.Tags = make([]string, len(rec.Tags))
		copy(cp.Tags, rec.Tags)
	}
	return &cp
}
