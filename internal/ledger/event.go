// Package ledger provides the append-only interaction event log that
// feeds the batch ranking corrector.
package ledger

import (
	"errors"
	"time"
)

// Validation and lookup errors for ledger operations.
var (
	ErrMissingContentID = errors.New("interaction event requires a content id")
	ErrInvalidEventType = errors.New("unknown interaction event type")
	ErrNegativeDwell    = errors.New("dwell time must not be negative")
)

// EventType identifies the kind of user interaction.
type EventType string

// Interaction event types.
const (
	EventView   EventType = "VIEW"
	EventClick  EventType = "CLICK"
	EventLike   EventType = "LIKE"
	EventShare  EventType = "SHARE"
	EventBounce EventType = "BOUNCE"
)

// ValidEventType reports whether t is a known interaction type.
func ValidEventType(t EventType) bool {
	switch t {
	case EventView, EventClick, EventLike, EventShare, EventBounce:
		return true
	}
	return false
}

// Event is one user interaction against a content record. Events are
// append-only: once written they are never mutated or deleted, and may
// outlive the content they reference.
type Event struct {
	ID        string    `json:"id"`
	ContentID string    `json:"content_id"`
	UserID    string    `json:"user_id,omitempty"` // empty for anonymous interactions
	Type      EventType `json:"type"`
	DwellTime int64     `json:"dwell_time"` // seconds
	CreatedAt time.Time `json:"created_at"`
}

// Validate rejects malformed events at the boundary so they never
// reach the ledger.
func (e *Event) Validate() error {
	if e.ContentID == "" {
		return ErrMissingContentID
	}
	if !ValidEventType(e.Type) {
		return ErrInvalidEventType
	}
	if e.DwellTime < 0 {
		return ErrNegativeDwell
	}
	return nil
}
