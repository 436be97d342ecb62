package interaction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onnwee/lodestone/internal/content"
	"github.com/onnwee/lodestone/internal/ledger"
)

// Recorder records interactions: it validates the input, appends one
// immutable ledger event, and applies the event's online counter
// effect to the content record.
//
// The contract is fire-and-forget: callers get an error only for
// malformed input. Storage failures are retried once, then logged and
// swallowed, so interaction logging never degrades the user-facing
// request that triggered it.
type Recorder struct {
	store   content.Store
	ledger  ledger.Ledger
	logger  *slog.Logger
	metrics *Metrics
}

// NewRecorder creates a Recorder. Logger and metrics may be nil.
func NewRecorder(store content.Store, lg ledger.Ledger, logger *slog.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, ledger: lg, logger: logger, metrics: metrics}
}

// Record registers one interaction against a content record.
//
// The ledger append always happens, regardless of whether the counter
// update succeeds, so a failed counter mutation does not silently lose
// the interaction signal; the batch corrector reads the ledger, not
// the counters. Only CLICK and VIEW mutate counters online (clicks and
// impressions respectively); LIKE, SHARE, and BOUNCE are ledger-only.
func (r *Recorder) Record(ctx context.Context, contentID, userID string, eventType ledger.EventType, dwellTime int64) error {
	event := &ledger.Event{
		ContentID: contentID,
		UserID:    userID,
		Type:      eventType,
		DwellTime: dwellTime,
		CreatedAt: time.Now(),
	}
	if err := event.Validate(); err != nil {
		if r.metrics != nil {
			r.metrics.IncInteraction(string(eventType), StatusRejected)
		}
		return err
	}

	status := StatusRecorded

	if err := r.withRetry(func() error { return r.ledger.Append(ctx, event) }); err != nil {
		r.logger.Error("failed to append interaction event",
			"content_id", contentID,
			"type", eventType,
			"error", err)
		if r.metrics != nil {
			r.metrics.IncLedgerAppendFailure()
		}
		status = StatusDegraded
	}

	if err := r.applyCounter(ctx, contentID, eventType); err != nil {
		r.logger.Error("failed to update online counter",
			"content_id", contentID,
			"type", eventType,
			"error", err)
		if r.metrics != nil {
			r.metrics.IncCounterUpdateFailure()
		}
		status = StatusDegraded
	}

	if r.metrics != nil {
		r.metrics.IncInteraction(string(eventType), status)
	}
	return nil
}

// applyCounter applies the online counter effect for the event type.
func (r *Recorder) applyCounter(ctx context.Context, contentID string, eventType ledger.EventType) error {
	switch eventType {
	case ledger.EventClick:
		return r.withRetry(func() error { return r.store.IncrementClicks(ctx, contentID) })
	case ledger.EventView:
		return r.withRetry(func() error { return r.store.IncrementImpressions(ctx, contentID) })
	default:
		return nil
	}
}

// withRetry runs fn, retrying once on transient failure. Missing
// records are not retried; the ledger may legitimately reference
// content that was deleted after the interaction happened.
func (r *Recorder) withRetry(fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, content.ErrRecordNotFound) {
		return err
	}
	return fn()
}
